// Package protocol defines the JSON messages exchanged on the live channel
// and the /api endpoints.
package protocol

import (
	"encoding/json"
)

// MessageType identifies the type of protocol message.
type MessageType string

const (
	// Editor operations (client -> server)
	MsgBeginEdit      MessageType = "beginEdit"
	MsgSetField       MessageType = "setField"
	MsgAddListItem    MessageType = "addListItem"
	MsgRemoveListItem MessageType = "removeListItem"
	MsgCommit         MessageType = "commit"
	MsgDiscard        MessageType = "discard"

	// Gallery reveal reporting (client -> server)
	MsgReveal     MessageType = "reveal"
	MsgRevealDone MessageType = "revealDone"

	// Server-pushed messages
	MsgContent MessageType = "content"
	MsgError   MessageType = "error"
)

// Message is the base protocol message structure.
type Message struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// BeginEditMessage opens an edit session for the record at a path.
type BeginEditMessage struct {
	Path     string          `json:"path"`
	Defaults json.RawMessage `json:"defaults,omitempty"` // starting record for appends
}

// SetFieldMessage replaces one field of the open draft.
type SetFieldMessage struct {
	Field string          `json:"field"`
	Value json.RawMessage `json:"value"`
}

// ListItemMessage addresses a list nested inside the open draft.
type ListItemMessage struct {
	Path    string          `json:"path"`
	Index   int             `json:"index,omitempty"`
	Default json.RawMessage `json:"default,omitempty"`
}

// RevealMessage reports an item crossing the proximity threshold, or the
// outcome of its media fetch.
type RevealMessage struct {
	ItemID string `json:"itemId"`
	OK     bool   `json:"ok,omitempty"`
}

// ContentMessage is the broadcast sent after a commit or reload: the new
// tree and its revision.
type ContentMessage struct {
	Revision int64           `json:"revision"`
	Tree     json.RawMessage `json:"tree"`
}

// ErrorMessage is an error response with a one-word code.
type ErrorMessage struct {
	Code        string `json:"code"`        // e.g. "path-not-found", "validation", "unauthorized"
	Description string `json:"description"` // Human-readable error description
}

// Response wraps handler responses (primarily for error reporting).
type Response struct {
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// BatchWrapper wraps a batch of messages with a userEvent flag. Scroll
// handlers batch reveal reports; user-triggered batches are processed
// immediately instead of debounced.
type BatchWrapper struct {
	UserEvent bool      `json:"userEvent"`
	Messages  []Message `json:"messages"`
}

// ParseMessage parses a raw JSON message into a typed message.
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ParseMessages parses raw JSON that may be a single message, a batched
// array, or a batch wrapper. Returns messages and the userEvent flag.
func ParseMessages(data []byte) ([]*Message, bool, error) {
	if len(data) == 0 {
		return nil, false, nil
	}

	switch data[0] {
	case '[':
		var msgs []Message
		if err := json.Unmarshal(data, &msgs); err != nil {
			return nil, false, err
		}
		result := make([]*Message, len(msgs))
		for i := range msgs {
			result[i] = &msgs[i]
		}
		return result, false, nil

	case '{':
		// Could be wrapper or single message - try wrapper first
		var wrapper BatchWrapper
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, false, err
		}
		if len(wrapper.Messages) > 0 {
			result := make([]*Message, len(wrapper.Messages))
			for i := range wrapper.Messages {
				result[i] = &wrapper.Messages[i]
			}
			return result, wrapper.UserEvent, nil
		}

		msg, err := ParseMessage(data)
		if err != nil {
			return nil, false, err
		}
		return []*Message{msg}, false, nil

	default:
		return nil, false, nil
	}
}

// NewMessage creates a new message with the given type and data.
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var raw json.RawMessage
	if data != nil {
		var err error
		raw, err = json.Marshal(data)
		if err != nil {
			return nil, err
		}
	}
	return &Message{
		Type: msgType,
		Data: raw,
	}, nil
}

// Encode serializes a message to JSON.
func (m *Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}
