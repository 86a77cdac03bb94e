// Package mcp exposes the content tree to AI clients over stdio using
// newline-delimited JSON-RPC.
package mcp

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sort"
	"sync"
)

// Server runs an MCP session over an input/output pair.
type Server struct {
	resources map[string]*Resource
	tools     map[string]*Tool
	input     io.Reader
	output    io.Writer
	mu        sync.RWMutex
	shutdown  chan struct{}
}

// NewServer creates an MCP server reading from input and writing to output.
func NewServer(input io.Reader, output io.Writer) *Server {
	return &Server{
		resources: make(map[string]*Resource),
		tools:     make(map[string]*Tool),
		input:     input,
		output:    output,
		shutdown:  make(chan struct{}),
	}
}

// RegisterResource adds a resource to the server.
func (s *Server) RegisterResource(r *Resource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources[r.URI] = r
}

// RegisterTool adds a tool to the server.
func (s *Server) RegisterTool(t *Tool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tools[t.Name] = t
}

// Start processes messages until EOF or Shutdown.
func (s *Server) Start() error {
	scanner := bufio.NewScanner(s.input)
	// Content trees can be large
	scanner.Buffer(make([]byte, 1024*1024), 10*1024*1024)

	for scanner.Scan() {
		select {
		case <-s.shutdown:
			return nil
		default:
		}

		line := scanner.Text()
		if line == "" {
			continue
		}

		var msg Message
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			log.Printf("[mcp] Failed to parse message: %v", err)
			continue
		}

		response := s.handleMessage(&msg)
		if response != nil {
			s.send(response)
		}
	}

	return scanner.Err()
}

// Shutdown stops the server.
func (s *Server) Shutdown() {
	close(s.shutdown)
}

func (s *Server) handleMessage(msg *Message) *Message {
	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "resources/list":
		return s.handleListResources(msg)
	case "resources/read":
		return s.handleReadResource(msg)
	case "tools/list":
		return s.handleListTools(msg)
	case "tools/call":
		return s.handleToolCall(msg)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	default:
		return s.errorResponse(msg.ID, -32601, "Method not found")
	}
}

func (s *Server) handleInitialize(msg *Message) *Message {
	result := InitializeResult{
		ProtocolVersion: "2024-11-05",
		Capabilities: ServerCapabilities{
			Resources: &ResourceCapabilities{},
			Tools:     &ToolCapabilities{},
		},
		ServerInfo: ServerInfo{
			Name:    "folio",
			Version: "0.1.0",
		},
	}
	return s.successResponse(msg.ID, result)
}

func (s *Server) handleListResources(msg *Message) *Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resources := make([]ResourceInfo, 0, len(s.resources))
	for _, r := range s.resources {
		resources = append(resources, ResourceInfo{
			URI:         r.URI,
			Name:        r.Name,
			Description: r.Description,
			MimeType:    r.MimeType,
		})
	}
	sort.Slice(resources, func(i, j int) bool { return resources[i].URI < resources[j].URI })

	return s.successResponse(msg.ID, ListResourcesResult{Resources: resources})
}

func (s *Server) handleReadResource(msg *Message) *Message {
	var params ReadResourceParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.errorResponse(msg.ID, -32602, "Invalid params")
	}

	s.mu.RLock()
	resource, ok := s.resources[params.URI]
	s.mu.RUnlock()

	if !ok {
		return s.errorResponse(msg.ID, -32602, "Resource not found")
	}

	value, err := resource.Handler()
	if err != nil {
		return s.errorResponse(msg.ID, -32603, err.Error())
	}

	valueJSON, _ := json.Marshal(value)
	return s.successResponse(msg.ID, ReadResourceResult{
		Contents: []ResourceContent{
			{
				URI:      params.URI,
				MimeType: resource.MimeType,
				Text:     string(valueJSON),
			},
		},
	})
}

func (s *Server) handleListTools(msg *Message) *Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tools := make([]ToolInfo, 0, len(s.tools))
	for _, t := range s.tools {
		tools = append(tools, ToolInfo{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		})
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })

	return s.successResponse(msg.ID, ListToolsResult{Tools: tools})
}

func (s *Server) handleToolCall(msg *Message) *Message {
	var params ToolCallParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.errorResponse(msg.ID, -32602, "Invalid params")
	}

	s.mu.RLock()
	tool, ok := s.tools[params.Name]
	s.mu.RUnlock()

	if !ok {
		return s.errorResponse(msg.ID, -32602, "Tool not found")
	}

	result, err := tool.Handler(params.Arguments)
	if err != nil {
		return s.successResponse(msg.ID, ToolCallResult{
			Content: []ToolContent{
				{Type: "text", Text: fmt.Sprintf("Error: %v", err)},
			},
			IsError: true,
		})
	}

	resultJSON, _ := json.Marshal(result)
	return s.successResponse(msg.ID, ToolCallResult{
		Content: []ToolContent{
			{Type: "text", Text: string(resultJSON)},
		},
	})
}

func (s *Server) successResponse(id interface{}, result interface{}) *Message {
	resultJSON, _ := json.Marshal(result)
	return &Message{
		JSONRPC: "2.0",
		ID:      id,
		Result:  resultJSON,
	}
}

func (s *Server) errorResponse(id interface{}, code int, message string) *Message {
	return &Message{
		JSONRPC: "2.0",
		ID:      id,
		Error: &ErrorObject{
			Code:    code,
			Message: message,
		},
	}
}

func (s *Server) send(msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(s.output, "%s\n", data)
	return err
}
