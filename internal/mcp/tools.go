package mcp

// Tool represents an MCP tool.
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]interface{}
	Handler     func(args map[string]interface{}) (interface{}, error)
}

// NewTool creates a new tool definition.
func NewTool(name, description string, schema map[string]interface{}) *Tool {
	return &Tool{
		Name:        name,
		Description: description,
		InputSchema: schema,
	}
}

// WithHandler sets the tool handler.
func (t *Tool) WithHandler(handler func(args map[string]interface{}) (interface{}, error)) *Tool {
	t.Handler = handler
	return t
}

// Schema helper for building JSON schemas.
type Schema map[string]interface{}

// ObjectSchema creates an object schema.
func ObjectSchema(properties Schema, required []string) Schema {
	return Schema{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

// StringProp creates a string property.
func StringProp(description string) Schema {
	return Schema{
		"type":        "string",
		"description": description,
	}
}

// IntProp creates an integer property.
func IntProp(description string) Schema {
	return Schema{
		"type":        "integer",
		"description": description,
	}
}

// AnyProp creates a property with no type constraint.
func AnyProp(description string) Schema {
	return Schema{
		"description": description,
	}
}

// GetContentTool reads the content tree or a subtree.
func GetContentTool() *Tool {
	return NewTool(
		"get_content",
		"Read the content tree, or a subtree addressed by a dotted path like projects.0.title",
		ObjectSchema(Schema{
			"path": StringProp("Dotted path into the tree (empty for the whole tree)"),
		}, []string{}),
	)
}

// BeginEditTool opens an edit session at a path.
func BeginEditTool() *Tool {
	return NewTool(
		"begin_edit",
		"Open an edit session at a path; use a trailing + to append a new item to a list",
		ObjectSchema(Schema{
			"path": StringProp("Dotted path to the record to edit, or list.+ to append"),
		}, []string{"path"}),
	)
}

// SetFieldTool sets a field on the open draft.
func SetFieldTool() *Tool {
	return NewTool(
		"set_field",
		"Set a field on the open draft",
		ObjectSchema(Schema{
			"field": StringProp("Field name"),
			"value": AnyProp("New value"),
		}, []string{"field", "value"}),
	)
}

// AddListItemTool appends to a list inside the draft.
func AddListItemTool() *Tool {
	return NewTool(
		"add_list_item",
		"Append an item to a list field of the open draft",
		ObjectSchema(Schema{
			"path":    StringProp("Path to the list field within the draft"),
			"default": AnyProp("Value for the new item (optional)"),
		}, []string{"path"}),
	)
}

// RemoveListItemTool removes from a list inside the draft.
func RemoveListItemTool() *Tool {
	return NewTool(
		"remove_list_item",
		"Remove an item from a list field of the open draft",
		ObjectSchema(Schema{
			"path":  StringProp("Path to the list field within the draft"),
			"index": IntProp("Index to remove"),
		}, []string{"path", "index"}),
	)
}

// CommitTool commits the open draft.
func CommitTool() *Tool {
	return NewTool(
		"commit",
		"Validate and commit the open draft into the content tree",
		ObjectSchema(Schema{}, []string{}),
	)
}

// DiscardTool discards the open draft.
func DiscardTool() *Tool {
	return NewTool(
		"discard",
		"Discard the open draft without committing",
		ObjectSchema(Schema{}, []string{}),
	)
}

// ListCommentsTool lists comments for an item.
func ListCommentsTool() *Tool {
	return NewTool(
		"list_comments",
		"List visitor comments for a gallery item",
		ObjectSchema(Schema{
			"itemId": StringProp("Gallery item ID"),
		}, []string{"itemId"}),
	)
}

// AddCommentTool appends a comment to an item.
func AddCommentTool() *Tool {
	return NewTool(
		"add_comment",
		"Append a visitor comment to a gallery item",
		ObjectSchema(Schema{
			"itemId":  StringProp("Gallery item ID"),
			"name":    StringProp("Commenter name (optional)"),
			"message": StringProp("Comment text"),
		}, []string{"itemId", "message"}),
	)
}
