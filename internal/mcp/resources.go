package mcp

// Resource represents an MCP resource.
type Resource struct {
	URI         string
	Name        string
	Description string
	MimeType    string
	Handler     func() (interface{}, error)
}

// NewResource creates a new resource definition.
func NewResource(uri, name, description, mimeType string) *Resource {
	return &Resource{
		URI:         uri,
		Name:        name,
		Description: description,
		MimeType:    mimeType,
	}
}

// WithHandler sets the resource handler.
func (r *Resource) WithHandler(handler func() (interface{}, error)) *Resource {
	r.Handler = handler
	return r
}

// ContentResource is the full content tree.
func ContentResource() *Resource {
	return NewResource(
		"folio://content",
		"Content Tree",
		"The current committed content tree with its revision",
		"application/json",
	)
}

// GalleryResource lists a collection's items and category vocabulary.
func GalleryResource(collection string) *Resource {
	return NewResource(
		"folio://gallery/"+collection,
		"Gallery: "+collection,
		"Items and category vocabulary for the "+collection+" collection",
		"application/json",
	)
}
