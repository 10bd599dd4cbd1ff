package capability

// Kind discriminates the three capability families the dispatcher knows
// how to route.
type Kind string

const (
	KindTool     Kind = "tool"
	KindResource Kind = "resource"
	KindPrompt   Kind = "prompt"
)

// IsValid reports whether k is one of the defined capability kinds.
func (k Kind) IsValid() bool {
	switch k {
	case KindTool, KindResource, KindPrompt:
		return true
	default:
		return false
	}
}

// Schema is a declarative, JSON-Schema-like description of accepted
// arguments. It is a plain tree; compilation into a runtime validator
// happens in the schema package at registration time.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

// Definition describes one registered capability. The identity key is Name
// for tools and prompts and URIPattern for resources; the key is unique per
// kind for the lifetime of a registry.
type Definition struct {
	Kind        Kind    `json:"kind"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	InputSchema *Schema `json:"inputSchema,omitempty"`

	// Resource-only fields. URIPattern is either a literal URI or an RFC 6570
	// template with named placeholders (e.g. "items/{id}").
	URIPattern string `json:"uriPattern,omitempty"`
	MimeType   string `json:"mimeType,omitempty"`
}

// Key returns the identity of the definition within its kind.
func (d Definition) Key() string {
	if d.Kind == KindResource {
		return d.URIPattern
	}
	return d.Name
}

// Arguments is the decoded argument payload presented to validators and
// handlers. For resource invocations it additionally carries the values
// extracted from URI template placeholders.
type Arguments map[string]any

// ContentBlock is one typed part of a result payload.
type ContentBlock struct {
	Type string `json:"type"`
	// For text content
	Text string `json:"text,omitempty"`
	// For binary content (base64)
	Data     string `json:"data,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	// For resource-linked content
	URI string `json:"uri,omitempty"`
}

// TextContent builds a single-block text payload.
func TextContent(s string) []ContentBlock {
	return []ContentBlock{{Type: "text", Text: s}}
}
