package schema

import (
	"fmt"

	"github.com/caphub/caphub-go/capability"
	"github.com/invopop/jsonschema"
)

// Reflect derives a declarative schema from a Go struct type A using
// invopop/jsonschema. Definitions are inlined and the struct is expanded at
// the root so the result maps cleanly onto the simplified schema tree.
//
// Only object-shaped types reflect usefully; any other type yields an empty
// object schema that accepts all arguments.
func Reflect[A any]() *capability.Schema {
	r := &jsonschema.Reflector{
		DoNotReference: true, // inline defs
		ExpandedStruct: true, // put struct at root
	}
	s := r.Reflect(new(A))
	if s == nil || s.Type != "object" {
		return &capability.Schema{Type: "object", Properties: map[string]*capability.Schema{}}
	}
	return fromReflected(s)
}

// fromReflected recursively maps a jsonschema.Schema node onto the
// simplified capability.Schema tree.
func fromReflected(s *jsonschema.Schema) *capability.Schema {
	if s == nil {
		return nil
	}
	out := &capability.Schema{
		Type:        s.Type,
		Description: s.Description,
	}
	for _, e := range s.Enum {
		if str, ok := e.(string); ok {
			out.Enum = append(out.Enum, str)
		} else {
			out.Enum = append(out.Enum, fmt.Sprint(e))
		}
	}
	if s.Type == "array" && s.Items != nil {
		out.Items = fromReflected(s.Items)
	}
	if s.Type == "object" {
		out.Properties = make(map[string]*capability.Schema)
		if s.Properties != nil {
			for el := s.Properties.Oldest(); el != nil; el = el.Next() {
				out.Properties[el.Key] = fromReflected(el.Value)
			}
		}
		if len(s.Required) > 0 {
			out.Required = append(out.Required, s.Required...)
		}
	}
	return out
}
