package registry

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/caphub/caphub-go/capability"
	"github.com/caphub/caphub-go/schema"
	"github.com/caphub/caphub-go/sessions"
)

// Tool pairs a tool definition with its handler, ready for registration.
type Tool struct {
	Definition capability.Definition
	Handler    Handler
}

// ToolOption configures NewTool behavior.
type ToolOption func(*toolConfig)

type toolConfig struct {
	description string
}

// WithDescription sets the tool description used in listings.
func WithDescription(desc string) ToolOption {
	return func(c *toolConfig) { c.description = desc }
}

// NewTool constructs a Tool from a typed args struct A. The declarative
// schema is reflected from A, so authors never write imperative validation
// code; the registry compiles the schema into the validator that guards fn.
func NewTool[A any](name string, fn func(ctx context.Context, sess *sessions.Context, args A) ([]capability.ContentBlock, error), opts ...ToolOption) Tool {
	cfg := toolConfig{description: name}
	for _, opt := range opts {
		opt(&cfg)
	}
	def := capability.Definition{
		Kind:        capability.KindTool,
		Name:        name,
		Description: cfg.description,
		InputSchema: schema.Reflect[A](),
	}
	handler := func(ctx context.Context, sess *sessions.Context, args capability.Arguments) ([]capability.ContentBlock, error) {
		var a A
		if len(args) > 0 {
			// Arguments were already validated against the reflected schema;
			// the round-trip binds them onto the typed struct.
			b, err := json.Marshal(args)
			if err != nil {
				return nil, fmt.Errorf("encode arguments: %w", err)
			}
			if err := json.Unmarshal(b, &a); err != nil {
				return nil, fmt.Errorf("decode arguments: %w", err)
			}
		}
		return fn(ctx, sess, a)
	}
	return Tool{Definition: def, Handler: handler}
}

// RegisterTool registers a typed tool built with NewTool.
func (r *Registry) RegisterTool(t Tool) error {
	return r.Register(t.Definition, t.Handler)
}
