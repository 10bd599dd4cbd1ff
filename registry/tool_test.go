package registry

import (
	"context"
	"testing"

	"github.com/caphub/caphub-go/capability"
	"github.com/caphub/caphub-go/sessions"
)

type greetArgs struct {
	Name  string `json:"name"`
	Shout bool   `json:"shout,omitempty"`
}

func TestNewTool_ReflectsSchemaAndBindsArgs(t *testing.T) {
	var got greetArgs
	tool := NewTool[greetArgs]("greet",
		func(ctx context.Context, sess *sessions.Context, args greetArgs) ([]capability.ContentBlock, error) {
			got = args
			return capability.TextContent("hello " + args.Name), nil
		},
		WithDescription("Greets the named caller."),
	)

	if tool.Definition.Kind != capability.KindTool || tool.Definition.Name != "greet" {
		t.Fatalf("unexpected definition: %+v", tool.Definition)
	}
	if tool.Definition.Description != "Greets the named caller." {
		t.Fatalf("description not applied: %q", tool.Definition.Description)
	}
	s := tool.Definition.InputSchema
	if s == nil || s.Type != "object" || s.Properties["name"] == nil {
		t.Fatalf("expected reflected object schema, got %+v", s)
	}
	if len(s.Required) != 1 || s.Required[0] != "name" {
		t.Fatalf("expected required [name], got %v", s.Required)
	}

	content, err := tool.Handler(context.Background(), nil, capability.Arguments{"name": "ada", "shout": true})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if content[0].Text != "hello ada" {
		t.Fatalf("unexpected content: %q", content[0].Text)
	}
	if got.Name != "ada" || !got.Shout {
		t.Fatalf("arguments not bound: %+v", got)
	}
}

func TestNewTool_RegistersAndValidates(t *testing.T) {
	r := New()
	tool := NewTool[greetArgs]("greet",
		func(ctx context.Context, sess *sessions.Context, args greetArgs) ([]capability.ContentBlock, error) {
			return capability.TextContent(args.Name), nil
		},
		WithDescription("Greets the named caller."),
	)
	if err := r.RegisterTool(tool); err != nil {
		t.Fatalf("register: %v", err)
	}
	res, ok := r.Resolve(capability.KindTool, "greet")
	if !ok {
		t.Fatalf("resolve failed")
	}
	if err := res.Entry.Validator.Validate(capability.Arguments{}); err == nil {
		t.Fatalf("expected validation failure for missing name")
	}
	if err := res.Entry.Validator.Validate(capability.Arguments{"name": "ada"}); err != nil {
		t.Fatalf("expected accept, got %v", err)
	}
}
