package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/caphub/caphub-go/capability"
	"github.com/caphub/caphub-go/schema"
	"github.com/caphub/caphub-go/sessions"
)

func textHandler(s string) Handler {
	return func(ctx context.Context, sess *sessions.Context, args capability.Arguments) ([]capability.ContentBlock, error) {
		return capability.TextContent(s), nil
	}
}

func toolDef(name string) capability.Definition {
	return capability.Definition{
		Kind:        capability.KindTool,
		Name:        name,
		Description: "test tool",
		InputSchema: &capability.Schema{Type: "object", Properties: map[string]*capability.Schema{}},
	}
}

func resourceDef(pattern string) capability.Definition {
	return capability.Definition{
		Kind:        capability.KindResource,
		Name:        pattern,
		Description: "test resource",
		URIPattern:  pattern,
		MimeType:    "text/plain",
	}
}

func TestRegister_Validation(t *testing.T) {
	r := New()

	if err := r.Register(capability.Definition{Kind: "gadget", Name: "x", Description: "d"}, textHandler("x")); !errors.Is(err, ErrInvalidDefinition) {
		t.Fatalf("expected ErrInvalidDefinition for unknown kind, got %v", err)
	}
	if err := r.Register(capability.Definition{Kind: capability.KindTool, Description: "d"}, textHandler("x")); !errors.Is(err, ErrInvalidDefinition) {
		t.Fatalf("expected ErrInvalidDefinition for empty name, got %v", err)
	}
	if err := r.Register(capability.Definition{Kind: capability.KindTool, Name: "x"}, textHandler("x")); !errors.Is(err, ErrInvalidDefinition) {
		t.Fatalf("expected ErrInvalidDefinition for missing description, got %v", err)
	}
	if err := r.Register(toolDef("x"), nil); !errors.Is(err, ErrInvalidDefinition) {
		t.Fatalf("expected ErrInvalidDefinition for nil handler, got %v", err)
	}
}

func TestRegister_MalformedSchemaFailsAtRegistration(t *testing.T) {
	r := New()
	def := toolDef("bad")
	def.InputSchema = &capability.Schema{Type: "object", Properties: map[string]*capability.Schema{
		"x": {Type: "decimal"},
	}}
	err := r.Register(def, textHandler("x"))
	if err == nil {
		t.Fatalf("expected registration failure")
	}
	var serr *schema.SchemaError
	if !errors.As(err, &serr) {
		t.Fatalf("expected *schema.SchemaError, got %T: %v", err, err)
	}
	// The offending capability must not be partially registered.
	if _, ok := r.Resolve(capability.KindTool, "bad"); ok {
		t.Fatalf("malformed capability visible after failed registration")
	}
	if got := len(r.List(capability.KindTool)); got != 0 {
		t.Fatalf("expected empty listing, got %d entries", got)
	}
}

func TestRegister_BadMimeTypeRejected(t *testing.T) {
	r := New()
	def := resourceDef("status://server")
	def.MimeType = "not a mime type"
	if err := r.Register(def, textHandler("x")); !errors.Is(err, ErrInvalidDefinition) {
		t.Fatalf("expected ErrInvalidDefinition, got %v", err)
	}
}

func TestRegister_ReplacesAtomically(t *testing.T) {
	r := New()
	if err := r.Register(toolDef("echo"), textHandler("first")); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Register(toolDef("echo"), textHandler("second")); err != nil {
		t.Fatalf("re-register: %v", err)
	}

	res, ok := r.Resolve(capability.KindTool, "echo")
	if !ok {
		t.Fatalf("resolve failed")
	}
	content, err := res.Entry.Handler(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if content[0].Text != "second" {
		t.Fatalf("expected replacement handler, got %q", content[0].Text)
	}
	if got := len(r.List(capability.KindTool)); got != 1 {
		t.Fatalf("expected 1 listed tool after replacement, got %d", got)
	}
}

func TestResolve_UnknownReturnsNotFound(t *testing.T) {
	r := New()
	if _, ok := r.Resolve(capability.KindTool, "nope"); ok {
		t.Fatalf("expected not found")
	}
	if _, ok := r.Resolve(capability.KindResource, "status://nope"); ok {
		t.Fatalf("expected not found")
	}
}

func TestResolve_LiteralBeatsTemplate(t *testing.T) {
	r := New()
	if err := r.Register(resourceDef("items/{id}"), textHandler("template")); err != nil {
		t.Fatalf("register template: %v", err)
	}
	if err := r.Register(resourceDef("items/special"), textHandler("literal")); err != nil {
		t.Fatalf("register literal: %v", err)
	}

	res, ok := r.Resolve(capability.KindResource, "items/special")
	if !ok {
		t.Fatalf("resolve failed")
	}
	if res.Entry.Definition.URIPattern != "items/special" {
		t.Fatalf("expected literal to win, got %q", res.Entry.Definition.URIPattern)
	}
	if len(res.Params) != 0 {
		t.Fatalf("literal match should carry no params, got %v", res.Params)
	}

	res, ok = r.Resolve(capability.KindResource, "items/42")
	if !ok {
		t.Fatalf("template resolve failed")
	}
	if res.Entry.Definition.URIPattern != "items/{id}" {
		t.Fatalf("expected template match, got %q", res.Entry.Definition.URIPattern)
	}
	if got := res.Params["id"]; got != "42" {
		t.Fatalf("expected id=42, got %v", got)
	}
	if res.URI != "items/42" {
		t.Fatalf("expected concrete URI, got %q", res.URI)
	}
}

func TestList_InsertionOrderAndIdempotence(t *testing.T) {
	r := New()
	names := []string{"c", "a", "b"}
	for _, n := range names {
		if err := r.Register(toolDef(n), textHandler(n)); err != nil {
			t.Fatalf("register %s: %v", n, err)
		}
	}

	first := r.List(capability.KindTool)
	second := r.List(capability.KindTool)
	if len(first) != 3 || len(second) != 3 {
		t.Fatalf("expected 3 entries, got %d and %d", len(first), len(second))
	}
	for i, n := range names {
		if first[i].Name != n {
			t.Fatalf("expected insertion order %v, got %v at %d", names, first[i].Name, i)
		}
		if first[i].Name != second[i].Name {
			t.Fatalf("list not idempotent at %d: %q vs %q", i, first[i].Name, second[i].Name)
		}
	}

	// Replacement keeps the original position.
	if err := r.Register(toolDef("a"), textHandler("a2")); err != nil {
		t.Fatalf("re-register: %v", err)
	}
	after := r.List(capability.KindTool)
	if after[1].Name != "a" {
		t.Fatalf("expected a to keep position 1, got %v", after)
	}
}

func TestListPage_Cursors(t *testing.T) {
	r := New()
	r.SetPageSize(2)
	for _, n := range []string{"a", "b", "c"} {
		if err := r.Register(toolDef(n), textHandler(n)); err != nil {
			t.Fatalf("register: %v", err)
		}
	}

	page := r.ListPage(capability.KindTool, nil)
	if len(page.Items) != 2 || page.NextCursor == nil {
		t.Fatalf("expected full first page with cursor, got %d items cursor=%v", len(page.Items), page.NextCursor)
	}
	page = r.ListPage(capability.KindTool, page.NextCursor)
	if len(page.Items) != 1 || page.NextCursor != nil {
		t.Fatalf("expected final page of 1, got %d items cursor=%v", len(page.Items), page.NextCursor)
	}
	if page.Items[0].Name != "c" {
		t.Fatalf("expected c on final page, got %q", page.Items[0].Name)
	}
}

func TestRemove(t *testing.T) {
	r := New()
	if err := r.Register(resourceDef("items/{id}"), textHandler("t")); err != nil {
		t.Fatalf("register: %v", err)
	}
	if !r.Remove(capability.KindResource, "items/{id}") {
		t.Fatalf("expected removal")
	}
	if r.Remove(capability.KindResource, "items/{id}") {
		t.Fatalf("expected idempotent removal to report false")
	}
	if _, ok := r.Resolve(capability.KindResource, "items/42"); ok {
		t.Fatalf("removed template still resolves")
	}
}

func TestSubscriber_SignalsOnChange(t *testing.T) {
	r := New()
	ch := r.Subscriber()
	if err := r.Register(toolDef("x"), textHandler("x")); err != nil {
		t.Fatalf("register: %v", err)
	}
	select {
	case <-ch:
	default:
		t.Fatalf("expected change signal after registration")
	}
}
