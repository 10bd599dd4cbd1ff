package fsresources

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/caphub/caphub-go/capability"
	"github.com/caphub/caphub-go/registry"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestProvider_RegistersExistingFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "readme.txt"), "hello")
	writeFile(t, filepath.Join(dir, "sub", "data.json"), `{"a":1}`)

	reg := registry.New()
	p, err := New(reg, dir, WithBaseURI("fs://workspace"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	defs := reg.List(capability.KindResource)
	if len(defs) != 2 {
		t.Fatalf("expected 2 resources, got %d: %+v", len(defs), defs)
	}
	byURI := make(map[string]capability.Definition)
	for _, d := range defs {
		byURI[d.URIPattern] = d
	}
	txt, ok := byURI["fs://workspace/readme.txt"]
	if !ok {
		t.Fatalf("readme.txt not registered: %v", byURI)
	}
	if !strings.HasPrefix(txt.MimeType, "text/plain") {
		t.Fatalf("expected text/plain mime, got %q", txt.MimeType)
	}
	if _, ok := byURI["fs://workspace/sub/data.json"]; !ok {
		t.Fatalf("nested file not registered: %v", byURI)
	}
}

func TestProvider_ReadsCurrentContents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	writeFile(t, path, "v1")

	reg := registry.New()
	p, err := New(reg, dir, WithBaseURI("fs://workspace"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	res, ok := reg.Resolve(capability.KindResource, "fs://workspace/note.txt")
	if !ok {
		t.Fatalf("resolve failed")
	}
	content, err := res.Entry.Handler(context.Background(), nil, capability.Arguments{})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if content[0].Text != "v1" {
		t.Fatalf("expected v1, got %q", content[0].Text)
	}

	// Contents are read at dispatch time, so a rewrite is visible without
	// re-registration.
	writeFile(t, path, "v2")
	content, err = res.Entry.Handler(context.Background(), nil, capability.Arguments{})
	if err != nil {
		t.Fatalf("handler after rewrite: %v", err)
	}
	if content[0].Text != "v2" {
		t.Fatalf("expected v2, got %q", content[0].Text)
	}
}

func TestProvider_WatchesCreates(t *testing.T) {
	dir := t.TempDir()
	reg := registry.New()
	p, err := New(reg, dir, WithBaseURI("fs://workspace"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	writeFile(t, filepath.Join(dir, "late.txt"), "late")

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := reg.Resolve(capability.KindResource, "fs://workspace/late.txt"); ok {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("created file never registered")
}

func TestProvider_URIFor(t *testing.T) {
	dir := t.TempDir()
	reg := registry.New()
	p, err := New(reg, dir, WithBaseURI("fs://workspace"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	if _, ok := p.URIFor(filepath.Join(dir, "..", "escape.txt")); ok {
		t.Fatalf("path outside root mapped to a URI")
	}
	uri, ok := p.URIFor(filepath.Join(dir, "a", "b.txt"))
	if !ok || uri != "fs://workspace/a/b.txt" {
		t.Fatalf("unexpected mapping: %q ok=%v", uri, ok)
	}
}
