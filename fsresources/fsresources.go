// Package fsresources registers a directory subtree as readable resources
// and keeps the registrations in sync with the filesystem. Each regular
// file becomes a literal resource URI under a configurable base; file
// contents are read at dispatch time, and an fsnotify watcher adds or
// removes registrations as files appear and disappear.
package fsresources

import (
	"context"
	"encoding/base64"
	"fmt"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/caphub/caphub-go/capability"
	"github.com/caphub/caphub-go/registry"
	"github.com/caphub/caphub-go/sessions"
	"github.com/fsnotify/fsnotify"
)

const defaultMimeType = "application/octet-stream"

// Option configures a Provider.
type Option func(*Provider)

// WithBaseURI sets the URI prefix used for registered resources, e.g.
// "fs://workspace". Defaults to "fs://".
func WithBaseURI(base string) Option {
	return func(p *Provider) { p.baseURI = strings.TrimRight(base, "/") }
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(p *Provider) {
		if log != nil {
			p.log = log
		}
	}
}

// Provider mirrors a directory subtree into a capability registry.
type Provider struct {
	root    string // absolute, symlink-evaluated root on disk
	baseURI string
	reg     *registry.Registry
	log     *slog.Logger

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// New constructs a Provider over the given OS directory, performs an
// initial sync, and starts watching for changes. Close releases the
// watcher; registrations persist until removed or replaced.
func New(reg *registry.Registry, root string, opts ...Option) (*Provider, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		abs = real
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("fsresources: %s is not a directory", abs)
	}

	p := &Provider{
		root:    abs,
		baseURI: "fs://",
		reg:     reg,
		log:     slog.Default(),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	p.watcher = watcher

	if err := p.Sync(); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	go p.watchLoop()
	return p, nil
}

// Sync walks the subtree, registering every regular file and watching every
// directory. It may be called again to force a full re-scan.
func (p *Provider) Sync() error {
	return filepath.WalkDir(p.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return p.watcher.Add(path)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return p.registerFile(path)
	})
}

// Close stops the watcher. Existing registrations are left in place.
func (p *Provider) Close() error {
	err := p.watcher.Close()
	<-p.done
	return err
}

// URIFor returns the resource URI a file path maps to, or false when the
// path lies outside the provider root.
func (p *Provider) URIFor(path string) (string, bool) {
	rel, err := filepath.Rel(p.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return p.baseURI + "/" + filepath.ToSlash(rel), true
}

func (p *Provider) registerFile(path string) error {
	uri, ok := p.URIFor(path)
	if !ok {
		return nil
	}
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = defaultMimeType
	}
	rel, _ := filepath.Rel(p.root, path)
	def := capability.Definition{
		Kind:        capability.KindResource,
		Name:        filepath.ToSlash(rel),
		Description: "File " + filepath.ToSlash(rel),
		URIPattern:  uri,
		MimeType:    mimeType,
	}
	return p.reg.Register(def, p.readHandler(path, mimeType))
}

// readHandler reads the file at dispatch time so callers always see current
// contents. Valid UTF-8 is returned as text; anything else as base64.
func (p *Provider) readHandler(path, mimeType string) registry.Handler {
	return func(ctx context.Context, sess *sessions.Context, args capability.Arguments) ([]capability.ContentBlock, error) {
		b, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("resource no longer exists")
			}
			return nil, fmt.Errorf("read resource: %w", err)
		}
		if utf8.Valid(b) {
			return capability.TextContent(string(b)), nil
		}
		return []capability.ContentBlock{{
			Type:     "blob",
			Data:     base64.StdEncoding.EncodeToString(b),
			MimeType: mimeType,
		}}, nil
	}
}

func (p *Provider) watchLoop() {
	defer close(p.done)
	for {
		select {
		case ev, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			p.handleEvent(ev)
		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			p.log.Warn("fs watch error", slog.String("err", err.Error()))
		}
	}
}

func (p *Provider) handleEvent(ev fsnotify.Event) {
	switch {
	case ev.Op.Has(fsnotify.Create):
		info, err := os.Stat(ev.Name)
		if err != nil {
			return
		}
		if info.IsDir() {
			// New directory: watch it and pick up any files that landed
			// before the watch was established.
			_ = p.watcher.Add(ev.Name)
			_ = filepath.WalkDir(ev.Name, func(path string, d fs.DirEntry, err error) error {
				if err != nil || d.IsDir() || !d.Type().IsRegular() {
					return nil
				}
				return p.registerFile(path)
			})
			return
		}
		if err := p.registerFile(ev.Name); err != nil {
			p.log.Warn("register resource", slog.String("path", ev.Name), slog.String("err", err.Error()))
		}
	case ev.Op.Has(fsnotify.Write):
		// Contents changed; registration is path-based so nothing to do.
	case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
		if uri, ok := p.URIFor(ev.Name); ok {
			p.reg.Remove(capability.KindResource, uri)
		}
	}
}
