package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/caphub/caphub-go/capability"
	"github.com/caphub/caphub-go/schema"
	"github.com/caphub/caphub-go/sessions"
	"github.com/elnormous/contenttype"
	"github.com/yosida95/uritemplate/v3"
)

// Handler is the function bound to exactly one capability definition. It is
// invoked with the validated arguments (including any URI template
// placeholder values for resources) and the caller's session context, and
// returns the success payload or an error.
type Handler func(ctx context.Context, sess *sessions.Context, args capability.Arguments) ([]capability.ContentBlock, error)

// Entry is a fully-registered capability: definition, compiled validator
// and handler. Entries are immutable once stored; replacement swaps the
// whole entry.
type Entry struct {
	Definition capability.Definition
	Validator  *schema.Validator
	Handler    Handler
}

// Resolution is the outcome of a successful lookup. For templated
// resources, Params carries the extracted placeholder values and URI the
// concrete URI that matched.
type Resolution struct {
	Entry  *Entry
	Params capability.Arguments
	URI    string
}

// ErrInvalidDefinition reports a definition rejected at registration time
// for reasons other than a malformed schema.
var ErrInvalidDefinition = errors.New("invalid capability definition")

type templateEntry struct {
	tpl   *uritemplate.Template
	entry *Entry
}

type kindSet struct {
	order   []*Entry          // insertion order for listing
	entries map[string]*Entry // key -> entry

	// Resource-only indexes. literals is a subset of entries; templates keep
	// registration order for first-match-wins semantics among templates.
	literals  map[string]*Entry
	templates []*templateEntry
}

func newKindSet() *kindSet {
	return &kindSet{
		entries:  make(map[string]*Entry),
		literals: make(map[string]*Entry),
	}
}

// Registry stores capability definitions and handlers keyed by (kind, key).
// All methods are safe for concurrent use; registration and lookup are
// linearizable.
type Registry struct {
	mu    sync.RWMutex
	kinds map[capability.Kind]*kindSet

	notifier ChangeNotifier
	pageSize int
}

// New constructs an empty Registry.
func New() *Registry {
	r := &Registry{
		kinds:    make(map[capability.Kind]*kindSet),
		pageSize: 50,
	}
	for _, k := range []capability.Kind{capability.KindTool, capability.KindResource, capability.KindPrompt} {
		r.kinds[k] = newKindSet()
	}
	return r
}

// SetPageSize sets the pagination size used by ListPage. Values < 1 are
// ignored.
func (r *Registry) SetPageSize(n int) {
	if n < 1 {
		return
	}
	r.mu.Lock()
	r.pageSize = n
	r.mu.Unlock()
}

// Register stores a definition/handler pair, compiling and caching the
// argument validator. A prior entry with the same key is replaced
// atomically; concurrent lookups observe either the old entry or the new
// one, never a partial write. The handler is never invoked here.
func (r *Registry) Register(def capability.Definition, handler Handler) error {
	if !def.Kind.IsValid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidDefinition, def.Kind)
	}
	if def.Key() == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidDefinition)
	}
	if def.Description == "" {
		return fmt.Errorf("%w: %s %q missing description", ErrInvalidDefinition, def.Kind, def.Key())
	}
	if handler == nil {
		return fmt.Errorf("%w: %s %q missing handler", ErrInvalidDefinition, def.Kind, def.Key())
	}

	// Build the entry fully before touching shared state so replacement is a
	// single pointer swap.
	validator, err := schema.Compile(def.InputSchema)
	if err != nil {
		return fmt.Errorf("register %s %q: %w", def.Kind, def.Key(), err)
	}

	var tpl *uritemplate.Template
	if def.Kind == capability.KindResource {
		mt, err := contenttype.ParseMediaType(def.MimeType)
		if err != nil {
			return fmt.Errorf("%w: resource %q mime type %q: %v", ErrInvalidDefinition, def.URIPattern, def.MimeType, err)
		}
		def.MimeType = mt.String()
		if isTemplatePattern(def.URIPattern) {
			tpl, err = uritemplate.New(def.URIPattern)
			if err != nil {
				return fmt.Errorf("%w: resource template %q: %v", ErrInvalidDefinition, def.URIPattern, err)
			}
		}
	}

	entry := &Entry{Definition: def, Validator: validator, Handler: handler}

	r.mu.Lock()
	ks := r.kinds[def.Kind]
	key := def.Key()
	if prior, exists := ks.entries[key]; exists {
		for i, e := range ks.order {
			if e == prior {
				ks.order[i] = entry
				break
			}
		}
	} else {
		ks.order = append(ks.order, entry)
	}
	ks.entries[key] = entry
	if def.Kind == capability.KindResource {
		if tpl != nil {
			replaced := false
			for i, te := range ks.templates {
				if te.entry.Definition.URIPattern == def.URIPattern {
					ks.templates[i] = &templateEntry{tpl: tpl, entry: entry}
					replaced = true
					break
				}
			}
			if !replaced {
				ks.templates = append(ks.templates, &templateEntry{tpl: tpl, entry: entry})
			}
		} else {
			ks.literals[def.URIPattern] = entry
		}
	}
	r.mu.Unlock()

	r.notifier.Notify()
	return nil
}

// Remove drops the entry under (kind, key). Returns true if removed.
func (r *Registry) Remove(kind capability.Kind, key string) bool {
	r.mu.Lock()
	ks, ok := r.kinds[kind]
	if !ok {
		r.mu.Unlock()
		return false
	}
	entry, exists := ks.entries[key]
	if !exists {
		r.mu.Unlock()
		return false
	}
	delete(ks.entries, key)
	delete(ks.literals, key)
	n := 0
	for _, e := range ks.order {
		if e != entry {
			ks.order[n] = e
			n++
		}
	}
	ks.order = ks.order[:n]
	n = 0
	for _, te := range ks.templates {
		if te.entry != entry {
			ks.templates[n] = te
			n++
		}
	}
	ks.templates = ks.templates[:n]
	r.mu.Unlock()

	r.notifier.Notify()
	return true
}

// Resolve looks up a capability by name (tools, prompts) or concrete URI
// (resources). Unknown keys yield ok=false, never an error or panic; the
// dispatcher converts that into the standard NotFound envelope.
//
// Resource resolution tries an exact literal URI first, then templates in
// registration order, extracting named placeholder values into Params.
func (r *Registry) Resolve(kind capability.Kind, key string) (Resolution, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ks, ok := r.kinds[kind]
	if !ok {
		return Resolution{}, false
	}

	if kind != capability.KindResource {
		entry, ok := ks.entries[key]
		if !ok {
			return Resolution{}, false
		}
		return Resolution{Entry: entry}, true
	}

	// Literal match wins over any template (most-specific-first).
	if entry, ok := ks.literals[key]; ok {
		return Resolution{Entry: entry, URI: key}, true
	}
	for _, te := range ks.templates {
		match := te.tpl.Match(key)
		if match == nil {
			continue
		}
		params := make(capability.Arguments, len(match))
		for name, val := range match {
			params[name] = val.String()
		}
		return Resolution{Entry: te.entry, Params: params, URI: key}, true
	}
	return Resolution{}, false
}

// List returns a fresh snapshot of the definitions of a kind in insertion
// order. Calling it twice without intervening registrations yields equal
// sequences.
func (r *Registry) List(kind capability.Kind) []capability.Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ks, ok := r.kinds[kind]
	if !ok {
		return nil
	}
	out := make([]capability.Definition, len(ks.order))
	for i, e := range ks.order {
		out[i] = e.Definition
	}
	return out
}

// ListPage returns one page of definitions using a numeric offset cursor,
// for transports that paginate large catalogs.
func (r *Registry) ListPage(kind capability.Kind, cursor *string) Page[capability.Definition] {
	all := r.List(kind)

	r.mu.RLock()
	pageSize := r.pageSize
	r.mu.RUnlock()

	start := parseCursor(cursor)
	if start > len(all) {
		start = 0
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	items := make([]capability.Definition, end-start)
	copy(items, all[start:end])
	if end < len(all) {
		return NewPage(items, WithNextCursor[capability.Definition](fmt.Sprintf("%d", end)))
	}
	return NewPage(items)
}

// Subscriber returns a channel that receives a signal whenever the catalog
// changes.
func (r *Registry) Subscriber() <-chan struct{} {
	return r.notifier.Subscriber()
}

// Close releases notifier resources.
func (r *Registry) Close() {
	r.notifier.Close()
}

func isTemplatePattern(pattern string) bool {
	return strings.ContainsRune(pattern, '{')
}
