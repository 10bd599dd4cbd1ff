// Package registry stores capability definitions together with their
// compiled validators and handlers. Registration compiles the declarative
// schema up front so malformed capabilities are rejected before they are
// ever visible to dispatch; lookups are linearizable with respect to
// registration and never observe a partially-applied entry.
//
// Resource lookups resolve a concrete URI first against literal patterns and
// then against RFC 6570 templates in registration order, extracting named
// placeholder values for the handler. A literal match always wins over a
// template match.
package registry
