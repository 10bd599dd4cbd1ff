// Package sessions owns the per-connection state of the dispatch layer. A
// Context represents one logical client connection: its identity, activity
// timestamps, and the downstream service clients constructed lazily on first
// use and owned exclusively by that Context.
//
// The Store guarantees at most one live Context per session id, even under
// concurrent first use. Destruction is terminal: a later request with the
// same id produces a brand-new Context with fresh clients.
package sessions
