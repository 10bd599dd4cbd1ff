// Package capability defines the wire-level data model shared by the
// registry, session store and dispatcher: capability kinds and definitions,
// the declarative argument schema tree, and the uniform invocation
// request/result envelope.
//
// The package is deliberately free of behavior beyond small helpers; it
// holds the types that cross the transport boundary and nothing else.
package capability
