// Package schema converts declarative capability schemas into runtime
// validators. Compilation is pure and deterministic: a malformed schema is
// rejected with a *SchemaError at registration time so that dispatch never
// encounters one, and compiling the same schema twice yields validators with
// identical accept/reject behavior.
package schema
