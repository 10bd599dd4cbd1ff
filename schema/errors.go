package schema

import (
	"fmt"
	"strings"
)

// SchemaError reports a malformed declarative schema. It is returned from
// Compile and is considered fatal for the registration that produced it.
type SchemaError struct {
	Path   string // dotted path to the offending node; empty for the root
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Path == "" {
		return "schema: " + e.Reason
	}
	return fmt.Sprintf("schema: %s: %s", e.Path, e.Reason)
}

// ValidationError reports an argument payload that does not satisfy a
// compiled schema. Field carries the dotted path of the offending value.
type ValidationError struct {
	Field   string
	Reason  string
	Allowed []string // populated for enum violations
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid argument %q: %s", e.Field, e.Reason)
	if len(e.Allowed) > 0 {
		msg += " (allowed: " + strings.Join(e.Allowed, ", ") + ")"
	}
	return msg
}

func schemaErrorf(path, format string, a ...any) *SchemaError {
	return &SchemaError{Path: path, Reason: fmt.Sprintf(format, a...)}
}

func validationErrorf(field, format string, a ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, a...)}
}
