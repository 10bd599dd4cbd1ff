package capability

import "encoding/json"

// ErrorKind classifies a failed invocation in the uniform envelope.
type ErrorKind string

const (
	// ErrorNotFound: no capability is registered under the requested key.
	ErrorNotFound ErrorKind = "not_found"
	// ErrorInvalidArguments: the supplied arguments failed schema validation.
	ErrorInvalidArguments ErrorKind = "invalid_arguments"
	// ErrorHandler: the capability handler failed; the message is sanitized.
	ErrorHandler ErrorKind = "handler_error"
	// ErrorSession: the session context could not be created or bound.
	ErrorSession ErrorKind = "session_error"
)

// Request is a parsed invocation delivered by the transport boundary.
// Name carries the tool/prompt name or, for resources, the concrete URI.
// SessionID is assigned by the transport, never by this core.
type Request struct {
	Kind      Kind            `json:"kind"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
	SessionID string          `json:"sessionId"`
}

// Result is the uniform envelope returned for every invocation. The shape is
// identical across kinds; only the payload's internals differ. Resource
// results additionally carry the resolved URI and declared mime type.
type Result struct {
	OK      bool           `json:"ok"`
	Content []ContentBlock `json:"content,omitempty"`

	// Resource payload tagging.
	URI      string `json:"uri,omitempty"`
	MimeType string `json:"mimeType,omitempty"`

	// Failure details; set only when OK is false.
	ErrorKind ErrorKind `json:"errorKind,omitempty"`
	Message   string    `json:"message,omitempty"`
}

// Success wraps content blocks into a success envelope.
func Success(content []ContentBlock) Result {
	return Result{OK: true, Content: content}
}

// Failure builds a failure envelope with the given kind and message.
func Failure(kind ErrorKind, message string) Result {
	return Result{OK: false, ErrorKind: kind, Message: message}
}
