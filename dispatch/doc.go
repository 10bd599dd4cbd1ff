// Package dispatch orchestrates a single invocation end to end: resolve the
// capability in the registry, validate the supplied arguments against the
// cached validator, bind the caller's session context, invoke the handler,
// and normalize the outcome into the uniform result envelope.
//
// Every failure mode is recovered here and expressed as an ok=false
// envelope; no error from a single bad invocation ever crosses the
// transport boundary as a panic or terminates the session.
package dispatch
