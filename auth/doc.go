// Package auth defines the authentication boundary consumed by the session
// layer. The dispatch core never verifies credentials itself: the transport
// authenticates the caller before the first dispatch and attaches the
// resulting UserInfo to the session as an opaque, read-only identity.
//
// A JWKS-backed bearer-token verifier is provided for transports that want a
// ready-made Authenticator; it is optional and lives entirely at this
// boundary.
package auth
