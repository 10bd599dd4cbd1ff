package auth

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrUnauthorized indicates authentication failed or no valid credentials were supplied.
var ErrUnauthorized = errors.New("unauthorized")

// UserInfo represents an authenticated principal. Implementations should be
// lightweight and safe for concurrent use; the session layer treats the
// value as read-only.
type UserInfo interface {
	// UserID returns the unique identifier for the user.
	UserID() string
	// Claims unmarshalls the user's claims into the provided struct reference.
	Claims(ref any) error
}

// Authenticator validates bearer tokens and returns associated user info.
// It should return ErrUnauthorized for invalid credentials.
type Authenticator interface {
	CheckAuthentication(ctx context.Context, tok string) (UserInfo, error)
}

// StaticUserInfo is a claims-carrying UserInfo for transports that perform
// their own verification, and for tests.
type StaticUserInfo struct {
	Subject   string
	ClaimsMap map[string]any
}

func (u *StaticUserInfo) UserID() string { return u.Subject }

func (u *StaticUserInfo) Claims(ref any) error {
	b, err := json.Marshal(u.ClaimsMap)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, ref)
}
