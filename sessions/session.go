package sessions

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/caphub/caphub-go/auth"
)

// Client is a handle to a downstream service (database, API, cache) owned by
// exactly one session Context. Close is called when the owning session is
// destroyed; handles must not be shared across sessions.
type Client interface {
	Close() error
}

// ClientFactory constructs a Client for a session on first use. Factories
// are registered on the Store under a logical service name.
type ClientFactory func(ctx context.Context, sessionID string) (Client, error)

// Context represents one logical client connection. Values are created and
// owned by a Store; capability handlers receive a Context per invocation and
// may hold it only for the duration of that invocation.
type Context struct {
	id        string
	createdAt time.Time
	user      auth.UserInfo

	// factories is owned by the Store and read-only here.
	factories map[string]ClientFactory

	mu           sync.Mutex
	lastActivity time.Time
	clients      map[string]Client
	closed       bool
}

// ID returns the opaque session identifier assigned by the transport.
func (c *Context) ID() string { return c.id }

// CreatedAt returns the session creation time.
func (c *Context) CreatedAt() time.Time { return c.createdAt }

// User returns the externally-validated identity attached at creation.
// May be nil when the transport runs unauthenticated.
func (c *Context) User() auth.UserInfo { return c.user }

// LastActivity returns the time of the most recent successful dispatch.
func (c *Context) LastActivity() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActivity
}

// Client returns the session-owned client for the named service,
// constructing it on first use. A destroyed session never hands out
// clients; callers get ErrSessionClosed instead.
func (c *Context) Client(ctx context.Context, name string) (Client, error) {
	factory, ok := c.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownClient, name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrSessionClosed
	}
	if cl, ok := c.clients[name]; ok {
		return cl, nil
	}
	cl, err := factory(ctx, c.id)
	if err != nil {
		return nil, fmt.Errorf("client %s: %w", name, err)
	}
	if c.clients == nil {
		c.clients = make(map[string]Client)
	}
	c.clients[name] = cl
	return cl, nil
}

func (c *Context) touch(now time.Time) {
	c.mu.Lock()
	c.lastActivity = now
	c.mu.Unlock()
}

func (c *Context) idleSince(now time.Time) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return now.Sub(c.lastActivity)
}

// close marks the Context destroyed and releases every owned client. It is
// idempotent and returns the first close error encountered.
func (c *Context) close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	clients := c.clients
	c.clients = nil
	c.mu.Unlock()

	var firstErr error
	for name, cl := range clients {
		if err := cl.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing client %s: %w", name, err)
		}
	}
	return firstErr
}
