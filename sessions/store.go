package sessions

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/caphub/caphub-go/auth"
)

// Errors returned by the store and session contexts.
var (
	ErrStoreClosed   = errors.New("session store closed")
	ErrSessionClosed = errors.New("session closed")
	ErrUnknownClient = errors.New("no client factory registered")
)

// ActivityMirror lets a store publish session activity to an external
// system (e.g. Redis) so idle eviction can coordinate across replicas. All
// calls are best-effort; mirror failures never fail a dispatch.
type ActivityMirror interface {
	Touch(ctx context.Context, sessionID string) error
	Forget(ctx context.Context, sessionID string) error
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithIdleTimeout sets the idle duration after which the sweeper destroys a
// session. Non-positive disables sweeping.
func WithIdleTimeout(d time.Duration) StoreOption {
	return func(s *Store) { s.idleTimeout = d }
}

// WithSweepInterval sets how often the idle sweeper runs. Defaults to one
// minute when an idle timeout is configured.
func WithSweepInterval(d time.Duration) StoreOption {
	return func(s *Store) {
		if d > 0 {
			s.sweepInterval = d
		}
	}
}

// WithClientFactory registers a lazily-invoked constructor for the named
// downstream service. Each session gets its own client instance.
func WithClientFactory(name string, factory ClientFactory) StoreOption {
	return func(s *Store) { s.factories[name] = factory }
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) StoreOption {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// WithActivityMirror attaches an external activity mirror.
func WithActivityMirror(m ActivityMirror) StoreOption {
	return func(s *Store) { s.mirror = m }
}

// Store creates, looks up and expires session contexts. It is safe for
// concurrent use; contention is scoped to the internal session map.
type Store struct {
	idleTimeout   time.Duration
	sweepInterval time.Duration
	factories     map[string]ClientFactory
	log           *slog.Logger
	mirror        ActivityMirror

	mu       sync.Mutex
	contexts map[string]*Context
	closed   bool

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewStore constructs a Store and starts the idle sweeper when an idle
// timeout is configured. Call Close to stop the sweeper and destroy all
// live sessions.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		sweepInterval: time.Minute,
		factories:     make(map[string]ClientFactory),
		log:           slog.Default(),
		contexts:      make(map[string]*Context),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.idleTimeout > 0 {
		go s.sweepLoop()
	} else {
		close(s.done)
	}
	return s
}

// GetOrCreate returns the live Context for id, creating one atomically when
// none exists. At most one Context is created per id even when two requests
// race on first use.
func (s *Store) GetOrCreate(ctx context.Context, id string, user auth.UserInfo) (*Context, error) {
	if id == "" {
		return nil, errors.New("empty session id")
	}
	now := time.Now()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrStoreClosed
	}
	if sc, ok := s.contexts[id]; ok {
		s.mu.Unlock()
		return sc, nil
	}
	sc := &Context{
		id:           id,
		createdAt:    now,
		lastActivity: now,
		user:         user,
		factories:    s.factories,
	}
	s.contexts[id] = sc
	s.mu.Unlock()

	s.log.InfoContext(ctx, "session created", slog.String("session_id", id))
	s.mirrorTouch(ctx, id)
	return sc, nil
}

// Get returns the live Context for id, if any.
func (s *Store) Get(id string) (*Context, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.contexts[id]
	return sc, ok
}

// Touch updates the session's last-activity timestamp. Unknown ids are
// ignored.
func (s *Store) Touch(ctx context.Context, id string) {
	s.mu.Lock()
	sc, ok := s.contexts[id]
	s.mu.Unlock()
	if !ok {
		return
	}
	sc.touch(time.Now())
	s.mirrorTouch(ctx, id)
}

// CloseSession destroys the session explicitly (transport session-end
// signal). Destruction releases every session-owned client and is terminal;
// a later GetOrCreate with the same id creates a fresh Context.
func (s *Store) CloseSession(ctx context.Context, id string) error {
	s.mu.Lock()
	sc, ok := s.contexts[id]
	delete(s.contexts, id)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	s.mirrorForget(ctx, id)
	s.log.InfoContext(ctx, "session closed", slog.String("session_id", id))
	return sc.close()
}

// EvictIdle destroys every session idle for longer than maxIdle and returns
// the evicted ids. In-flight handler invocations are not interrupted;
// eviction only prevents new invocations from reusing destroyed clients.
func (s *Store) EvictIdle(maxIdle time.Duration) []string {
	now := time.Now()

	s.mu.Lock()
	var victims []*Context
	for id, sc := range s.contexts {
		if sc.idleSince(now) > maxIdle {
			victims = append(victims, sc)
			delete(s.contexts, id)
		}
	}
	s.mu.Unlock()

	ids := make([]string, 0, len(victims))
	for _, sc := range victims {
		ids = append(ids, sc.id)
		if err := sc.close(); err != nil {
			s.log.Warn("evicting session", slog.String("session_id", sc.id), slog.String("err", err.Error()))
		} else {
			s.log.Info("session evicted idle", slog.String("session_id", sc.id))
		}
		s.mirrorForget(context.Background(), sc.id)
	}
	return ids
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.contexts)
}

// Close stops the sweeper and destroys all live sessions. The store rejects
// further GetOrCreate calls afterwards.
func (s *Store) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	contexts := s.contexts
	s.contexts = make(map[string]*Context)
	s.mu.Unlock()

	var firstErr error
	for _, sc := range contexts {
		if err := sc.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Store) sweepLoop() {
	defer close(s.done)
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.EvictIdle(s.idleTimeout)
		}
	}
}

func (s *Store) mirrorTouch(ctx context.Context, id string) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.Touch(ctx, id); err != nil {
		s.log.Warn("activity mirror touch", slog.String("session_id", id), slog.String("err", err.Error()))
	}
}

func (s *Store) mirrorForget(ctx context.Context, id string) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.Forget(ctx, id); err != nil {
		s.log.Warn("activity mirror forget", slog.String("session_id", id), slog.String("err", err.Error()))
	}
}
