// Package caphub wires the capability registry, session store and
// dispatcher into a single server facade that any transport can drive. The
// transport parses frames into capability.Request values, authenticates the
// caller, and hands both to Dispatch; everything else happens here.
package caphub

import (
	"context"
	"log/slog"

	"github.com/caphub/caphub-go/auth"
	"github.com/caphub/caphub-go/capability"
	"github.com/caphub/caphub-go/config"
	"github.com/caphub/caphub-go/dispatch"
	"github.com/caphub/caphub-go/internal/logctx"
	"github.com/caphub/caphub-go/registry"
	"github.com/caphub/caphub-go/sessions"
)

// Option configures a Server.
type Option func(*serverOptions)

type serverOptions struct {
	cfg       config.Config
	log       *slog.Logger
	mirror    sessions.ActivityMirror
	factories map[string]sessions.ClientFactory
}

// WithConfig overrides the default configuration.
func WithConfig(cfg config.Config) Option {
	return func(o *serverOptions) { o.cfg = cfg }
}

// WithLogger sets the base structured logger. The server wraps it so that
// session and invocation attributes are attached to every record.
func WithLogger(log *slog.Logger) Option {
	return func(o *serverOptions) {
		if log != nil {
			o.log = log
		}
	}
}

// WithActivityMirror attaches an external session-activity mirror (e.g. the
// redisstore implementation).
func WithActivityMirror(m sessions.ActivityMirror) Option {
	return func(o *serverOptions) { o.mirror = m }
}

// WithClientFactory registers a per-session downstream client constructor
// under a logical service name.
func WithClientFactory(name string, f sessions.ClientFactory) Option {
	return func(o *serverOptions) { o.factories[name] = f }
}

// Server is the capability registration and session-scoped dispatch layer.
// It holds no transport state and is safe for concurrent use.
type Server struct {
	log        *slog.Logger
	reg        *registry.Registry
	store      *sessions.Store
	dispatcher *dispatch.Dispatcher
}

// New constructs a Server with the supplied options.
func New(opts ...Option) *Server {
	o := &serverOptions{
		cfg:       config.Default(),
		log:       slog.Default(),
		factories: make(map[string]sessions.ClientFactory),
	}
	for _, opt := range opts {
		opt(o)
	}
	log := slog.New(logctx.Handler{Handler: o.log.Handler()})

	reg := registry.New()
	reg.SetPageSize(o.cfg.ListPageSize)

	storeOpts := []sessions.StoreOption{
		sessions.WithIdleTimeout(o.cfg.SessionIdleTimeout),
		sessions.WithSweepInterval(o.cfg.SessionSweepInterval),
		sessions.WithLogger(log),
	}
	if o.mirror != nil {
		storeOpts = append(storeOpts, sessions.WithActivityMirror(o.mirror))
	}
	for name, f := range o.factories {
		storeOpts = append(storeOpts, sessions.WithClientFactory(name, f))
	}
	store := sessions.NewStore(storeOpts...)

	return &Server{
		log:        log,
		reg:        reg,
		store:      store,
		dispatcher: dispatch.New(reg, store, dispatch.WithLogger(log)),
	}
}

// Registry exposes the capability registry for registration and for
// providers such as fsresources.
func (s *Server) Registry() *registry.Registry { return s.reg }

// Sessions exposes the session store for transports that need explicit
// lifecycle control.
func (s *Server) Sessions() *sessions.Store { return s.store }

// Register stores a definition/handler pair.
func (s *Server) Register(def capability.Definition, h registry.Handler) error {
	return s.reg.Register(def, h)
}

// RegisterTool registers a typed tool built with registry.NewTool.
func (s *Server) RegisterTool(t registry.Tool) error {
	return s.reg.RegisterTool(t)
}

// Dispatch runs one invocation and always returns a well-formed envelope.
func (s *Server) Dispatch(ctx context.Context, req capability.Request, user auth.UserInfo) capability.Result {
	return s.dispatcher.Dispatch(ctx, req, user)
}

// List answers capability-enumeration requests for a kind.
func (s *Server) List(kind capability.Kind) []capability.Definition {
	return s.reg.List(kind)
}

// ListPage answers paginated enumeration requests.
func (s *Server) ListPage(kind capability.Kind, cursor *string) registry.Page[capability.Definition] {
	return s.reg.ListPage(kind, cursor)
}

// CloseSession handles a transport-level session-end signal.
func (s *Server) CloseSession(ctx context.Context, sessionID string) error {
	return s.store.CloseSession(ctx, sessionID)
}

// Close tears down the session store and registry.
func (s *Server) Close() error {
	s.reg.Close()
	return s.store.Close()
}
