package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/caphub/caphub-go/auth"
	"github.com/caphub/caphub-go/capability"
	"github.com/caphub/caphub-go/internal/logctx"
	"github.com/caphub/caphub-go/registry"
	"github.com/caphub/caphub-go/schema"
	"github.com/caphub/caphub-go/sessions"
	"github.com/google/uuid"
)

// maxMessageLen bounds the failure message that crosses the transport
// boundary.
const maxMessageLen = 512

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(d *Dispatcher) {
		if log != nil {
			d.log = log
		}
	}
}

// Dispatcher routes invocation requests through the registry and session
// store. It performs no blocking work itself; suspension happens only
// inside a handler's own I/O. Unrelated invocations run concurrently.
type Dispatcher struct {
	reg   *registry.Registry
	store *sessions.Store
	log   *slog.Logger
}

// New constructs a Dispatcher over the given registry and session store.
func New(reg *registry.Registry, store *sessions.Store, opts ...Option) *Dispatcher {
	d := &Dispatcher{reg: reg, store: store, log: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch runs one invocation through its full lifecycle and always
// returns a well-formed envelope. The user identity, when present, was
// verified by the transport/auth layer before this call.
func (d *Dispatcher) Dispatch(ctx context.Context, req capability.Request, user auth.UserInfo) capability.Result {
	ctx = logctx.WithInvocationData(ctx, &logctx.InvocationData{
		InvocationID: uuid.NewString(),
		Kind:         string(req.Kind),
		Name:         req.Name,
	})

	// Received -> Resolved
	res, ok := d.reg.Resolve(req.Kind, req.Name)
	if !ok {
		d.log.InfoContext(ctx, "capability not found")
		return capability.Failure(capability.ErrorNotFound, notFoundMessage(req.Kind, req.Name))
	}

	// Resolved -> Validated
	args, err := decodeArguments(req.Arguments)
	if err != nil {
		return capability.Failure(capability.ErrorInvalidArguments, "arguments must be a JSON object: "+sanitize(err))
	}
	for name, val := range res.Params {
		// URI template placeholders override any same-named argument; the
		// URI is the more specific source.
		args[name] = val
	}
	if err := res.Entry.Validator.Validate(args); err != nil {
		var verr *schema.ValidationError
		if errors.As(err, &verr) {
			return capability.Failure(capability.ErrorInvalidArguments, verr.Error())
		}
		return capability.Failure(capability.ErrorInvalidArguments, sanitize(err))
	}

	// Validated -> SessionBound
	sess, err := d.store.GetOrCreate(ctx, req.SessionID, user)
	if err != nil {
		d.log.ErrorContext(ctx, "session bind failed", slog.String("err", err.Error()))
		return capability.Failure(capability.ErrorSession, sanitize(err))
	}
	userID := ""
	if user != nil {
		userID = user.UserID()
	}
	ctx = logctx.WithSessionData(ctx, &logctx.SessionData{SessionID: sess.ID(), UserID: userID})

	// SessionBound -> Invoked
	content, err := res.Entry.Handler(ctx, sess, args)

	// Invoked -> Completed | Failed
	if err != nil {
		d.log.WarnContext(ctx, "handler failed", slog.String("err", err.Error()))
		return capability.Failure(capability.ErrorHandler, sanitize(err))
	}
	d.store.Touch(ctx, sess.ID())

	out := capability.Success(content)
	if req.Kind == capability.KindResource {
		out.URI = res.URI
		out.MimeType = res.Entry.Definition.MimeType
	}
	return out
}

// decodeArguments parses the raw argument payload into a mutable map. An
// absent payload decodes to an empty map so template parameters can still
// be merged in.
func decodeArguments(raw json.RawMessage) (capability.Arguments, error) {
	if len(raw) == 0 {
		return capability.Arguments{}, nil
	}
	var args capability.Arguments
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}
	if args == nil {
		args = capability.Arguments{}
	}
	return args, nil
}

func notFoundMessage(kind capability.Kind, name string) string {
	if kind == capability.KindResource {
		return "resource not found: " + name
	}
	return string(kind) + " not found: " + name
}

// sanitize reduces an error to a single bounded line. Handler errors carry
// their message through, but multi-line detail (wrapped dumps, anything
// resembling a stack) stays on the server side of the boundary.
func sanitize(err error) string {
	msg := err.Error()
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	msg = strings.TrimSpace(msg)
	if len(msg) > maxMessageLen {
		msg = msg[:maxMessageLen]
	}
	if msg == "" {
		msg = "internal error"
	}
	return msg
}
