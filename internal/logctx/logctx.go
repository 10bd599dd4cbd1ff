// Package logctx enriches slog records with dispatch-scoped context:
// session identity and the invocation being processed. Wrap an existing
// slog.Handler with Handler to get the groups attached automatically.
package logctx

import (
	"context"
	"log/slog"
)

type Handler struct {
	slog.Handler
}

func (h Handler) Handle(ctx context.Context, r slog.Record) error {
	if sd, ok := ctx.Value(sessionDataKey{}).(*SessionData); ok {
		r.AddAttrs(slog.Group("sess",
			slog.String("id", sd.SessionID),
			slog.String("user_id", sd.UserID),
		))
	}

	if id, ok := ctx.Value(invocationDataKey{}).(*InvocationData); ok {
		r.AddAttrs(slog.Group("invocation",
			slog.String("id", id.InvocationID),
			slog.String("kind", id.Kind),
			slog.String("name", id.Name),
		))
	}

	return h.Handler.Handle(ctx, r)
}

type sessionDataKey struct{}

type SessionData struct {
	SessionID string
	UserID    string
}

func WithSessionData(ctx context.Context, data *SessionData) context.Context {
	return context.WithValue(ctx, sessionDataKey{}, data)
}

type invocationDataKey struct{}

type InvocationData struct {
	InvocationID string
	Kind         string
	Name         string
}

func WithInvocationData(ctx context.Context, data *InvocationData) context.Context {
	return context.WithValue(ctx, invocationDataKey{}, data)
}
