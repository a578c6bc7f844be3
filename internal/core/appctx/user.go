// Package appctx carries request-scoped values (acting user, trace ids)
// through context for the domain and logging layers.
package appctx

import (
	"context"

	"partsledger/internal/core/id"
)

// User identifies the acting user for audit attribution on movement rows.
type User struct {
	UserID       id.ID
	Username     string
	Capabilities []string
}

type userKey struct{}

// WithUser stores the acting user in context.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// GetUser returns the acting user, or nil when unauthenticated
// (seed jobs, tests).
func GetUser(ctx context.Context) *User {
	if u, ok := ctx.Value(userKey{}).(*User); ok {
		return u
	}
	return nil
}

// ActorID returns the acting user's id, or the nil id when absent.
func ActorID(ctx context.Context) id.ID {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return id.Nil()
}

// Trace carries request correlation identifiers.
type Trace struct {
	RequestID string
	TraceID   string
}

type traceKey struct{}

// WithTrace stores trace identifiers in context.
func WithTrace(ctx context.Context, t *Trace) context.Context {
	return context.WithValue(ctx, traceKey{}, t)
}

// GetTrace returns trace identifiers, or nil.
func GetTrace(ctx context.Context) *Trace {
	if t, ok := ctx.Value(traceKey{}).(*Trace); ok {
		return t
	}
	return nil
}
