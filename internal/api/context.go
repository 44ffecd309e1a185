package api

import (
	"context"
	"time"
)

type ctxKey string

const ctxKeyAdmin ctxKey = "admin"

// AdminSession is attached to requests that passed admin authentication.
type AdminSession struct {
	Subject   string
	ExpiresAt time.Time
}

func WithAdmin(ctx context.Context, s *AdminSession) context.Context {
	return context.WithValue(ctx, ctxKeyAdmin, s)
}

func AdminFromContext(ctx context.Context) *AdminSession {
	v := ctx.Value(ctxKeyAdmin)
	if v == nil {
		return nil
	}
	s, _ := v.(*AdminSession)
	return s
}

// Actor names who performed a mutation, for audit and booking events.
func Actor(ctx context.Context) string {
	if s := AdminFromContext(ctx); s != nil && s.Subject != "" {
		return s.Subject
	}
	return "customer"
}
