package middleware

import "context"

type contextKey string

const ctxSubject contextKey = "subject"

// SubjectFromContext returns the signed-in shopper's user id, or "" for guests.
func SubjectFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSubject).(string); ok {
		return v
	}
	return ""
}

// WithSubject injects the shopper's user id into the context.
func WithSubject(ctx context.Context, subject string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSubject, subject)
}
