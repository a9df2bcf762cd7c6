// Package auth resolves the calling principal from a bearer token and carries
// it through the request context. The document store reads the principal
// back out of the context to evaluate its authorization rules.
package auth

import "context"

// Principal is an authenticated caller.
type Principal struct {
	// UID is the caller's stable identity (the token subject).
	UID string
	// Admin is the elevated claim that lets a caller read and update any idea.
	Admin bool
}

type ctxKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext returns the principal stored in ctx. The second result is false
// for anonymous requests.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	if !ok || p.UID == "" {
		return Principal{}, false
	}
	return p, true
}
