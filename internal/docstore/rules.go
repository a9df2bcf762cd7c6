package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pkordes/product-ideas/backend/internal/auth"
)

// Method names the kind of access being authorized.
type Method string

const (
	MethodGet    Method = "get"
	MethodList   Method = "list"
	MethodCreate Method = "create"
	MethodUpdate Method = "update"
	MethodDelete Method = "delete"
)

// Request is everything a rule may look at. Rules must be pure functions of
// the request.
type Request struct {
	Method Method
	// Path is the full document path being accessed.
	Path string
	// Auth is nil for anonymous callers.
	Auth *auth.Principal
	// Resource is the stored document, nil when it does not exist (creates,
	// or reads of missing documents).
	Resource Fields
	// Incoming is the document as it would exist after a create or update.
	Incoming Fields
	Time     time.Time
}

// Rules authorizes a single document access. A nil result allows it; any
// error denies it. Returning ErrUnauthenticated or an error wrapping
// ErrPermissionDenied lets callers tell the two apart.
type Rules interface {
	Evaluate(req Request) error
}

// RulesFunc adapts a function to Rules.
type RulesFunc func(req Request) error

// Evaluate calls f(req).
func (f RulesFunc) Evaluate(req Request) error { return f(req) }

// AllowAll is a Rules that permits everything. Use it only to seed fixtures
// and in tests that bypass authorization.
var AllowAll Rules = RulesFunc(func(Request) error { return nil })

// NewRequest builds a Request for path, taking the principal from ctx.
func NewRequest(ctx context.Context, method Method, path string, now time.Time) Request {
	req := Request{Method: method, Path: path, Time: now}
	if p, ok := auth.FromContext(ctx); ok {
		req.Auth = &p
	}
	return req
}

// Authorize evaluates rules and normalizes the outcome so that every denial
// wraps either ErrUnauthenticated or ErrPermissionDenied.
func Authorize(rules Rules, req Request) error {
	err := rules.Evaluate(req)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUnauthenticated) || errors.Is(err, ErrPermissionDenied) {
		return err
	}
	return fmt.Errorf("%w: %s %s: %v", ErrPermissionDenied, req.Method, req.Path, err)
}
