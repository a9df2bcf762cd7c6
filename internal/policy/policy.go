// Package policy holds the authorization rules every document store
// evaluates on each access to the productIdeas collection and its notes.
//
// The rules are pure predicates over the caller, the stored document and
// the incoming document. They run independently of the service layer's own
// checks so that a write path the service never anticipated still cannot
// reassign an owner, rewrite createdAt or store an invalid status.
package policy

import (
	"errors"
	"fmt"
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/pkordes/product-ideas/backend/internal/docstore"
	"github.com/pkordes/product-ideas/backend/internal/domain"
)

// Collection names the rules know about.
const (
	IdeasCollection = "productIdeas"
	NotesCollection = "notes"
)

var (
	ideaPath = regexp.MustCompile(`^productIdeas/([^/]+)$`)
	notePath = regexp.MustCompile(`^productIdeas/([^/]+)/notes/([^/]+)$`)
)

// Rules is the policy for the Product Ideas data. The zero value is ready
// to use.
type Rules struct{}

var _ docstore.Rules = Rules{}

// Evaluate allows or denies a single access. Denials wrap
// docstore.ErrUnauthenticated for anonymous callers and
// docstore.ErrPermissionDenied otherwise.
func (Rules) Evaluate(req docstore.Request) error {
	if req.Auth == nil {
		return fmt.Errorf("%w: %s %s", docstore.ErrUnauthenticated, req.Method, req.Path)
	}

	var err error
	switch {
	case ideaPath.MatchString(req.Path):
		err = idea(req)
	case notePath.MatchString(req.Path):
		err = note(req)
	default:
		err = errors.New("no rule matches this path")
	}
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", docstore.ErrPermissionDenied, req.Method, req.Path, err)
	}
	return nil
}

func idea(req docstore.Request) error {
	uid := req.Auth.UID
	switch req.Method {
	case docstore.MethodGet, docstore.MethodList:
		if req.Resource == nil {
			// Reading a missing document reveals nothing; let the store
			// report not-found.
			return nil
		}
		if owner(req.Resource) == uid || req.Auth.Admin {
			return nil
		}
		return errors.New("caller is neither the owner nor an admin")

	case docstore.MethodCreate:
		if owner(req.Incoming) != uid {
			return errors.New("ownerId must be the caller")
		}
		return validIdea(req.Incoming)

	case docstore.MethodUpdate:
		if owner(req.Resource) != uid && !req.Auth.Admin {
			return errors.New("caller is neither the owner nor an admin")
		}
		if !unchanged(req, "ownerId") {
			return errors.New("ownerId is immutable")
		}
		if !unchanged(req, "createdAt") {
			return errors.New("createdAt is immutable")
		}
		// Only revised fields are checked, so records written before a
		// field existed stay editable.
		for _, fc := range fieldChecks {
			if unchanged(req, fc.field) {
				continue
			}
			if err := fc.check(req.Incoming); err != nil {
				return err
			}
		}
		return nil

	case docstore.MethodDelete:
		if owner(req.Resource) != uid {
			return errors.New("only the owner may delete an idea")
		}
		return nil
	}
	return fmt.Errorf("unknown method %q", req.Method)
}

func note(req docstore.Request) error {
	uid := req.Auth.UID
	switch req.Method {
	case docstore.MethodGet, docstore.MethodList:
		return nil

	case docstore.MethodCreate:
		if author(req.Incoming) != uid {
			return errors.New("authorId must be the caller")
		}
		if _, ok := req.Incoming["createdAt"].(time.Time); !ok {
			return errors.New("createdAt is required")
		}
		return nil

	case docstore.MethodUpdate:
		if author(req.Resource) != uid {
			return errors.New("only the author may edit a note")
		}
		if !unchanged(req, "authorId") {
			return errors.New("authorId is immutable")
		}
		return nil

	case docstore.MethodDelete:
		if author(req.Resource) != uid {
			return errors.New("only the author may delete a note")
		}
		return nil
	}
	return fmt.Errorf("unknown method %q", req.Method)
}

var fieldChecks = []struct {
	field string
	check func(docstore.Fields) error
}{
	{"status", validStatus},
	{"summary", validSummary},
	{"priority", validPriority},
}

// validIdea applies every field check; creates must pass all of them.
func validIdea(f docstore.Fields) error {
	for _, fc := range fieldChecks {
		if err := fc.check(f); err != nil {
			return err
		}
	}
	return nil
}

func validStatus(f docstore.Fields) error {
	status, _ := f["status"].(string)
	if !domain.Status(status).Valid() {
		return fmt.Errorf("status %q is not one of draft, active, paused, shipped", status)
	}
	return nil
}

func validSummary(f docstore.Fields) error {
	summary, ok := f["summary"].(string)
	if !ok {
		return errors.New("summary must be a string")
	}
	if utf8.RuneCountInString(summary) > domain.MaxSummaryLen {
		return fmt.Errorf("summary exceeds %d characters", domain.MaxSummaryLen)
	}
	return nil
}

// validPriority allows the field to be absent or null.
func validPriority(f docstore.Fields) error {
	if p, present := f["priority"]; present && p != nil {
		ps, _ := p.(string)
		if !domain.Priority(ps).Valid() {
			return fmt.Errorf("priority %v is not one of low, medium, high", p)
		}
	}
	return nil
}

func unchanged(req docstore.Request, field string) bool {
	before, hadBefore := req.Resource[field]
	after, hasAfter := req.Incoming[field]
	return hadBefore == hasAfter && docstore.Equal(before, after)
}

func owner(f docstore.Fields) string {
	s, _ := f["ownerId"].(string)
	return s
}

func author(f docstore.Fields) string {
	s, _ := f["authorId"].(string)
	return s
}
