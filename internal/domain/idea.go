// Package domain contains the core data types for the Product Ideas service.
// It has no dependencies on the store, transport, or any other internal
// package and is imported by all of them.
package domain

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Status is the lifecycle state of a product idea.
type Status string

const (
	StatusDraft   Status = "draft"
	StatusActive  Status = "active"
	StatusPaused  Status = "paused"
	StatusShipped Status = "shipped"
)

// Statuses lists every valid Status in display order.
var Statuses = []Status{StatusDraft, StatusActive, StatusPaused, StatusShipped}

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusPaused, StatusShipped:
		return true
	}
	return false
}

// Priority ranks an idea. Absent priorities read back as PriorityMedium.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the three known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// MaxSummaryLen is the longest summary, in characters, the store accepts.
const MaxSummaryLen = 1000

// MaxTagLen is the longest single tag, in characters.
const MaxTagLen = 64

// ProductIdea is the primary entity. Every field is populated: defaults for
// records written by older clients are applied once, by the normalizer.
type ProductIdea struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	TitleLower string     `json:"title_lower"`
	Summary    string     `json:"summary"`
	Status     Status     `json:"status"`
	Priority   Priority   `json:"priority"`
	Tags       []string   `json:"tags"`
	OwnerID    string     `json:"owner_id"`
	AssigneeID string     `json:"assignee_id,omitempty"`
	TargetDate *time.Time `json:"target_date,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	ArchivedAt *time.Time `json:"archived_at"` // nil while the idea is active
}

// Archived reports whether the idea has been soft-deleted.
func (i ProductIdea) Archived() bool {
	return i.ArchivedAt != nil
}

// IdeaInput carries the caller-supplied fields for a new idea.
// Zero values mean "use the default": Status draft, Priority medium,
// OwnerID the calling principal.
type IdeaInput struct {
	Title      string
	Summary    string
	Status     Status
	Priority   Priority
	Tags       []string
	OwnerID    string
	AssigneeID string
	TargetDate *time.Time

	// Notes are bodies of notes to attach right after the idea is created.
	Notes []string
}

// IdeaPatch carries a partial update. Nil fields are left untouched.
// OwnerID is accepted so that an attempt to reassign ownership reaches the
// authorization rules, which reject it.
type IdeaPatch struct {
	Title      *string
	Summary    *string
	Status     *Status
	Priority   *Priority
	Tags       *[]string
	OwnerID    *string
	AssigneeID *string
	TargetDate *time.Time
}

// Empty reports whether the patch changes nothing.
func (p IdeaPatch) Empty() bool {
	return p.Title == nil && p.Summary == nil && p.Status == nil && p.Priority == nil &&
		p.Tags == nil && p.OwnerID == nil && p.AssigneeID == nil && p.TargetDate == nil
}

// TitleLower returns the search key stored alongside a title.
func TitleLower(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// NormalizeTags trims and lowercases every tag, drops empty entries and
// duplicates, and keeps the first-occurrence order for display.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		n := strings.ToLower(strings.TrimSpace(t))
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// TagProblem returns a description of why tag cannot be stored, or "" when
// it is acceptable. Tags are checked after trimming.
func TagProblem(tag string) string {
	t := strings.TrimSpace(tag)
	if utf8.RuneCountInString(t) > MaxTagLen {
		return "tag exceeds 64 characters"
	}
	for _, r := range t {
		if r == ',' {
			return "tag must not contain commas"
		}
		if unicode.IsControl(r) {
			return "tag must not contain control characters"
		}
	}
	return ""
}
