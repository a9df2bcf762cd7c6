package domain

import "time"

// ProductIdeaNote is a comment attached to an idea. Notes are hard-deleted;
// unlike ideas they carry no archive state.
type ProductIdeaNote struct {
	ID        string    `json:"id"`
	IdeaID    string    `json:"idea_id"`
	Body      string    `json:"body"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}

// NoteInput carries the caller-supplied fields for a new note.
// An empty AuthorID defaults to the calling principal.
type NoteInput struct {
	Body     string
	AuthorID string
}
