// Package events carries a change feed for ideas and their notes. The
// service publishes an Event after every successful mutation; live views
// subscribe per idea. The feed is best effort: a lost event never affects
// the stored data.
package events

import (
	"context"
	"time"
)

// Kind names what happened.
type Kind string

const (
	IdeaCreated  Kind = "idea.created"
	IdeaUpdated  Kind = "idea.updated"
	IdeaArchived Kind = "idea.archived"
	IdeaRestored Kind = "idea.restored"
	IdeaDeleted  Kind = "idea.deleted"
	NoteCreated  Kind = "note.created"
	NoteUpdated  Kind = "note.updated"
	NoteDeleted  Kind = "note.deleted"
)

// Event is one change notification. It carries identifiers only; subscribers
// re-read the documents through the store so the rules still apply.
type Event struct {
	Kind   Kind      `json:"kind"`
	IdeaID string    `json:"idea_id"`
	NoteID string    `json:"note_id,omitempty"`
	Actor  string    `json:"actor"`
	At     time.Time `json:"at"`
}

// Publisher sends events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Subscriber delivers the events of a single idea until ctx is done, then
// closes the channel.
type Subscriber interface {
	Subscribe(ctx context.Context, ideaID string) (<-chan Event, error)
}

// Feed is both ends of the change feed.
type Feed interface {
	Publisher
	Subscriber
}

// Nop is a Feed that drops every event and never delivers any. It is used
// when no Redis URL is configured.
type Nop struct{}

var _ Feed = Nop{}

// Publish discards e.
func (Nop) Publish(context.Context, Event) error { return nil }

// Subscribe returns a channel that closes when ctx is done.
func (Nop) Subscribe(ctx context.Context, _ string) (<-chan Event, error) {
	ch := make(chan Event)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}
