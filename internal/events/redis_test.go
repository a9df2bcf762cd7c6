package events_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/product-ideas/backend/internal/events"
)

func newTestFeed(t *testing.T) (*events.Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	feed, err := events.NewRedis("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = feed.Close() })
	return feed, mr
}

func receive(t *testing.T, ch <-chan events.Event) events.Event {
	t.Helper()
	select {
	case e, ok := <-ch:
		require.True(t, ok, "channel closed")
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return events.Event{}
}

func TestRedis_PublishSubscribe(t *testing.T) {
	feed, _ := newTestFeed(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := feed.Subscribe(ctx, "idea-1")
	require.NoError(t, err)

	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, feed.Publish(ctx, events.Event{Kind: events.NoteCreated, IdeaID: "idea-1", NoteID: "n1", Actor: "u1", At: at}))

	got := receive(t, ch)
	assert.Equal(t, events.NoteCreated, got.Kind)
	assert.Equal(t, "n1", got.NoteID)
	assert.Equal(t, "u1", got.Actor)
	assert.True(t, got.At.Equal(at))
}

func TestRedis_ChannelsArePerIdea(t *testing.T) {
	feed, _ := newTestFeed(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := feed.Subscribe(ctx, "idea-1")
	require.NoError(t, err)

	require.NoError(t, feed.Publish(ctx, events.Event{Kind: events.IdeaUpdated, IdeaID: "idea-2"}))
	require.NoError(t, feed.Publish(ctx, events.Event{Kind: events.IdeaArchived, IdeaID: "idea-1"}))

	got := receive(t, ch)
	assert.Equal(t, "idea-1", got.IdeaID)
	assert.Equal(t, events.IdeaArchived, got.Kind)
}

func TestRedis_SubscriptionEndsWithContext(t *testing.T) {
	feed, _ := newTestFeed(t)
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := feed.Subscribe(ctx, "idea-1")
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestNewRedis_BadURL(t *testing.T) {
	_, err := events.NewRedis("not-a-url")
	assert.Error(t, err)
}

func TestNewRedis_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := events.NewRedis("redis://" + addr)
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var feed events.Feed = events.Nop{}

	assert.NoError(t, feed.Publish(ctx, events.Event{IdeaID: "x"}))

	ch, err := feed.Subscribe(ctx, "x")
	require.NoError(t, err)
	cancel()
	_, ok := <-ch
	assert.False(t, ok)
}
