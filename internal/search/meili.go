package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"

	"github.com/pkordes/product-ideas/backend/internal/domain"
)

const idxIdeas = "product_ideas"

// Meili implements Index via Meilisearch.
type Meili struct {
	client  meili.ServiceManager
	healthy atomic.Bool
	done    chan struct{}
}

var _ Index = (*Meili)(nil)

// NewMeili creates a Meilisearch client and configures the ideas index. An
// unreachable server is not an error: the client keeps probing and
// configures the index once the server answers.
func NewMeili(url, apiKey string) *Meili {
	m := &Meili{
		client: meili.New(url, meili.WithAPIKey(apiKey)),
		done:   make(chan struct{}),
	}

	if _, err := m.client.Health(); err != nil {
		slog.Warn("search: meilisearch unavailable", "url", url, "err", err)
	} else {
		m.healthy.Store(true)
		m.configureIndex()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndex() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{Uid: idxIdeas, PrimaryKey: "id"}); err != nil {
		slog.Debug("search: create index (may already exist)", "index", idxIdeas, "err", err)
	}

	index := m.client.Index(idxIdeas)
	filterable := []interface{}{"ownerId", "status", "tags", "archived"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		slog.Warn("search: update filterable attributes", "index", idxIdeas, "err", err)
	}
	searchable := []string{"title", "summary", "tags"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		slog.Warn("search: update searchable attributes", "index", idxIdeas, "err", err)
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			was := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !was {
				slog.Info("search: meilisearch recovered, reconfiguring index")
				m.configureIndex()
			}
		}
	}
}

// Close stops the background health monitor.
func (m *Meili) Close() {
	close(m.done)
}

// Healthy reports whether Meilisearch is reachable.
func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

// IndexIdea adds or replaces the idea's record.
func (m *Meili) IndexIdea(_ context.Context, idea domain.ProductIdea) error {
	if _, err := m.client.Index(idxIdeas).AddDocuments([]Record{RecordOf(idea)}, nil); err != nil {
		return fmt.Errorf("search.Meili.IndexIdea: %w", err)
	}
	return nil
}

// DeleteIdea removes the idea's record.
func (m *Meili) DeleteIdea(_ context.Context, id string) error {
	if _, err := m.client.Index(idxIdeas).DeleteDocument(id, nil); err != nil {
		return fmt.Errorf("search.Meili.DeleteIdea: %w", err)
	}
	return nil
}

// Search runs q against the ideas index.
func (m *Meili) Search(_ context.Context, q Query) (Result, error) {
	if !m.healthy.Load() {
		return Result{}, fmt.Errorf("search.Meili.Search: %w: meilisearch unhealthy", domain.ErrUnavailable)
	}

	limit := int64(q.Limit)
	if limit <= 0 {
		limit = 20
	}
	sr := &meili.SearchRequest{
		IndexUID:              idxIdeas,
		Query:                 q.Text,
		Limit:                 limit,
		AttributesToHighlight: []string{"title", "summary"},
		HighlightPreTag:       "<mark>",
		HighlightPostTag:      "</mark>",
	}
	if filters := Filters(q); len(filters) > 0 {
		sr.Filter = filters
	}

	resp, err := m.client.MultiSearch(&meili.MultiSearchRequest{Queries: []*meili.SearchRequest{sr}})
	if err != nil {
		m.healthy.Store(false)
		return Result{}, fmt.Errorf("search.Meili.Search: %w: %v", domain.ErrUnavailable, err)
	}

	out := Result{Query: q.Text, Hits: []Hit{}}
	for _, r := range resp.Results {
		out.Total += int(r.EstimatedTotalHits)
		for _, h := range r.Hits {
			out.Hits = append(out.Hits, hitOf(h))
		}
	}
	return out, nil
}

// Filters renders the scoping part of q as Meilisearch filter expressions.
func Filters(q Query) []string {
	var filters []string
	if q.OwnerID != "" {
		filters = append(filters, fmt.Sprintf("ownerId = %q", q.OwnerID))
	}
	if !q.IncludeArchived {
		filters = append(filters, "archived = false")
	}
	return filters
}

func hitOf(h meili.Hit) Hit {
	return Hit{
		ID:       decodeString(h, "id"),
		Title:    firstNonBlank(decodeFormatted(h, "title"), decodeString(h, "title")),
		Snippet:  firstNonBlank(decodeFormatted(h, "summary"), decodeString(h, "summary")),
		Status:   decodeString(h, "status"),
		Archived: decodeBool(h, "archived"),
	}
}

func decodeString(h meili.Hit, key string) string {
	raw, ok := h[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func decodeBool(h meili.Hit, key string) bool {
	raw, ok := h[key]
	if !ok {
		return false
	}
	var b bool
	_ = json.Unmarshal(raw, &b)
	return b
}

func decodeFormatted(h meili.Hit, key string) string {
	raw, ok := h["_formatted"]
	if !ok {
		return ""
	}
	var formatted map[string]json.RawMessage
	if err := json.Unmarshal(raw, &formatted); err != nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(formatted[key], &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
