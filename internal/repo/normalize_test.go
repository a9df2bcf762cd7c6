package repo_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pkordes/product-ideas/backend/internal/docstore"
	"github.com/pkordes/product-ideas/backend/internal/domain"
	"github.com/pkordes/product-ideas/backend/internal/repo"
)

func TestNormalizeIdea_Defaults(t *testing.T) {
	got := repo.NormalizeIdea("abc", docstore.Fields{"title": "  Alpha Tool "})

	assert.Equal(t, "abc", got.ID)
	assert.Equal(t, "  Alpha Tool ", got.Title)
	assert.Equal(t, "alpha tool", got.TitleLower)
	assert.Equal(t, domain.StatusDraft, got.Status)
	assert.Equal(t, domain.PriorityMedium, got.Priority)
	assert.NotNil(t, got.Tags)
	assert.Empty(t, got.Tags)
	assert.Nil(t, got.ArchivedAt)
	assert.Nil(t, got.TargetDate)
}

func TestNormalizeIdea_IsTotal(t *testing.T) {
	inputs := []docstore.Fields{
		nil,
		{},
		{"title": 42, "status": true, "priority": []any{"x"}, "tags": "ux", "archivedAt": "yesterday"},
		{"tags": []any{"UX", 3, nil, " ux "}},
		{"status": "unknown", "priority": "urgent"},
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() {
			got := repo.NormalizeIdea("id", in)
			assert.True(t, got.Status.Valid())
			assert.True(t, got.Priority.Valid())
			assert.NotNil(t, got.Tags)
		})
	}

	got := repo.NormalizeIdea("id", docstore.Fields{"tags": []any{"UX", 3, nil, " ux "}})
	assert.Equal(t, []string{"ux"}, got.Tags)
}

func TestNormalizeIdea_KeepsStoredValues(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	updated := created.Add(time.Hour)
	archived := created.Add(2 * time.Hour)

	got := repo.NormalizeIdea("id", docstore.Fields{
		"title":      "Beta",
		"titleLower": "beta",
		"summary":    "s",
		"status":     "shipped",
		"priority":   "high",
		"tags":       []any{"api"},
		"ownerId":    "u1",
		"assigneeId": "u2",
		"createdAt":  created,
		"updatedAt":  updated,
		"archivedAt": archived,
	})

	assert.Equal(t, domain.StatusShipped, got.Status)
	assert.Equal(t, domain.PriorityHigh, got.Priority)
	assert.Equal(t, []string{"api"}, got.Tags)
	assert.Equal(t, "u1", got.OwnerID)
	assert.Equal(t, "u2", got.AssigneeID)
	assert.Equal(t, created, got.CreatedAt)
	assert.Equal(t, updated, got.UpdatedAt)
	if assert.NotNil(t, got.ArchivedAt) {
		assert.Equal(t, archived, *got.ArchivedAt)
	}
	assert.True(t, got.Archived())
}

func TestNormalizeIdea_UpdatedAtFallsBackToCreatedAt(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	got := repo.NormalizeIdea("id", docstore.Fields{"createdAt": created})
	assert.Equal(t, created, got.UpdatedAt)
}

func TestNormalizeNote(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	got := repo.NormalizeNote("idea", "n1", docstore.Fields{"body": "hi", "authorId": "u1", "createdAt": created})

	assert.Equal(t, domain.ProductIdeaNote{ID: "n1", IdeaID: "idea", Body: "hi", AuthorID: "u1", CreatedAt: created}, got)
	assert.NotPanics(t, func() { repo.NormalizeNote("idea", "n2", nil) })
}
