package repo

import (
	"time"

	"github.com/pkordes/product-ideas/backend/internal/docstore"
	"github.com/pkordes/product-ideas/backend/internal/domain"
)

// NormalizeIdea turns a stored document into a ProductIdea. It never fails:
// records written by older clients, or partially written ones, get the
// documented defaults (status draft, priority medium, no tags, not archived)
// and malformed fields degrade to zero values.
func NormalizeIdea(id string, f docstore.Fields) domain.ProductIdea {
	title := str(f, "title")

	titleLower, ok := f["titleLower"].(string)
	if !ok {
		titleLower = domain.TitleLower(title)
	}

	status := domain.Status(str(f, "status"))
	if !status.Valid() {
		status = domain.StatusDraft
	}

	priority := domain.Priority(str(f, "priority"))
	if !priority.Valid() {
		priority = domain.PriorityMedium
	}

	createdAt := ts(f, "createdAt")
	updatedAt := ts(f, "updatedAt")
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	return domain.ProductIdea{
		ID:         id,
		Title:      title,
		TitleLower: titleLower,
		Summary:    str(f, "summary"),
		Status:     status,
		Priority:   priority,
		Tags:       domain.NormalizeTags(strs(f, "tags")),
		OwnerID:    str(f, "ownerId"),
		AssigneeID: str(f, "assigneeId"),
		TargetDate: tsPtr(f, "targetDate"),
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
		ArchivedAt: tsPtr(f, "archivedAt"),
	}
}

// NormalizeNote turns a stored note document into a ProductIdeaNote.
func NormalizeNote(ideaID, id string, f docstore.Fields) domain.ProductIdeaNote {
	return domain.ProductIdeaNote{
		ID:        id,
		IdeaID:    ideaID,
		Body:      str(f, "body"),
		AuthorID:  str(f, "authorId"),
		CreatedAt: ts(f, "createdAt"),
	}
}

func str(f docstore.Fields, key string) string {
	s, _ := f[key].(string)
	return s
}

func strs(f docstore.Fields, key string) []string {
	var out []string
	switch v := f[key].(type) {
	case []any:
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
	case []string:
		out = append(out, v...)
	}
	return out
}

func ts(f docstore.Fields, key string) time.Time {
	t, _ := f[key].(time.Time)
	return t
}

func tsPtr(f docstore.Fields, key string) *time.Time {
	t, ok := f[key].(time.Time)
	if !ok {
		return nil
	}
	return &t
}
