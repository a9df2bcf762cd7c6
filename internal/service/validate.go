package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pkordes/product-ideas/backend/internal/auth"
	"github.com/pkordes/product-ideas/backend/internal/domain"
)

// caller returns the authenticated principal or domain.ErrUnauthenticated.
func caller(ctx context.Context, op string) (auth.Principal, error) {
	p, ok := auth.FromContext(ctx)
	if !ok {
		return auth.Principal{}, fmt.Errorf("%s: %w", op, domain.ErrUnauthenticated)
	}
	return p, nil
}

// validateIdeaInput enforces the rules a new idea must meet before any store
// call. Empty status and priority are allowed; the service defaults them.
func validateIdeaInput(in domain.IdeaInput) error {
	if err := validateTitle(in.Title); err != nil {
		return err
	}
	if err := validateSummary(in.Summary); err != nil {
		return err
	}
	if in.Status != "" && !in.Status.Valid() {
		return fmt.Errorf("%w: status %q is not one of draft, active, paused, shipped", domain.ErrValidation, in.Status)
	}
	if in.Priority != "" && !in.Priority.Valid() {
		return fmt.Errorf("%w: priority %q is not one of low, medium, high", domain.ErrValidation, in.Priority)
	}
	if err := validateTags(in.Tags); err != nil {
		return err
	}
	for i, body := range in.Notes {
		if strings.TrimSpace(body) == "" {
			return fmt.Errorf("%w: note %d: body is required", domain.ErrValidation, i+1)
		}
	}
	return nil
}

// validateIdeaPatch applies the same field rules to the fields a patch sets.
func validateIdeaPatch(p domain.IdeaPatch) error {
	if p.Empty() {
		return fmt.Errorf("%w: patch changes nothing", domain.ErrValidation)
	}
	if p.Title != nil {
		if err := validateTitle(*p.Title); err != nil {
			return err
		}
	}
	if p.Summary != nil {
		if err := validateSummary(*p.Summary); err != nil {
			return err
		}
	}
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("%w: status %q is not one of draft, active, paused, shipped", domain.ErrValidation, *p.Status)
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return fmt.Errorf("%w: priority %q is not one of low, medium, high", domain.ErrValidation, *p.Priority)
	}
	if p.Tags != nil {
		if err := validateTags(*p.Tags); err != nil {
			return err
		}
	}
	return nil
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	return nil
}

func validateSummary(summary string) error {
	if strings.TrimSpace(summary) == "" {
		return fmt.Errorf("%w: summary is required", domain.ErrValidation)
	}
	if utf8.RuneCountInString(summary) > domain.MaxSummaryLen {
		return fmt.Errorf("%w: summary exceeds %d characters", domain.ErrValidation, domain.MaxSummaryLen)
	}
	return nil
}

func validateTags(tags []string) error {
	for _, t := range tags {
		if problem := domain.TagProblem(t); problem != "" {
			return fmt.Errorf("%w: %s: %q", domain.ErrValidation, problem, t)
		}
	}
	return nil
}

func validateNoteBody(body string) error {
	if strings.TrimSpace(body) == "" {
		return fmt.Errorf("%w: body is required", domain.ErrValidation)
	}
	return nil
}
