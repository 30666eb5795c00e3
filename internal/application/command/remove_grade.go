package command

import (
	"context"
	"fmt"

	"github.com/rollbook-hub/rollbook/internal/domain/person"
	"github.com/rollbook-hub/rollbook/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REMOVE GRADE COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// RemoveGradeCommand identifies the grade position to remove.
type RemoveGradeCommand struct {
	// RecordID identifies the roster record.
	RecordID string

	// Position is the one-based position in the grade list.
	Position int

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate checks the command shape.
func (c RemoveGradeCommand) Validate() error {
	if c.RecordID == "" {
		return fmt.Errorf("remove_grade: record_id is required")
	}
	if c.Position < 1 {
		return fmt.Errorf("remove_grade: position must be positive")
	}
	return nil
}

// RemoveGradeResult contains the outcome of removing a grade.
type RemoveGradeResult struct {
	// Record is the updated roster record.
	Record *person.Record

	// Removed is the grade that was removed.
	Removed person.Grade

	// GradeCount is the number of grades after the removal.
	GradeCount int

	// Events contains domain events generated.
	Events []shared.Event
}

// RemoveGradeHandler handles the RemoveGradeCommand.
type RemoveGradeHandler struct {
	repo      person.Repository
	cache     person.Cache
	publisher shared.EventPublisher
}

// NewRemoveGradeHandler creates a new RemoveGradeHandler.
func NewRemoveGradeHandler(repo person.Repository, cache person.Cache, publisher shared.EventPublisher) *RemoveGradeHandler {
	if publisher == nil {
		publisher = shared.NoopPublisher{}
	}
	return &RemoveGradeHandler{repo: repo, cache: cache, publisher: publisher}
}

// Handle executes the remove grade command.
func (h *RemoveGradeHandler) Handle(ctx context.Context, cmd RemoveGradeCommand) (*RemoveGradeResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	index, err := person.NewIndexFromOneBased(cmd.Position)
	if err != nil {
		return nil, err
	}

	rec, err := h.repo.GetByID(ctx, cmd.RecordID)
	if err != nil {
		return nil, fmt.Errorf("remove_grade: load: %w", err)
	}

	removed, err := rec.Person.Grades().Get(index)
	if err != nil {
		return nil, err
	}

	updated, err := rec.Person.RemoveGrade(index)
	if err != nil {
		return nil, err
	}

	replaced, err := rec.Replace(updated)
	if err != nil {
		return nil, err
	}

	if err := h.repo.Update(ctx, replaced); err != nil {
		return nil, fmt.Errorf("remove_grade: update: %w", err)
	}

	if h.cache != nil {
		_ = h.cache.Delete(ctx, replaced.ID)
	}

	event := person.NewGradeRemovedEvent(replaced.ID, removed, index)
	event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	if err := h.publisher.Publish(ctx, event); err != nil {
		return nil, fmt.Errorf("remove_grade: publish: %w", err)
	}

	return &RemoveGradeResult{
		Record:     replaced,
		Removed:    removed,
		GradeCount: updated.Grades().Len(),
		Events:     []shared.Event{event},
	}, nil
}
