package command

import (
	"context"
	"fmt"

	"github.com/rollbook-hub/rollbook/internal/domain/person"
	"github.com/rollbook-hub/rollbook/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADD GRADE COMMAND
// Derives a new contact with one more grade and swaps it into the record.
// The previous Person value is never mutated.
// ══════════════════════════════════════════════════════════════════════════════

// AddGradeCommand contains the grade to add to a contact.
type AddGradeCommand struct {
	// RecordID identifies the roster record.
	RecordID string

	// TestName is the name of the graded work.
	TestName string

	// Score is the grade score, 0-100.
	Score float64

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate checks the command shape.
func (c AddGradeCommand) Validate() error {
	if c.RecordID == "" {
		return fmt.Errorf("add_grade: record_id is required")
	}
	if c.TestName == "" {
		return fmt.Errorf("add_grade: test_name is required")
	}
	return nil
}

// AddGradeResult contains the outcome of adding a grade.
type AddGradeResult struct {
	// Record is the updated roster record.
	Record *person.Record

	// GradeCount is the number of grades after the addition.
	GradeCount int

	// Average is the new average score.
	Average float64

	// Events contains domain events generated.
	Events []shared.Event
}

// AddGradeHandler handles the AddGradeCommand.
type AddGradeHandler struct {
	repo      person.Repository
	cache     person.Cache
	publisher shared.EventPublisher
}

// NewAddGradeHandler creates a new AddGradeHandler.
func NewAddGradeHandler(repo person.Repository, cache person.Cache, publisher shared.EventPublisher) *AddGradeHandler {
	if publisher == nil {
		publisher = shared.NoopPublisher{}
	}
	return &AddGradeHandler{repo: repo, cache: cache, publisher: publisher}
}

// Handle executes the add grade command.
func (h *AddGradeHandler) Handle(ctx context.Context, cmd AddGradeCommand) (*AddGradeResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	grade, err := person.NewGrade(cmd.TestName, cmd.Score)
	if err != nil {
		return nil, err
	}

	rec, err := h.repo.GetByID(ctx, cmd.RecordID)
	if err != nil {
		return nil, fmt.Errorf("add_grade: load: %w", err)
	}

	updated, err := rec.Person.AddGrade(grade)
	if err != nil {
		return nil, err
	}

	replaced, err := rec.Replace(updated)
	if err != nil {
		return nil, err
	}

	if err := h.repo.Update(ctx, replaced); err != nil {
		return nil, fmt.Errorf("add_grade: update: %w", err)
	}

	if h.cache != nil {
		_ = h.cache.Delete(ctx, replaced.ID)
	}

	event := person.NewGradeAddedEvent(replaced.ID, grade, updated.Grades().Len())
	event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	if err := h.publisher.Publish(ctx, event); err != nil {
		return nil, fmt.Errorf("add_grade: publish: %w", err)
	}

	return &AddGradeResult{
		Record:     replaced,
		GradeCount: updated.Grades().Len(),
		Average:    updated.Grades().Average(),
		Events:     []shared.Event{event},
	}, nil
}
