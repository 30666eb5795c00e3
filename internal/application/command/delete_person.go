package command

import (
	"context"
	"fmt"

	"github.com/rollbook-hub/rollbook/internal/domain/person"
	"github.com/rollbook-hub/rollbook/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DELETE PERSON COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// DeletePersonCommand identifies the record to remove from the roster.
type DeletePersonCommand struct {
	// RecordID is the ID of the roster record.
	RecordID string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate checks the command shape.
func (c DeletePersonCommand) Validate() error {
	if c.RecordID == "" {
		return fmt.Errorf("delete_person: record_id is required")
	}
	return nil
}

// DeletePersonResult contains the outcome of a deletion.
type DeletePersonResult struct {
	// Name is the name of the removed contact.
	Name string

	// Events contains domain events generated.
	Events []shared.Event
}

// DeletePersonHandler handles the DeletePersonCommand.
type DeletePersonHandler struct {
	repo      person.Repository
	cache     person.Cache
	publisher shared.EventPublisher
}

// NewDeletePersonHandler creates a new DeletePersonHandler.
func NewDeletePersonHandler(repo person.Repository, cache person.Cache, publisher shared.EventPublisher) *DeletePersonHandler {
	if publisher == nil {
		publisher = shared.NoopPublisher{}
	}
	return &DeletePersonHandler{repo: repo, cache: cache, publisher: publisher}
}

// Handle executes the delete person command.
func (h *DeletePersonHandler) Handle(ctx context.Context, cmd DeletePersonCommand) (*DeletePersonResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	rec, err := h.repo.GetByID(ctx, cmd.RecordID)
	if err != nil {
		return nil, fmt.Errorf("delete_person: load: %w", err)
	}

	if err := h.repo.Delete(ctx, cmd.RecordID); err != nil {
		return nil, fmt.Errorf("delete_person: delete: %w", err)
	}

	if h.cache != nil {
		_ = h.cache.Delete(ctx, cmd.RecordID)
	}

	event := person.NewPersonDeletedEvent(cmd.RecordID, rec.Person.Name())
	event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	if err := h.publisher.Publish(ctx, event); err != nil {
		return nil, fmt.Errorf("delete_person: publish: %w", err)
	}

	return &DeletePersonResult{
		Name:   rec.Person.Name().String(),
		Events: []shared.Event{event},
	}, nil
}
