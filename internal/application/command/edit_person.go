package command

import (
	"context"
	"fmt"

	"github.com/rollbook-hub/rollbook/internal/domain/person"
	"github.com/rollbook-hub/rollbook/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// EDIT PERSON COMMAND
// Replaces the contact held by a record with a new immutable value. Identity
// and data fields come from the command; the grade and attendance lists are
// carried over from the current contact unchanged.
// ══════════════════════════════════════════════════════════════════════════════

// EditPersonCommand contains the new field values for an existing record.
// Empty fields keep their current values.
type EditPersonCommand struct {
	// RecordID identifies the roster record to edit.
	RecordID string

	// New field values; empty string means "keep current".
	Name    string
	Phone   string
	Email   string
	Address string

	// Tags replace the whole tag set when non-nil.
	Tags []string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate checks the command shape.
func (c EditPersonCommand) Validate() error {
	if c.RecordID == "" {
		return fmt.Errorf("edit_person: record_id is required")
	}
	if c.Name == "" && c.Phone == "" && c.Email == "" && c.Address == "" && c.Tags == nil {
		return fmt.Errorf("edit_person: at least one field to edit is required")
	}
	return nil
}

// EditPersonResult contains the outcome of an edit.
type EditPersonResult struct {
	// Record is the updated roster record.
	Record *person.Record

	// Events contains domain events generated.
	Events []shared.Event
}

// EditPersonHandler handles the EditPersonCommand.
type EditPersonHandler struct {
	repo      person.Repository
	cache     person.Cache
	publisher shared.EventPublisher
}

// NewEditPersonHandler creates a new EditPersonHandler.
func NewEditPersonHandler(repo person.Repository, cache person.Cache, publisher shared.EventPublisher) *EditPersonHandler {
	if publisher == nil {
		publisher = shared.NoopPublisher{}
	}
	return &EditPersonHandler{repo: repo, cache: cache, publisher: publisher}
}

// Handle executes the edit person command.
func (h *EditPersonHandler) Handle(ctx context.Context, cmd EditPersonCommand) (*EditPersonResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	rec, err := h.repo.GetByID(ctx, cmd.RecordID)
	if err != nil {
		return nil, fmt.Errorf("edit_person: load: %w", err)
	}
	current := rec.Person

	name := current.Name()
	if cmd.Name != "" {
		if name, err = person.NewName(cmd.Name); err != nil {
			return nil, err
		}
	}
	phone := current.Phone()
	if cmd.Phone != "" {
		if phone, err = person.NewPhone(cmd.Phone); err != nil {
			return nil, err
		}
	}
	email := current.Email()
	if cmd.Email != "" {
		if email, err = person.NewEmail(cmd.Email); err != nil {
			return nil, err
		}
	}
	address := current.Address()
	if cmd.Address != "" {
		if address, err = person.NewAddress(cmd.Address); err != nil {
			return nil, err
		}
	}
	tags := current.Tags()
	if cmd.Tags != nil {
		parsed := make([]person.Tag, 0, len(cmd.Tags))
		for _, raw := range cmd.Tags {
			tag, err := person.NewTag(raw)
			if err != nil {
				return nil, err
			}
			parsed = append(parsed, tag)
		}
		tags = person.NewTagSet(parsed...)
	}

	// Renaming must not collide with another contact's weak identity.
	if name != current.Name() {
		exists, err := h.repo.ExistsByName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("edit_person: duplicate check: %w", err)
		}
		if exists {
			return nil, shared.ErrDuplicatePerson
		}
	}

	updated, err := person.NewPerson(name, phone, email, address, tags, current.Grades(), current.Attendance())
	if err != nil {
		return nil, err
	}

	replaced, err := rec.Replace(updated)
	if err != nil {
		return nil, err
	}

	if err := h.repo.Update(ctx, replaced); err != nil {
		return nil, fmt.Errorf("edit_person: update: %w", err)
	}

	if h.cache != nil {
		_ = h.cache.Delete(ctx, replaced.ID)
	}

	event := person.NewPersonReplacedEvent(replaced.ID, updated)
	event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	if err := h.publisher.Publish(ctx, event); err != nil {
		return nil, fmt.Errorf("edit_person: publish: %w", err)
	}

	return &EditPersonResult{
		Record: replaced,
		Events: []shared.Event{event},
	}, nil
}
