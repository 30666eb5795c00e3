// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rollbook-hub/rollbook/internal/domain/person"
	"github.com/rollbook-hub/rollbook/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADD PERSON COMMAND
// Creates a new roster record from raw field values. Duplicate detection
// uses the weak name-based identity, not the full-field equality.
// ══════════════════════════════════════════════════════════════════════════════

// AddPersonCommand contains the raw fields of a new contact.
type AddPersonCommand struct {
	// Name is the contact name (weak identity within the roster).
	Name string

	// Phone is the contact phone number.
	Phone string

	// Email is the contact email address.
	Email string

	// Address is the contact postal address.
	Address string

	// Tags are optional labels; duplicates collapse.
	Tags []string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate checks the presence of required fields. Format rules belong to
// the domain value objects and are applied in the handler.
func (c AddPersonCommand) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("add_person: name is required")
	}
	if c.Phone == "" {
		return fmt.Errorf("add_person: phone is required")
	}
	if c.Email == "" {
		return fmt.Errorf("add_person: email is required")
	}
	if c.Address == "" {
		return fmt.Errorf("add_person: address is required")
	}
	return nil
}

// AddPersonResult contains the outcome of adding a contact.
type AddPersonResult struct {
	// RecordID is the ID of the created roster record.
	RecordID string

	// Person is the created contact.
	Person *person.Person

	// Events contains domain events generated.
	Events []shared.Event
}

// AddPersonHandler handles the AddPersonCommand.
type AddPersonHandler struct {
	repo      person.Repository
	cache     person.Cache
	publisher shared.EventPublisher
}

// NewAddPersonHandler creates a new AddPersonHandler.
// The cache is optional and may be nil.
func NewAddPersonHandler(repo person.Repository, cache person.Cache, publisher shared.EventPublisher) *AddPersonHandler {
	if publisher == nil {
		publisher = shared.NoopPublisher{}
	}
	return &AddPersonHandler{repo: repo, cache: cache, publisher: publisher}
}

// Handle executes the add person command.
func (h *AddPersonHandler) Handle(ctx context.Context, cmd AddPersonCommand) (*AddPersonResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	p, err := buildPerson(cmd.Name, cmd.Phone, cmd.Email, cmd.Address, cmd.Tags)
	if err != nil {
		return nil, err
	}

	exists, err := h.repo.ExistsByName(ctx, p.Name())
	if err != nil {
		return nil, fmt.Errorf("add_person: duplicate check: %w", err)
	}
	if exists {
		return nil, shared.ErrDuplicatePerson
	}

	rec, err := person.NewRecord(uuid.NewString(), p)
	if err != nil {
		return nil, err
	}

	if err := h.repo.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("add_person: create: %w", err)
	}

	event := person.NewPersonAddedEvent(rec.ID, p)
	event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	if err := h.publisher.Publish(ctx, event); err != nil {
		// Events are best-effort; the record is already persisted.
		return nil, fmt.Errorf("add_person: publish: %w", err)
	}

	return &AddPersonResult{
		RecordID: rec.ID,
		Person:   p,
		Events:   []shared.Event{event},
	}, nil
}

// buildPerson assembles a validated immutable Person from raw strings.
func buildPerson(rawName, rawPhone, rawEmail, rawAddress string, rawTags []string) (*person.Person, error) {
	name, err := person.NewName(rawName)
	if err != nil {
		return nil, err
	}
	phone, err := person.NewPhone(rawPhone)
	if err != nil {
		return nil, err
	}
	email, err := person.NewEmail(rawEmail)
	if err != nil {
		return nil, err
	}
	address, err := person.NewAddress(rawAddress)
	if err != nil {
		return nil, err
	}

	tags := make([]person.Tag, 0, len(rawTags))
	for _, raw := range rawTags {
		tag, err := person.NewTag(raw)
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}

	return person.NewPerson(name, phone, email, address, person.NewTagSet(tags...), person.GradeList{}, person.AttendanceList{})
}
