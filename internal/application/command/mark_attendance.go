package command

import (
	"context"
	"fmt"
	"time"

	"github.com/rollbook-hub/rollbook/internal/domain/person"
	"github.com/rollbook-hub/rollbook/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MARK ATTENDANCE COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// MarkAttendanceCommand contains an attendance record for a contact.
type MarkAttendanceCommand struct {
	// RecordID identifies the roster record.
	RecordID string

	// Date is the day the attendance applies to (defaults to today if zero).
	Date time.Time

	// Status is one of present, absent, late, excused.
	Status string

	// Remark is an optional note.
	Remark string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate checks the command shape.
func (c MarkAttendanceCommand) Validate() error {
	if c.RecordID == "" {
		return fmt.Errorf("mark_attendance: record_id is required")
	}
	if c.Status == "" {
		return fmt.Errorf("mark_attendance: status is required")
	}
	return nil
}

// MarkAttendanceResult contains the outcome of marking attendance.
type MarkAttendanceResult struct {
	// Record is the updated roster record.
	Record *person.Record

	// ConsecutiveAbsences is the absence streak after this record.
	ConsecutiveAbsences int

	// Events contains domain events generated.
	Events []shared.Event
}

// MarkAttendanceHandler handles the MarkAttendanceCommand.
type MarkAttendanceHandler struct {
	repo      person.Repository
	cache     person.Cache
	publisher shared.EventPublisher
}

// NewMarkAttendanceHandler creates a new MarkAttendanceHandler.
func NewMarkAttendanceHandler(repo person.Repository, cache person.Cache, publisher shared.EventPublisher) *MarkAttendanceHandler {
	if publisher == nil {
		publisher = shared.NoopPublisher{}
	}
	return &MarkAttendanceHandler{repo: repo, cache: cache, publisher: publisher}
}

// Handle executes the mark attendance command.
func (h *MarkAttendanceHandler) Handle(ctx context.Context, cmd MarkAttendanceCommand) (*MarkAttendanceResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	date := cmd.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	record, err := person.NewAttendance(date, person.AttendanceStatus(cmd.Status), cmd.Remark)
	if err != nil {
		return nil, err
	}

	rec, err := h.repo.GetByID(ctx, cmd.RecordID)
	if err != nil {
		return nil, fmt.Errorf("mark_attendance: load: %w", err)
	}

	updated, err := rec.Person.MarkAttendance(record)
	if err != nil {
		return nil, err
	}

	replaced, err := rec.Replace(updated)
	if err != nil {
		return nil, err
	}

	if err := h.repo.Update(ctx, replaced); err != nil {
		return nil, fmt.Errorf("mark_attendance: update: %w", err)
	}

	if h.cache != nil {
		_ = h.cache.Delete(ctx, replaced.ID)
	}

	events := []shared.Event{}
	marked := person.NewAttendanceMarkedEvent(replaced.ID, record)
	marked.BaseEvent = marked.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	events = append(events, marked)

	streak := updated.Attendance().ConsecutiveAbsences()
	if record.Status().CountsAsMissed() && streak >= AbsenceAlertThreshold {
		events = append(events, person.NewAbsenceDetectedEvent(replaced.ID, updated.Name(), streak))
	}

	if err := h.publisher.PublishAll(ctx, events); err != nil {
		return nil, fmt.Errorf("mark_attendance: publish: %w", err)
	}

	return &MarkAttendanceResult{
		Record:              replaced,
		ConsecutiveAbsences: streak,
		Events:              events,
	}, nil
}

// AbsenceAlertThreshold is the absence streak length that triggers an
// AbsenceDetectedEvent.
const AbsenceAlertThreshold = 3
