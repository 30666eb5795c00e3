package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rollbook-hub/rollbook/internal/domain/person"
	"github.com/rollbook-hub/rollbook/internal/domain/shared"
	"github.com/rollbook-hub/rollbook/internal/infrastructure/persistence/memory"
)

// capturingPublisher records published events for assertions.
type capturingPublisher struct {
	events []shared.Event
}

func (p *capturingPublisher) Publish(ctx context.Context, event shared.Event) error {
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) PublishAll(ctx context.Context, events []shared.Event) error {
	p.events = append(p.events, events...)
	return nil
}

func seedPerson(t *testing.T, repo person.Repository) string {
	t.Helper()

	handler := NewAddPersonHandler(repo, nil, nil)
	result, err := handler.Handle(context.Background(), AddPersonCommand{
		Name:    "Alex Yeoh",
		Phone:   "87438807",
		Email:   "alexyeoh@example.com",
		Address: "Blk 30 Geylang Street 29",
		Tags:    []string{"friends"},
	})
	require.NoError(t, err)
	return result.RecordID
}

func TestAddPersonHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("creates record and publishes event", func(t *testing.T) {
		repo := memory.NewPersonRepository()
		pub := &capturingPublisher{}
		handler := NewAddPersonHandler(repo, nil, pub)

		result, err := handler.Handle(ctx, AddPersonCommand{
			Name:    "Bernice Yu",
			Phone:   "99272758",
			Email:   "berniceyu@example.com",
			Address: "Blk 30 Lorong 3 Serangoon Gardens",
			Tags:    []string{"colleagues", "friends"},
		})
		require.NoError(t, err)
		require.NotEmpty(t, result.RecordID)
		assert.Equal(t, "Bernice Yu", result.Person.Name().String())
		assert.Equal(t, 2, result.Person.Tags().Len())

		stored, err := repo.GetByID(ctx, result.RecordID)
		require.NoError(t, err)
		assert.True(t, stored.Person.Equal(result.Person))

		require.Len(t, pub.events, 1)
		assert.Equal(t, shared.EventPersonAdded, pub.events[0].EventType())
	})

	t.Run("rejects duplicate name", func(t *testing.T) {
		repo := memory.NewPersonRepository()
		seedPerson(t, repo)

		handler := NewAddPersonHandler(repo, nil, nil)
		_, err := handler.Handle(ctx, AddPersonCommand{
			Name:    "Alex Yeoh",
			Phone:   "11111111",
			Email:   "other@example.com",
			Address: "elsewhere",
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrDuplicatePerson)
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		repo := memory.NewPersonRepository()
		handler := NewAddPersonHandler(repo, nil, nil)

		_, err := handler.Handle(ctx, AddPersonCommand{Name: "Alex Yeoh"})
		require.Error(t, err)
	})

	t.Run("rejects invalid phone format", func(t *testing.T) {
		repo := memory.NewPersonRepository()
		handler := NewAddPersonHandler(repo, nil, nil)

		_, err := handler.Handle(ctx, AddPersonCommand{
			Name:    "Alex Yeoh",
			Phone:   "12",
			Email:   "alexyeoh@example.com",
			Address: "Blk 30",
		})
		require.Error(t, err)
		assert.True(t, shared.IsValidation(err))
	})
}

func TestEditPersonHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces selected fields and keeps the rest", func(t *testing.T) {
		repo := memory.NewPersonRepository()
		id := seedPerson(t, repo)

		handler := NewEditPersonHandler(repo, nil, nil)
		result, err := handler.Handle(ctx, EditPersonCommand{
			RecordID: id,
			Phone:    "91234567",
		})
		require.NoError(t, err)

		p := result.Record.Person
		assert.Equal(t, "91234567", p.Phone().String())
		assert.Equal(t, "Alex Yeoh", p.Name().String())
		assert.Equal(t, "alexyeoh@example.com", p.Email().String())
	})

	t.Run("carries grades and attendance through an edit", func(t *testing.T) {
		repo := memory.NewPersonRepository()
		id := seedPerson(t, repo)

		_, err := NewAddGradeHandler(repo, nil, nil).Handle(ctx, AddGradeCommand{
			RecordID: id,
			TestName: "Math Quiz",
			Score:    87.5,
		})
		require.NoError(t, err)

		result, err := NewEditPersonHandler(repo, nil, nil).Handle(ctx, EditPersonCommand{
			RecordID: id,
			Address:  "Blk 47 Tampines Street 20",
		})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Record.Person.Grades().Len())
	})

	t.Run("rejects rename onto an existing contact", func(t *testing.T) {
		repo := memory.NewPersonRepository()
		seedPerson(t, repo)

		handler := NewAddPersonHandler(repo, nil, nil)
		other, err := handler.Handle(ctx, AddPersonCommand{
			Name:    "Bernice Yu",
			Phone:   "99272758",
			Email:   "berniceyu@example.com",
			Address: "Blk 30 Lorong 3",
		})
		require.NoError(t, err)

		_, err = NewEditPersonHandler(repo, nil, nil).Handle(ctx, EditPersonCommand{
			RecordID: other.RecordID,
			Name:     "Alex Yeoh",
		})
		assert.ErrorIs(t, err, shared.ErrDuplicatePerson)
	})

	t.Run("requires at least one field", func(t *testing.T) {
		repo := memory.NewPersonRepository()
		id := seedPerson(t, repo)

		_, err := NewEditPersonHandler(repo, nil, nil).Handle(ctx, EditPersonCommand{RecordID: id})
		require.Error(t, err)
	})
}

func TestDeletePersonHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes an existing record", func(t *testing.T) {
		repo := memory.NewPersonRepository()
		id := seedPerson(t, repo)
		pub := &capturingPublisher{}

		_, err := NewDeletePersonHandler(repo, nil, pub).Handle(ctx, DeletePersonCommand{RecordID: id})
		require.NoError(t, err)

		_, err = repo.GetByID(ctx, id)
		assert.True(t, shared.IsNotFound(err))
		require.Len(t, pub.events, 1)
		assert.Equal(t, shared.EventPersonDeleted, pub.events[0].EventType())
	})

	t.Run("fails on unknown record", func(t *testing.T) {
		repo := memory.NewPersonRepository()

		_, err := NewDeletePersonHandler(repo, nil, nil).Handle(ctx, DeletePersonCommand{RecordID: "missing"})
		assert.True(t, shared.IsNotFound(err))
	})
}

func TestAddGradeHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("appends a grade and reports the new average", func(t *testing.T) {
		repo := memory.NewPersonRepository()
		id := seedPerson(t, repo)
		handler := NewAddGradeHandler(repo, nil, nil)

		_, err := handler.Handle(ctx, AddGradeCommand{RecordID: id, TestName: "Math Quiz", Score: 80})
		require.NoError(t, err)

		result, err := handler.Handle(ctx, AddGradeCommand{RecordID: id, TestName: "Science Test", Score: 90})
		require.NoError(t, err)
		assert.Equal(t, 2, result.GradeCount)
		assert.InDelta(t, 85.0, result.Average, 1e-9)
	})

	t.Run("rejects out-of-range score", func(t *testing.T) {
		repo := memory.NewPersonRepository()
		id := seedPerson(t, repo)

		_, err := NewAddGradeHandler(repo, nil, nil).Handle(ctx, AddGradeCommand{
			RecordID: id,
			TestName: "Math Quiz",
			Score:    120,
		})
		require.Error(t, err)
		assert.True(t, shared.IsValidation(err))
	})
}

func TestRemoveGradeHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("removes by one-based position", func(t *testing.T) {
		repo := memory.NewPersonRepository()
		id := seedPerson(t, repo)
		add := NewAddGradeHandler(repo, nil, nil)

		_, err := add.Handle(ctx, AddGradeCommand{RecordID: id, TestName: "Math Quiz", Score: 80})
		require.NoError(t, err)
		_, err = add.Handle(ctx, AddGradeCommand{RecordID: id, TestName: "Science Test", Score: 90})
		require.NoError(t, err)

		result, err := NewRemoveGradeHandler(repo, nil, nil).Handle(ctx, RemoveGradeCommand{
			RecordID: id,
			Position: 1,
		})
		require.NoError(t, err)
		assert.Equal(t, "Math Quiz", result.Removed.TestName())
		assert.Equal(t, 1, result.GradeCount)
	})

	t.Run("fails on position past the end", func(t *testing.T) {
		repo := memory.NewPersonRepository()
		id := seedPerson(t, repo)

		_, err := NewRemoveGradeHandler(repo, nil, nil).Handle(ctx, RemoveGradeCommand{
			RecordID: id,
			Position: 1,
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrIndexOutOfRange))
	})
}

func TestMarkAttendanceHandler(t *testing.T) {
	ctx := context.Background()
	day := func(d int) time.Time {
		return time.Date(2026, time.March, d, 0, 0, 0, 0, time.UTC)
	}

	t.Run("records attendance", func(t *testing.T) {
		repo := memory.NewPersonRepository()
		id := seedPerson(t, repo)
		pub := &capturingPublisher{}

		result, err := NewMarkAttendanceHandler(repo, nil, pub).Handle(ctx, MarkAttendanceCommand{
			RecordID: id,
			Date:     day(2),
			Status:   "present",
		})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Record.Person.Attendance().Len())
		assert.Equal(t, 0, result.ConsecutiveAbsences)
		require.Len(t, pub.events, 1)
		assert.Equal(t, shared.EventAttendanceMarked, pub.events[0].EventType())
	})

	t.Run("same-day mark replaces the existing record", func(t *testing.T) {
		repo := memory.NewPersonRepository()
		id := seedPerson(t, repo)
		handler := NewMarkAttendanceHandler(repo, nil, nil)

		_, err := handler.Handle(ctx, MarkAttendanceCommand{
			RecordID: id,
			Date:     day(3),
			Status:   "absent",
		})
		require.NoError(t, err)

		result, err := handler.Handle(ctx, MarkAttendanceCommand{
			RecordID: id,
			Date:     day(3),
			Status:   "present",
		})
		require.NoError(t, err)

		records := result.Record.Person.Attendance()
		assert.Equal(t, 1, records.Len())
		assert.Equal(t, person.AttendancePresent, records.Slice()[0].Status())
		assert.Equal(t, 0, result.ConsecutiveAbsences)
	})

	t.Run("raises an alert on a long absence streak", func(t *testing.T) {
		repo := memory.NewPersonRepository()
		id := seedPerson(t, repo)
		pub := &capturingPublisher{}
		handler := NewMarkAttendanceHandler(repo, nil, pub)

		for d := 1; d <= AbsenceAlertThreshold; d++ {
			_, err := handler.Handle(ctx, MarkAttendanceCommand{
				RecordID: id,
				Date:     day(d),
				Status:   "absent",
			})
			require.NoError(t, err)
		}

		var alerts int
		for _, e := range pub.events {
			if e.EventType() == shared.EventAbsenceDetected {
				alerts++
			}
		}
		assert.Equal(t, 1, alerts)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		repo := memory.NewPersonRepository()
		id := seedPerson(t, repo)

		_, err := NewMarkAttendanceHandler(repo, nil, nil).Handle(ctx, MarkAttendanceCommand{
			RecordID: id,
			Date:     day(2),
			Status:   "vacation",
		})
		require.Error(t, err)
	})
}
