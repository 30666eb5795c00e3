package eventhandler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rollbook-hub/rollbook/internal/domain/person"
	"github.com/rollbook-hub/rollbook/internal/domain/shared"
)

// fakeCache records Delete calls for assertions.
type fakeCache struct {
	deleted             []string
	searchInvalidations int
}

func (c *fakeCache) Get(ctx context.Context, id string) (*person.Record, error) {
	return nil, shared.ErrNotFound
}

func (c *fakeCache) Set(ctx context.Context, rec *person.Record, ttl time.Duration) error {
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, id string) error {
	c.deleted = append(c.deleted, id)
	return nil
}

func (c *fakeCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func (c *fakeCache) InvalidateSearches(ctx context.Context) error {
	c.searchInvalidations++
	return nil
}

func mustName(t *testing.T, s string) person.Name {
	t.Helper()
	name, err := person.NewName(s)
	require.NoError(t, err)
	return name
}

func TestOnAbsenceDetectedHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("alerts once per record per day", func(t *testing.T) {
		handler := NewOnAbsenceDetectedHandler(AbsenceAlertConfig{MinStreak: 3})
		event := person.NewAbsenceDetectedEvent("rec-1", mustName(t, "Alex Yeoh"), 4)

		assert.True(t, handler.shouldAlert(event.AggregateID(), event.OccurredAt()))
		assert.False(t, handler.shouldAlert(event.AggregateID(), event.OccurredAt()))

		// A different record is not affected by the first one's alert.
		assert.True(t, handler.shouldAlert("rec-2", event.OccurredAt()))

		// The next day the same record alerts again.
		tomorrow := event.OccurredAt().Add(24 * time.Hour)
		assert.True(t, handler.shouldAlert(event.AggregateID(), tomorrow))
	})

	t.Run("ignores streaks below threshold", func(t *testing.T) {
		handler := NewOnAbsenceDetectedHandler(AbsenceAlertConfig{MinStreak: 5})
		event := person.NewAbsenceDetectedEvent("rec-1", mustName(t, "Alex Yeoh"), 3)

		require.NoError(t, handler.Handle(ctx, event))
		assert.Empty(t, handler.lastAlerted)
	})

	t.Run("ignores unrelated events", func(t *testing.T) {
		handler := NewOnAbsenceDetectedHandler(AbsenceAlertConfig{})
		event := shared.NewBaseEvent(shared.EventPersonAdded, "rec-1")

		require.NoError(t, handler.Handle(ctx, baseOnly{event}))
		assert.Empty(t, handler.lastAlerted)
	})
}

// baseOnly wraps BaseEvent with an empty payload to satisfy shared.Event.
type baseOnly struct {
	shared.BaseEvent
}

func (e baseOnly) Payload() map[string]interface{} {
	return map[string]interface{}{}
}

func TestOnPersonChangedHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("invalidates cache on mutation events", func(t *testing.T) {
		cache := &fakeCache{}
		handler := NewOnPersonChangedHandler(cache, nil)

		event := person.NewAbsenceDetectedEvent("rec-1", mustName(t, "Alex Yeoh"), 3)
		require.NoError(t, handler.Handle(ctx, event))
		assert.Empty(t, cache.deleted, "absence detection does not mutate the record")

		marked := person.NewAttendanceMarkedEvent("rec-2", person.Attendance{})
		require.NoError(t, handler.Handle(ctx, marked))
		assert.Equal(t, []string{"rec-2"}, cache.deleted)

		// Mutations also drop stale search results.
		assert.Equal(t, 1, cache.searchInvalidations)
	})

	t.Run("tolerates nil cache", func(t *testing.T) {
		handler := NewOnPersonChangedHandler(nil, nil)
		marked := person.NewAttendanceMarkedEvent("rec-1", person.Attendance{})
		require.NoError(t, handler.Handle(ctx, marked))
	})
}
