package messaging

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rollbook-hub/rollbook/internal/domain/shared"
)

// recordingHandler collects events it receives.
type recordingHandler struct {
	name string
	err  error

	mu     sync.Mutex
	events []shared.Event
}

func (h *recordingHandler) Handle(ctx context.Context, event shared.Event) error {
	h.mu.Lock()
	h.events = append(h.events, event)
	h.mu.Unlock()
	return h.err
}

func (h *recordingHandler) Name() string { return h.name }

func (h *recordingHandler) received() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

type testEvent struct {
	shared.BaseEvent
}

func (e testEvent) Payload() map[string]interface{} {
	return map[string]interface{}{}
}

func newTestEvent(eventType shared.EventType) testEvent {
	return testEvent{BaseEvent: shared.NewBaseEvent(eventType, "rec-1")}
}

func syncBus() *InMemoryEventBus {
	return NewInMemoryEventBus(Config{AsyncMode: false})
}

func TestInMemoryEventBus_PublishDeliversToSubscribers(t *testing.T) {
	ctx := context.Background()
	bus := syncBus()
	defer bus.Close()

	added := &recordingHandler{name: "added"}
	deleted := &recordingHandler{name: "deleted"}
	require.NoError(t, bus.Subscribe(shared.EventPersonAdded, added))
	require.NoError(t, bus.Subscribe(shared.EventPersonDeleted, deleted))

	require.NoError(t, bus.Publish(ctx, newTestEvent(shared.EventPersonAdded)))

	assert.Equal(t, 1, added.received())
	assert.Equal(t, 0, deleted.received())
}

func TestInMemoryEventBus_SubscribeAll(t *testing.T) {
	ctx := context.Background()
	bus := syncBus()
	defer bus.Close()

	all := &recordingHandler{name: "all"}
	require.NoError(t, bus.SubscribeAll(all))

	require.NoError(t, bus.Publish(ctx, newTestEvent(shared.EventPersonAdded)))
	require.NoError(t, bus.Publish(ctx, newTestEvent(shared.EventGradeAdded)))

	assert.Equal(t, 2, all.received())
}

func TestInMemoryEventBus_HandlerErrorDoesNotStopOthers(t *testing.T) {
	ctx := context.Background()
	bus := syncBus()
	defer bus.Close()

	failing := &recordingHandler{name: "failing", err: errors.New("boom")}
	healthy := &recordingHandler{name: "healthy"}
	require.NoError(t, bus.Subscribe(shared.EventPersonAdded, failing))
	require.NoError(t, bus.Subscribe(shared.EventPersonAdded, healthy))

	// Handler errors are logged, not returned: delivery continues.
	require.NoError(t, bus.Publish(ctx, newTestEvent(shared.EventPersonAdded)))

	assert.Equal(t, 1, failing.received())
	assert.Equal(t, 1, healthy.received())
}

func TestInMemoryEventBus_PublishAll(t *testing.T) {
	ctx := context.Background()
	bus := syncBus()
	defer bus.Close()

	handler := &recordingHandler{name: "added"}
	require.NoError(t, bus.Subscribe(shared.EventPersonAdded, handler))

	events := []shared.Event{
		newTestEvent(shared.EventPersonAdded),
		newTestEvent(shared.EventPersonAdded),
	}
	require.NoError(t, bus.PublishAll(ctx, events))
	assert.Equal(t, 2, handler.received())
}

func TestInMemoryEventBus_RejectsAfterClose(t *testing.T) {
	ctx := context.Background()
	bus := syncBus()
	require.NoError(t, bus.Close())

	err := bus.Publish(ctx, newTestEvent(shared.EventPersonAdded))
	assert.Error(t, err)

	assert.Error(t, bus.Subscribe(shared.EventPersonAdded, &recordingHandler{name: "late"}))
}

func TestInMemoryEventBus_NilHandler(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	assert.Error(t, bus.Subscribe(shared.EventPersonAdded, nil))
	assert.Error(t, bus.SubscribeAll(nil))
}
