package eventhandler

import (
	"context"
	"log/slog"

	"github.com/rollbook-hub/rollbook/internal/domain/person"
	"github.com/rollbook-hub/rollbook/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON PERSON CHANGED HANDLER
// Инвалидация кеша при изменении записи.
//
// Командные обработчики сами обновляют кеш после мутаций, но события
// дают вторую линию обороны: обработчик выбрасывает запись из кеша,
// когда ЛЮБОЙ источник (команда, фоновая задача, будущий импорт)
// публикует событие изменения. Кеш никогда не переживает свою запись.
// ═══════════════════════════════════════════════════════════════════════════

// SearchInvalidator сбрасывает закешированные результаты поиска.
// Реализуется Redis-кешем; кеши без поиска обходятся без него.
type SearchInvalidator interface {
	InvalidateSearches(ctx context.Context) error
}

// OnPersonChangedHandler инвалидирует кеш записи при событиях изменения.
type OnPersonChangedHandler struct {
	cache  person.Cache
	logger *slog.Logger
}

// NewOnPersonChangedHandler создаёт обработчик инвалидации кеша.
func NewOnPersonChangedHandler(cache person.Cache, logger *slog.Logger) *OnPersonChangedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnPersonChangedHandler{cache: cache, logger: logger}
}

// Name implements shared.EventHandler.
func (h *OnPersonChangedHandler) Name() string {
	return "on_person_changed"
}

// Handle implements shared.EventHandler.
func (h *OnPersonChangedHandler) Handle(ctx context.Context, event shared.Event) error {
	if h.cache == nil {
		return nil
	}

	switch event.EventType() {
	case shared.EventPersonReplaced,
		shared.EventPersonDeleted,
		shared.EventGradeAdded,
		shared.EventGradeRemoved,
		shared.EventAttendanceMarked:
	default:
		return nil
	}

	if err := h.cache.Delete(ctx, event.AggregateID()); err != nil {
		// Промах инвалидации не должен валить обработку события:
		// TTL кеша сам закроет окно устаревания.
		h.logger.WarnContext(ctx, "cache invalidation failed",
			slog.String("record_id", event.AggregateID()),
			slog.String("event_type", string(event.EventType())),
			slog.String("error", err.Error()),
		)
	}

	// Мутация делает результаты поиска по имени и меткам устаревшими.
	if inv, ok := h.cache.(SearchInvalidator); ok {
		if err := inv.InvalidateSearches(ctx); err != nil {
			h.logger.WarnContext(ctx, "search cache invalidation failed",
				slog.String("event_type", string(event.EventType())),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}
