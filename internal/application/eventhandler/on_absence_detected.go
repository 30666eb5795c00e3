// Package eventhandler содержит обработчики доменных событий.
package eventhandler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rollbook-hub/rollbook/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON ABSENCE DETECTED HANDLER
// Обрабатывает событие "обнаружена серия пропусков".
//
// Фоновый детектор публикует событие каждый раз, когда находит ученика
// с серией пропусков выше порога. Обработчик превращает поток событий
// в полезный сигнал: пишет структурированный алерт в журнал, но не чаще
// одного раза в день на каждую запись, чтобы периодический детектор
// не засорял журнал повторами.
// ═══════════════════════════════════════════════════════════════════════════

// AbsenceAlertConfig содержит настройки обработчика алертов.
type AbsenceAlertConfig struct {
	// MinStreak - минимальная серия пропусков, о которой стоит сообщать.
	// События с меньшей серией игнорируются.
	MinStreak int

	// Logger для вывода алертов.
	Logger *slog.Logger
}

// OnAbsenceDetectedHandler пишет алерты о сериях пропусков с дедупликацией.
type OnAbsenceDetectedHandler struct {
	config AbsenceAlertConfig

	mu sync.Mutex
	// lastAlerted хранит день последнего алерта по каждой записи.
	lastAlerted map[string]time.Time
}

// NewOnAbsenceDetectedHandler создаёт обработчик алертов о пропусках.
func NewOnAbsenceDetectedHandler(cfg AbsenceAlertConfig) *OnAbsenceDetectedHandler {
	if cfg.MinStreak <= 0 {
		cfg.MinStreak = 3
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &OnAbsenceDetectedHandler{
		config:      cfg,
		lastAlerted: make(map[string]time.Time),
	}
}

// Name implements shared.EventHandler.
func (h *OnAbsenceDetectedHandler) Name() string {
	return "on_absence_detected"
}

// Handle implements shared.EventHandler.
func (h *OnAbsenceDetectedHandler) Handle(ctx context.Context, event shared.Event) error {
	if event.EventType() != shared.EventAbsenceDetected {
		return nil
	}

	payload := event.Payload()
	streak, _ := payload["streak"].(int)
	name, _ := payload["name"].(string)

	if streak < h.config.MinStreak {
		return nil
	}

	if !h.shouldAlert(event.AggregateID(), event.OccurredAt()) {
		return nil
	}

	h.config.Logger.WarnContext(ctx, "absence streak alert",
		slog.String("record_id", event.AggregateID()),
		slog.String("name", name),
		slog.Int("streak", streak),
	)
	return nil
}

// shouldAlert возвращает true, если по записи ещё не было алерта сегодня.
func (h *OnAbsenceDetectedHandler) shouldAlert(recordID string, at time.Time) bool {
	day := at.UTC().Truncate(24 * time.Hour)

	h.mu.Lock()
	defer h.mu.Unlock()

	if last, ok := h.lastAlerted[recordID]; ok && last.Equal(day) {
		return false
	}
	h.lastAlerted[recordID] = day
	return true
}
