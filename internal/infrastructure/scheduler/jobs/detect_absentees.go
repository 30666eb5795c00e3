package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/rollbook-hub/rollbook/internal/domain/person"
	"github.com/rollbook-hub/rollbook/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DETECT ABSENTEES JOB
// ══════════════════════════════════════════════════════════════════════════════

// DetectAbsenteesJob scans the roster for contacts whose attendance log ends
// in a long run of absences and publishes an AbsenceDetectedEvent for each.
// Notification handlers subscribed to the event decide what to do about it.
type DetectAbsenteesJob struct {
	repo      person.Repository
	publisher shared.EventPublisher
	logger    *slog.Logger

	// MinStreak is the absence streak length that counts as alarming.
	minStreak int

	lastDetected atomic.Int64
}

// DetectAbsenteesConfig contains configuration for the job.
type DetectAbsenteesConfig struct {
	// MinStreak is the minimum consecutive-absence streak to alert on
	// (default 3).
	MinStreak int

	// Logger for structured logging.
	Logger *slog.Logger
}

// NewDetectAbsenteesJob creates the job.
func NewDetectAbsenteesJob(repo person.Repository, publisher shared.EventPublisher, cfg DetectAbsenteesConfig) *DetectAbsenteesJob {
	if cfg.MinStreak <= 0 {
		cfg.MinStreak = 3
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if publisher == nil {
		publisher = shared.NoopPublisher{}
	}

	return &DetectAbsenteesJob{
		repo:      repo,
		publisher: publisher,
		logger:    cfg.Logger,
		minStreak: cfg.MinStreak,
	}
}

// Name implements scheduler.Job.
func (j *DetectAbsenteesJob) Name() string {
	return "detect_absentees"
}

// Description implements scheduler.Job.
func (j *DetectAbsenteesJob) Description() string {
	return "Finds contacts with long consecutive-absence streaks"
}

// Run implements scheduler.Job.
func (j *DetectAbsenteesJob) Run(ctx context.Context) error {
	opts := person.DefaultListOptions()
	opts.Limit = 200

	var detected int64
	for {
		records, err := j.repo.List(ctx, opts)
		if err != nil {
			return fmt.Errorf("detect_absentees: list: %w", err)
		}
		if len(records) == 0 {
			break
		}

		for _, rec := range records {
			streak := rec.Person.Attendance().ConsecutiveAbsences()
			if streak < j.minStreak {
				continue
			}

			detected++
			event := person.NewAbsenceDetectedEvent(rec.ID, rec.Person.Name(), streak)
			if err := j.publisher.Publish(ctx, event); err != nil {
				j.logger.Warn("failed to publish absence event",
					"record_id", rec.ID,
					"error", err,
				)
			}
		}

		if len(records) < opts.Limit {
			break
		}
		opts.Offset += opts.Limit
	}

	j.lastDetected.Store(detected)
	j.logger.Info("absentee scan finished", "detected", detected)

	return nil
}

// LastDetected returns the number of absentees found by the last run.
func (j *DetectAbsenteesJob) LastDetected() int {
	return int(j.lastDetected.Load())
}
