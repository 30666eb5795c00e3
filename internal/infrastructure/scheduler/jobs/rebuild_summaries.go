// Package jobs contains implementations of scheduled jobs for Rollbook.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/rollbook-hub/rollbook/internal/application/query"
	"github.com/rollbook-hub/rollbook/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REBUILD SUMMARIES JOB
// ══════════════════════════════════════════════════════════════════════════════

// SummaryCache stores a prebuilt roster summary for fast reads.
type SummaryCache interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// RebuildSummariesJob recomputes the roster-wide attendance and grade
// summary and stores it in the cache, so the summary endpoint does not pay
// for a full roster scan on every request.
type RebuildSummariesJob struct {
	summaryHandler *query.AttendanceSummaryHandler
	cache          SummaryCache
	cacheKey       string
	cacheTTL       time.Duration
	publisher      shared.EventPublisher
	logger         *slog.Logger

	lastTotal atomic.Int64
}

// RebuildSummariesConfig contains configuration for the job.
type RebuildSummariesConfig struct {
	// CacheKey is the key the summary is stored under.
	CacheKey string

	// CacheTTL is how long the prebuilt summary stays valid.
	CacheTTL time.Duration

	// Logger for structured logging.
	Logger *slog.Logger
}

// NewRebuildSummariesJob creates the job. The cache is optional; without it
// the job still runs and reports roster statistics in its logs.
func NewRebuildSummariesJob(
	summaryHandler *query.AttendanceSummaryHandler,
	cache SummaryCache,
	publisher shared.EventPublisher,
	cfg RebuildSummariesConfig,
) *RebuildSummariesJob {
	if cfg.CacheKey == "" {
		cfg.CacheKey = query.SummaryCacheKey
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if publisher == nil {
		publisher = shared.NoopPublisher{}
	}

	return &RebuildSummariesJob{
		summaryHandler: summaryHandler,
		cache:          cache,
		cacheKey:       cfg.CacheKey,
		cacheTTL:       cfg.CacheTTL,
		publisher:      publisher,
		logger:         cfg.Logger,
	}
}

// Name implements scheduler.Job.
func (j *RebuildSummariesJob) Name() string {
	return "rebuild_summaries"
}

// Description implements scheduler.Job.
func (j *RebuildSummariesJob) Description() string {
	return "Recomputes the roster attendance and grade summary"
}

// Run implements scheduler.Job.
func (j *RebuildSummariesJob) Run(ctx context.Context) error {
	summary, err := j.summaryHandler.Handle(ctx, query.AttendanceSummaryQuery{})
	if err != nil {
		return fmt.Errorf("rebuild_summaries: %w", err)
	}

	if j.cache != nil {
		if err := j.cache.Set(ctx, j.cacheKey, summary, j.cacheTTL); err != nil {
			// The summary is still usable; a cold cache costs one scan.
			j.logger.Warn("failed to cache roster summary", "error", err)
		}
	}

	j.lastTotal.Store(int64(summary.TotalPersons))

	event := shared.NewBaseEvent(shared.EventSummariesRebuilt, "roster")
	if err := j.publisher.Publish(ctx, summariesRebuiltEvent{
		BaseEvent:    event,
		totalPersons: summary.TotalPersons,
		absentees:    len(summary.Absentees),
	}); err != nil {
		j.logger.Warn("failed to publish summaries rebuilt event", "error", err)
	}

	j.logger.Info("roster summary rebuilt",
		"total_persons", summary.TotalPersons,
		"absentees", len(summary.Absentees),
	)

	return nil
}

// LastTotal returns the roster size observed by the last successful run.
func (j *RebuildSummariesJob) LastTotal() int {
	return int(j.lastTotal.Load())
}

type summariesRebuiltEvent struct {
	shared.BaseEvent
	totalPersons int
	absentees    int
}

func (e summariesRebuiltEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"total_persons": e.totalPersons,
		"absentees":     e.absentees,
	}
}
