package query

import (
	"context"
	"fmt"

	"github.com/rollbook-hub/rollbook/internal/domain/person"
)

// ══════════════════════════════════════════════════════════════════════════════
// ATTENDANCE SUMMARY QUERY
// Сводка посещаемости и успеваемости по всему ростеру. Используется
// HTTP-эндпоинтом сводки и фоновой задачей rebuild-summaries.
// ══════════════════════════════════════════════════════════════════════════════

// AttendanceSummaryQuery содержит параметры сводки.
type AttendanceSummaryQuery struct {
	// MinAbsenceStreak - включать в список absentees контакты с серией
	// пропусков не короче этого значения (по умолчанию 3).
	MinAbsenceStreak int
}

// Validate нормализует параметры.
func (q *AttendanceSummaryQuery) Validate() error {
	if q.MinAbsenceStreak <= 0 {
		q.MinAbsenceStreak = 3
	}
	return nil
}

// PersonSummaryDTO - сводка по одному контакту.
type PersonSummaryDTO struct {
	RecordID            string  `json:"record_id"`
	Name                string  `json:"name"`
	GradeCount          int     `json:"grade_count"`
	GradeAverage        float64 `json:"grade_average"`
	AttendanceRate      float64 `json:"attendance_rate"`
	ConsecutiveAbsences int     `json:"consecutive_absences"`
}

// RosterSummaryDTO - сводка по всему ростеру.
type RosterSummaryDTO struct {
	TotalPersons int                `json:"total_persons"`
	Persons      []PersonSummaryDTO `json:"persons"`
	Absentees    []PersonSummaryDTO `json:"absentees"`

	// MinAbsenceStreak - порог, с которым собран список absentees.
	// Сводка из кеша годится только для запроса с тем же порогом.
	MinAbsenceStreak int `json:"min_absence_streak"`
}

// SummaryCacheKey - ключ, под которым фоновая задача хранит готовую сводку.
const SummaryCacheKey = "summary:roster"

// SummaryCache читает готовую сводку, собранную фоновой задачей.
type SummaryCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
}

// AttendanceSummaryHandler обрабатывает AttendanceSummaryQuery.
type AttendanceSummaryHandler struct {
	repo  person.Repository
	cache SummaryCache
}

// NewAttendanceSummaryHandler создаёт обработчик. Кеш опционален: с ним
// сводка берётся готовой из кеша, без него (и при промахе) ростер
// сканируется заново. Пишет в кеш только фоновая задача.
func NewAttendanceSummaryHandler(repo person.Repository, cache SummaryCache) *AttendanceSummaryHandler {
	return &AttendanceSummaryHandler{repo: repo, cache: cache}
}

// Handle выполняет запрос. Ростер читается постранично, чтобы не держать
// всё в памяти разом на больших объёмах.
func (h *AttendanceSummaryHandler) Handle(ctx context.Context, q AttendanceSummaryQuery) (*RosterSummaryDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	if h.cache != nil {
		var cached RosterSummaryDTO
		if err := h.cache.Get(ctx, SummaryCacheKey, &cached); err == nil && cached.MinAbsenceStreak == q.MinAbsenceStreak {
			return &cached, nil
		}
	}

	summary := &RosterSummaryDTO{
		Persons:          []PersonSummaryDTO{},
		Absentees:        []PersonSummaryDTO{},
		MinAbsenceStreak: q.MinAbsenceStreak,
	}

	opts := person.DefaultListOptions()
	opts.Limit = 200

	for {
		records, err := h.repo.List(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("attendance_summary: list: %w", err)
		}
		if len(records) == 0 {
			break
		}

		for _, rec := range records {
			p := rec.Person
			dto := PersonSummaryDTO{
				RecordID:            rec.ID,
				Name:                p.Name().String(),
				GradeCount:          p.Grades().Len(),
				GradeAverage:        p.Grades().Average(),
				AttendanceRate:      p.Attendance().AttendanceRate(),
				ConsecutiveAbsences: p.Attendance().ConsecutiveAbsences(),
			}
			summary.Persons = append(summary.Persons, dto)
			if dto.ConsecutiveAbsences >= q.MinAbsenceStreak {
				summary.Absentees = append(summary.Absentees, dto)
			}
		}

		if len(records) < opts.Limit {
			break
		}
		opts.Offset += opts.Limit
	}

	summary.TotalPersons = len(summary.Persons)
	return summary, nil
}
