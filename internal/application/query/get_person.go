// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rollbook-hub/rollbook/internal/domain/person"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PERSON QUERY
// Возвращает одну запись ростера по ID или по имени. Чтение идёт через кеш,
// промах дочитывается из основного хранилища.
// ══════════════════════════════════════════════════════════════════════════════

// GetPersonQuery содержит параметры запроса записи.
type GetPersonQuery struct {
	// RecordID - ID записи ростера.
	RecordID string

	// Name - альтернативный способ идентификации (слабая идентичность).
	Name string
}

// Validate проверяет корректность параметров запроса.
func (q GetPersonQuery) Validate() error {
	if q.RecordID == "" && q.Name == "" {
		return errors.New("get_person: either record_id or name must be provided")
	}
	return nil
}

// PersonDTO - представление записи ростера для внешних слоёв.
type PersonDTO struct {
	RecordID       string          `json:"record_id"`
	Name           string          `json:"name"`
	Phone          string          `json:"phone"`
	Email          string          `json:"email"`
	Address        string          `json:"address"`
	Tags           []string        `json:"tags"`
	Grades         []GradeDTO      `json:"grades"`
	Attendance     []AttendanceDTO `json:"attendance"`
	GradeAverage   float64         `json:"grade_average"`
	AttendanceRate float64         `json:"attendance_rate"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// GradeDTO - представление одной оценки.
type GradeDTO struct {
	Position int     `json:"position"` // единица-базированная позиция
	TestName string  `json:"test_name"`
	Score    float64 `json:"score"`
}

// AttendanceDTO - представление одной записи посещаемости.
type AttendanceDTO struct {
	Date   string `json:"date"`
	Status string `json:"status"`
	Remark string `json:"remark,omitempty"`
}

// NewPersonDTO собирает DTO из записи ростера.
func NewPersonDTO(rec *person.Record) PersonDTO {
	p := rec.Person

	tags := make([]string, 0, p.Tags().Len())
	for _, t := range p.Tags().Slice() {
		tags = append(tags, t.String())
	}

	grades := make([]GradeDTO, 0, p.Grades().Len())
	for i, g := range p.Grades().Slice() {
		grades = append(grades, GradeDTO{
			Position: i + 1,
			TestName: g.TestName(),
			Score:    g.Score(),
		})
	}

	attendance := make([]AttendanceDTO, 0, p.Attendance().Len())
	for _, a := range p.Attendance().Slice() {
		attendance = append(attendance, AttendanceDTO{
			Date:   a.Date().Format("2006-01-02"),
			Status: string(a.Status()),
			Remark: a.Remark(),
		})
	}

	return PersonDTO{
		RecordID:       rec.ID,
		Name:           p.Name().String(),
		Phone:          p.Phone().String(),
		Email:          p.Email().String(),
		Address:        p.Address().String(),
		Tags:           tags,
		Grades:         grades,
		Attendance:     attendance,
		GradeAverage:   p.Grades().Average(),
		AttendanceRate: p.Attendance().AttendanceRate(),
		CreatedAt:      rec.CreatedAt,
		UpdatedAt:      rec.UpdatedAt,
	}
}

// GetPersonHandler обрабатывает GetPersonQuery.
type GetPersonHandler struct {
	repo     person.Repository
	cache    person.Cache
	cacheTTL time.Duration
}

// NewGetPersonHandler создаёт обработчик. Кеш опционален.
func NewGetPersonHandler(repo person.Repository, cache person.Cache, cacheTTL time.Duration) *GetPersonHandler {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &GetPersonHandler{repo: repo, cache: cache, cacheTTL: cacheTTL}
}

// Handle выполняет запрос.
func (h *GetPersonHandler) Handle(ctx context.Context, q GetPersonQuery) (*PersonDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	if q.RecordID != "" {
		rec, err := h.getByID(ctx, q.RecordID)
		if err != nil {
			return nil, err
		}
		dto := NewPersonDTO(rec)
		return &dto, nil
	}

	name, err := person.NewName(q.Name)
	if err != nil {
		return nil, err
	}
	rec, err := h.repo.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("get_person: by name: %w", err)
	}
	dto := NewPersonDTO(rec)
	return &dto, nil
}

// getByID читает запись через кеш.
func (h *GetPersonHandler) getByID(ctx context.Context, id string) (*person.Record, error) {
	if h.cache != nil {
		if rec, err := h.cache.Get(ctx, id); err == nil {
			return rec, nil
		}
	}

	rec, err := h.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get_person: by id: %w", err)
	}

	if h.cache != nil {
		_ = h.cache.Set(ctx, rec, h.cacheTTL)
	}
	return rec, nil
}
