package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/rollbook-hub/rollbook/internal/domain/person"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST PERSONS QUERY
// Постраничный список ростера с сортировкой.
// ══════════════════════════════════════════════════════════════════════════════

// ListPersonsQuery содержит параметры пагинации.
type ListPersonsQuery struct {
	// Offset - смещение.
	Offset int

	// Limit - размер страницы (по умолчанию 50, максимум 200).
	Limit int

	// SortBy - поле сортировки: "name", "created_at", "updated_at".
	SortBy string

	// SortDesc - сортировка по убыванию.
	SortDesc bool
}

// Validate проверяет и нормализует параметры.
func (q *ListPersonsQuery) Validate() error {
	if q.Offset < 0 {
		return errors.New("list_persons: offset cannot be negative")
	}
	if q.Limit < 0 {
		return errors.New("list_persons: limit cannot be negative")
	}
	if q.Limit == 0 {
		q.Limit = 50
	}
	if q.Limit > 200 {
		q.Limit = 200
	}
	switch q.SortBy {
	case "":
		q.SortBy = "name"
	case "name", "created_at", "updated_at":
	default:
		return fmt.Errorf("list_persons: unknown sort field: %s", q.SortBy)
	}
	return nil
}

// PersonListDTO - страница записей ростера.
type PersonListDTO struct {
	Persons []PersonDTO `json:"persons"`
	Total   int         `json:"total"`
	Offset  int         `json:"offset"`
	Limit   int         `json:"limit"`
}

// ListPersonsHandler обрабатывает ListPersonsQuery.
type ListPersonsHandler struct {
	repo person.Repository
}

// NewListPersonsHandler создаёт обработчик.
func NewListPersonsHandler(repo person.Repository) *ListPersonsHandler {
	return &ListPersonsHandler{repo: repo}
}

// Handle выполняет запрос.
func (h *ListPersonsHandler) Handle(ctx context.Context, q ListPersonsQuery) (*PersonListDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	opts := person.ListOptions{
		Offset:   q.Offset,
		Limit:    q.Limit,
		SortBy:   q.SortBy,
		SortDesc: q.SortDesc,
	}

	records, err := h.repo.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list_persons: list: %w", err)
	}

	total, err := h.repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("list_persons: count: %w", err)
	}

	dtos := make([]PersonDTO, 0, len(records))
	for _, rec := range records {
		dtos = append(dtos, NewPersonDTO(rec))
	}

	return &PersonListDTO{
		Persons: dtos,
		Total:   total,
		Offset:  q.Offset,
		Limit:   q.Limit,
	}, nil
}
