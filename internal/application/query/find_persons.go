package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rollbook-hub/rollbook/internal/domain/person"
)

// ══════════════════════════════════════════════════════════════════════════════
// FIND PERSONS QUERY
// Поиск по имени (подстрока) и/или метке. Результаты двух веток поиска
// дедуплицируются по слабой идентичности контакта (SamePerson).
// ══════════════════════════════════════════════════════════════════════════════

// FindPersonsQuery содержит параметры поиска.
type FindPersonsQuery struct {
	// NameQuery - подстрока имени (без учёта регистра).
	NameQuery string

	// Tag - метка для фильтрации.
	Tag string

	// Limit - максимум результатов (по умолчанию 50).
	Limit int
}

// Validate проверяет и нормализует параметры.
func (q *FindPersonsQuery) Validate() error {
	q.NameQuery = strings.TrimSpace(q.NameQuery)
	q.Tag = strings.TrimSpace(q.Tag)
	if q.NameQuery == "" && q.Tag == "" {
		return errors.New("find_persons: name query or tag is required")
	}
	if q.Limit <= 0 {
		q.Limit = 50
	}
	return nil
}

// cacheKey возвращает каноническую строку запроса для ключа кеша.
// Реализация кеша сама хеширует строку, сырой ввод в ключ не попадает.
func (q FindPersonsQuery) cacheKey() string {
	return fmt.Sprintf("%s|%s|%d", strings.ToLower(q.NameQuery), strings.ToLower(q.Tag), q.Limit)
}

// SearchCache кеширует результаты поиска по каноническому тексту запроса.
type SearchCache interface {
	// GetSearch читает закешированный результат поиска в dest.
	GetSearch(ctx context.Context, query string, dest interface{}) error

	// SetSearch кладёт результат поиска с указанным TTL.
	SetSearch(ctx context.Context, query string, value interface{}, ttl time.Duration) error
}

// DefaultSearchCacheTTL - TTL результатов поиска. Ключи поиска не
// инвалидируются точечно при мутациях, поэтому TTL короткий.
const DefaultSearchCacheTTL = time.Minute

// FindPersonsHandler обрабатывает FindPersonsQuery.
type FindPersonsHandler struct {
	repo     person.Repository
	cache    SearchCache
	cacheTTL time.Duration
}

// NewFindPersonsHandler создаёт обработчик. Кеш опционален.
func NewFindPersonsHandler(repo person.Repository, cache SearchCache, cacheTTL time.Duration) *FindPersonsHandler {
	if cacheTTL <= 0 {
		cacheTTL = DefaultSearchCacheTTL
	}
	return &FindPersonsHandler{repo: repo, cache: cache, cacheTTL: cacheTTL}
}

// Handle выполняет запрос.
func (h *FindPersonsHandler) Handle(ctx context.Context, q FindPersonsQuery) ([]PersonDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	if h.cache != nil {
		var cached []PersonDTO
		if err := h.cache.GetSearch(ctx, q.cacheKey(), &cached); err == nil {
			return cached, nil
		}
	}

	opts := person.DefaultListOptions()
	opts.Limit = q.Limit

	var found []*person.Record

	if q.NameQuery != "" {
		records, err := h.repo.Search(ctx, q.NameQuery, opts)
		if err != nil {
			return nil, fmt.Errorf("find_persons: search: %w", err)
		}
		found = append(found, records...)
	}

	if q.Tag != "" {
		tag, err := person.NewTag(q.Tag)
		if err != nil {
			return nil, err
		}
		records, err := h.repo.FindByTag(ctx, tag, opts)
		if err != nil {
			return nil, fmt.Errorf("find_persons: by tag: %w", err)
		}
		found = append(found, records...)
	}

	deduped := dedupeByIdentity(found)
	if len(deduped) > q.Limit {
		deduped = deduped[:q.Limit]
	}

	dtos := make([]PersonDTO, 0, len(deduped))
	for _, rec := range deduped {
		dtos = append(dtos, NewPersonDTO(rec))
	}

	if h.cache != nil {
		// Промах записи не мешает отдать результат.
		_ = h.cache.SetSearch(ctx, q.cacheKey(), dtos, h.cacheTTL)
	}
	return dtos, nil
}

// dedupeByIdentity убирает дубликаты по слабой идентичности контакта.
func dedupeByIdentity(records []*person.Record) []*person.Record {
	out := make([]*person.Record, 0, len(records))
	for _, rec := range records {
		duplicate := false
		for _, kept := range out {
			if kept.Person.SamePerson(rec.Person) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			out = append(out, rec)
		}
	}
	return out
}
