package person

import (
	"strings"
	"time"

	"github.com/rollbook-hub/rollbook/internal/domain/shared"
)

// Record - запись ростера: неизменяемый контакт плюс служебная обвязка
// хранилища (ID и отметки времени). Сам Person идентичности не несёт -
// слабая идентичность задаётся именем, сильная принадлежит записи.
type Record struct {
	// ID - внутренний уникальный идентификатор записи (UUID в строковом формате).
	ID string

	// Person - текущая версия контакта. Замена контакта - это замена
	// всего значения, а не мутация.
	Person *Person

	// CreatedAt - время создания записи.
	CreatedAt time.Time

	// UpdatedAt - время последней замены контакта.
	UpdatedAt time.Time
}

// NewRecord создаёт запись ростера.
func NewRecord(id string, p *Person) (*Record, error) {
	if strings.TrimSpace(id) == "" {
		return nil, shared.NewDomainError("person", "NewRecord", shared.ErrInvalidID, "record id is required")
	}
	if p == nil {
		return nil, shared.NewDomainError("person", "NewRecord", shared.ErrNilArgument, "person is required")
	}

	now := time.Now().UTC()
	return &Record{
		ID:        id,
		Person:    p,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Replace возвращает новую запись с тем же ID и заменённым контактом.
func (r *Record) Replace(p *Person) (*Record, error) {
	if p == nil {
		return nil, shared.NewDomainError("person", "Replace", shared.ErrNilArgument, "person is required")
	}

	return &Record{
		ID:        r.ID,
		Person:    p,
		CreatedAt: r.CreatedAt,
		UpdatedAt: time.Now().UTC(),
	}, nil
}
