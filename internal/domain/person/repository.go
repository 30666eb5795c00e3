package person

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Эти интерфейсы определяют контракт для работы с хранилищем данных.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции хранилища над записями ростера.
type Repository interface {
	// Create создаёт новую запись.
	// Возвращает shared.ErrPersonAlreadyExists, если запись с таким ID
	// или контакт с таким именем уже есть.
	Create(ctx context.Context, rec *Record) error

	// GetByID возвращает запись по ID.
	// Возвращает shared.ErrPersonNotFound, если запись не найдена.
	GetByID(ctx context.Context, id string) (*Record, error)

	// GetByName возвращает запись по имени контакта (слабая идентичность).
	// Возвращает shared.ErrPersonNotFound, если запись не найдена.
	GetByName(ctx context.Context, name Name) (*Record, error)

	// Update заменяет контакт в существующей записи.
	// Возвращает shared.ErrPersonNotFound, если запись не найдена.
	Update(ctx context.Context, rec *Record) error

	// Delete удаляет запись.
	// Возвращает shared.ErrPersonNotFound, если запись не найдена.
	Delete(ctx context.Context, id string) error

	// List возвращает записи с пагинацией.
	List(ctx context.Context, opts ListOptions) ([]*Record, error)

	// Search выполняет поиск по имени контакта (подстрока, без учёта регистра).
	Search(ctx context.Context, query string, opts ListOptions) ([]*Record, error)

	// FindByTag возвращает записи с указанной меткой.
	FindByTag(ctx context.Context, tag Tag, opts ListOptions) ([]*Record, error)

	// Count возвращает общее количество записей.
	Count(ctx context.Context) (int, error)

	// ExistsByName проверяет, есть ли контакт с таким именем.
	ExistsByName(ctx context.Context, name Name) (bool, error)
}

// Cache определяет кеш записей поверх основного хранилища.
type Cache interface {
	// Get возвращает запись из кеша или ошибку промаха.
	Get(ctx context.Context, id string) (*Record, error)

	// Set кладёт запись в кеш с указанным TTL.
	Set(ctx context.Context, rec *Record, ttl time.Duration) error

	// Delete убирает запись из кеша.
	Delete(ctx context.Context, id string) error

	// InvalidateAll сбрасывает весь кеш записей.
	InvalidateAll(ctx context.Context) error
}

// ListOptions содержит параметры пагинации и сортировки.
type ListOptions struct {
	// Offset - смещение (для пагинации).
	Offset int

	// Limit - максимальное количество записей.
	Limit int

	// SortBy - поле для сортировки: "name", "created_at", "updated_at".
	SortBy string

	// SortDesc - сортировка по убыванию.
	SortDesc bool
}

// DefaultListOptions возвращает параметры по умолчанию.
func DefaultListOptions() ListOptions {
	return ListOptions{
		Offset:   0,
		Limit:    50,
		SortBy:   "name",
		SortDesc: false,
	}
}
