package person

import (
	"fmt"

	"github.com/rollbook-hub/rollbook/internal/domain/shared"
)

// Index представляет позицию в списке оценок. Хранится единица-базированное
// значение, поэтому нулевой Index отличим от "первого элемента" и трактуется
// как отсутствующий аргумент.
type Index struct {
	oneBased int
}

// NewIndexFromOneBased создаёт индекс из позиции, считаемой с единицы.
func NewIndexFromOneBased(i int) (Index, error) {
	if i < 1 {
		return Index{}, shared.NewDomainError("person", "NewIndex", shared.ErrValueOutOfRange, "one-based index must be positive")
	}
	return Index{oneBased: i}, nil
}

// NewIndexFromZeroBased создаёт индекс из позиции, считаемой с нуля.
func NewIndexFromZeroBased(i int) (Index, error) {
	if i < 0 {
		return Index{}, shared.NewDomainError("person", "NewIndex", shared.ErrValueOutOfRange, "zero-based index must be non-negative")
	}
	return Index{oneBased: i + 1}, nil
}

// IsZero возвращает true для незаполненного индекса.
func (i Index) IsZero() bool {
	return i.oneBased == 0
}

// OneBased возвращает позицию, считаемую с единицы.
func (i Index) OneBased() int {
	return i.oneBased
}

// ZeroBased возвращает позицию, считаемую с нуля.
func (i Index) ZeroBased() int {
	return i.oneBased - 1
}

// String возвращает строковое представление (единица-базированное).
func (i Index) String() string {
	return fmt.Sprintf("%d", i.oneBased)
}
