package person

import (
	"fmt"
	"strings"

	"github.com/rollbook-hub/rollbook/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GRADE
// ══════════════════════════════════════════════════════════════════════════════

// MaxGradeScore - максимально возможный балл.
const MaxGradeScore = 100.0

// Grade - одна оценка контакта: название работы и балл от 0 до 100.
// Значение неизменяемо после создания.
type Grade struct {
	testName string
	score    float64
}

// NewGrade создаёт оценку с валидацией.
func NewGrade(testName string, score float64) (Grade, error) {
	testName = strings.TrimSpace(testName)
	if testName == "" {
		return Grade{}, shared.NewDomainError("person", "NewGrade", shared.ErrNilArgument, "test name is required")
	}
	if score < 0 || score > MaxGradeScore {
		return Grade{}, shared.ErrInvalidGrade
	}
	return Grade{testName: testName, score: score}, nil
}

// TestName возвращает название работы.
func (g Grade) TestName() string {
	return g.testName
}

// Score возвращает балл.
func (g Grade) Score() float64 {
	return g.score
}

// IsZero возвращает true для незаполненной оценки.
func (g Grade) IsZero() bool {
	return g.testName == ""
}

// Equal сравнивает оценки по значению.
func (g Grade) Equal(other Grade) bool {
	return g.testName == other.testName && g.score == other.score
}

// String возвращает представление вида "Math Quiz: 87.5".
func (g Grade) String() string {
	return fmt.Sprintf("%s: %.1f", g.testName, g.score)
}

// ══════════════════════════════════════════════════════════════════════════════
// GRADE LIST
// ══════════════════════════════════════════════════════════════════════════════

// GradeList - упорядоченный неизменяемый список оценок. Порядок добавления
// сохраняется, дубликаты допустимы. Adding и Removing возвращают новый
// список, не трогая исходный.
type GradeList struct {
	grades []Grade
}

// NewGradeList создаёт список оценок из копии входа.
func NewGradeList(grades ...Grade) GradeList {
	if len(grades) == 0 {
		return GradeList{}
	}
	out := make([]Grade, len(grades))
	copy(out, grades)
	return GradeList{grades: out}
}

// Len возвращает количество оценок.
func (l GradeList) Len() int {
	return len(l.grades)
}

// IsEmpty возвращает true, если оценок нет.
func (l GradeList) IsEmpty() bool {
	return len(l.grades) == 0
}

// Get возвращает оценку на указанной позиции.
func (l GradeList) Get(index Index) (Grade, error) {
	if index.IsZero() || index.ZeroBased() >= len(l.grades) {
		return Grade{}, shared.ErrGradeIndex
	}
	return l.grades[index.ZeroBased()], nil
}

// Slice возвращает копию оценок в порядке добавления.
func (l GradeList) Slice() []Grade {
	out := make([]Grade, len(l.grades))
	copy(out, l.grades)
	return out
}

// Adding возвращает новый список с оценкой, добавленной в конец.
func (l GradeList) Adding(grade Grade) GradeList {
	out := make([]Grade, len(l.grades)+1)
	copy(out, l.grades)
	out[len(l.grades)] = grade
	return GradeList{grades: out}
}

// Removing возвращает новый список без оценки на указанной позиции.
// Возвращает ErrGradeIndex при выходе за границы.
func (l GradeList) Removing(index Index) (GradeList, error) {
	if index.IsZero() || index.ZeroBased() >= len(l.grades) {
		return GradeList{}, shared.ErrGradeIndex
	}

	pos := index.ZeroBased()
	out := make([]Grade, 0, len(l.grades)-1)
	out = append(out, l.grades[:pos]...)
	out = append(out, l.grades[pos+1:]...)
	return GradeList{grades: out}, nil
}

// Average возвращает средний балл. Для пустого списка - 0.
func (l GradeList) Average() float64 {
	if len(l.grades) == 0 {
		return 0
	}
	var sum float64
	for _, g := range l.grades {
		sum += g.score
	}
	return sum / float64(len(l.grades))
}

// Equal сравнивает списки по содержимому и порядку.
func (l GradeList) Equal(other GradeList) bool {
	if len(l.grades) != len(other.grades) {
		return false
	}
	for i := range l.grades {
		if !l.grades[i].Equal(other.grades[i]) {
			return false
		}
	}
	return true
}

// String возвращает представление вида "[Math Quiz: 87.5, Final Exam: 91.0]".
func (l GradeList) String() string {
	parts := make([]string, len(l.grades))
	for i, g := range l.grades {
		parts[i] = g.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
