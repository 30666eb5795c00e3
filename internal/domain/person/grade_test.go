package person

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rollbook-hub/rollbook/internal/domain/shared"
)

func TestNewGrade_Validation(t *testing.T) {
	g, err := NewGrade("Math Quiz", 87.5)
	require.NoError(t, err)
	assert.Equal(t, "Math Quiz", g.TestName())
	assert.Equal(t, 87.5, g.Score())
	assert.Equal(t, "Math Quiz: 87.5", g.String())

	_, err = NewGrade("", 50)
	assert.True(t, shared.IsNilArgument(err))

	_, err = NewGrade("Quiz", -1)
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)

	_, err = NewGrade("Quiz", 100.5)
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)
}

func TestGradeList_AddingIsPersistent(t *testing.T) {
	empty := GradeList{}
	first := mustGrade(t, "Quiz 1", 70)
	second := mustGrade(t, "Quiz 2", 90)

	one := empty.Adding(first)
	two := one.Adding(second)

	assert.Equal(t, 0, empty.Len())
	assert.Equal(t, 1, one.Len())
	assert.Equal(t, 2, two.Len())

	// append order preserved, duplicates allowed
	dup := two.Adding(first)
	assert.Equal(t, []Grade{first, second, first}, dup.Slice())
}

func TestGradeList_Removing(t *testing.T) {
	list := NewGradeList(
		mustGrade(t, "Quiz 1", 70),
		mustGrade(t, "Quiz 2", 90),
		mustGrade(t, "Exam", 85),
	)

	idx, err := NewIndexFromOneBased(2)
	require.NoError(t, err)

	shorter, err := list.Removing(idx)
	require.NoError(t, err)
	assert.Equal(t, 3, list.Len())
	assert.Equal(t, 2, shorter.Len())

	names := []string{}
	for _, g := range shorter.Slice() {
		names = append(names, g.TestName())
	}
	assert.Equal(t, []string{"Quiz 1", "Exam"}, names)

	// out of range
	far, err := NewIndexFromOneBased(10)
	require.NoError(t, err)
	_, err = list.Removing(far)
	assert.ErrorIs(t, err, shared.ErrIndexOutOfRange)

	// zero index
	_, err = list.Removing(Index{})
	assert.ErrorIs(t, err, shared.ErrIndexOutOfRange)
}

func TestGradeList_GetAndAverage(t *testing.T) {
	list := NewGradeList(mustGrade(t, "Quiz 1", 60), mustGrade(t, "Quiz 2", 80))

	idx, err := NewIndexFromZeroBased(0)
	require.NoError(t, err)
	g, err := list.Get(idx)
	require.NoError(t, err)
	assert.Equal(t, "Quiz 1", g.TestName())

	assert.Equal(t, 70.0, list.Average())
	assert.Equal(t, 0.0, GradeList{}.Average())
}

func TestGradeList_EqualAndString(t *testing.T) {
	a := NewGradeList(mustGrade(t, "Quiz 1", 70), mustGrade(t, "Quiz 2", 90))
	b := NewGradeList(mustGrade(t, "Quiz 1", 70), mustGrade(t, "Quiz 2", 90))
	c := NewGradeList(mustGrade(t, "Quiz 2", 90), mustGrade(t, "Quiz 1", 70))

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c), "order matters for grade lists")
	assert.Equal(t, "[Quiz 1: 70.0, Quiz 2: 90.0]", a.String())
	assert.Equal(t, "[]", GradeList{}.String())
}

func TestNewGradeList_CopiesInput(t *testing.T) {
	grades := []Grade{mustGrade(t, "Quiz 1", 70)}
	list := NewGradeList(grades...)

	grades[0] = mustGrade(t, "Hacked", 0)
	got, err := list.Get(Index{oneBased: 1})
	require.NoError(t, err)
	assert.Equal(t, "Quiz 1", got.TestName())
}

func TestIndex_Conversions(t *testing.T) {
	one, err := NewIndexFromOneBased(1)
	require.NoError(t, err)
	assert.Equal(t, 1, one.OneBased())
	assert.Equal(t, 0, one.ZeroBased())
	assert.False(t, one.IsZero())

	zero, err := NewIndexFromZeroBased(0)
	require.NoError(t, err)
	assert.Equal(t, one, zero)

	_, err = NewIndexFromOneBased(0)
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)
	_, err = NewIndexFromZeroBased(-1)
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)

	assert.True(t, Index{}.IsZero())
}
