package person

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rollbook-hub/rollbook/internal/domain/shared"
)

func mustGrade(t *testing.T, name string, score float64) Grade {
	t.Helper()
	g, err := NewGrade(name, score)
	require.NoError(t, err)
	return g
}

// newAlex builds the reference person from the acceptance example.
func newAlex(t *testing.T) *Person {
	t.Helper()
	p, err := NewPerson(
		Name("Alex"),
		Phone("91234567"),
		Email("alex@x.com"),
		Address("123 Clementi"),
		NewTagSet(Tag("friend")),
		GradeList{},
		AttendanceList{},
	)
	require.NoError(t, err)
	return p
}

func TestNewPerson_AccessorsReturnConstructorValues(t *testing.T) {
	tags := NewTagSet(Tag("friend"), Tag("classmate"))
	grades := NewGradeList(mustGrade(t, "Quiz 1", 80))

	p, err := NewPerson(Name("Alex"), Phone("91234567"), Email("alex@x.com"), Address("123 Clementi"), tags, grades, AttendanceList{})
	require.NoError(t, err)

	assert.Equal(t, Name("Alex"), p.Name())
	assert.Equal(t, Phone("91234567"), p.Phone())
	assert.Equal(t, Email("alex@x.com"), p.Email())
	assert.Equal(t, Address("123 Clementi"), p.Address())
	assert.True(t, p.Tags().Equal(tags))
	assert.True(t, p.Grades().Equal(grades))
	assert.True(t, p.Attendance().Equal(AttendanceList{}))
}

func TestNewPerson_MissingFieldIsNilArgument(t *testing.T) {
	tests := []struct {
		name    string
		person  func() (*Person, error)
	}{
		{"name", func() (*Person, error) {
			return NewPerson("", "91234567", "alex@x.com", "123 Clementi", TagSet{}, GradeList{}, AttendanceList{})
		}},
		{"phone", func() (*Person, error) {
			return NewPerson("Alex", "", "alex@x.com", "123 Clementi", TagSet{}, GradeList{}, AttendanceList{})
		}},
		{"email", func() (*Person, error) {
			return NewPerson("Alex", "91234567", "", "123 Clementi", TagSet{}, GradeList{}, AttendanceList{})
		}},
		{"address", func() (*Person, error) {
			return NewPerson("Alex", "91234567", "alex@x.com", "", TagSet{}, GradeList{}, AttendanceList{})
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, err := tc.person()
			assert.Nil(t, p)
			assert.True(t, shared.IsNilArgument(err), "expected nil-argument error, got %v", err)
		})
	}
}

func TestNewPerson_InvalidFieldFormats(t *testing.T) {
	_, err := NewPerson("Alex*", "91234567", "alex@x.com", "123 Clementi", TagSet{}, GradeList{}, AttendanceList{})
	assert.ErrorIs(t, err, shared.ErrInvalidFormat)

	_, err = NewPerson("Alex", "phone", "alex@x.com", "123 Clementi", TagSet{}, GradeList{}, AttendanceList{})
	assert.ErrorIs(t, err, shared.ErrInvalidPhone)

	_, err = NewPerson("Alex", "91234567", "not-an-email", "123 Clementi", TagSet{}, GradeList{}, AttendanceList{})
	assert.ErrorIs(t, err, shared.ErrInvalidEmail)

	_, err = NewPerson("Alex", "91234567", "alex@x.com", "123 Clementi", NewTagSet(Tag("bad tag")), GradeList{}, AttendanceList{})
	assert.ErrorIs(t, err, shared.ErrInvalidTag)
}

func TestPerson_SamePerson(t *testing.T) {
	alex := newAlex(t)

	// same reference
	assert.True(t, alex.SamePerson(alex))

	// nil
	assert.False(t, alex.SamePerson(nil))

	// same name, everything else different
	other, err := NewPerson("Alex", "87654321", "other@y.com", "456 Jurong", NewTagSet(Tag("colleague")), GradeList{}, AttendanceList{})
	require.NoError(t, err)
	assert.True(t, alex.SamePerson(other))
	assert.False(t, alex.Equal(other))

	// different name
	bob, err := NewPerson("Bob", "91234567", "alex@x.com", "123 Clementi", NewTagSet(Tag("friend")), GradeList{}, AttendanceList{})
	require.NoError(t, err)
	assert.False(t, alex.SamePerson(bob))
}

func TestPerson_EqualAndHash(t *testing.T) {
	alex := newAlex(t)

	// reflexive
	assert.True(t, alex.Equal(alex))
	assert.False(t, alex.Equal(nil))

	// value-equal copy built independently
	copy := newAlex(t)
	assert.True(t, alex.Equal(copy))
	assert.Equal(t, alex.Hash(), copy.Hash(), "equal persons must hash equally")

	// each field difference breaks strong equality
	diffs := []*Person{}
	mk := func(name Name, phone Phone, email Email, addr Address, tags TagSet) *Person {
		p, err := NewPerson(name, phone, email, addr, tags, GradeList{}, AttendanceList{})
		require.NoError(t, err)
		return p
	}
	diffs = append(diffs,
		mk("Bob", "91234567", "alex@x.com", "123 Clementi", NewTagSet(Tag("friend"))),
		mk("Alex", "99999999", "alex@x.com", "123 Clementi", NewTagSet(Tag("friend"))),
		mk("Alex", "91234567", "bob@x.com", "123 Clementi", NewTagSet(Tag("friend"))),
		mk("Alex", "91234567", "alex@x.com", "456 Jurong", NewTagSet(Tag("friend"))),
		mk("Alex", "91234567", "alex@x.com", "123 Clementi", NewTagSet(Tag("colleague"))),
	)
	for _, other := range diffs {
		assert.False(t, alex.Equal(other), "expected inequality with %s", other)
	}

	withGrade, err := alex.AddGrade(mustGrade(t, "Quiz 1", 80))
	require.NoError(t, err)
	assert.False(t, alex.Equal(withGrade))
}

func TestPerson_AddGradeDerivesNewInstance(t *testing.T) {
	alex := newAlex(t)
	grade := mustGrade(t, "Math Quiz", 87.5)

	updated, err := alex.AddGrade(grade)
	require.NoError(t, err)

	// new instance holds the grade
	require.NotSame(t, alex, updated)
	assert.Equal(t, 1, updated.Grades().Len())
	got, err := updated.Grades().Get(Index{oneBased: 1})
	require.NoError(t, err)
	assert.True(t, grade.Equal(got))

	// original is untouched
	assert.Equal(t, 0, alex.Grades().Len())

	// all other fields unchanged
	assert.Equal(t, alex.Name(), updated.Name())
	assert.Equal(t, alex.Phone(), updated.Phone())
	assert.Equal(t, alex.Email(), updated.Email())
	assert.Equal(t, alex.Address(), updated.Address())
	assert.True(t, alex.Tags().Equal(updated.Tags()))
	assert.True(t, alex.Attendance().Equal(updated.Attendance()))
}

func TestPerson_AddGradeRejectsZeroGrade(t *testing.T) {
	alex := newAlex(t)
	_, err := alex.AddGrade(Grade{})
	assert.True(t, shared.IsNilArgument(err))
}

func TestPerson_RemoveGrade(t *testing.T) {
	alex := newAlex(t)
	first := mustGrade(t, "Quiz 1", 70)
	second := mustGrade(t, "Quiz 2", 90)

	p, err := alex.AddGrade(first)
	require.NoError(t, err)
	p, err = p.AddGrade(second)
	require.NoError(t, err)

	idx, err := NewIndexFromOneBased(1)
	require.NoError(t, err)

	updated, err := p.RemoveGrade(idx)
	require.NoError(t, err)

	// source list keeps both grades
	assert.Equal(t, 2, p.Grades().Len())

	// derived list dropped the first one
	require.Equal(t, 1, updated.Grades().Len())
	remaining, err := updated.Grades().Get(idx)
	require.NoError(t, err)
	assert.True(t, second.Equal(remaining))
}

func TestPerson_RemoveGradeErrors(t *testing.T) {
	alex := newAlex(t)

	// zero index is the missing-argument case
	_, err := alex.RemoveGrade(Index{})
	assert.True(t, shared.IsNilArgument(err))

	// out of range belongs to the grade list
	idx, errIdx := NewIndexFromOneBased(5)
	require.NoError(t, errIdx)
	_, err = alex.RemoveGrade(idx)
	assert.ErrorIs(t, err, shared.ErrIndexOutOfRange)
}

func TestPerson_MarkAttendance(t *testing.T) {
	alex := newAlex(t)

	rec, err := NewAttendance(dayOf(2026, 2, 3), AttendancePresent, "")
	require.NoError(t, err)

	updated, err := alex.MarkAttendance(rec)
	require.NoError(t, err)

	assert.Equal(t, 0, alex.Attendance().Len())
	assert.Equal(t, 1, updated.Attendance().Len())

	_, err = alex.MarkAttendance(Attendance{})
	assert.True(t, shared.IsNilArgument(err))
}

func TestPerson_TagsViewIsReadOnly(t *testing.T) {
	alex := newAlex(t)

	// mutating the exposed slice must not leak into the person
	tags := alex.Tags().Slice()
	tags[0] = Tag("hacked")
	assert.True(t, alex.Tags().Contains(Tag("friend")))
	assert.False(t, alex.Tags().Contains(Tag("hacked")))

	// derivation on the view leaves the original untouched
	bigger := alex.Tags().Adding(Tag("colleague"))
	assert.Equal(t, 2, bigger.Len())
	assert.Equal(t, 1, alex.Tags().Len())
}

func TestPerson_StringDumpsAllSevenFields(t *testing.T) {
	alex := newAlex(t)

	want := "Person{name: Alex, phone: 91234567, email: alex@x.com, address: 123 Clementi, tags: [friend], grades: [], attendance: []}"
	assert.Equal(t, want, alex.String())

	// deterministic
	assert.Equal(t, alex.String(), newAlex(t).String())
}

func TestValueObjectValidation(t *testing.T) {
	_, err := NewName("Alex Yeoh")
	assert.NoError(t, err)
	_, err = NewName("  ")
	assert.True(t, shared.IsNilArgument(err))
	_, err = NewName("peter*")
	assert.ErrorIs(t, err, shared.ErrInvalidName)

	_, err = NewPhone("911")
	assert.NoError(t, err)
	_, err = NewPhone("91")
	assert.ErrorIs(t, err, shared.ErrInvalidPhone)

	_, err = NewEmail("alex@example.com")
	assert.NoError(t, err)
	_, err = NewEmail("alex@")
	assert.ErrorIs(t, err, shared.ErrInvalidEmail)

	_, err = NewAddress("Blk 456, Den Road, #01-355")
	assert.NoError(t, err)

	_, err = NewTag("friend")
	assert.NoError(t, err)
	_, err = NewTag("best friend")
	assert.ErrorIs(t, err, shared.ErrInvalidTag)
}

func TestTagSet_DeduplicatesAndSorts(t *testing.T) {
	s := NewTagSet(Tag("friend"), Tag("colleague"), Tag("friend"))
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []Tag{Tag("colleague"), Tag("friend")}, s.Slice())
	assert.Equal(t, "[colleague, friend]", s.String())

	// insertion order is not significant
	other := NewTagSet(Tag("colleague"), Tag("friend"))
	assert.True(t, s.Equal(other))
}

func TestRecord_ReplaceKeepsIdentity(t *testing.T) {
	alex := newAlex(t)
	rec, err := NewRecord("11111111-1111-1111-1111-111111111111", alex)
	require.NoError(t, err)

	updatedPerson, err := alex.AddGrade(mustGrade(t, "Quiz 1", 75))
	require.NoError(t, err)

	replaced, err := rec.Replace(updatedPerson)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, replaced.ID)
	assert.Equal(t, rec.CreatedAt, replaced.CreatedAt)
	assert.True(t, replaced.Person.Equal(updatedPerson))

	// original record still points at the old person
	assert.True(t, rec.Person.Equal(alex))

	_, err = rec.Replace(nil)
	assert.True(t, shared.IsNilArgument(err))
}
