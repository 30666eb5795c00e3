package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDay(t *testing.T) {
	noon := time.Date(2026, 3, 15, 12, 30, 45, 0, time.UTC)
	assert.Equal(t, Date(2026, 3, 15), Day(noon))

	// A local evening time east of UTC can land on a different UTC day.
	almaty := time.FixedZone("ALMT", 5*3600)
	lateEvening := time.Date(2026, 3, 15, 2, 0, 0, 0, almaty)
	assert.Equal(t, Date(2026, 3, 14), Day(lateEvening))
}

func TestIsSameDay(t *testing.T) {
	morning := time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 3, 15, 22, 0, 0, 0, time.UTC)
	nextDay := time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)

	assert.True(t, IsSameDay(morning, evening))
	assert.False(t, IsSameDay(evening, nextDay))
}

func TestIsConsecutiveDay(t *testing.T) {
	assert.True(t, IsConsecutiveDay(Date(2026, 3, 15), Date(2026, 3, 16)))
	assert.False(t, IsConsecutiveDay(Date(2026, 3, 15), Date(2026, 3, 17)))
	assert.False(t, IsConsecutiveDay(Date(2026, 3, 16), Date(2026, 3, 15)))

	// Month boundary.
	assert.True(t, IsConsecutiveDay(Date(2026, 2, 28), Date(2026, 3, 1)))
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 0, DaysBetween(Date(2026, 3, 15), Date(2026, 3, 15)))
	assert.Equal(t, 5, DaysBetween(Date(2026, 3, 15), Date(2026, 3, 20)))
	assert.Equal(t, 5, DaysBetween(Date(2026, 3, 20), Date(2026, 3, 15)))
}

func TestSchoolDays(t *testing.T) {
	friday := Date(2026, 3, 20)
	saturday := Date(2026, 3, 21)

	assert.True(t, IsSchoolDay(friday))
	assert.False(t, IsSchoolDay(saturday))
	assert.True(t, IsWeekend(saturday))

	// Friday's next school day skips the weekend.
	assert.Equal(t, Date(2026, 3, 23), NextSchoolDay(friday))
	assert.Equal(t, Date(2026, 3, 23), NextSchoolDay(saturday))
}

func TestParseDate(t *testing.T) {
	day, err := ParseDate("2026-03-15")
	require.NoError(t, err)
	assert.Equal(t, Date(2026, 3, 15), day)
	assert.Equal(t, "2026-03-15", FormatDay(day))

	_, err = ParseDate("15.03.2026")
	assert.Error(t, err)
}

func TestFormatRelative(t *testing.T) {
	assert.Equal(t, "today", FormatRelative(time.Now()))
	assert.Equal(t, "yesterday", FormatRelative(time.Now().AddDate(0, 0, -1)))
	assert.Equal(t, "3 days ago", FormatRelative(time.Now().AddDate(0, 0, -3)))
	assert.Equal(t, "2 weeks ago", FormatRelative(time.Now().AddDate(0, 0, -14)))
	assert.Equal(t, "tomorrow", FormatRelative(time.Now().AddDate(0, 0, 1)))
}
