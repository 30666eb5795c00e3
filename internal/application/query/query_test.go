package query

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rollbook-hub/rollbook/internal/application/command"
	"github.com/rollbook-hub/rollbook/internal/domain/person"
	"github.com/rollbook-hub/rollbook/internal/domain/shared"
	"github.com/rollbook-hub/rollbook/internal/infrastructure/persistence/memory"
)

func seedRoster(t *testing.T) (person.Repository, map[string]string) {
	t.Helper()

	repo := memory.NewPersonRepository()
	add := command.NewAddPersonHandler(repo, nil, nil)
	ids := make(map[string]string)

	for _, c := range []command.AddPersonCommand{
		{Name: "Alex Yeoh", Phone: "87438807", Email: "alexyeoh@example.com", Address: "Blk 30 Geylang Street 29", Tags: []string{"friends"}},
		{Name: "Bernice Yu", Phone: "99272758", Email: "berniceyu@example.com", Address: "Blk 30 Lorong 3 Serangoon Gardens", Tags: []string{"colleagues", "friends"}},
		{Name: "Charlotte Oliveiro", Phone: "93210283", Email: "charlotte@example.com", Address: "Blk 11 Ang Mo Kio Street 74", Tags: []string{"neighbours"}},
	} {
		result, err := add.Handle(context.Background(), c)
		require.NoError(t, err)
		ids[c.Name] = result.RecordID
	}
	return repo, ids
}

func TestGetPersonHandler(t *testing.T) {
	ctx := context.Background()
	repo, ids := seedRoster(t)
	handler := NewGetPersonHandler(repo, nil, 0)

	t.Run("by record id", func(t *testing.T) {
		dto, err := handler.Handle(ctx, GetPersonQuery{RecordID: ids["Alex Yeoh"]})
		require.NoError(t, err)
		assert.Equal(t, "Alex Yeoh", dto.Name)
		assert.Equal(t, []string{"friends"}, dto.Tags)
		assert.Empty(t, dto.Grades)
	})

	t.Run("by name", func(t *testing.T) {
		dto, err := handler.Handle(ctx, GetPersonQuery{Name: "Bernice Yu"})
		require.NoError(t, err)
		assert.Equal(t, ids["Bernice Yu"], dto.RecordID)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := handler.Handle(ctx, GetPersonQuery{RecordID: "missing"})
		assert.True(t, shared.IsNotFound(err))
	})

	t.Run("requires an identifier", func(t *testing.T) {
		_, err := handler.Handle(ctx, GetPersonQuery{})
		require.Error(t, err)
	})
}

func TestListPersonsHandler(t *testing.T) {
	ctx := context.Background()
	repo, _ := seedRoster(t)
	handler := NewListPersonsHandler(repo)

	t.Run("sorted by name with total", func(t *testing.T) {
		dto, err := handler.Handle(ctx, ListPersonsQuery{})
		require.NoError(t, err)
		assert.Equal(t, 3, dto.Total)
		require.Len(t, dto.Persons, 3)
		assert.Equal(t, "Alex Yeoh", dto.Persons[0].Name)
		assert.Equal(t, "Charlotte Oliveiro", dto.Persons[2].Name)
	})

	t.Run("pagination", func(t *testing.T) {
		dto, err := handler.Handle(ctx, ListPersonsQuery{Offset: 1, Limit: 1})
		require.NoError(t, err)
		assert.Equal(t, 3, dto.Total)
		require.Len(t, dto.Persons, 1)
		assert.Equal(t, "Bernice Yu", dto.Persons[0].Name)
	})

	t.Run("rejects unknown sort field", func(t *testing.T) {
		_, err := handler.Handle(ctx, ListPersonsQuery{SortBy: "phone"})
		require.Error(t, err)
	})
}

func TestFindPersonsHandler(t *testing.T) {
	ctx := context.Background()
	repo, _ := seedRoster(t)
	handler := NewFindPersonsHandler(repo, nil, 0)

	t.Run("by name substring", func(t *testing.T) {
		found, err := handler.Handle(ctx, FindPersonsQuery{NameQuery: "yeoh"})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "Alex Yeoh", found[0].Name)
	})

	t.Run("by tag", func(t *testing.T) {
		found, err := handler.Handle(ctx, FindPersonsQuery{Tag: "friends"})
		require.NoError(t, err)
		assert.Len(t, found, 2)
	})

	t.Run("deduplicates across name and tag branches", func(t *testing.T) {
		found, err := handler.Handle(ctx, FindPersonsQuery{NameQuery: "Bernice", Tag: "friends"})
		require.NoError(t, err)
		assert.Len(t, found, 2)
	})

	t.Run("requires a criterion", func(t *testing.T) {
		_, err := handler.Handle(ctx, FindPersonsQuery{})
		require.Error(t, err)
	})
}

func TestAttendanceSummaryHandler(t *testing.T) {
	ctx := context.Background()
	repo, ids := seedRoster(t)

	mark := command.NewMarkAttendanceHandler(repo, nil, nil)
	for d := 1; d <= 3; d++ {
		_, err := mark.Handle(ctx, command.MarkAttendanceCommand{
			RecordID: ids["Alex Yeoh"],
			Date:     time.Date(2026, time.March, d, 0, 0, 0, 0, time.UTC),
			Status:   "absent",
		})
		require.NoError(t, err)
	}
	_, err := mark.Handle(ctx, command.MarkAttendanceCommand{
		RecordID: ids["Bernice Yu"],
		Date:     time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		Status:   "present",
	})
	require.NoError(t, err)

	_, err = command.NewAddGradeHandler(repo, nil, nil).Handle(ctx, command.AddGradeCommand{
		RecordID: ids["Bernice Yu"],
		TestName: "Math Quiz",
		Score:    90,
	})
	require.NoError(t, err)

	summary, err := NewAttendanceSummaryHandler(repo, nil).Handle(ctx, AttendanceSummaryQuery{})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalPersons)
	require.Len(t, summary.Absentees, 1)
	assert.Equal(t, "Alex Yeoh", summary.Absentees[0].Name)
	assert.Equal(t, 3, summary.Absentees[0].ConsecutiveAbsences)

	for _, s := range summary.Persons {
		if s.Name == "Bernice Yu" {
			assert.InDelta(t, 90.0, s.GradeAverage, 1e-9)
			assert.InDelta(t, 1.0, s.AttendanceRate, 1e-9)
		}
	}
}

// fakeKVCache stores values as JSON, like the Redis cache does.
type fakeKVCache struct {
	entries map[string][]byte
	hits    int
}

func newFakeKVCache() *fakeKVCache {
	return &fakeKVCache{entries: make(map[string][]byte)}
}

func (c *fakeKVCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := c.entries[key]
	if !ok {
		return errors.New("cache miss")
	}
	c.hits++
	return json.Unmarshal(raw, dest)
}

func (c *fakeKVCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

func (c *fakeKVCache) GetSearch(ctx context.Context, query string, dest interface{}) error {
	return c.Get(ctx, "search:"+query, dest)
}

func (c *fakeKVCache) SetSearch(ctx context.Context, query string, value interface{}, ttl time.Duration) error {
	return c.Set(ctx, "search:"+query, value, ttl)
}

func TestFindPersonsHandler_CachesResults(t *testing.T) {
	ctx := context.Background()
	repo, _ := seedRoster(t)
	cache := newFakeKVCache()
	handler := NewFindPersonsHandler(repo, cache, 0)

	found, err := handler.Handle(ctx, FindPersonsQuery{NameQuery: "yeoh"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Len(t, cache.entries, 1)
	assert.Equal(t, 0, cache.hits)

	// The repeat query is served from cache even after the record is gone.
	require.NoError(t, repo.Delete(ctx, found[0].RecordID))
	again, err := handler.Handle(ctx, FindPersonsQuery{NameQuery: "yeoh"})
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, "Alex Yeoh", again[0].Name)
	assert.Equal(t, 1, cache.hits)

	// A different query text is a separate cache entry.
	_, err = handler.Handle(ctx, FindPersonsQuery{Tag: "friends"})
	require.NoError(t, err)
	assert.Len(t, cache.entries, 2)
}

func TestAttendanceSummaryHandler_ReadsPrebuiltSummary(t *testing.T) {
	ctx := context.Background()
	repo, _ := seedRoster(t)
	cache := newFakeKVCache()

	prebuilt := RosterSummaryDTO{
		TotalPersons:     42,
		Persons:          []PersonSummaryDTO{},
		Absentees:        []PersonSummaryDTO{},
		MinAbsenceStreak: 3,
	}
	require.NoError(t, cache.Set(ctx, SummaryCacheKey, prebuilt, 0))

	handler := NewAttendanceSummaryHandler(repo, cache)

	// The default threshold matches the prebuilt summary: no roster scan.
	summary, err := handler.Handle(ctx, AttendanceSummaryQuery{})
	require.NoError(t, err)
	assert.Equal(t, 42, summary.TotalPersons)

	// A different threshold cannot use the cached build and falls back.
	summary, err = handler.Handle(ctx, AttendanceSummaryQuery{MinAbsenceStreak: 5})
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalPersons)
	assert.Equal(t, 5, summary.MinAbsenceStreak)
}
