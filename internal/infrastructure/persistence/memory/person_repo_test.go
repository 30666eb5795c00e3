package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rollbook-hub/rollbook/internal/domain/person"
	"github.com/rollbook-hub/rollbook/internal/domain/shared"
)

func newRecord(t *testing.T, id, name, phone string, tags ...string) *person.Record {
	t.Helper()

	n, err := person.NewName(name)
	require.NoError(t, err)
	ph, err := person.NewPhone(phone)
	require.NoError(t, err)
	email, err := person.NewEmail("contact@example.com")
	require.NoError(t, err)
	addr, err := person.NewAddress("Blk 30 Geylang Street 29")
	require.NoError(t, err)

	tagValues := make([]person.Tag, 0, len(tags))
	for _, tag := range tags {
		tv, err := person.NewTag(tag)
		require.NoError(t, err)
		tagValues = append(tagValues, tv)
	}

	p, err := person.NewPerson(n, ph, email, addr, person.NewTagSet(tagValues...), person.GradeList{}, person.AttendanceList{})
	require.NoError(t, err)

	rec, err := person.NewRecord(id, p)
	require.NoError(t, err)
	return rec
}

func TestPersonRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewPersonRepository()

	rec := newRecord(t, "rec-1", "Alex Yeoh", "87438807", "friends")
	require.NoError(t, repo.Create(ctx, rec))

	got, err := repo.GetByID(ctx, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, "Alex Yeoh", got.Person.Name().String())

	byName, err := repo.GetByName(ctx, rec.Person.Name())
	require.NoError(t, err)
	assert.Equal(t, "rec-1", byName.ID)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, shared.ErrPersonNotFound)
}

func TestPersonRepository_RejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	repo := NewPersonRepository()

	require.NoError(t, repo.Create(ctx, newRecord(t, "rec-1", "Alex Yeoh", "87438807")))

	err := repo.Create(ctx, newRecord(t, "rec-1", "Bernice Yu", "99272758"))
	assert.ErrorIs(t, err, shared.ErrPersonAlreadyExists)

	// Same contact name under a different ID is also a duplicate.
	err = repo.Create(ctx, newRecord(t, "rec-2", "Alex Yeoh", "91031282"))
	assert.ErrorIs(t, err, shared.ErrPersonAlreadyExists)
}

func TestPersonRepository_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewPersonRepository()

	rec := newRecord(t, "rec-1", "Alex Yeoh", "87438807")
	require.NoError(t, repo.Create(ctx, rec))

	replaced := newRecord(t, "rec-1", "Alex Yeoh", "91031282")
	require.NoError(t, repo.Update(ctx, replaced))

	got, err := repo.GetByID(ctx, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, "91031282", got.Person.Phone().String())

	require.NoError(t, repo.Delete(ctx, "rec-1"))
	_, err = repo.GetByID(ctx, "rec-1")
	assert.ErrorIs(t, err, shared.ErrPersonNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, "rec-1"), shared.ErrPersonNotFound)
}

func TestPersonRepository_ListSortsAndPaginates(t *testing.T) {
	ctx := context.Background()
	repo := NewPersonRepository()

	require.NoError(t, repo.Create(ctx, newRecord(t, "rec-1", "Charlotte Oliveiro", "93210283")))
	require.NoError(t, repo.Create(ctx, newRecord(t, "rec-2", "Alex Yeoh", "87438807")))
	require.NoError(t, repo.Create(ctx, newRecord(t, "rec-3", "Bernice Yu", "99272758")))

	all, err := repo.List(ctx, person.ListOptions{SortBy: "name"})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Alex Yeoh", all[0].Person.Name().String())
	assert.Equal(t, "Charlotte Oliveiro", all[2].Person.Name().String())

	page, err := repo.List(ctx, person.ListOptions{SortBy: "name", Offset: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Bernice Yu", page[0].Person.Name().String())

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestPersonRepository_SearchAndFindByTag(t *testing.T) {
	ctx := context.Background()
	repo := NewPersonRepository()

	require.NoError(t, repo.Create(ctx, newRecord(t, "rec-1", "Alex Yeoh", "87438807", "friends")))
	require.NoError(t, repo.Create(ctx, newRecord(t, "rec-2", "Bernice Yu", "99272758", "colleagues")))

	found, err := repo.Search(ctx, "yeo", person.ListOptions{})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "rec-1", found[0].ID)

	tag, err := person.NewTag("colleagues")
	require.NoError(t, err)
	tagged, err := repo.FindByTag(ctx, tag, person.ListOptions{})
	require.NoError(t, err)
	require.Len(t, tagged, 1)
	assert.Equal(t, "rec-2", tagged[0].ID)

	exists, err := repo.ExistsByName(ctx, found[0].Person.Name())
	require.NoError(t, err)
	assert.True(t, exists)
}
