// Package memory implements an in-memory persistence layer for Rollbook.
// It backs development mode without PostgreSQL and the application-layer tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/rollbook-hub/rollbook/internal/domain/person"
	"github.com/rollbook-hub/rollbook/internal/domain/shared"
)

// PersonRepository implements person.Repository with a mutex-guarded map.
// Records are returned as shallow copies so callers cannot alter the store;
// the Person values inside are immutable anyway.
type PersonRepository struct {
	mu      sync.RWMutex
	records map[string]*person.Record
}

// NewPersonRepository creates an empty in-memory repository.
func NewPersonRepository() *PersonRepository {
	return &PersonRepository{records: make(map[string]*person.Record)}
}

// Create creates a new record.
func (r *PersonRepository) Create(ctx context.Context, rec *person.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[rec.ID]; ok {
		return shared.ErrPersonAlreadyExists
	}
	for _, existing := range r.records {
		if existing.Person.SamePerson(rec.Person) {
			return shared.ErrPersonAlreadyExists
		}
	}

	copied := *rec
	r.records[rec.ID] = &copied
	return nil
}

// GetByID returns a record by ID.
func (r *PersonRepository) GetByID(ctx context.Context, id string) (*person.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, shared.ErrPersonNotFound
	}
	copied := *rec
	return &copied, nil
}

// GetByName returns a record by contact name.
func (r *PersonRepository) GetByName(ctx context.Context, name person.Name) (*person.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rec := range r.records {
		if rec.Person.Name() == name {
			copied := *rec
			return &copied, nil
		}
	}
	return nil, shared.ErrPersonNotFound
}

// Update replaces the contact in an existing record.
func (r *PersonRepository) Update(ctx context.Context, rec *person.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[rec.ID]; !ok {
		return shared.ErrPersonNotFound
	}
	copied := *rec
	r.records[rec.ID] = &copied
	return nil
}

// Delete removes a record.
func (r *PersonRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[id]; !ok {
		return shared.ErrPersonNotFound
	}
	delete(r.records, id)
	return nil
}

// List returns records with pagination.
func (r *PersonRepository) List(ctx context.Context, opts person.ListOptions) ([]*person.Record, error) {
	r.mu.RLock()
	all := make([]*person.Record, 0, len(r.records))
	for _, rec := range r.records {
		copied := *rec
		all = append(all, &copied)
	}
	r.mu.RUnlock()

	sortRecords(all, opts)
	return paginate(all, opts), nil
}

// Search performs a case-insensitive substring search on contact names.
func (r *PersonRepository) Search(ctx context.Context, query string, opts person.ListOptions) ([]*person.Record, error) {
	needle := strings.ToLower(strings.TrimSpace(query))

	r.mu.RLock()
	matched := make([]*person.Record, 0)
	for _, rec := range r.records {
		if strings.Contains(strings.ToLower(rec.Person.Name().String()), needle) {
			copied := *rec
			matched = append(matched, &copied)
		}
	}
	r.mu.RUnlock()

	sortRecords(matched, opts)
	return paginate(matched, opts), nil
}

// FindByTag returns records carrying the given tag.
func (r *PersonRepository) FindByTag(ctx context.Context, tag person.Tag, opts person.ListOptions) ([]*person.Record, error) {
	r.mu.RLock()
	matched := make([]*person.Record, 0)
	for _, rec := range r.records {
		if rec.Person.Tags().Contains(tag) {
			copied := *rec
			matched = append(matched, &copied)
		}
	}
	r.mu.RUnlock()

	sortRecords(matched, opts)
	return paginate(matched, opts), nil
}

// Count returns the total number of records.
func (r *PersonRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records), nil
}

// ExistsByName checks whether a contact with the given name exists.
func (r *PersonRepository) ExistsByName(ctx context.Context, name person.Name) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rec := range r.records {
		if rec.Person.Name() == name {
			return true, nil
		}
	}
	return false, nil
}

func sortRecords(records []*person.Record, opts person.ListOptions) {
	less := func(i, j int) bool {
		switch opts.SortBy {
		case "created_at":
			return records[i].CreatedAt.Before(records[j].CreatedAt)
		case "updated_at":
			return records[i].UpdatedAt.Before(records[j].UpdatedAt)
		default:
			return records[i].Person.Name() < records[j].Person.Name()
		}
	}
	if opts.SortDesc {
		sort.SliceStable(records, func(i, j int) bool { return less(j, i) })
		return
	}
	sort.SliceStable(records, less)
}

func paginate(records []*person.Record, opts person.ListOptions) []*person.Record {
	if opts.Offset >= len(records) {
		return []*person.Record{}
	}
	records = records[opts.Offset:]
	if opts.Limit > 0 && len(records) > opts.Limit {
		records = records[:opts.Limit]
	}
	return records
}
