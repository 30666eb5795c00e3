package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/rollbook-hub/rollbook/internal/domain/person"
)

// PersonCache implements person.Cache using the generic Redis Cache.
//
// The domain value keeps its fields unexported, so records go over the wire
// as a flat DTO and are rebuilt through the domain constructors on the way
// back. A cached entry that no longer validates is treated as a miss.
type PersonCache struct {
	cache *Cache
}

// NewPersonCache creates a new PersonCache.
func NewPersonCache(cache *Cache) *PersonCache {
	return &PersonCache{cache: cache}
}

// cachedRecord is the wire form of a roster record.
type cachedRecord struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Phone      string             `json:"phone"`
	Email      string             `json:"email"`
	Address    string             `json:"address"`
	Tags       []string           `json:"tags"`
	Grades     []cachedGrade      `json:"grades"`
	Attendance []cachedAttendance `json:"attendance"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

type cachedGrade struct {
	TestName string  `json:"test_name"`
	Score    float64 `json:"score"`
}

type cachedAttendance struct {
	Date   time.Time `json:"date"`
	Status string    `json:"status"`
	Remark string    `json:"remark"`
}

// Get gets a roster record from cache.
// Returns ErrCacheMiss if the record is not cached or fails to rebuild.
func (c *PersonCache) Get(ctx context.Context, id string) (*person.Record, error) {
	var cr cachedRecord
	if err := c.cache.Get(ctx, PersonKey(id), &cr); err != nil {
		return nil, err
	}

	rec, err := cr.toRecord()
	if err != nil {
		// Drop the corrupted entry and treat it as a miss.
		_ = c.cache.Delete(ctx, PersonKey(id))
		return nil, ErrCacheMiss
	}
	return rec, nil
}

// Set stores a roster record in cache with the given TTL.
func (c *PersonCache) Set(ctx context.Context, rec *person.Record, ttl time.Duration) error {
	if rec == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = TTLPersonCache
	}
	return c.cache.Set(ctx, PersonKey(rec.ID), newCachedRecord(rec), ttl)
}

// Delete removes a roster record from cache.
func (c *PersonCache) Delete(ctx context.Context, id string) error {
	return c.cache.Delete(ctx, PersonKey(id))
}

// InvalidateSearches drops all cached search results. Called when a roster
// mutation makes name or tag search results stale.
func (c *PersonCache) InvalidateSearches(ctx context.Context) error {
	return c.cache.DeleteByPattern(ctx, PrefixSearch+"*")
}

// InvalidateAll clears the whole roster cache, including search results.
func (c *PersonCache) InvalidateAll(ctx context.Context) error {
	if err := c.cache.DeleteByPattern(ctx, PrefixPerson+"*"); err != nil {
		return err
	}
	if err := c.cache.DeleteByPattern(ctx, PrefixSearch+"*"); err != nil {
		return err
	}
	return c.cache.DeleteByPattern(ctx, PrefixSummary+"*")
}

func newCachedRecord(rec *person.Record) cachedRecord {
	p := rec.Person

	tags := make([]string, 0, p.Tags().Len())
	for _, t := range p.Tags().Slice() {
		tags = append(tags, t.String())
	}

	grades := make([]cachedGrade, 0, p.Grades().Len())
	for _, g := range p.Grades().Slice() {
		grades = append(grades, cachedGrade{TestName: g.TestName(), Score: g.Score()})
	}

	attendance := make([]cachedAttendance, 0, p.Attendance().Len())
	for _, a := range p.Attendance().Slice() {
		attendance = append(attendance, cachedAttendance{
			Date:   a.Date(),
			Status: string(a.Status()),
			Remark: a.Remark(),
		})
	}

	return cachedRecord{
		ID:         rec.ID,
		Name:       p.Name().String(),
		Phone:      p.Phone().String(),
		Email:      p.Email().String(),
		Address:    p.Address().String(),
		Tags:       tags,
		Grades:     grades,
		Attendance: attendance,
		CreatedAt:  rec.CreatedAt,
		UpdatedAt:  rec.UpdatedAt,
	}
}

func (cr cachedRecord) toRecord() (*person.Record, error) {
	name, err := person.NewName(cr.Name)
	if err != nil {
		return nil, err
	}
	phone, err := person.NewPhone(cr.Phone)
	if err != nil {
		return nil, err
	}
	email, err := person.NewEmail(cr.Email)
	if err != nil {
		return nil, err
	}
	address, err := person.NewAddress(cr.Address)
	if err != nil {
		return nil, err
	}

	tags := make([]person.Tag, 0, len(cr.Tags))
	for _, raw := range cr.Tags {
		tag, err := person.NewTag(raw)
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}

	grades := make([]person.Grade, 0, len(cr.Grades))
	for _, g := range cr.Grades {
		grade, err := person.NewGrade(g.TestName, g.Score)
		if err != nil {
			return nil, err
		}
		grades = append(grades, grade)
	}

	attendance := make([]person.Attendance, 0, len(cr.Attendance))
	for _, a := range cr.Attendance {
		record, err := person.NewAttendance(a.Date, person.AttendanceStatus(a.Status), a.Remark)
		if err != nil {
			return nil, err
		}
		attendance = append(attendance, record)
	}

	p, err := person.NewPerson(
		name, phone, email, address,
		person.NewTagSet(tags...),
		person.NewGradeList(grades...),
		person.NewAttendanceList(attendance...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild cached person: %w", err)
	}

	return &person.Record{
		ID:        cr.ID,
		Person:    p,
		CreatedAt: cr.CreatedAt,
		UpdatedAt: cr.UpdatedAt,
	}, nil
}
