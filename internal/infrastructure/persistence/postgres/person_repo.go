// Package postgres implements the PostgreSQL persistence layer for Rollbook.
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/rollbook-hub/rollbook/internal/domain/person"
	"github.com/rollbook-hub/rollbook/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PERSON REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// PersonRepository implements person.Repository for PostgreSQL.
//
// A contact is stored across three tables: the persons row holds the scalar
// fields and tags, person_grades and person_attendance hold the ordered
// lists. The domain value is immutable, so an update rewrites the child rows
// wholesale inside one transaction instead of diffing them.
type PersonRepository struct {
	conn *Connection
}

// NewPersonRepository creates a new PersonRepository.
func NewPersonRepository(conn *Connection) *PersonRepository {
	return &PersonRepository{conn: conn}
}

// ─────────────────────────────────────────────────────────────────────────────
// CRUD Operations
// ─────────────────────────────────────────────────────────────────────────────

// Create creates a new roster record.
func (r *PersonRepository) Create(ctx context.Context, rec *person.Record) error {
	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		query := `
			INSERT INTO persons (id, name, phone, email, address, tags, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`

		p := rec.Person
		_, err := tx.Exec(ctx, query,
			rec.ID,
			p.Name().String(),
			p.Phone().String(),
			p.Email().String(),
			p.Address().String(),
			tagStrings(p.Tags()),
			rec.CreatedAt,
			rec.UpdatedAt,
		)
		if err != nil {
			return err
		}

		return insertChildren(ctx, tx, rec.ID, p)
	})
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrPersonAlreadyExists
		}
		return fmt.Errorf("failed to create person: %w", err)
	}

	return nil
}

// GetByID returns a roster record by internal ID.
func (r *PersonRepository) GetByID(ctx context.Context, id string) (*person.Record, error) {
	row := r.conn.QueryRow(ctx, selectPersonQuery+" WHERE id = $1", id)
	return r.scanAndLoad(ctx, row)
}

// GetByName returns a roster record by contact name.
func (r *PersonRepository) GetByName(ctx context.Context, name person.Name) (*person.Record, error) {
	row := r.conn.QueryRow(ctx, selectPersonQuery+" WHERE name = $1", name.String())
	return r.scanAndLoad(ctx, row)
}

// Update replaces the contact held by an existing record.
func (r *PersonRepository) Update(ctx context.Context, rec *person.Record) error {
	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		query := `
			UPDATE persons SET
				name = $1,
				phone = $2,
				email = $3,
				address = $4,
				tags = $5,
				updated_at = $6
			WHERE id = $7
		`

		p := rec.Person
		result, err := tx.Exec(ctx, query,
			p.Name().String(),
			p.Phone().String(),
			p.Email().String(),
			p.Address().String(),
			tagStrings(p.Tags()),
			time.Now().UTC(),
			rec.ID,
		)
		if err != nil {
			return err
		}
		if result.RowsAffected() == 0 {
			return shared.ErrPersonNotFound
		}

		// The lists are small and immutable; rewrite instead of diffing.
		if _, err := tx.Exec(ctx, "DELETE FROM person_grades WHERE person_id = $1", rec.ID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, "DELETE FROM person_attendance WHERE person_id = $1", rec.ID); err != nil {
			return err
		}

		return insertChildren(ctx, tx, rec.ID, p)
	})
	if err != nil {
		if shared.IsNotFound(err) {
			return err
		}
		if IsUniqueViolation(err) {
			return shared.ErrPersonAlreadyExists
		}
		return fmt.Errorf("failed to update person: %w", err)
	}

	return nil
}

// Delete removes a roster record. Child rows go with it via ON DELETE CASCADE.
func (r *PersonRepository) Delete(ctx context.Context, id string) error {
	result, err := r.conn.Exec(ctx, "DELETE FROM persons WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete person: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrPersonNotFound
	}

	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Bulk Operations
// ─────────────────────────────────────────────────────────────────────────────

// List returns roster records with pagination.
func (r *PersonRepository) List(ctx context.Context, opts person.ListOptions) ([]*person.Record, error) {
	query := selectPersonQuery + buildOrderBy(opts) + " LIMIT $1 OFFSET $2"

	rows, err := r.conn.Query(ctx, query, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list persons: %w", err)
	}
	defer rows.Close()

	return r.scanAndLoadAll(ctx, rows)
}

// Search performs a case-insensitive substring search on contact names.
func (r *PersonRepository) Search(ctx context.Context, query string, opts person.ListOptions) ([]*person.Record, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	sqlQuery := selectPersonQuery + " WHERE LOWER(name) LIKE $1" + buildOrderBy(opts) + " LIMIT $2 OFFSET $3"

	rows, err := r.conn.Query(ctx, sqlQuery, pattern, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to search persons: %w", err)
	}
	defer rows.Close()

	return r.scanAndLoadAll(ctx, rows)
}

// FindByTag returns roster records carrying the given tag.
func (r *PersonRepository) FindByTag(ctx context.Context, tag person.Tag, opts person.ListOptions) ([]*person.Record, error) {
	sqlQuery := selectPersonQuery + " WHERE $1 = ANY(tags)" + buildOrderBy(opts) + " LIMIT $2 OFFSET $3"

	rows, err := r.conn.Query(ctx, sqlQuery, tag.String(), opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to find persons by tag: %w", err)
	}
	defer rows.Close()

	return r.scanAndLoadAll(ctx, rows)
}

// Count returns the total number of roster records.
func (r *PersonRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx, "SELECT COUNT(*) FROM persons").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count persons: %w", err)
	}
	return count, nil
}

// ExistsByName checks if a contact with the given name exists.
func (r *PersonRepository) ExistsByName(ctx context.Context, name person.Name) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM persons WHERE name = $1)",
		name.String(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check person existence: %w", err)
	}
	return exists, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Row Scanning & Rehydration
// ─────────────────────────────────────────────────────────────────────────────

const selectPersonQuery = `
	SELECT id, name, phone, email, address, tags, created_at, updated_at
	FROM persons
`

// personRow holds raw column values before domain validation.
type personRow struct {
	id        string
	name      string
	phone     string
	email     string
	address   string
	tags      []string
	createdAt time.Time
	updatedAt time.Time
}

func scanPersonRow(row pgx.Row) (*personRow, error) {
	var pr personRow
	err := row.Scan(
		&pr.id,
		&pr.name,
		&pr.phone,
		&pr.email,
		&pr.address,
		&pr.tags,
		&pr.createdAt,
		&pr.updatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrPersonNotFound
		}
		return nil, fmt.Errorf("failed to scan person row: %w", err)
	}
	return &pr, nil
}

func (r *PersonRepository) scanAndLoad(ctx context.Context, row pgx.Row) (*person.Record, error) {
	pr, err := scanPersonRow(row)
	if err != nil {
		return nil, err
	}

	grades, err := r.loadGrades(ctx, pr.id)
	if err != nil {
		return nil, err
	}
	attendance, err := r.loadAttendance(ctx, pr.id)
	if err != nil {
		return nil, err
	}

	return rehydrate(pr, grades, attendance)
}

func (r *PersonRepository) scanAndLoadAll(ctx context.Context, rows pgx.Rows) ([]*person.Record, error) {
	var prs []*personRow
	for rows.Next() {
		pr, err := scanPersonRow(rows)
		if err != nil {
			return nil, err
		}
		prs = append(prs, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate person rows: %w", err)
	}

	records := make([]*person.Record, 0, len(prs))
	for _, pr := range prs {
		grades, err := r.loadGrades(ctx, pr.id)
		if err != nil {
			return nil, err
		}
		attendance, err := r.loadAttendance(ctx, pr.id)
		if err != nil {
			return nil, err
		}
		rec, err := rehydrate(pr, grades, attendance)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

func (r *PersonRepository) loadGrades(ctx context.Context, personID string) ([]person.Grade, error) {
	query := `
		SELECT test_name, score
		FROM person_grades
		WHERE person_id = $1
		ORDER BY position
	`

	rows, err := r.conn.Query(ctx, query, personID)
	if err != nil {
		return nil, fmt.Errorf("failed to load grades: %w", err)
	}
	defer rows.Close()

	var grades []person.Grade
	for rows.Next() {
		var testName string
		var score float64
		if err := rows.Scan(&testName, &score); err != nil {
			return nil, fmt.Errorf("failed to scan grade row: %w", err)
		}
		grade, err := person.NewGrade(testName, score)
		if err != nil {
			return nil, fmt.Errorf("stored grade is invalid: %w", err)
		}
		grades = append(grades, grade)
	}

	return grades, rows.Err()
}

func (r *PersonRepository) loadAttendance(ctx context.Context, personID string) ([]person.Attendance, error) {
	query := `
		SELECT date, status, remark
		FROM person_attendance
		WHERE person_id = $1
		ORDER BY position
	`

	rows, err := r.conn.Query(ctx, query, personID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attendance: %w", err)
	}
	defer rows.Close()

	var records []person.Attendance
	for rows.Next() {
		var date time.Time
		var status, remark string
		if err := rows.Scan(&date, &status, &remark); err != nil {
			return nil, fmt.Errorf("failed to scan attendance row: %w", err)
		}
		record, err := person.NewAttendance(date, person.AttendanceStatus(status), remark)
		if err != nil {
			return nil, fmt.Errorf("stored attendance is invalid: %w", err)
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// rehydrate rebuilds the immutable domain value from raw column values.
// Stored data passes through the same validation as user input, so a
// corrupted row surfaces as an error instead of a broken contact.
func rehydrate(pr *personRow, grades []person.Grade, attendance []person.Attendance) (*person.Record, error) {
	name, err := person.NewName(pr.name)
	if err != nil {
		return nil, fmt.Errorf("stored name is invalid: %w", err)
	}
	phone, err := person.NewPhone(pr.phone)
	if err != nil {
		return nil, fmt.Errorf("stored phone is invalid: %w", err)
	}
	email, err := person.NewEmail(pr.email)
	if err != nil {
		return nil, fmt.Errorf("stored email is invalid: %w", err)
	}
	address, err := person.NewAddress(pr.address)
	if err != nil {
		return nil, fmt.Errorf("stored address is invalid: %w", err)
	}

	tags := make([]person.Tag, 0, len(pr.tags))
	for _, raw := range pr.tags {
		tag, err := person.NewTag(raw)
		if err != nil {
			return nil, fmt.Errorf("stored tag is invalid: %w", err)
		}
		tags = append(tags, tag)
	}

	p, err := person.NewPerson(
		name, phone, email, address,
		person.NewTagSet(tags...),
		person.NewGradeList(grades...),
		person.NewAttendanceList(attendance...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild person: %w", err)
	}

	return &person.Record{
		ID:        pr.id,
		Person:    p,
		CreatedAt: pr.createdAt,
		UpdatedAt: pr.updatedAt,
	}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Write Helpers
// ─────────────────────────────────────────────────────────────────────────────

func insertChildren(ctx context.Context, tx pgx.Tx, personID string, p *person.Person) error {
	for i, g := range p.Grades().Slice() {
		_, err := tx.Exec(ctx,
			"INSERT INTO person_grades (person_id, position, test_name, score) VALUES ($1, $2, $3, $4)",
			personID, i, g.TestName(), g.Score(),
		)
		if err != nil {
			return err
		}
	}

	for i, a := range p.Attendance().Slice() {
		_, err := tx.Exec(ctx,
			"INSERT INTO person_attendance (person_id, position, date, status, remark) VALUES ($1, $2, $3, $4, $5)",
			personID, i, a.Date(), string(a.Status()), a.Remark(),
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func tagStrings(tags person.TagSet) []string {
	out := make([]string, 0, tags.Len())
	for _, t := range tags.Slice() {
		out = append(out, t.String())
	}
	return out
}

func buildOrderBy(opts person.ListOptions) string {
	column := "name"
	switch opts.SortBy {
	case "created_at":
		column = "created_at"
	case "updated_at":
		column = "updated_at"
	}

	direction := "ASC"
	if opts.SortDesc {
		direction = "DESC"
	}

	return fmt.Sprintf(" ORDER BY %s %s", column, direction)
}
