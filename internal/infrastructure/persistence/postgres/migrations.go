// Package postgres implements the PostgreSQL persistence layer for Rollbook.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE PERSONS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create persons table
-- Version: 001

-- Main roster table. Contact name is the weak identity: at most one
-- record per name.
CREATE TABLE IF NOT EXISTS persons (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    name VARCHAR(120) NOT NULL UNIQUE,
    phone VARCHAR(30) NOT NULL,
    email VARCHAR(254) NOT NULL,
    address TEXT NOT NULL,
    tags TEXT[] NOT NULL DEFAULT '{}',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_persons_name ON persons(LOWER(name));
CREATE INDEX IF NOT EXISTS idx_persons_tags ON persons USING GIN(tags);
CREATE INDEX IF NOT EXISTS idx_persons_updated_at ON persons(updated_at DESC);

-- Updated_at trigger function for automatic timestamp updates
CREATE OR REPLACE FUNCTION update_updated_at_column()
RETURNS TRIGGER AS $$
BEGIN
    NEW.updated_at = NOW();
    RETURN NEW;
END;
$$ language 'plpgsql';

DROP TRIGGER IF EXISTS update_persons_updated_at ON persons;
CREATE TRIGGER update_persons_updated_at
    BEFORE UPDATE ON persons
    FOR EACH ROW
    EXECUTE FUNCTION update_updated_at_column();
`

const migration001Down = `
DROP TRIGGER IF EXISTS update_persons_updated_at ON persons;
DROP FUNCTION IF EXISTS update_updated_at_column();
DROP TABLE IF EXISTS persons;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE GRADES AND ATTENDANCE
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create grade and attendance child tables
-- Version: 002
-- Purpose: Store the ordered grade list and attendance log per contact.

-- Grades keep their insertion order; position is zero-based within a
-- contact and rewritten wholesale on every update of the contact.
CREATE TABLE IF NOT EXISTS person_grades (
    id SERIAL PRIMARY KEY,
    person_id UUID NOT NULL REFERENCES persons(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    test_name VARCHAR(120) NOT NULL,
    score DECIMAL(5,2) NOT NULL,

    UNIQUE(person_id, position),
    CONSTRAINT valid_score CHECK (score >= 0 AND score <= 100)
);

CREATE INDEX IF NOT EXISTS idx_person_grades_person ON person_grades(person_id, position);

-- Attendance is an append-only log per contact.
CREATE TABLE IF NOT EXISTS person_attendance (
    id SERIAL PRIMARY KEY,
    person_id UUID NOT NULL REFERENCES persons(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    date DATE NOT NULL,
    status VARCHAR(10) NOT NULL,
    remark TEXT NOT NULL DEFAULT '',

    UNIQUE(person_id, position),
    CONSTRAINT valid_attendance_status CHECK (status IN ('present', 'absent', 'late', 'excused'))
);

CREATE INDEX IF NOT EXISTS idx_person_attendance_person ON person_attendance(person_id, position);
CREATE INDEX IF NOT EXISTS idx_person_attendance_date ON person_attendance(date DESC);
`

const migration002Down = `
DROP TABLE IF EXISTS person_attendance;
DROP TABLE IF EXISTS person_grades;
`

// ══════════════════════════════════════════════════════════════════════════════
// EMBEDDED MIGRATIONS
// ══════════════════════════════════════════════════════════════════════════════

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_persons",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_grades_attendance",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
	}
}
