package database

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS Batches (
	batch_id INTEGER PRIMARY KEY AUTOINCREMENT,
	practical_code TEXT NOT NULL,
	batch_no INTEGER NOT NULL,
	day_index INTEGER NOT NULL,
	date TEXT NOT NULL,
	start_time TEXT NOT NULL,
	end_time TEXT NOT NULL,
	room_lab TEXT,
	status TEXT DEFAULT 'draft',
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS BatchMembers (
	batch_member_id INTEGER PRIMARY KEY AUTOINCREMENT,
	batch_id INTEGER NOT NULL,
	reg_no TEXT NOT NULL,
	practical_code TEXT NOT NULL,
	added_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(batch_id, reg_no),
	FOREIGN KEY(batch_id) REFERENCES Batches(batch_id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS AssignmentsIndex (
	idx_id INTEGER PRIMARY KEY AUTOINCREMENT,
	reg_no TEXT NOT NULL,
	date TEXT NOT NULL,
	start_time TEXT NOT NULL,
	end_time TEXT NOT NULL,
	practical_code TEXT NOT NULL,
	source_batch_id INTEGER NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS Batches (
	batch_id BIGSERIAL PRIMARY KEY,
	practical_code TEXT NOT NULL,
	batch_no INTEGER NOT NULL,
	day_index INTEGER NOT NULL,
	date TEXT NOT NULL,
	start_time TEXT NOT NULL,
	end_time TEXT NOT NULL,
	room_lab TEXT,
	status TEXT DEFAULT 'draft',
	created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS BatchMembers (
	batch_member_id BIGSERIAL PRIMARY KEY,
	batch_id BIGINT NOT NULL REFERENCES Batches(batch_id) ON DELETE CASCADE,
	reg_no TEXT NOT NULL,
	practical_code TEXT NOT NULL,
	added_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(batch_id, reg_no)
);

CREATE TABLE IF NOT EXISTS AssignmentsIndex (
	idx_id BIGSERIAL PRIMARY KEY,
	reg_no TEXT NOT NULL,
	date TEXT NOT NULL,
	start_time TEXT NOT NULL,
	end_time TEXT NOT NULL,
	practical_code TEXT NOT NULL,
	source_batch_id BIGINT NOT NULL,
	created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
);
`

// Lookup paths used by the conflict detector and renumbering.
const sharedIndexes = `
CREATE INDEX IF NOT EXISTS idx_batches_practical_date ON Batches(practical_code, date);
CREATE INDEX IF NOT EXISTS idx_members_practical ON BatchMembers(practical_code, reg_no);
CREATE INDEX IF NOT EXISTS idx_assignments_date_reg ON AssignmentsIndex(date, reg_no);
CREATE INDEX IF NOT EXISTS idx_assignments_source ON AssignmentsIndex(source_batch_id, reg_no);
`

// Migrate creates the scheduling tables for the connected dialect.
func Migrate(db *sqlx.DB) error {
	schema := sqliteSchema
	if db.DriverName() == "postgres" {
		schema = postgresSchema
	}
	for _, stmt := range splitStatements(schema + sharedIndexes) {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

func splitStatements(script string) []string {
	parts := strings.Split(script, ";")
	stmts := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			stmts = append(stmts, trimmed)
		}
	}
	return stmts
}
