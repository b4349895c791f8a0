package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateCreatesSchedulingTables(t *testing.T) {
	db, err := NewSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(db))
	// idempotent
	require.NoError(t, Migrate(db))

	var names []string
	require.NoError(t, db.Select(&names, `SELECT name FROM sqlite_master WHERE type = 'table' AND name IN ('Batches', 'BatchMembers', 'AssignmentsIndex') ORDER BY name`))
	assert.Equal(t, []string{"AssignmentsIndex", "BatchMembers", "Batches"}, names)
}

func TestMemberCascadeOnBatchDelete(t *testing.T) {
	db, err := NewSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, Migrate(db))

	res, err := db.Exec(`INSERT INTO Batches (practical_code, batch_no, day_index, date, start_time, end_time) VALUES ('P1', 1, 1, '01.03.2025', '09:00', '12:00')`)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO BatchMembers (batch_id, reg_no, practical_code) VALUES (?, 'S1', 'P1')`, id)
	require.NoError(t, err)

	_, err = db.Exec(`DELETE FROM Batches WHERE batch_id = ?`, id)
	require.NoError(t, err)

	var count int
	require.NoError(t, db.Get(&count, `SELECT COUNT(*) FROM BatchMembers`))
	assert.Zero(t, count)
}

func TestSplitStatements(t *testing.T) {
	assert.Equal(t, []string{"A", "B"}, splitStatements(" A;\n;B; "))
}
