package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/practical-scheduler/internal/models"
)

func TestAssignmentIndexRepositoryListForStudentsOnDate(t *testing.T) {
	db, mock, cleanup := newSchedulerRepoMock(t)
	defer cleanup()
	repo := NewAssignmentIndexRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM AssignmentsIndex WHERE date = ? AND reg_no IN (?, ?)")).
		WithArgs("01.03.2025", "S1", "S2").
		WillReturnRows(sqlmock.NewRows([]string{"idx_id", "reg_no", "date", "start_time", "end_time", "practical_code", "source_batch_id", "created_at"}).
			AddRow(1, "S1", "01.03.2025", "09:00", "12:00", "P1", 4, time.Now()))

	entries, err := repo.ListForStudentsOnDate(context.Background(), nil, "01.03.2025", []string{"S1", "S2"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(4), entries[0].SourceBatchID)

	none, err := repo.ListForStudentsOnDate(context.Background(), nil, "01.03.2025", nil)
	require.NoError(t, err)
	assert.Nil(t, none)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentIndexRepositoryReplaceDeletesPriorEntry(t *testing.T) {
	db, mock, cleanup := newSchedulerRepoMock(t)
	defer cleanup()
	repo := NewAssignmentIndexRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM AssignmentsIndex WHERE source_batch_id = ? AND reg_no = ?")).
		WithArgs(int64(4), "S1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO AssignmentsIndex (reg_no, date, start_time, end_time, practical_code, source_batch_id, created_at)")).
		WithArgs("S1", "01.03.2025", "09:00", "12:00", "P1", int64(4), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(9, 1))

	err := repo.Replace(context.Background(), nil, &models.AssignmentIndexEntry{
		RegNo: "S1", Date: "01.03.2025", StartTime: "09:00", EndTime: "12:00", PracticalCode: "P1", SourceBatchID: 4,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentIndexRepositoryRebuildForBatch(t *testing.T) {
	db, mock, cleanup := newSchedulerRepoMock(t)
	defer cleanup()
	repo := NewAssignmentIndexRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM AssignmentsIndex WHERE source_batch_id = ?")).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO AssignmentsIndex")).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	inserted, err := repo.RebuildForBatch(context.Background(), nil, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(2), inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
