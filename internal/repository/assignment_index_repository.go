package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/practical-scheduler/internal/models"
)

const indexColumns = `idx_id, reg_no, date, start_time, end_time, practical_code, source_batch_id, created_at`

// AssignmentIndexRepository maintains the derived AssignmentsIndex table.
// Rows are always reproducible from Batches joined with BatchMembers.
type AssignmentIndexRepository struct {
	db *sqlx.DB
}

// NewAssignmentIndexRepository constructs repository.
func NewAssignmentIndexRepository(db *sqlx.DB) *AssignmentIndexRepository {
	return &AssignmentIndexRepository{db: db}
}

func (r *AssignmentIndexRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListForStudentsOnDate returns the committed slots of the given students on date.
func (r *AssignmentIndexRepository) ListForStudentsOnDate(ctx context.Context, exec sqlx.ExtContext, date string, regNos []string) ([]models.AssignmentIndexEntry, error) {
	if len(regNos) == 0 {
		return nil, nil
	}
	target := r.exec(exec)
	query, args, err := sqlx.In(`SELECT `+indexColumns+` FROM AssignmentsIndex WHERE date = ? AND reg_no IN (?) ORDER BY reg_no, start_time, source_batch_id`, date, regNos)
	if err != nil {
		return nil, fmt.Errorf("build index lookup: %w", err)
	}
	var entries []models.AssignmentIndexEntry
	if err := sqlx.SelectContext(ctx, target, &entries, target.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list index entries on date: %w", err)
	}
	return entries, nil
}

// ListForStudents returns every committed slot of the given students.
func (r *AssignmentIndexRepository) ListForStudents(ctx context.Context, regNos []string) ([]models.AssignmentIndexEntry, error) {
	if len(regNos) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT `+indexColumns+` FROM AssignmentsIndex WHERE reg_no IN (?) ORDER BY reg_no, source_batch_id`, regNos)
	if err != nil {
		return nil, fmt.Errorf("build student index lookup: %w", err)
	}
	var entries []models.AssignmentIndexEntry
	if err := r.db.SelectContext(ctx, &entries, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list student index entries: %w", err)
	}
	return entries, nil
}

// ListAll returns the whole index ordered by id.
func (r *AssignmentIndexRepository) ListAll(ctx context.Context, exec sqlx.ExtContext) ([]models.AssignmentIndexEntry, error) {
	target := r.exec(exec)
	var entries []models.AssignmentIndexEntry
	if err := sqlx.SelectContext(ctx, target, &entries, `SELECT `+indexColumns+` FROM AssignmentsIndex ORDER BY idx_id`); err != nil {
		return nil, fmt.Errorf("list index entries: %w", err)
	}
	return entries, nil
}

// ListDerived computes the index from Batches joined with BatchMembers.
func (r *AssignmentIndexRepository) ListDerived(ctx context.Context, exec sqlx.ExtContext) ([]models.AssignmentIndexEntry, error) {
	target := r.exec(exec)
	const query = `SELECT m.reg_no, b.date, b.start_time, b.end_time, b.practical_code, b.batch_id AS source_batch_id
FROM BatchMembers m
JOIN Batches b ON b.batch_id = m.batch_id
ORDER BY b.batch_id, m.reg_no`
	var entries []models.AssignmentIndexEntry
	if err := sqlx.SelectContext(ctx, target, &entries, query); err != nil {
		return nil, fmt.Errorf("derive index entries: %w", err)
	}
	return entries, nil
}

// Replace writes the single entry for (reg_no, source_batch_id), removing any prior one.
func (r *AssignmentIndexRepository) Replace(ctx context.Context, exec sqlx.ExtContext, entry *models.AssignmentIndexEntry) error {
	if entry == nil {
		return fmt.Errorf("index entry is nil")
	}
	if err := r.DeleteEntry(ctx, exec, entry.SourceBatchID, entry.RegNo); err != nil {
		return err
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	target := r.exec(exec)
	query := target.Rebind(`INSERT INTO AssignmentsIndex (reg_no, date, start_time, end_time, practical_code, source_batch_id, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if _, err := target.ExecContext(ctx, query, entry.RegNo, entry.Date, entry.StartTime, entry.EndTime, entry.PracticalCode, entry.SourceBatchID, entry.CreatedAt); err != nil {
		return fmt.Errorf("insert index entry %s: %w", entry.RegNo, err)
	}
	return nil
}

// DeleteEntry removes the entry of one student for one batch.
func (r *AssignmentIndexRepository) DeleteEntry(ctx context.Context, exec sqlx.ExtContext, batchID int64, regNo string) error {
	target := r.exec(exec)
	query := target.Rebind(`DELETE FROM AssignmentsIndex WHERE source_batch_id = ? AND reg_no = ?`)
	if _, err := target.ExecContext(ctx, query, batchID, regNo); err != nil {
		return fmt.Errorf("delete index entry: %w", err)
	}
	return nil
}

// DeleteByBatch removes every entry sourced from the batch.
func (r *AssignmentIndexRepository) DeleteByBatch(ctx context.Context, exec sqlx.ExtContext, batchID int64) error {
	target := r.exec(exec)
	query := target.Rebind(`DELETE FROM AssignmentsIndex WHERE source_batch_id = ?`)
	if _, err := target.ExecContext(ctx, query, batchID); err != nil {
		return fmt.Errorf("delete batch index entries: %w", err)
	}
	return nil
}

// RebuildForBatch re-derives the batch's entries from its current membership and timing.
func (r *AssignmentIndexRepository) RebuildForBatch(ctx context.Context, exec sqlx.ExtContext, batchID int64) (int64, error) {
	if err := r.DeleteByBatch(ctx, exec, batchID); err != nil {
		return 0, err
	}
	target := r.exec(exec)
	query := target.Rebind(`INSERT INTO AssignmentsIndex (reg_no, date, start_time, end_time, practical_code, source_batch_id, created_at)
SELECT m.reg_no, b.date, b.start_time, b.end_time, b.practical_code, b.batch_id, CURRENT_TIMESTAMP
FROM BatchMembers m
JOIN Batches b ON b.batch_id = m.batch_id
WHERE b.batch_id = ?`)
	res, err := target.ExecContext(ctx, query, batchID)
	if err != nil {
		return 0, fmt.Errorf("rebuild batch index: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rebuild batch index rows: %w", err)
	}
	return inserted, nil
}
