package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/practical-scheduler/internal/models"
)

const batchColumns = `batch_id, practical_code, batch_no, day_index, date, start_time, end_time, room_lab, status, created_at, updated_at`

// BatchRepository persists Batches rows.
type BatchRepository struct {
	db *sqlx.DB
}

// NewBatchRepository constructs repository.
func NewBatchRepository(db *sqlx.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

func (r *BatchRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a batch and stores the generated id on it.
func (r *BatchRepository) Create(ctx context.Context, exec sqlx.ExtContext, batch *models.Batch) error {
	if batch == nil {
		return fmt.Errorf("batch payload is nil")
	}
	if batch.PracticalCode == "" {
		return fmt.Errorf("practical_code is required")
	}
	if batch.Status == "" {
		batch.Status = models.BatchStatusDraft
	}
	now := time.Now().UTC()
	if batch.CreatedAt.IsZero() {
		batch.CreatedAt = now
	}
	batch.UpdatedAt = now

	target := r.exec(exec)
	query := target.Rebind(`INSERT INTO Batches (practical_code, batch_no, day_index, date, start_time, end_time, room_lab, status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING batch_id`)
	if err := sqlx.GetContext(ctx, target, &batch.ID, query,
		batch.PracticalCode, batch.BatchNo, batch.DayIndex, batch.Date, batch.StartTime, batch.EndTime,
		batch.RoomLab, batch.Status, batch.CreatedAt, batch.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

// FindByID loads a batch. Returns sql.ErrNoRows when absent.
func (r *BatchRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Batch, error) {
	target := r.exec(exec)
	query := target.Rebind(`SELECT ` + batchColumns + ` FROM Batches WHERE batch_id = ?`)
	var batch models.Batch
	if err := sqlx.GetContext(ctx, target, &batch, query, id); err != nil {
		return nil, err
	}
	return &batch, nil
}

// FindBySlot loads the batch at an exact (practical, date, start). Returns sql.ErrNoRows when absent.
func (r *BatchRepository) FindBySlot(ctx context.Context, exec sqlx.ExtContext, practicalCode, date, start string) (*models.Batch, error) {
	target := r.exec(exec)
	query := target.Rebind(`SELECT ` + batchColumns + ` FROM Batches WHERE practical_code = ? AND date = ? AND start_time = ? ORDER BY batch_id LIMIT 1`)
	var batch models.Batch
	if err := sqlx.GetContext(ctx, target, &batch, query, practicalCode, date, start); err != nil {
		return nil, err
	}
	return &batch, nil
}

// CountOnDate returns how many batches the practical holds on date, optionally ignoring one batch.
func (r *BatchRepository) CountOnDate(ctx context.Context, exec sqlx.ExtContext, practicalCode, date string, excludeID int64) (int, error) {
	target := r.exec(exec)
	query := target.Rebind(`SELECT COUNT(*) FROM Batches WHERE practical_code = ? AND date = ? AND batch_id <> ?`)
	var count int
	if err := sqlx.GetContext(ctx, target, &count, query, practicalCode, date, excludeID); err != nil {
		return 0, fmt.Errorf("count batches on date: %w", err)
	}
	return count, nil
}

// LatestEndOnDate returns the latest end_time of the practical on date, or "" when none.
func (r *BatchRepository) LatestEndOnDate(ctx context.Context, exec sqlx.ExtContext, practicalCode, date string) (string, error) {
	target := r.exec(exec)
	query := target.Rebind(`SELECT MAX(end_time) FROM Batches WHERE practical_code = ? AND date = ?`)
	var latest sql.NullString
	if err := sqlx.GetContext(ctx, target, &latest, query, practicalCode, date); err != nil {
		return "", fmt.Errorf("latest batch end: %w", err)
	}
	return latest.String, nil
}

// ListByPractical returns the practical's batches in batch number order.
func (r *BatchRepository) ListByPractical(ctx context.Context, exec sqlx.ExtContext, practicalCode string) ([]models.Batch, error) {
	target := r.exec(exec)
	query := target.Rebind(`SELECT ` + batchColumns + ` FROM Batches WHERE practical_code = ? ORDER BY batch_no, batch_id`)
	var batches []models.Batch
	if err := sqlx.SelectContext(ctx, target, &batches, query, practicalCode); err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return batches, nil
}

// ListSummaries returns the practical's batches with member counts.
func (r *BatchRepository) ListSummaries(ctx context.Context, practicalCode string) ([]models.BatchSummary, error) {
	query := r.db.Rebind(`SELECT b.batch_id, b.practical_code, b.batch_no, b.day_index, b.date, b.start_time, b.end_time,
b.room_lab, b.status, b.created_at, b.updated_at, COUNT(m.batch_member_id) AS member_count
FROM Batches b
LEFT JOIN BatchMembers m ON m.batch_id = b.batch_id
WHERE b.practical_code = ?
GROUP BY b.batch_id, b.practical_code, b.batch_no, b.day_index, b.date, b.start_time, b.end_time, b.room_lab, b.status, b.created_at, b.updated_at
ORDER BY b.batch_no, b.batch_id`)
	var summaries []models.BatchSummary
	if err := r.db.SelectContext(ctx, &summaries, query, practicalCode); err != nil {
		return nil, fmt.Errorf("list batch summaries: %w", err)
	}
	return summaries, nil
}

// ListBackupRows returns every batch joined with its members for backup export.
func (r *BatchRepository) ListBackupRows(ctx context.Context, practicalCode string) ([]models.BackupRow, error) {
	query := `SELECT b.batch_id, b.practical_code, b.batch_no, b.day_index, b.date, b.start_time, b.end_time,
b.room_lab, b.status, m.reg_no
FROM Batches b
LEFT JOIN BatchMembers m ON m.batch_id = b.batch_id`
	var args []interface{}
	if practicalCode != "" {
		query += ` WHERE b.practical_code = ?`
		args = append(args, practicalCode)
	}
	query += ` ORDER BY b.practical_code, b.batch_no, m.reg_no`
	var rows []models.BackupRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list backup rows: %w", err)
	}
	return rows, nil
}

// UpdateTiming rewrites date, start, end, and room of a batch.
func (r *BatchRepository) UpdateTiming(ctx context.Context, exec sqlx.ExtContext, batch *models.Batch) error {
	if batch == nil {
		return fmt.Errorf("batch payload is nil")
	}
	batch.UpdatedAt = time.Now().UTC()
	target := r.exec(exec)
	query := target.Rebind(`UPDATE Batches SET date = ?, start_time = ?, end_time = ?, room_lab = ?, updated_at = ? WHERE batch_id = ?`)
	res, err := target.ExecContext(ctx, query, batch.Date, batch.StartTime, batch.EndTime, batch.RoomLab, batch.UpdatedAt, batch.ID)
	if err != nil {
		return fmt.Errorf("update batch timing: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update batch timing rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateNumbering sets batch_no and day_index.
func (r *BatchRepository) UpdateNumbering(ctx context.Context, exec sqlx.ExtContext, id int64, batchNo, dayIndex int) error {
	target := r.exec(exec)
	query := target.Rebind(`UPDATE Batches SET batch_no = ?, day_index = ? WHERE batch_id = ?`)
	if _, err := target.ExecContext(ctx, query, batchNo, dayIndex, id); err != nil {
		return fmt.Errorf("update batch numbering: %w", err)
	}
	return nil
}

// Delete removes a batch row.
func (r *BatchRepository) Delete(ctx context.Context, exec sqlx.ExtContext, id int64) error {
	target := r.exec(exec)
	query := target.Rebind(`DELETE FROM Batches WHERE batch_id = ?`)
	res, err := target.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete batch: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete batch rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
