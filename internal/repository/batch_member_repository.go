package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/practical-scheduler/internal/models"
)

// BatchMemberRepository persists BatchMembers rows.
type BatchMemberRepository struct {
	db *sqlx.DB
}

// NewBatchMemberRepository constructs repository.
func NewBatchMemberRepository(db *sqlx.DB) *BatchMemberRepository {
	return &BatchMemberRepository{db: db}
}

func (r *BatchMemberRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListByBatch returns the batch's members ordered by registration number.
func (r *BatchMemberRepository) ListByBatch(ctx context.Context, exec sqlx.ExtContext, batchID int64) ([]models.BatchMember, error) {
	target := r.exec(exec)
	query := target.Rebind(`SELECT batch_member_id, batch_id, reg_no, practical_code, added_at FROM BatchMembers WHERE batch_id = ? ORDER BY reg_no`)
	var members []models.BatchMember
	if err := sqlx.SelectContext(ctx, target, &members, query, batchID); err != nil {
		return nil, fmt.Errorf("list batch members: %w", err)
	}
	return members, nil
}

// Insert adds a member. Re-adding an existing (batch_id, reg_no) pair is a no-op.
func (r *BatchMemberRepository) Insert(ctx context.Context, exec sqlx.ExtContext, member *models.BatchMember) error {
	if member == nil {
		return fmt.Errorf("member payload is nil")
	}
	if member.AddedAt.IsZero() {
		member.AddedAt = time.Now().UTC()
	}
	target := r.exec(exec)
	query := target.Rebind(`INSERT INTO BatchMembers (batch_id, reg_no, practical_code, added_at) VALUES (?, ?, ?, ?)
ON CONFLICT (batch_id, reg_no) DO NOTHING`)
	if _, err := target.ExecContext(ctx, query, member.BatchID, member.RegNo, member.PracticalCode, member.AddedAt); err != nil {
		return fmt.Errorf("insert batch member %s: %w", member.RegNo, err)
	}
	return nil
}

// Delete removes one membership and reports whether a row existed.
func (r *BatchMemberRepository) Delete(ctx context.Context, exec sqlx.ExtContext, batchID int64, regNo string) (bool, error) {
	target := r.exec(exec)
	query := target.Rebind(`DELETE FROM BatchMembers WHERE batch_id = ? AND reg_no = ?`)
	res, err := target.ExecContext(ctx, query, batchID, regNo)
	if err != nil {
		return false, fmt.Errorf("delete batch member: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete batch member rows: %w", err)
	}
	return affected > 0, nil
}

// DeleteByBatch removes all members of a batch.
func (r *BatchMemberRepository) DeleteByBatch(ctx context.Context, exec sqlx.ExtContext, batchID int64) error {
	target := r.exec(exec)
	query := target.Rebind(`DELETE FROM BatchMembers WHERE batch_id = ?`)
	if _, err := target.ExecContext(ctx, query, batchID); err != nil {
		return fmt.Errorf("delete batch members: %w", err)
	}
	return nil
}

// OtherBatchesFor maps each given student to another batch of the same practical they already sit.
func (r *BatchMemberRepository) OtherBatchesFor(ctx context.Context, exec sqlx.ExtContext, practicalCode string, regNos []string, excludeBatchID int64) (map[string]int64, error) {
	result := make(map[string]int64)
	if len(regNos) == 0 {
		return result, nil
	}
	target := r.exec(exec)
	query, args, err := sqlx.In(`SELECT reg_no, batch_id FROM BatchMembers WHERE practical_code = ? AND batch_id <> ? AND reg_no IN (?) ORDER BY reg_no, batch_id`,
		practicalCode, excludeBatchID, regNos)
	if err != nil {
		return nil, fmt.Errorf("build other batches query: %w", err)
	}
	rows, err := target.QueryxContext(ctx, target.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query other batches: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			regNo   string
			batchID int64
		)
		if err := rows.Scan(&regNo, &batchID); err != nil {
			return nil, fmt.Errorf("scan other batch: %w", err)
		}
		if _, ok := result[regNo]; !ok {
			result[regNo] = batchID
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate other batches: %w", err)
	}
	return result, nil
}

// AssignedRegNos returns distinct students placed in any batch of the practical.
func (r *BatchMemberRepository) AssignedRegNos(ctx context.Context, practicalCode string) ([]string, error) {
	query := r.db.Rebind(`SELECT DISTINCT reg_no FROM BatchMembers WHERE practical_code = ? ORDER BY reg_no`)
	var regNos []string
	if err := r.db.SelectContext(ctx, &regNos, query, practicalCode); err != nil {
		return nil, fmt.Errorf("list assigned students: %w", err)
	}
	return regNos, nil
}
