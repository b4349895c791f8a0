package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/practical-scheduler/internal/models"
)

func TestExportJobRepositoryLifecycle(t *testing.T) {
	repo := NewExportJobRepository()
	ctx := context.Background()

	job := &models.ExportJob{Format: models.ExportFormatCSV, CreatedBy: "operator"}
	require.NoError(t, repo.Create(ctx, job))
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, models.ExportStatusQueued, job.Status)

	msg := "boom"
	require.NoError(t, repo.Update(ctx, job.ID, UpdateExportJobParams{ErrorMessage: &msg}))
	got, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ErrorMessage)

	clear := ""
	finished := models.ExportStatusFinished
	expires := time.Now().Add(-time.Minute)
	rel := "backups/a.csv"
	require.NoError(t, repo.Update(ctx, job.ID, UpdateExportJobParams{
		Status: &finished, ErrorMessage: &clear, ExpiresAt: &expires, RelativePath: &rel,
	}))
	got, err = repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ErrorMessage)
	assert.Equal(t, models.ExportStatusFinished, got.Status)
	assert.Equal(t, rel, got.RelativePath)

	expired, err := repo.ListExpired(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, expired, 1)

	require.NoError(t, repo.Delete(ctx, job.ID))
	_, err = repo.GetByID(ctx, job.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.ErrorIs(t, repo.Update(ctx, job.ID, UpdateExportJobParams{}), sql.ErrNoRows)
}
