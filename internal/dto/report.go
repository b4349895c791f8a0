package dto

import "github.com/noah-isme/practical-scheduler/internal/models"

// ExportRequest captures POST /exports.
type ExportRequest struct {
	Format        models.ExportFormat `json:"format" validate:"required,oneof=csv pdf"`
	PracticalCode string              `json:"practicalCode"`
}

// ExportJobResponse is returned after enqueueing a backup.
type ExportJobResponse struct {
	ID     string              `json:"id"`
	Status models.ExportStatus `json:"status"`
}

// ExportStatusResponse exposes job progress metadata.
type ExportStatusResponse struct {
	ID         string              `json:"id"`
	Status     models.ExportStatus `json:"status"`
	Format     models.ExportFormat `json:"format"`
	ResultURL  *string             `json:"resultUrl,omitempty"`
	Error      *string             `json:"error,omitempty"`
	FinishedAt *string             `json:"finishedAt,omitempty"`
}
