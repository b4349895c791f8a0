package models

import "time"

// ExportFormat enumerates supported backup formats.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportStatus captures background export lifecycle states.
type ExportStatus string

const (
	ExportStatusQueued     ExportStatus = "QUEUED"
	ExportStatusProcessing ExportStatus = "PROCESSING"
	ExportStatusFinished   ExportStatus = "FINISHED"
	ExportStatusFailed     ExportStatus = "FAILED"
)

// ExportJob tracks one schedule backup.
type ExportJob struct {
	ID            string       `json:"id"`
	Format        ExportFormat `json:"format"`
	PracticalCode string       `json:"practical_code,omitempty"`
	Status        ExportStatus `json:"status"`
	ResultURL     *string      `json:"result_url,omitempty"`
	RelativePath  string       `json:"-"`
	ErrorMessage  *string      `json:"error_message,omitempty"`
	CreatedBy     string       `json:"created_by"`
	CreatedAt     time.Time    `json:"created_at"`
	FinishedAt    *time.Time   `json:"finished_at,omitempty"`
	ExpiresAt     *time.Time   `json:"expires_at,omitempty"`
}
