package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/practical-scheduler/internal/models"
	"github.com/noah-isme/practical-scheduler/pkg/export"
	"github.com/noah-isme/practical-scheduler/pkg/storage"
)

type backupSource interface {
	ListBackupRows(ctx context.Context, practicalCode string) ([]models.BackupRow, error)
}

type studentDirectory interface {
	StudentName(regNo string) string
}

type fileStorage interface {
	Save(relPath string, data []byte) (string, error)
	Open(relPath string) (*os.File, error)
	Delete(relPath string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Rows         int
	ExpiresAt    time.Time
}

// ExportService renders schedule backups and persists them behind signed tokens.
type ExportService struct {
	source   backupSource
	students studentDirectory
	storage  fileStorage
	csv      csvRenderer
	pdf      pdfRenderer
	signer   *storage.SignedURLSigner
	logger   *zap.Logger
	cfg      ExportConfig
	now      func() time.Time
}

var backupColumns = []export.Column{
	{Key: "practical_code", Title: "Practical", Width: 1.6},
	{Key: "batch_id", Title: "Batch ID", Width: 0.8},
	{Key: "batch_no", Title: "Batch No", Width: 0.8},
	{Key: "day_index", Title: "Day", Width: 0.6},
	{Key: "date", Title: "Date", Width: 1.1},
	{Key: "start_time", Title: "Start", Width: 0.7},
	{Key: "end_time", Title: "End", Width: 0.7},
	{Key: "room_lab", Title: "Room/Lab", Width: 1},
	{Key: "status", Title: "Status", Width: 0.7},
	{Key: "reg_no", Title: "Reg No", Width: 1.2},
	{Key: "student_name", Title: "Student", Width: 2.2},
}

// NewExportService constructs an ExportService.
func NewExportService(source backupSource, students studentDirectory, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		source:   source,
		students: students,
		storage:  store,
		csv:      csv,
		pdf:      pdf,
		signer:   signer,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Generate renders the backup described by job and stores it.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, err := s.buildDataset(ctx, job.PracticalCode)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset)
	default:
		err = fmt.Errorf("unsupported format %s", job.Format)
	}
	if err != nil {
		return nil, err
	}

	relPath, err := s.storage.Save(s.buildFilename(job), payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		_ = s.storage.Delete(relPath)
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	s.logger.Info("backup rendered",
		zap.String("job_id", job.ID),
		zap.String("format", string(job.Format)),
		zap.Int("rows", len(dataset.Rows)),
		zap.String("path", relPath),
	)
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/exports/download/%s", prefix, token),
		Rows:         len(dataset.Rows),
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup purges files older than ttl.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildDataset(ctx context.Context, practicalCode string) (export.Dataset, error) {
	rows, err := s.source.ListBackupRows(ctx, practicalCode)
	if err != nil {
		return export.Dataset{}, fmt.Errorf("load backup rows: %w", err)
	}

	title := "Practical schedule backup"
	if practicalCode != "" {
		title += " - " + practicalCode
	}
	dataset := export.Dataset{Title: title, Columns: backupColumns, Rows: make([]map[string]string, 0, len(rows))}
	for _, row := range rows {
		record := map[string]string{
			"practical_code": row.PracticalCode,
			"batch_id":       strconv.FormatInt(row.BatchID, 10),
			"batch_no":       strconv.Itoa(row.BatchNo),
			"day_index":      strconv.Itoa(row.DayIndex),
			"date":           row.Date,
			"start_time":     row.StartTime,
			"end_time":       row.EndTime,
			"status":         row.Status,
		}
		if row.RoomLab != nil {
			record["room_lab"] = *row.RoomLab
		}
		if row.RegNo != nil {
			record["reg_no"] = *row.RegNo
			if s.students != nil {
				record["student_name"] = s.students.StudentName(*row.RegNo)
			}
		}
		dataset.Rows = append(dataset.Rows, record)
	}
	return dataset, nil
}

func (s *ExportService) buildFilename(job *models.ExportJob) string {
	scope := "all"
	if job.PracticalCode != "" {
		scope = sanitizeFilePart(job.PracticalCode)
	}
	day := s.now().UTC().Format("20060102")
	return fmt.Sprintf("backups/%s/schedule_%s_%s.%s", day, scope, job.ID, job.Format)
}

func sanitizeFilePart(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
