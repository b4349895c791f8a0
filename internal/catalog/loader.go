// Package catalog loads the read-only practical and student tables produced by the ETL.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/practical-scheduler/internal/models"
)

const (
	practicalFile         = "PracticalMaster.csv"
	practicalVerifiedFile = "PracticalMaster_verified.csv"
	studentFile           = "StudentSubjectMap.csv"
	studentVerifiedFile   = "StudentSubjectMap_verified.csv"
)

// Source locates the ETL output directories.
type Source struct {
	VerifiedDir  string
	ExtractedDir string
}

// Load reads both tables, preferring verified copies. Missing files yield empty tables.
func Load(src Source, logger *zap.Logger) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	practicalPath := resolve(src, practicalVerifiedFile, practicalFile)
	practicals, err := readTable(practicalPath, parsePractical)
	if err != nil {
		return nil, fmt.Errorf("load practicals: %w", err)
	}

	studentPath := resolve(src, studentVerifiedFile, studentFile)
	enrollments, err := readTable(studentPath, parseEnrollment)
	if err != nil {
		return nil, fmt.Errorf("load students: %w", err)
	}

	logger.Info("catalog loaded",
		zap.String("practicals_file", practicalPath),
		zap.Int("practicals", len(practicals)),
		zap.String("students_file", studentPath),
		zap.Int("enrollments", len(enrollments)),
	)

	return New(practicals, enrollments), nil
}

func resolve(src Source, verified, extracted string) string {
	if src.VerifiedDir != "" {
		path := filepath.Join(src.VerifiedDir, verified)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return filepath.Join(src.ExtractedDir, extracted)
}

func readTable[T any](path string, parse func(row map[string]string) (T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()
	return decode(f, parse)
}

func decode[T any](r io.Reader, parse func(row map[string]string) (T, error)) ([]T, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff")))
	}

	var out []T
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = strings.TrimSpace(record[i])
			}
		}
		item, err := parse(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, item)
	}
	return out, nil
}

func parsePractical(row map[string]string) (models.Practical, error) {
	p := models.Practical{
		InstitutionCode: row["ins_code"],
		DeptCode:        row["ncno"],
		DeptName:        row["dept_name"],
		SubjectCode:     row["sub_code"],
		SubjectName:     row["subject_name"],
		Type:            row["type"],
		ColNo:           row["col_no"],
		PracticalCode:   row["practical_code"],
		ExamMonthYear:   row["exam_month_year"],
	}
	if raw := row["total_candidates"]; raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return p, fmt.Errorf("total_candidates %q: %w", raw, err)
		}
		p.TotalCandidates = n
	}
	if p.PracticalCode == "" {
		p.PracticalCode = PracticalCode(p.InstitutionCode, p.DeptCode, p.SubjectCode)
	}
	return p, nil
}

func parseEnrollment(row map[string]string) (models.Enrollment, error) {
	e := models.Enrollment{
		RegNo:           row["reg_no"],
		StudentName:     row["student_name"],
		DOB:             row["dob"],
		Regulation:      row["regl"],
		Semester:        row["sem"],
		DeptCode:        row["ncno"],
		DeptName:        row["dept_name"],
		SubjectCode:     row["sub_code"],
		SubjectName:     row["subject_name"],
		Type:            row["type"],
		ColNo:           row["col_no"],
		PracticalCode:   row["practical_code"],
		InstitutionCode: row["ins_code"],
	}
	if e.RegNo == "" {
		return e, errors.New("reg_no is required")
	}
	if e.PracticalCode == "" {
		e.PracticalCode = PracticalCode(e.InstitutionCode, e.DeptCode, e.SubjectCode)
	}
	return e, nil
}

// PracticalCode builds "<institution>-<dept>-<subject>".
func PracticalCode(institution, dept, subject string) string {
	return institution + "-" + dept + "-" + subject
}
