package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/practical-scheduler/internal/dto"
	"github.com/noah-isme/practical-scheduler/internal/models"
	"github.com/noah-isme/practical-scheduler/internal/scheduling"
	"github.com/noah-isme/practical-scheduler/pkg/cache"
	appErrors "github.com/noah-isme/practical-scheduler/pkg/errors"
)

type overviewBatchReader interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Batch, error)
	ListByPractical(ctx context.Context, exec sqlx.ExtContext, practicalCode string) ([]models.Batch, error)
	ListSummaries(ctx context.Context, practicalCode string) ([]models.BatchSummary, error)
}

type overviewMemberReader interface {
	ListByBatch(ctx context.Context, exec sqlx.ExtContext, batchID int64) ([]models.BatchMember, error)
	AssignedRegNos(ctx context.Context, practicalCode string) ([]string, error)
}

type timetableReader interface {
	ListForStudents(ctx context.Context, regNos []string) ([]models.AssignmentIndexEntry, error)
}

type catalogReader interface {
	Practical(code string) (models.Practical, bool)
	Enrolled(code string) []models.Enrollment
	StudentName(regNo string) string
	List(filter models.PracticalFilter) []models.PracticalListing
}

// OverviewService serves the read-side views over the catalog and the schedule.
type OverviewService struct {
	batches  overviewBatchReader
	members  overviewMemberReader
	index    timetableReader
	catalog  catalogReader
	cache    *CacheService
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewOverviewService constructs the read-side service.
func NewOverviewService(batches overviewBatchReader, members overviewMemberReader, index timetableReader, catalog catalogReader, cacheSvc *CacheService, cacheTTL time.Duration, logger *zap.Logger) *OverviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OverviewService{
		batches:  batches,
		members:  members,
		index:    index,
		catalog:  catalog,
		cache:    cacheSvc,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// ListPracticals filters the catalog by department, semester, and text.
func (s *OverviewService) ListPracticals(filter models.PracticalFilter) []models.PracticalListing {
	return s.catalog.List(filter)
}

// Progress summarises every matching practical as finalised or pending.
// A practical is finalised once it has batches and every declared candidate is placed.
func (s *OverviewService) Progress(ctx context.Context, filter models.PracticalFilter) ([]models.PracticalProgress, error) {
	listings := s.catalog.List(filter)
	out := make([]models.PracticalProgress, 0, len(listings))
	for _, p := range listings {
		assigned, err := s.members.AssignedRegNos(ctx, p.PracticalCode)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
		}
		batches, err := s.batches.ListByPractical(ctx, nil, p.PracticalCode)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batches")
		}
		out = append(out, models.PracticalProgress{
			PracticalCode:   p.PracticalCode,
			SubjectCode:     p.SubjectCode,
			SubjectName:     p.SubjectName,
			DeptName:        p.DeptName,
			TotalCandidates: p.TotalCandidates,
			Assigned:        len(assigned),
			Batches:         len(batches),
			Finalised:       p.TotalCandidates > 0 && len(batches) > 0 && len(assigned) >= p.TotalCandidates,
		})
	}
	return out, nil
}

// Overview reports enrolment progress and batches for one practical.
func (s *OverviewService) Overview(ctx context.Context, practicalCode string) (*models.PracticalOverview, error) {
	practical, ok := s.catalog.Practical(practicalCode)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("Practical %s not found.", practicalCode))
	}

	key := cache.OverviewKey(practicalCode)
	var cached models.PracticalOverview
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	assigned, err := s.members.AssignedRegNos(ctx, practicalCode)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
	}
	summaries, err := s.batches.ListSummaries(ctx, practicalCode)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batches")
	}
	if summaries == nil {
		summaries = []models.BatchSummary{}
	}

	total := len(s.catalog.Enrolled(practicalCode))
	overview := &models.PracticalOverview{
		PracticalCode: practicalCode,
		SubjectName:   practical.SubjectName,
		DeptName:      practical.DeptName,
		Total:         total,
		Assigned:      len(assigned),
		Remaining:     max(total-len(assigned), 0),
		Batches:       summaries,
		GeneratedAt:   time.Now().UTC(),
	}
	if total > 0 {
		overview.AssignedPct = int(math.Round(float64(len(assigned)) / float64(total) * 100))
	}

	s.cache.Set(ctx, key, overview, s.cacheTTL)
	return overview, nil
}

// ListBatches returns the practical's batches by date then start, optionally for one date.
func (s *OverviewService) ListBatches(ctx context.Context, practicalCode, rawDate string) ([]models.Batch, error) {
	if _, ok := s.catalog.Practical(practicalCode); !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("Practical %s not found.", practicalCode))
	}
	date := ""
	if strings.TrimSpace(rawDate) != "" {
		var err error
		if date, err = normalizeDate(rawDate); err != nil {
			return nil, err
		}
	}
	batches, err := s.batches.ListByPractical(ctx, nil, practicalCode)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batches")
	}
	out := make([]models.Batch, 0, len(batches))
	for _, b := range batches {
		if date == "" || b.Date == date {
			out = append(out, b)
		}
	}
	return out, nil
}

// Roster lists a batch's members joined with their catalog names.
func (s *OverviewService) Roster(ctx context.Context, batchID int64) (*dto.RosterResponse, error) {
	batch, err := s.batches.FindByID(ctx, nil, batchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Batch not found.")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batch")
	}
	members, err := s.members.ListByBatch(ctx, nil, batchID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load members")
	}

	dept := make(map[string]string)
	for _, e := range s.catalog.Enrolled(batch.PracticalCode) {
		dept[e.RegNo] = e.DeptName
	}
	entries := make([]models.RosterEntry, 0, len(members))
	for i, m := range members {
		entries = append(entries, models.RosterEntry{
			SerialNo:       i + 1,
			RegNo:          m.RegNo,
			StudentName:    s.catalog.StudentName(m.RegNo),
			DepartmentName: dept[m.RegNo],
		})
	}
	return &dto.RosterResponse{Batch: *batch, Members: entries}, nil
}

// Unassigned lists enrolled students not yet placed in any batch of the practical.
func (s *OverviewService) Unassigned(ctx context.Context, practicalCode string) ([]models.Enrollment, error) {
	if _, ok := s.catalog.Practical(practicalCode); !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("Practical %s not found.", practicalCode))
	}
	assigned, err := s.members.AssignedRegNos(ctx, practicalCode)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
	}
	placed := make(map[string]struct{}, len(assigned))
	for _, reg := range assigned {
		placed[reg] = struct{}{}
	}
	out := []models.Enrollment{}
	for _, e := range s.catalog.Enrolled(practicalCode) {
		if _, ok := placed[e.RegNo]; !ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// StudentAssignments returns one student's committed slots in chronological order.
func (s *OverviewService) StudentAssignments(ctx context.Context, regNo string) (*dto.StudentTimetable, error) {
	regNo = strings.TrimSpace(regNo)
	if regNo == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "registration number is required")
	}
	all, err := s.BulkStudentAssignments(ctx, []string{regNo})
	if err != nil {
		return nil, err
	}
	return &all[0], nil
}

// BulkStudentAssignments returns timetables for several students in request order.
func (s *OverviewService) BulkStudentAssignments(ctx context.Context, regNos []string) ([]dto.StudentTimetable, error) {
	regNos = uniqueRegNos(regNos)
	if len(regNos) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one registration number is required")
	}
	entries, err := s.index.ListForStudents(ctx, regNos)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetables")
	}

	byStudent := make(map[string][]dto.TimetableSlot, len(regNos))
	for _, e := range entries {
		slot := dto.TimetableSlot{
			PracticalCode: e.PracticalCode,
			Date:          e.Date,
			StartTime:     e.StartTime,
			EndTime:       e.EndTime,
			BatchID:       e.SourceBatchID,
		}
		if p, ok := s.catalog.Practical(e.PracticalCode); ok {
			slot.SubjectName = p.SubjectName
		}
		byStudent[e.RegNo] = append(byStudent[e.RegNo], slot)
	}

	out := make([]dto.StudentTimetable, 0, len(regNos))
	for _, reg := range regNos {
		slots := byStudent[reg]
		sortSlots(slots)
		if slots == nil {
			slots = []dto.TimetableSlot{}
		}
		out = append(out, dto.StudentTimetable{RegNo: reg, StudentName: s.catalog.StudentName(reg), Slots: slots})
	}
	return out, nil
}

func sortSlots(slots []dto.TimetableSlot) {
	sort.SliceStable(slots, func(i, j int) bool {
		di, erri := scheduling.ParseDate(slots[i].Date)
		dj, errj := scheduling.ParseDate(slots[j].Date)
		if erri == nil && errj == nil && !di.Equal(dj) {
			return di.Before(dj)
		}
		if slots[i].Date != slots[j].Date {
			return slots[i].Date < slots[j].Date
		}
		return slots[i].StartTime < slots[j].StartTime
	})
}
