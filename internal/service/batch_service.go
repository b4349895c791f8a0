package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/practical-scheduler/internal/dto"
	"github.com/noah-isme/practical-scheduler/internal/models"
	"github.com/noah-isme/practical-scheduler/internal/scheduling"
	"github.com/noah-isme/practical-scheduler/pkg/cache"
	appErrors "github.com/noah-isme/practical-scheduler/pkg/errors"
)

// Mutation operation labels used for metrics and logs.
const (
	OpCreateBatch  = "create_batch"
	OpEditBatch    = "edit_batch"
	OpDeleteBatch  = "delete_batch"
	OpAddMembers   = "add_members"
	OpRemoveMember = "remove_member"
	OpRebuildIndex = "rebuild_index"
)

type batchStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, batch *models.Batch) error
	FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Batch, error)
	FindBySlot(ctx context.Context, exec sqlx.ExtContext, practicalCode, date, start string) (*models.Batch, error)
	CountOnDate(ctx context.Context, exec sqlx.ExtContext, practicalCode, date string, excludeID int64) (int, error)
	LatestEndOnDate(ctx context.Context, exec sqlx.ExtContext, practicalCode, date string) (string, error)
	ListByPractical(ctx context.Context, exec sqlx.ExtContext, practicalCode string) ([]models.Batch, error)
	UpdateTiming(ctx context.Context, exec sqlx.ExtContext, batch *models.Batch) error
	UpdateNumbering(ctx context.Context, exec sqlx.ExtContext, id int64, batchNo, dayIndex int) error
	Delete(ctx context.Context, exec sqlx.ExtContext, id int64) error
}

type memberStore interface {
	ListByBatch(ctx context.Context, exec sqlx.ExtContext, batchID int64) ([]models.BatchMember, error)
	Insert(ctx context.Context, exec sqlx.ExtContext, member *models.BatchMember) error
	Delete(ctx context.Context, exec sqlx.ExtContext, batchID int64, regNo string) (bool, error)
	DeleteByBatch(ctx context.Context, exec sqlx.ExtContext, batchID int64) error
	OtherBatchesFor(ctx context.Context, exec sqlx.ExtContext, practicalCode string, regNos []string, excludeBatchID int64) (map[string]int64, error)
}

type assignmentIndexStore interface {
	ListForStudentsOnDate(ctx context.Context, exec sqlx.ExtContext, date string, regNos []string) ([]models.AssignmentIndexEntry, error)
	ListAll(ctx context.Context, exec sqlx.ExtContext) ([]models.AssignmentIndexEntry, error)
	ListDerived(ctx context.Context, exec sqlx.ExtContext) ([]models.AssignmentIndexEntry, error)
	Replace(ctx context.Context, exec sqlx.ExtContext, entry *models.AssignmentIndexEntry) error
	DeleteEntry(ctx context.Context, exec sqlx.ExtContext, batchID int64, regNo string) error
	DeleteByBatch(ctx context.Context, exec sqlx.ExtContext, batchID int64) error
	RebuildForBatch(ctx context.Context, exec sqlx.ExtContext, batchID int64) (int64, error)
}

type practicalCatalog interface {
	Practical(code string) (models.Practical, bool)
	TotalCandidates(code string) int
	IsEnrolled(code, regNo string) bool
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// BatchService owns every scheduling mutation. Each mutation runs in one
// transaction and mutations are serialized process-wide.
type BatchService struct {
	batches   batchStore
	members   memberStore
	index     assignmentIndexStore
	catalog   practicalCatalog
	tx        txProvider
	validator *validator.Validate
	cache     *CacheService
	metrics   *MetricsService
	logger    *zap.Logger
	rules     scheduling.Rules
	detector  scheduling.Detector

	mu sync.Mutex
}

// NewBatchService wires the batch scheduling service.
func NewBatchService(
	batches batchStore,
	members memberStore,
	index assignmentIndexStore,
	catalog practicalCatalog,
	tx txProvider,
	validate *validator.Validate,
	cacheSvc *CacheService,
	metrics *MetricsService,
	logger *zap.Logger,
	rules scheduling.Rules,
) *BatchService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	rules = rules.WithDefaults()
	return &BatchService{
		batches:   batches,
		members:   members,
		index:     index,
		catalog:   catalog,
		tx:        tx,
		validator: validate,
		cache:     cacheSvc,
		metrics:   metrics,
		logger:    logger,
		rules:     rules,
		detector:  scheduling.Detector{MinGapMinutes: rules.MinGapMinutes},
	}
}

// Rules returns the active scheduling limits.
func (s *BatchService) Rules() scheduling.Rules {
	return s.rules
}

// CreateBatch adds a batch for a practical and renumbers the practical.
func (s *BatchService) CreateBatch(ctx context.Context, req dto.CreateBatchRequest) (*models.Batch, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if _, ok := s.catalog.Practical(req.PracticalCode); !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("Practical %s not found.", req.PracticalCode))
	}
	date, err := normalizeDate(req.Date)
	if err != nil {
		return nil, err
	}
	start := ""
	if strings.TrimSpace(req.StartTime) != "" {
		if start, err = normalizeStart(req.StartTime); err != nil {
			return nil, err
		}
	}
	status := strings.TrimSpace(req.Status)
	if status == "" {
		status = models.BatchStatusDraft
	}

	var created *models.Batch
	err = s.mutate(ctx, OpCreateBatch, func(tx *sqlx.Tx) error {
		onDay, err := s.batches.CountOnDate(ctx, tx, req.PracticalCode, date, 0)
		if err != nil {
			return err
		}
		decision := s.rules.CanCreateBatch(s.catalog.TotalCandidates(req.PracticalCode), onDay, onDay+1)
		if !decision.Allowed {
			return appErrors.Clone(appErrors.ErrRuleViolation, decision.Reason)
		}

		if start == "" {
			if start, err = s.nextStart(ctx, tx, req.PracticalCode, date); err != nil {
				return err
			}
		}
		end, err := s.slotEnd(start)
		if err != nil {
			return err
		}

		existing, err := s.batches.FindBySlot(ctx, tx, req.PracticalCode, date, start)
		switch {
		case err == nil:
			if err := s.dropBatch(ctx, tx, existing.ID); err != nil {
				return err
			}
			s.logger.Info("replacing batch at identical slot",
				zap.Int64("batch_id", existing.ID),
				zap.String("practical_code", req.PracticalCode),
				zap.String("date", date),
				zap.String("start_time", start),
			)
		case !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("find batch at slot: %w", err)
		}

		batch := &models.Batch{
			PracticalCode: req.PracticalCode,
			BatchNo:       onDay + 1,
			DayIndex:      1,
			Date:          date,
			StartTime:     start,
			EndTime:       end,
			RoomLab:       trimmedOrNil(req.RoomLab),
			Status:        status,
		}
		if err := s.batches.Create(ctx, tx, batch); err != nil {
			return err
		}
		if err := s.renumber(ctx, tx, req.PracticalCode); err != nil {
			return err
		}
		created, err = s.batches.FindByID(ctx, tx, batch.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, created.PracticalCode)
	s.logger.Info("batch created",
		zap.Int64("batch_id", created.ID),
		zap.String("practical_code", created.PracticalCode),
		zap.Int("batch_no", created.BatchNo),
		zap.String("date", created.Date),
		zap.String("start_time", created.StartTime),
	)
	return created, nil
}

// EditBatchTiming moves a batch to a new date and/or start. The move is refused,
// leaving membership and the assignment index untouched, if any member would collide.
func (s *BatchService) EditBatchTiming(ctx context.Context, batchID int64, req dto.EditBatchRequest) (*models.Batch, error) {
	var (
		newDate, newStart string
		err               error
	)
	if req.Date != nil {
		if newDate, err = normalizeDate(*req.Date); err != nil {
			return nil, err
		}
	}
	if req.StartTime != nil {
		if newStart, err = normalizeStart(*req.StartTime); err != nil {
			return nil, err
		}
	}

	var updated *models.Batch
	err = s.mutate(ctx, OpEditBatch, func(tx *sqlx.Tx) error {
		batch, err := s.loadBatch(ctx, tx, batchID)
		if err != nil {
			return err
		}
		if newDate == "" {
			newDate = batch.Date
		}
		if newStart == "" {
			newStart = batch.StartTime
		}
		end, err := s.slotEnd(newStart)
		if err != nil {
			return err
		}

		if newDate != batch.Date {
			onDay, err := s.batches.CountOnDate(ctx, tx, batch.PracticalCode, newDate, batch.ID)
			if err != nil {
				return err
			}
			decision := s.rules.CanCreateBatch(s.catalog.TotalCandidates(batch.PracticalCode), onDay, onDay+1)
			if !decision.Allowed {
				return appErrors.Clone(appErrors.ErrRuleViolation, decision.Reason)
			}
		}

		if err := s.index.DeleteByBatch(ctx, tx, batch.ID); err != nil {
			return err
		}
		members, err := s.members.ListByBatch(ctx, tx, batch.ID)
		if err != nil {
			return err
		}
		report, err := s.detect(ctx, tx, newDate, newStart, end, memberRegNos(members), batch.ID)
		if err != nil {
			return err
		}
		if len(report) > 0 {
			s.metrics.RecordConflicts(OpEditBatch, len(report))
			return conflictError("Conflict(s) detected. Batch timing was not changed.", report)
		}

		batch.Date = newDate
		batch.StartTime = newStart
		batch.EndTime = end
		if req.RoomLab != nil {
			batch.RoomLab = trimmedOrNil(req.RoomLab)
		}
		if err := s.batches.UpdateTiming(ctx, tx, batch); err != nil {
			return err
		}
		if _, err := s.index.RebuildForBatch(ctx, tx, batch.ID); err != nil {
			return err
		}
		if err := s.renumber(ctx, tx, batch.PracticalCode); err != nil {
			return err
		}
		updated, err = s.batches.FindByID(ctx, tx, batch.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, updated.PracticalCode)
	s.logger.Info("batch timing updated",
		zap.Int64("batch_id", updated.ID),
		zap.String("date", updated.Date),
		zap.String("start_time", updated.StartTime),
	)
	return updated, nil
}

// DeleteBatch removes a batch with its members and index entries, then renumbers.
func (s *BatchService) DeleteBatch(ctx context.Context, batchID int64) error {
	var practicalCode string
	err := s.mutate(ctx, OpDeleteBatch, func(tx *sqlx.Tx) error {
		batch, err := s.loadBatch(ctx, tx, batchID)
		if err != nil {
			return err
		}
		practicalCode = batch.PracticalCode
		if err := s.dropBatch(ctx, tx, batch.ID); err != nil {
			return err
		}
		return s.renumber(ctx, tx, practicalCode)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, practicalCode)
	s.logger.Info("batch deleted", zap.Int64("batch_id", batchID), zap.String("practical_code", practicalCode))
	return nil
}

// AddMembers admits students to a batch. Either every new student is admitted or none is.
func (s *BatchService) AddMembers(ctx context.Context, batchID int64, req dto.AddMembersRequest) (*dto.AddMembersResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	requested := uniqueRegNos(req.RegNos)
	if len(requested) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one registration number is required")
	}

	resp := &dto.AddMembersResponse{BatchID: batchID, Added: []string{}}
	var practicalCode string
	err := s.mutate(ctx, OpAddMembers, func(tx *sqlx.Tx) error {
		batch, err := s.loadBatch(ctx, tx, batchID)
		if err != nil {
			return err
		}
		practicalCode = batch.PracticalCode
		if req.PracticalCode != "" && req.PracticalCode != batch.PracticalCode {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("Batch %d belongs to practical %s, not %s.", batch.ID, batch.PracticalCode, req.PracticalCode))
		}

		current, err := s.members.ListByBatch(ctx, tx, batch.ID)
		if err != nil {
			return err
		}
		seated := make(map[string]struct{}, len(current))
		for _, m := range current {
			seated[m.RegNo] = struct{}{}
		}
		var incoming []string
		for _, reg := range requested {
			if _, ok := seated[reg]; ok {
				resp.AlreadyMembers = append(resp.AlreadyMembers, reg)
				continue
			}
			incoming = append(incoming, reg)
		}
		resp.MemberCount = len(current)
		if len(incoming) == 0 {
			resp.Message = "No new students to add."
			return nil
		}

		var unknown []string
		for _, reg := range incoming {
			if !s.catalog.IsEnrolled(batch.PracticalCode, reg) {
				unknown = append(unknown, reg)
			}
		}
		if len(unknown) > 0 {
			return appErrors.WithDetails(
				appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("Students not enrolled in %s: %s", batch.PracticalCode, strings.Join(unknown, ", "))),
				map[string][]string{"regNos": unknown},
			)
		}

		others, err := s.members.OtherBatchesFor(ctx, tx, batch.PracticalCode, incoming, batch.ID)
		if err != nil {
			return err
		}
		if len(others) > 0 {
			regs := make([]string, 0, len(others))
			for reg := range others {
				regs = append(regs, reg)
			}
			sort.Strings(regs)
			return appErrors.WithDetails(
				appErrors.Clone(appErrors.ErrRuleViolation, fmt.Sprintf("Already placed in another batch of %s: %s", batch.PracticalCode, strings.Join(regs, ", "))),
				others,
			)
		}

		if decision := s.rules.CanAdmit(len(current), len(incoming)); !decision.Allowed {
			return appErrors.Clone(appErrors.ErrRuleViolation, decision.Reason)
		}

		report, err := s.detect(ctx, tx, batch.Date, batch.StartTime, batch.EndTime, incoming, batch.ID)
		if err != nil {
			return err
		}
		if len(report) > 0 {
			s.metrics.RecordConflicts(OpAddMembers, len(report))
			return conflictError("Conflict(s) detected. No students were added.", report)
		}

		for _, reg := range incoming {
			if err := s.members.Insert(ctx, tx, &models.BatchMember{BatchID: batch.ID, RegNo: reg, PracticalCode: batch.PracticalCode}); err != nil {
				return err
			}
			entry := &models.AssignmentIndexEntry{
				RegNo:         reg,
				Date:          batch.Date,
				StartTime:     batch.StartTime,
				EndTime:       batch.EndTime,
				PracticalCode: batch.PracticalCode,
				SourceBatchID: batch.ID,
			}
			if err := s.index.Replace(ctx, tx, entry); err != nil {
				return err
			}
		}
		resp.Added = incoming
		resp.MemberCount = len(current) + len(incoming)
		resp.Message = fmt.Sprintf("Added %d student(s).", len(incoming))
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Added) > 0 {
		s.invalidate(ctx, practicalCode)
	}
	s.logger.Info("batch members added",
		zap.Int64("batch_id", batchID),
		zap.Int("added", len(resp.Added)),
		zap.Int("already_members", len(resp.AlreadyMembers)),
	)
	return resp, nil
}

// RemoveMember drops one student from a batch. Removing a non-member is a no-op.
func (s *BatchService) RemoveMember(ctx context.Context, batchID int64, regNo string) (*dto.RemoveMemberResponse, error) {
	regNo = strings.TrimSpace(regNo)
	if regNo == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "registration number is required")
	}
	resp := &dto.RemoveMemberResponse{BatchID: batchID, RegNo: regNo}
	var practicalCode string
	err := s.mutate(ctx, OpRemoveMember, func(tx *sqlx.Tx) error {
		batch, err := s.loadBatch(ctx, tx, batchID)
		if err != nil {
			return err
		}
		practicalCode = batch.PracticalCode
		if resp.Removed, err = s.members.Delete(ctx, tx, batch.ID, regNo); err != nil {
			return err
		}
		return s.index.DeleteEntry(ctx, tx, batch.ID, regNo)
	})
	if err != nil {
		return nil, err
	}
	if resp.Removed {
		s.invalidate(ctx, practicalCode)
	}
	return resp, nil
}

// RebuildIndexFor rederives a batch's assignment index rows from its membership.
func (s *BatchService) RebuildIndexFor(ctx context.Context, batchID int64) (*dto.RebuildIndexResponse, error) {
	resp := &dto.RebuildIndexResponse{BatchID: batchID}
	err := s.mutate(ctx, OpRebuildIndex, func(tx *sqlx.Tx) error {
		if _, err := s.loadBatch(ctx, tx, batchID); err != nil {
			return err
		}
		n, err := s.index.RebuildForBatch(ctx, tx, batchID)
		resp.Entries = n
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// VerifyIndex compares the stored assignment index with the membership join.
func (s *BatchService) VerifyIndex(ctx context.Context) (*models.IndexVerification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	actual, err := s.index.ListAll(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read assignment index")
	}
	derived, err := s.index.ListDerived(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to derive assignment index")
	}
	return compareIndex(actual, derived), nil
}

// CheckConflicts previews the conflict detector without writing anything.
func (s *BatchService) CheckConflicts(ctx context.Context, req dto.ConflictCheckRequest) (*dto.ConflictCheckResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	date, err := normalizeDate(req.Date)
	if err != nil {
		return nil, err
	}
	start, err := normalizeStart(req.StartTime)
	if err != nil {
		return nil, err
	}
	var end string
	if strings.TrimSpace(req.EndTime) != "" {
		if end, err = scheduling.NormalizeHHMM(req.EndTime); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "Invalid end time. Use HH:MM (24h).")
		}
	} else if end, err = s.slotEnd(start); err != nil {
		return nil, err
	}

	report, err := s.detect(ctx, nil, date, start, end, uniqueRegNos(req.RegNos), req.ExcludeBatchID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check conflicts")
	}
	return &dto.ConflictCheckResponse{
		Date:      date,
		StartTime: start,
		EndTime:   end,
		Clean:     len(report) == 0,
		Conflicts: report,
	}, nil
}

// SuggestNextStart returns the start a new batch would get on date.
func (s *BatchService) SuggestNextStart(ctx context.Context, practicalCode, rawDate string) (*dto.SuggestStartResponse, error) {
	if _, ok := s.catalog.Practical(practicalCode); !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("Practical %s not found.", practicalCode))
	}
	date, err := normalizeDate(rawDate)
	if err != nil {
		return nil, err
	}
	start, err := s.nextStart(ctx, nil, practicalCode, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to suggest start time")
	}
	end, _, err := s.rules.SlotEnd(start)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to suggest start time")
	}
	return &dto.SuggestStartResponse{PracticalCode: practicalCode, Date: date, StartTime: start, EndTime: end}, nil
}

func (s *BatchService) mutate(ctx context.Context, operation string, fn func(tx *sqlx.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	err := s.inTx(ctx, fn)
	s.metrics.ObserveDBQuery("tx_"+operation, time.Since(start))
	s.metrics.RecordMutation(operation, mutationResult(err))
	if err != nil {
		s.logger.Warn("batch mutation rolled back", zap.String("operation", operation), zap.Error(err))
	}
	return err
}

func (s *BatchService) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	if s.tx == nil {
		return appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrConsistency.Code, appErrors.ErrConsistency.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		var appErr *appErrors.Error
		if !errors.As(err, &appErr) {
			err = appErrors.Wrap(err, appErrors.ErrConsistency.Code, appErrors.ErrConsistency.Status, appErrors.ErrConsistency.Message)
		}
		return err
	}
	if err = tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrConsistency.Code, appErrors.ErrConsistency.Status, "failed to commit transaction")
	}
	return nil
}

func (s *BatchService) loadBatch(ctx context.Context, tx *sqlx.Tx, id int64) (*models.Batch, error) {
	batch, err := s.batches.FindByID(ctx, tx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Batch not found.")
		}
		return nil, fmt.Errorf("load batch %d: %w", id, err)
	}
	return batch, nil
}

// dropBatch deletes index rows and members explicitly, then the batch row.
func (s *BatchService) dropBatch(ctx context.Context, tx *sqlx.Tx, id int64) error {
	if err := s.index.DeleteByBatch(ctx, tx, id); err != nil {
		return err
	}
	if err := s.members.DeleteByBatch(ctx, tx, id); err != nil {
		return err
	}
	return s.batches.Delete(ctx, tx, id)
}

func (s *BatchService) renumber(ctx context.Context, tx *sqlx.Tx, practicalCode string) error {
	batches, err := s.batches.ListByPractical(ctx, tx, practicalCode)
	if err != nil {
		return err
	}
	for _, n := range scheduling.Changed(batches, scheduling.Renumber(batches)) {
		if err := s.batches.UpdateNumbering(ctx, tx, n.BatchID, n.BatchNo, n.DayIndex); err != nil {
			return err
		}
	}
	return nil
}

func (s *BatchService) nextStart(ctx context.Context, exec sqlx.ExtContext, practicalCode, date string) (string, error) {
	latest, err := s.batches.LatestEndOnDate(ctx, exec, practicalCode, date)
	if err != nil {
		return "", err
	}
	if latest == "" {
		return s.rules.DefaultStartTime, nil
	}
	return scheduling.NormalizeHHMM(latest)
}

func (s *BatchService) slotEnd(start string) (string, error) {
	end, overflow, err := s.rules.SlotEnd(start)
	if err != nil {
		return "", appErrors.Clone(appErrors.ErrValidation, "Invalid start time. Use HH:MM (24h).")
	}
	if overflow {
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("A batch starting at %s would run past midnight.", start))
	}
	return end, nil
}

func (s *BatchService) detect(ctx context.Context, exec sqlx.ExtContext, date, start, end string, regNos []string, excludeBatchID int64) (models.ConflictReport, error) {
	if len(regNos) == 0 {
		return models.ConflictReport{}, nil
	}
	candidate, err := scheduling.NewInterval(start, end)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Invalid start time. Use HH:MM (24h).")
	}
	entries, err := s.index.ListForStudentsOnDate(ctx, exec, date, regNos)
	if err != nil {
		return nil, err
	}
	report := s.detector.Detect(candidate, date, entries, excludeBatchID)
	for _, hits := range report {
		for i := range hits {
			if p, ok := s.catalog.Practical(hits[i].PracticalCode); ok {
				hits[i].SubjectName = p.SubjectName
			}
		}
	}
	return report, nil
}

func (s *BatchService) invalidate(ctx context.Context, practicalCode string) {
	s.cache.Invalidate(ctx, cache.OverviewKey(practicalCode))
}

func compareIndex(actual, derived []models.AssignmentIndexEntry) *models.IndexVerification {
	type key struct {
		reg   string
		batch int64
	}
	slot := func(e models.AssignmentIndexEntry) string {
		return fmt.Sprintf("%s %s %s-%s", e.PracticalCode, e.Date, e.StartTime, e.EndTime)
	}

	expected := make(map[key]models.AssignmentIndexEntry, len(derived))
	for _, e := range derived {
		expected[key{e.RegNo, e.SourceBatchID}] = e
	}

	result := &models.IndexVerification{Checked: len(derived)}
	seen := make(map[key]bool, len(actual))
	for _, e := range actual {
		k := key{e.RegNo, e.SourceBatchID}
		want, ok := expected[k]
		switch {
		case !ok || seen[k]:
			result.Discrepancies = append(result.Discrepancies, models.IndexDiscrepancy{
				Kind: models.DiscrepancyStale, RegNo: e.RegNo, SourceBatchID: e.SourceBatchID, Actual: slot(e),
			})
		case slot(want) != slot(e):
			result.Discrepancies = append(result.Discrepancies, models.IndexDiscrepancy{
				Kind: models.DiscrepancyMismatch, RegNo: e.RegNo, SourceBatchID: e.SourceBatchID, Expected: slot(want), Actual: slot(e),
			})
		}
		seen[k] = true
	}
	for _, e := range derived {
		if !seen[key{e.RegNo, e.SourceBatchID}] {
			result.Discrepancies = append(result.Discrepancies, models.IndexDiscrepancy{
				Kind: models.DiscrepancyMissing, RegNo: e.RegNo, SourceBatchID: e.SourceBatchID, Expected: slot(e),
			})
		}
	}
	result.Consistent = len(result.Discrepancies) == 0
	return result
}

func conflictError(message string, report models.ConflictReport) error {
	return appErrors.WithDetails(appErrors.Clone(appErrors.ErrConflict, message+"\n\n"+report.String()), report)
}

func mutationResult(err error) string {
	switch {
	case err == nil:
		return MutationResultOK
	case errors.Is(err, appErrors.ErrConflict):
		return MutationResultConflict
	case errors.Is(err, appErrors.ErrRuleViolation), errors.Is(err, appErrors.ErrValidation), errors.Is(err, appErrors.ErrNotFound):
		return MutationResultRejected
	default:
		return MutationResultError
	}
}

func normalizeDate(raw string) (string, error) {
	date, err := scheduling.NormalizeDate(raw)
	if err != nil {
		return "", appErrors.Clone(appErrors.ErrValidation, "Invalid date. Use dd.mm.yyyy.")
	}
	return date, nil
}

func normalizeStart(raw string) (string, error) {
	start, err := scheduling.NormalizeHHMM(raw)
	if err != nil {
		return "", appErrors.Clone(appErrors.ErrValidation, "Invalid start time. Use HH:MM (24h).")
	}
	return start, nil
}

func uniqueRegNos(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, reg := range raw {
		reg = strings.TrimSpace(reg)
		if reg == "" {
			continue
		}
		if _, ok := seen[reg]; ok {
			continue
		}
		seen[reg] = struct{}{}
		out = append(out, reg)
	}
	return out
}

func memberRegNos(members []models.BatchMember) []string {
	out := make([]string, len(members))
	for i, m := range members {
		out[i] = m.RegNo
	}
	return out
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
