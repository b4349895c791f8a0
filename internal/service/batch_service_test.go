package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/practical-scheduler/internal/catalog"
	"github.com/noah-isme/practical-scheduler/internal/dto"
	"github.com/noah-isme/practical-scheduler/internal/models"
	"github.com/noah-isme/practical-scheduler/internal/repository"
	"github.com/noah-isme/practical-scheduler/internal/scheduling"
	"github.com/noah-isme/practical-scheduler/pkg/database"
	appErrors "github.com/noah-isme/practical-scheduler/pkg/errors"
)

const day1, day2 = "01.03.2025", "02.03.2025"

type schedulerFixture struct {
	db       *sqlx.DB
	svc      *BatchService
	overview *OverviewService
	batches  *repository.BatchRepository
	members  *repository.BatchMemberRepository
	index    *repository.AssignmentIndexRepository
	catalog  *catalog.Catalog
	metrics  *MetricsService
}

// testCatalog: P1 (60 candidates, S01..S40), P2 and P3 (S01, S02), P4 (200 candidates, S01).
func testCatalog() *catalog.Catalog {
	practicals := []models.Practical{
		{PracticalCode: "P1", SubjectCode: "CS101", SubjectName: "Networks Lab", DeptCode: "CS", DeptName: "Computer Science", TotalCandidates: 60},
		{PracticalCode: "P2", SubjectCode: "CS102", SubjectName: "Databases Lab", DeptCode: "CS", DeptName: "Computer Science", TotalCandidates: 2},
		{PracticalCode: "P3", SubjectCode: "EE201", SubjectName: "Circuits Lab", DeptCode: "EE", DeptName: "Electrical", TotalCandidates: 2},
		{PracticalCode: "P4", SubjectCode: "ME301", SubjectName: "Workshop", DeptCode: "ME", DeptName: "Mechanical", TotalCandidates: 200},
	}
	var enrollments []models.Enrollment
	for i := 1; i <= 40; i++ {
		enrollments = append(enrollments, models.Enrollment{RegNo: regNo(i), StudentName: "Student " + regNo(i), PracticalCode: "P1", DeptName: "Computer Science", Semester: "5"})
	}
	for _, code := range []string{"P2", "P3"} {
		for i := 1; i <= 2; i++ {
			enrollments = append(enrollments, models.Enrollment{RegNo: regNo(i), StudentName: "Student " + regNo(i), PracticalCode: code, DeptName: "Computer Science", Semester: "5"})
		}
	}
	enrollments = append(enrollments, models.Enrollment{RegNo: regNo(1), StudentName: "Student " + regNo(1), PracticalCode: "P4", Semester: "5"})
	return catalog.New(practicals, enrollments)
}

func regNo(i int) string { return fmt.Sprintf("S%02d", i) }

func regNos(from, to int) []string {
	var out []string
	for i := from; i <= to; i++ {
		out = append(out, regNo(i))
	}
	return out
}

func newSchedulerFixture(t *testing.T) *schedulerFixture {
	t.Helper()
	db, err := database.NewSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = db.Close() })

	f := &schedulerFixture{
		db:      db,
		batches: repository.NewBatchRepository(db),
		members: repository.NewBatchMemberRepository(db),
		index:   repository.NewAssignmentIndexRepository(db),
		catalog: testCatalog(),
		metrics: NewMetricsService(),
	}
	f.svc = NewBatchService(f.batches, f.members, f.index, f.catalog, db, nil, nil, f.metrics, nil, scheduling.DefaultRules())
	f.overview = NewOverviewService(f.batches, f.members, f.index, f.catalog, nil, 0, nil)
	return f
}

func (f *schedulerFixture) create(t *testing.T, code, date, start string) *models.Batch {
	t.Helper()
	batch, err := f.svc.CreateBatch(context.Background(), dto.CreateBatchRequest{PracticalCode: code, Date: date, StartTime: start})
	require.NoError(t, err)
	return batch
}

func (f *schedulerFixture) add(t *testing.T, batchID int64, regs ...string) {
	t.Helper()
	_, err := f.svc.AddMembers(context.Background(), batchID, dto.AddMembersRequest{RegNos: regs})
	require.NoError(t, err)
}

type storeSnapshot struct {
	Batches []models.Batch
	Members []models.BatchMember
	Index   []models.AssignmentIndexEntry
}

func (f *schedulerFixture) snapshot(t *testing.T) storeSnapshot {
	t.Helper()
	var snap storeSnapshot
	require.NoError(t, f.db.Select(&snap.Batches, `SELECT * FROM Batches ORDER BY batch_id`))
	require.NoError(t, f.db.Select(&snap.Members, `SELECT * FROM BatchMembers ORDER BY batch_member_id`))
	require.NoError(t, f.db.Select(&snap.Index, `SELECT * FROM AssignmentsIndex ORDER BY idx_id`))
	return snap
}

// assertInvariants checks density, index agreement, capacity, and no double booking.
func (f *schedulerFixture) assertInvariants(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	var codes []string
	require.NoError(t, f.db.Select(&codes, `SELECT DISTINCT practical_code FROM Batches ORDER BY practical_code`))
	for _, code := range codes {
		batches, err := f.batches.ListByPractical(ctx, nil, code)
		require.NoError(t, err)
		dates := map[string]int{}
		for i, b := range batches {
			assert.Equal(t, i+1, b.BatchNo, "batch_no density for %s", code)
			if _, ok := dates[b.Date]; !ok {
				dates[b.Date] = len(dates) + 1
			}
			assert.Equal(t, dates[b.Date], b.DayIndex, "day_index for batch %d", b.ID)

			members, err := f.members.ListByBatch(ctx, nil, b.ID)
			require.NoError(t, err)
			assert.LessOrEqual(t, len(members), 30)
		}
	}

	verification, err := f.svc.VerifyIndex(ctx)
	require.NoError(t, err)
	assert.True(t, verification.Consistent, "index discrepancies: %+v", verification.Discrepancies)

	all, err := f.index.ListAll(ctx, nil)
	require.NoError(t, err)
	byStudentDate := map[string][]models.AssignmentIndexEntry{}
	for _, e := range all {
		byStudentDate[e.RegNo+"|"+e.Date] = append(byStudentDate[e.RegNo+"|"+e.Date], e)
	}
	for k, entries := range byStudentDate {
		for i := 0; i < len(entries); i++ {
			for j := i + 1; j < len(entries); j++ {
				a, err := scheduling.NewInterval(entries[i].StartTime, entries[i].EndTime)
				require.NoError(t, err)
				b, err := scheduling.NewInterval(entries[j].StartTime, entries[j].EndTime)
				require.NoError(t, err)
				assert.False(t, scheduling.Conflicts(a, b, 60), "double booking for %s", k)
			}
		}
	}
}

func TestCreateBatchSuggestsStartAndNumbers(t *testing.T) {
	f := newSchedulerFixture(t)

	a := f.create(t, "P1", day1, "")
	assert.Equal(t, "09:00", a.StartTime)
	assert.Equal(t, "12:00", a.EndTime)
	assert.Equal(t, 1, a.BatchNo)
	assert.Equal(t, 1, a.DayIndex)
	assert.Equal(t, models.BatchStatusDraft, a.Status)

	b := f.create(t, "P1", day1, "")
	assert.Equal(t, "12:00", b.StartTime)
	assert.Equal(t, "15:00", b.EndTime)
	assert.Equal(t, 2, b.BatchNo)

	f.assertInvariants(t)
}

func TestAddMembersRejectsTooCloseBatchOfOtherPractical(t *testing.T) {
	f := newSchedulerFixture(t)
	ctx := context.Background()

	a := f.create(t, "P1", day1, "")
	f.add(t, a.ID, "S01")
	p2 := f.create(t, "P2", day1, "12:20")

	before := f.snapshot(t)
	_, err := f.svc.AddMembers(ctx, p2.ID, dto.AddMembersRequest{RegNos: []string{"S01", "S02"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
	assert.Contains(t, err.Error(), "Conflict(s) detected. No students were added.")
	assert.Contains(t, err.Error(), "S01 - P1 (09:00-12:00)")

	appErr := appErrors.FromError(err)
	report, ok := appErr.Details.(models.ConflictReport)
	require.True(t, ok)
	assert.Equal(t, []string{"S01"}, report.RegNos())
	assert.Equal(t, "Networks Lab", report["S01"][0].SubjectName)

	assert.Equal(t, before, f.snapshot(t))
	f.assertInvariants(t)
}

func TestEditBatchTimingRejectedLeavesStoreUntouched(t *testing.T) {
	f := newSchedulerFixture(t)
	ctx := context.Background()

	p3 := f.create(t, "P3", day1, "09:30")
	f.add(t, p3.ID, "S01")
	a := f.create(t, "P1", day1, "16:00")
	f.add(t, a.ID, "S01", "S03")

	before := f.snapshot(t)
	start := "10:00"
	_, err := f.svc.EditBatchTiming(ctx, a.ID, dto.EditBatchRequest{StartTime: &start})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
	assert.Contains(t, err.Error(), "S01 - P3 (09:30-12:30)")
	assert.Equal(t, before, f.snapshot(t))

	entries, err := f.index.ListForStudents(ctx, []string{"S01", "S03"})
	require.NoError(t, err)
	for _, e := range entries {
		if e.SourceBatchID == a.ID {
			assert.Equal(t, "16:00", e.StartTime)
		}
	}
	f.assertInvariants(t)
}

func TestEditBatchTimingMovesIndexAndRenumbers(t *testing.T) {
	f := newSchedulerFixture(t)
	ctx := context.Background()

	a := f.create(t, "P1", day1, "")
	b := f.create(t, "P1", day1, "")
	f.add(t, a.ID, "S01", "S02")

	date, start := day2, "13:00"
	room := " Lab 4 "
	moved, err := f.svc.EditBatchTiming(ctx, a.ID, dto.EditBatchRequest{Date: &date, StartTime: &start, RoomLab: &room})
	require.NoError(t, err)
	assert.Equal(t, day2, moved.Date)
	assert.Equal(t, "16:00", moved.EndTime)
	assert.Equal(t, 2, moved.BatchNo)
	assert.Equal(t, 2, moved.DayIndex)
	require.NotNil(t, moved.RoomLab)
	assert.Equal(t, "Lab 4", *moved.RoomLab)

	other, err := f.batches.FindByID(ctx, nil, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, other.BatchNo)

	entries, err := f.index.ListForStudents(ctx, []string{"S01", "S02"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, day2, e.Date)
		assert.Equal(t, "13:00", e.StartTime)
		assert.Equal(t, "16:00", e.EndTime)
	}
	f.assertInvariants(t)
}

func TestDeleteBatchRenumbersAcrossDays(t *testing.T) {
	f := newSchedulerFixture(t)
	ctx := context.Background()

	a := f.create(t, "P1", day1, "")
	b := f.create(t, "P1", day1, "")
	f.add(t, b.ID, "S05")

	require.NoError(t, f.svc.DeleteBatch(ctx, b.ID))
	kept, err := f.batches.FindByID(ctx, nil, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, kept.BatchNo)

	c := f.create(t, "P1", day2, "")
	assert.Equal(t, 2, c.BatchNo)
	assert.Equal(t, 2, c.DayIndex)

	err = f.svc.DeleteBatch(ctx, b.ID)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	assert.Equal(t, "Batch not found.", appErrors.FromError(err).Message)
	f.assertInvariants(t)
}

func TestCreateBatchDailyCaps(t *testing.T) {
	f := newSchedulerFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		f.create(t, "P1", day1, "")
	}
	_, err := f.svc.CreateBatch(ctx, dto.CreateBatchRequest{PracticalCode: "P1", Date: day1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrRuleViolation))
	assert.Equal(t, "For ≤90 candidates, maximum 3 batches allowed on a single day.", appErrors.FromError(err).Message)

	for i := 0; i < 3; i++ {
		f.create(t, "P4", day1, fmt.Sprintf("%02d:00", 6+i*4))
	}
	_, err = f.svc.CreateBatch(ctx, dto.CreateBatchRequest{PracticalCode: "P4", Date: day1, StartTime: "20:00"})
	require.Error(t, err)
	assert.Equal(t, "Max 3 batches per day for a practical.", appErrors.FromError(err).Message)
	f.assertInvariants(t)
}

func TestCreateBatchValidation(t *testing.T) {
	f := newSchedulerFixture(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  dto.CreateBatchRequest
		want *appErrors.Error
		msg  string
	}{
		{"unknown practical", dto.CreateBatchRequest{PracticalCode: "ZZ", Date: day1}, appErrors.ErrNotFound, "Practical ZZ not found."},
		{"bad date", dto.CreateBatchRequest{PracticalCode: "P1", Date: "2025-03-01"}, appErrors.ErrValidation, "Invalid date. Use dd.mm.yyyy."},
		{"bad start", dto.CreateBatchRequest{PracticalCode: "P1", Date: day1, StartTime: "9am"}, appErrors.ErrValidation, "Invalid start time. Use HH:MM (24h)."},
		{"past midnight", dto.CreateBatchRequest{PracticalCode: "P1", Date: day1, StartTime: "22:30"}, appErrors.ErrValidation, "A batch starting at 22:30 would run past midnight."},
		{"missing date", dto.CreateBatchRequest{PracticalCode: "P1"}, appErrors.ErrValidation, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.CreateBatch(ctx, tc.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want))
			if tc.msg != "" {
				assert.Equal(t, tc.msg, appErrors.FromError(err).Message)
			}
		})
	}
	assert.Empty(t, f.snapshot(t).Batches)
}

func TestCreateBatchAtSameSlotReplacesExisting(t *testing.T) {
	f := newSchedulerFixture(t)
	ctx := context.Background()

	a := f.create(t, "P1", day1, "9:00")
	assert.Equal(t, "09:00", a.StartTime)
	f.add(t, a.ID, "S01")

	replacement := f.create(t, "P1", day1, "09:00")
	assert.NotEqual(t, a.ID, replacement.ID)
	assert.Equal(t, 1, replacement.BatchNo)

	_, err := f.batches.FindByID(ctx, nil, a.ID)
	assert.Error(t, err)
	entries, err := f.index.ListForStudents(ctx, []string{"S01"})
	require.NoError(t, err)
	assert.Empty(t, entries)
	f.assertInvariants(t)
}

func TestAddMembersCapacity(t *testing.T) {
	f := newSchedulerFixture(t)
	ctx := context.Background()

	a := f.create(t, "P1", day1, "")
	f.add(t, a.ID, regNos(1, 29)...)

	before := f.snapshot(t)
	_, err := f.svc.AddMembers(ctx, a.ID, dto.AddMembersRequest{RegNos: regNos(30, 31)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrRuleViolation))
	assert.Equal(t, "Cannot exceed 30 students per batch.", appErrors.FromError(err).Message)
	assert.Equal(t, before, f.snapshot(t))

	resp, err := f.svc.AddMembers(ctx, a.ID, dto.AddMembersRequest{RegNos: []string{"S30", "S01"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"S30"}, resp.Added)
	assert.Equal(t, []string{"S01"}, resp.AlreadyMembers)
	assert.Equal(t, 30, resp.MemberCount)
	assert.Equal(t, "Added 1 student(s).", resp.Message)
	f.assertInvariants(t)
}

func TestAddMembersValidations(t *testing.T) {
	f := newSchedulerFixture(t)
	ctx := context.Background()

	a := f.create(t, "P1", day1, "")
	b := f.create(t, "P1", day2, "")
	f.add(t, a.ID, "S01")

	_, err := f.svc.AddMembers(ctx, b.ID, dto.AddMembersRequest{RegNos: []string{"S01"}})
	assert.True(t, errors.Is(err, appErrors.ErrRuleViolation))
	assert.Equal(t, map[string]int64{"S01": a.ID}, appErrors.FromError(err).Details)

	_, err = f.svc.AddMembers(ctx, b.ID, dto.AddMembersRequest{RegNos: []string{"X99"}})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Equal(t, map[string][]string{"regNos": {"X99"}}, appErrors.FromError(err).Details)

	_, err = f.svc.AddMembers(ctx, b.ID, dto.AddMembersRequest{PracticalCode: "P2", RegNos: []string{"S02"}})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = f.svc.AddMembers(ctx, 999, dto.AddMembersRequest{RegNos: []string{"S02"}})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	_, err = f.svc.AddMembers(ctx, b.ID, dto.AddMembersRequest{})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	resp, err := f.svc.AddMembers(ctx, a.ID, dto.AddMembersRequest{RegNos: []string{"S01", " S01 "}})
	require.NoError(t, err)
	assert.Empty(t, resp.Added)
	assert.Equal(t, "No new students to add.", resp.Message)
	f.assertInvariants(t)
}

func TestRemoveMemberIsIdempotent(t *testing.T) {
	f := newSchedulerFixture(t)
	ctx := context.Background()

	a := f.create(t, "P1", day1, "")
	f.add(t, a.ID, "S01", "S02")

	resp, err := f.svc.RemoveMember(ctx, a.ID, "S01")
	require.NoError(t, err)
	assert.True(t, resp.Removed)

	resp, err = f.svc.RemoveMember(ctx, a.ID, "S01")
	require.NoError(t, err)
	assert.False(t, resp.Removed)

	entries, err := f.index.ListForStudents(ctx, []string{"S01", "S02"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "S02", entries[0].RegNo)

	_, err = f.svc.RemoveMember(ctx, 999, "S02")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	f.assertInvariants(t)
}

func TestVerifyAndRebuildIndex(t *testing.T) {
	f := newSchedulerFixture(t)
	ctx := context.Background()

	a := f.create(t, "P1", day1, "")
	f.add(t, a.ID, "S01", "S02", "S03")

	_, err := f.db.Exec(`DELETE FROM AssignmentsIndex WHERE reg_no = 'S01'`)
	require.NoError(t, err)
	_, err = f.db.Exec(`UPDATE AssignmentsIndex SET start_time = '08:00' WHERE reg_no = 'S02'`)
	require.NoError(t, err)
	_, err = f.db.Exec(`INSERT INTO AssignmentsIndex (reg_no, date, start_time, end_time, practical_code, source_batch_id) VALUES ('S09', ?, '09:00', '12:00', 'P1', ?)`, day1, a.ID)
	require.NoError(t, err)

	verification, err := f.svc.VerifyIndex(ctx)
	require.NoError(t, err)
	assert.False(t, verification.Consistent)
	assert.Equal(t, 3, verification.Checked)
	kinds := map[string]string{}
	for _, d := range verification.Discrepancies {
		kinds[d.RegNo] = d.Kind
	}
	assert.Equal(t, map[string]string{
		"S01": models.DiscrepancyMissing,
		"S02": models.DiscrepancyMismatch,
		"S09": models.DiscrepancyStale,
	}, kinds)

	resp, err := f.svc.RebuildIndexFor(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.Entries)
	f.assertInvariants(t)

	_, err = f.svc.RebuildIndexFor(ctx, 999)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

type failingIndexStore struct {
	*repository.AssignmentIndexRepository
	failAfter int
	calls     int
}

func (s *failingIndexStore) Replace(ctx context.Context, exec sqlx.ExtContext, entry *models.AssignmentIndexEntry) error {
	s.calls++
	if s.calls > s.failAfter {
		return errors.New("disk I/O error")
	}
	return s.AssignmentIndexRepository.Replace(ctx, exec, entry)
}

func TestStorageFailureRollsBackWholeMutation(t *testing.T) {
	f := newSchedulerFixture(t)
	ctx := context.Background()

	a := f.create(t, "P1", day1, "")
	f.add(t, a.ID, "S01")

	failing := &failingIndexStore{AssignmentIndexRepository: f.index, failAfter: 1}
	svc := NewBatchService(f.batches, f.members, failing, f.catalog, f.db, nil, nil, f.metrics, nil, scheduling.DefaultRules())

	before := f.snapshot(t)
	_, err := svc.AddMembers(ctx, a.ID, dto.AddMembersRequest{RegNos: []string{"S02", "S03"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrConsistency))
	assert.Equal(t, before, f.snapshot(t))

	snap := f.metrics.Snapshot()
	assert.GreaterOrEqual(t, snap.MutationFailures, uint64(1))
	f.assertInvariants(t)
}

func TestCheckConflictsAndSuggestNextStart(t *testing.T) {
	f := newSchedulerFixture(t)
	ctx := context.Background()

	a := f.create(t, "P1", day1, "")
	f.add(t, a.ID, "S01", "S02")

	resp, err := f.svc.CheckConflicts(ctx, dto.ConflictCheckRequest{Date: day1, StartTime: "12:30", RegNos: []string{"S01", "S03"}})
	require.NoError(t, err)
	assert.False(t, resp.Clean)
	assert.Equal(t, "15:30", resp.EndTime)
	assert.Equal(t, []string{"S01"}, resp.Conflicts.RegNos())

	resp, err = f.svc.CheckConflicts(ctx, dto.ConflictCheckRequest{Date: day1, StartTime: "13:00", EndTime: "14:00", RegNos: []string{"S01"}})
	require.NoError(t, err)
	assert.True(t, resp.Clean)

	resp, err = f.svc.CheckConflicts(ctx, dto.ConflictCheckRequest{Date: day1, StartTime: "10:00", RegNos: []string{"S01"}, ExcludeBatchID: a.ID})
	require.NoError(t, err)
	assert.True(t, resp.Clean)

	suggestion, err := f.svc.SuggestNextStart(ctx, "P1", day1)
	require.NoError(t, err)
	assert.Equal(t, "12:00", suggestion.StartTime)
	assert.Equal(t, "15:00", suggestion.EndTime)

	suggestion, err = f.svc.SuggestNextStart(ctx, "P1", day2)
	require.NoError(t, err)
	assert.Equal(t, "09:00", suggestion.StartTime)

	_, err = f.svc.SuggestNextStart(ctx, "ZZ", day1)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestRandomisedMutationsKeepInvariants(t *testing.T) {
	f := newSchedulerFixture(t)
	ctx := context.Background()

	starts := []string{"08:00", "09:30", "11:00", "13:15", "15:00", "17:45"}
	dates := []string{day1, day2, "03.03.2025"}
	var ids []int64
	for i := 0; i < 40; i++ {
		switch i % 4 {
		case 0, 1:
			batch, err := f.svc.CreateBatch(ctx, dto.CreateBatchRequest{PracticalCode: []string{"P1", "P2", "P3"}[i%3], Date: dates[i%len(dates)], StartTime: starts[i%len(starts)]})
			if err == nil {
				ids = append(ids, batch.ID)
			}
		case 2:
			if len(ids) > 0 {
				_, _ = f.svc.AddMembers(ctx, ids[i%len(ids)], dto.AddMembersRequest{RegNos: regNos(1+i%5, 4+i%5)})
			}
		case 3:
			if len(ids) > 0 {
				start := starts[(i+1)%len(starts)]
				_, _ = f.svc.EditBatchTiming(ctx, ids[(i+2)%len(ids)], dto.EditBatchRequest{StartTime: &start})
			}
		}
		f.assertInvariants(t)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids[:len(ids)/2] {
		_ = f.svc.DeleteBatch(ctx, id)
	}
	f.assertInvariants(t)
}
