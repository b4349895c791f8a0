package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/practical-scheduler/internal/dto"
	"github.com/noah-isme/practical-scheduler/internal/models"
	"github.com/noah-isme/practical-scheduler/internal/scheduling"
	"github.com/noah-isme/practical-scheduler/pkg/cache"
	appErrors "github.com/noah-isme/practical-scheduler/pkg/errors"
)

type memoryCache struct {
	mu    sync.Mutex
	items map[string][]byte
	sets  int
}

func newMemoryCache() *memoryCache { return &memoryCache{items: map[string][]byte{}} }

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = raw
	m.sets++
	return nil
}

func (m *memoryCache) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.items, k)
	}
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range m.items {
		if strings.HasPrefix(k, prefix) {
			delete(m.items, k)
		}
	}
	return nil
}

func (m *memoryCache) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.items[key]
	return ok
}

func TestOverviewReportsProgress(t *testing.T) {
	f := newSchedulerFixture(t)
	ctx := context.Background()

	a := f.create(t, "P1", day1, "")
	f.create(t, "P1", day2, "")
	f.add(t, a.ID, regNos(1, 10)...)

	overview, err := f.overview.Overview(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, "Networks Lab", overview.SubjectName)
	assert.Equal(t, 40, overview.Total)
	assert.Equal(t, 10, overview.Assigned)
	assert.Equal(t, 30, overview.Remaining)
	assert.Equal(t, 25, overview.AssignedPct)
	require.Len(t, overview.Batches, 2)
	assert.Equal(t, 10, overview.Batches[0].MemberCount)
	assert.Equal(t, 0, overview.Batches[1].MemberCount)

	empty, err := f.overview.Overview(ctx, "P2")
	require.NoError(t, err)
	assert.Empty(t, empty.Batches)
	assert.Zero(t, empty.AssignedPct)

	_, err = f.overview.Overview(ctx, "ZZ")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestOverviewCacheInvalidatedByMutations(t *testing.T) {
	f := newSchedulerFixture(t)
	ctx := context.Background()
	store := newMemoryCache()
	cacheSvc := NewCacheService(store, f.metrics, time.Minute, nil, true)
	f.svc = NewBatchService(f.batches, f.members, f.index, f.catalog, f.db, nil, cacheSvc, f.metrics, nil, scheduling.DefaultRules())
	f.overview = NewOverviewService(f.batches, f.members, f.index, f.catalog, cacheSvc, time.Minute, nil)
	key := cache.OverviewKey("P1")

	a := f.create(t, "P1", day1, "")
	first, err := f.overview.Overview(ctx, "P1")
	require.NoError(t, err)
	assert.Zero(t, first.Assigned)
	assert.True(t, store.has(key))

	cached, err := f.overview.Overview(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, first.Assigned, cached.Assigned)
	assert.Equal(t, 1, store.sets)

	f.add(t, a.ID, "S01")
	assert.False(t, store.has(key))

	fresh, err := f.overview.Overview(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.Assigned)

	// rejected mutations leave the cached view alone
	_, err = f.svc.AddMembers(ctx, a.ID, dto.AddMembersRequest{RegNos: []string{"X1"}})
	require.Error(t, err)
	assert.True(t, store.has(key))

	snap := f.metrics.Snapshot()
	assert.Equal(t, uint64(1), snap.CacheHits)
}

func TestListBatchesRosterAndUnassigned(t *testing.T) {
	f := newSchedulerFixture(t)
	ctx := context.Background()

	a := f.create(t, "P1", day1, "")
	f.create(t, "P1", day2, "")
	f.add(t, a.ID, "S02", "S01")

	all, err := f.overview.ListBatches(ctx, "P1", "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, day1, all[0].Date)

	onDay2, err := f.overview.ListBatches(ctx, "P1", " 02.03.2025 ")
	require.NoError(t, err)
	require.Len(t, onDay2, 1)
	assert.Equal(t, day2, onDay2[0].Date)

	_, err = f.overview.ListBatches(ctx, "P1", "bad")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	roster, err := f.overview.Roster(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, roster.Members, 2)
	assert.Equal(t, models.RosterEntry{SerialNo: 1, RegNo: "S01", StudentName: "Student S01", DepartmentName: "Computer Science"}, roster.Members[0])
	assert.Equal(t, "S02", roster.Members[1].RegNo)

	_, err = f.overview.Roster(ctx, 999)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	unassigned, err := f.overview.Unassigned(ctx, "P1")
	require.NoError(t, err)
	assert.Len(t, unassigned, 38)
	assert.Equal(t, "S03", unassigned[0].RegNo)
}

func TestStudentAssignmentsChronological(t *testing.T) {
	f := newSchedulerFixture(t)
	ctx := context.Background()

	late := f.create(t, "P1", day2, "09:00")
	early := f.create(t, "P2", day1, "14:00")
	morning := f.create(t, "P3", day1, "09:00")
	f.add(t, late.ID, "S01")
	f.add(t, early.ID, "S01")
	f.add(t, morning.ID, "S01")

	timetable, err := f.overview.StudentAssignments(ctx, "S01")
	require.NoError(t, err)
	assert.Equal(t, "Student S01", timetable.StudentName)
	require.Len(t, timetable.Slots, 3)
	assert.Equal(t, "P3", timetable.Slots[0].PracticalCode)
	assert.Equal(t, "P2", timetable.Slots[1].PracticalCode)
	assert.Equal(t, "P1", timetable.Slots[2].PracticalCode)
	assert.Equal(t, "Networks Lab", timetable.Slots[2].SubjectName)

	bulk, err := f.overview.BulkStudentAssignments(ctx, []string{"S05", "S01", "S05"})
	require.NoError(t, err)
	require.Len(t, bulk, 2)
	assert.Equal(t, "S05", bulk[0].RegNo)
	assert.Empty(t, bulk[0].Slots)
	assert.NotNil(t, bulk[0].Slots)

	_, err = f.overview.StudentAssignments(ctx, " ")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestProgressFinalisedFlag(t *testing.T) {
	f := newSchedulerFixture(t)
	ctx := context.Background()

	b := f.create(t, "P2", day1, "")
	f.add(t, b.ID, "S01", "S02")
	f.create(t, "P1", day1, "")

	progress, err := f.overview.Progress(ctx, models.PracticalFilter{})
	require.NoError(t, err)
	byCode := map[string]models.PracticalProgress{}
	for _, p := range progress {
		byCode[p.PracticalCode] = p
	}
	assert.True(t, byCode["P2"].Finalised)
	assert.Equal(t, 2, byCode["P2"].Assigned)
	assert.False(t, byCode["P1"].Finalised)
	assert.Equal(t, 1, byCode["P1"].Batches)
	assert.False(t, byCode["P3"].Finalised)

	listed := f.overview.ListPracticals(models.PracticalFilter{DeptCode: "EE"})
	require.Len(t, listed, 1)
	assert.Equal(t, "P3", listed[0].PracticalCode)
}
