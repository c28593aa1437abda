package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/coursetrack/internal/app/models"
	"github.com/yigit/coursetrack/internal/pkg/apperrors"
)

// fakeBlockStore is an in-memory blockTrackingStore with injectable failures.
type fakeBlockStore struct {
	mu     sync.Mutex
	blocks []*models.Block

	listErr       error
	clearErr      error
	failUpdateFor map[int64]error

	clearCalls  int
	updateCalls int
}

func (f *fakeBlockStore) trackable(courseID int64) []*models.Block {
	out := []*models.Block{}
	for _, b := range f.blocks {
		if b.CourseID == courseID && b.IsTrackable() {
			out = append(out, b)
		}
	}
	return out
}

func (f *fakeBlockStore) MaxTrackingID(ctx context.Context, courseID int64) (int64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var max int64
	found := false
	for _, b := range f.trackable(courseID) {
		if b.HasTrackingID() && (!found || *b.TrackingID > max) {
			max = *b.TrackingID
			found = true
		}
	}
	return max, found, nil
}

func (f *fakeBlockStore) ListTrackableBlocks(ctx context.Context, courseID int64) ([]*models.Block, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.listErr != nil {
		return nil, f.listErr
	}

	out := f.trackable(courseID)
	// Same ordering the SQL layer produces: assigned IDs ascending first,
	// then unassigned blocks by creation time, then by row ID.
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.HasTrackingID() && b.HasTrackingID():
			return *a.TrackingID < *b.TrackingID
		case a.HasTrackingID():
			return false // NULLS FIRST puts unassigned ahead
		case b.HasTrackingID():
			return true
		case !a.CreatedAt.Equal(b.CreatedAt):
			return a.CreatedAt.Before(b.CreatedAt)
		default:
			return a.ID < b.ID
		}
	})
	return out, nil
}

func (f *fakeBlockStore) ClearTrackingIDs(ctx context.Context, courseID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.clearCalls++
	if f.clearErr != nil {
		return 0, f.clearErr
	}

	var n int64
	for _, b := range f.trackable(courseID) {
		b.SetTrackingID(models.SentinelTrackingID)
		n++
	}
	return n, nil
}

func (f *fakeBlockStore) UpdateTrackingID(ctx context.Context, blockID, trackingID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.updateCalls++
	if err, ok := f.failUpdateFor[blockID]; ok {
		return err
	}
	for _, b := range f.blocks {
		if b.ID == blockID {
			b.SetTrackingID(trackingID)
			return nil
		}
	}
	return errors.New("block not found")
}

// fakeCounterStore mimics the GREATEST-based counter semantics of the course
// repository.
type fakeCounterStore struct {
	mu       sync.Mutex
	counters map[int64]int64

	incrementErr error
	ensureCalls  []int64
}

func newFakeCounterStore() *fakeCounterStore {
	return &fakeCounterStore{counters: map[int64]int64{}}
}

func (f *fakeCounterStore) IncrementTrackingCounter(ctx context.Context, courseID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.incrementErr != nil {
		return 0, f.incrementErr
	}
	f.counters[courseID]++
	return f.counters[courseID], nil
}

func (f *fakeCounterStore) EnsureTrackingCounterAtLeast(ctx context.Context, courseID, value int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.ensureCalls = append(f.ensureCalls, value)
	if value > f.counters[courseID] {
		f.counters[courseID] = value
	}
	return nil
}

func (f *fakeCounterStore) counter(courseID int64) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counters[courseID]
}

// fakeLocker records which courses were locked.
type fakeLocker struct {
	mu     sync.Mutex
	locked []int64
}

func (f *fakeLocker) WithCourseLock(ctx context.Context, courseID int64, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	f.locked = append(f.locked, courseID)
	f.mu.Unlock()
	return fn(ctx)
}

func ptr(v int64) *int64 { return &v }

func newTestService(blocks *fakeBlockStore, counters *fakeCounterStore, strategy Strategy) (TrackingService, *fakeLocker) {
	locker := &fakeLocker{}
	svc := NewTrackingService(blocks, counters, locker, strategy, 4, zerolog.Nop())
	return svc, locker
}

func trackableBlock(id, courseID int64, trackingID *int64) *models.Block {
	return &models.Block{
		ID:         id,
		CourseID:   courseID,
		BlockType:  models.BlockTypeBlock,
		Title:      "block",
		TrackingID: trackingID,
		CreatedAt:  time.Unix(id, 0),
	}
}

func TestAssignTrackingID_NilBlock(t *testing.T) {
	svc, _ := newTestService(&fakeBlockStore{}, newFakeCounterStore(), StrategyCounter)

	err := svc.AssignTrackingID(context.Background(), nil)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestAssignTrackingID_NonTrackableIsNoOp(t *testing.T) {
	counters := newFakeCounterStore()
	svc, _ := newTestService(&fakeBlockStore{}, counters, StrategyCounter)

	block := &models.Block{CourseID: 1, BlockType: models.BlockTypeSection, Title: "intro"}
	err := svc.AssignTrackingID(context.Background(), block)

	require.NoError(t, err)
	assert.Nil(t, block.TrackingID)
	assert.Zero(t, counters.counter(1), "counter must not move for non-trackable blocks")
}

func TestAssignTrackingID_AlreadyAssignedIsIdempotent(t *testing.T) {
	tests := []struct {
		name       string
		trackingID int64
	}{
		{name: "positive ID", trackingID: 42},
		{name: "zero is a valid assigned ID", trackingID: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counters := newFakeCounterStore()
			svc, _ := newTestService(&fakeBlockStore{}, counters, StrategyCounter)

			block := trackableBlock(1, 1, ptr(tt.trackingID))
			err := svc.AssignTrackingID(context.Background(), block)

			require.NoError(t, err)
			assert.Equal(t, tt.trackingID, *block.TrackingID)
			assert.Zero(t, counters.counter(1), "no store I/O for already-assigned blocks")
		})
	}
}

func TestAssignTrackingID_CounterStrategySequential(t *testing.T) {
	counters := newFakeCounterStore()
	svc, _ := newTestService(&fakeBlockStore{}, counters, StrategyCounter)

	for want := int64(1); want <= 3; want++ {
		block := trackableBlock(want, 1, nil)
		require.NoError(t, svc.AssignTrackingID(context.Background(), block))
		assert.Equal(t, want, *block.TrackingID)
	}
	assert.Equal(t, int64(3), counters.counter(1))
}

func TestAssignTrackingID_CounterStrategyContinuesFromCursor(t *testing.T) {
	counters := newFakeCounterStore()
	counters.counters[7] = 10
	svc, _ := newTestService(&fakeBlockStore{}, counters, StrategyCounter)

	block := trackableBlock(1, 7, nil)
	require.NoError(t, svc.AssignTrackingID(context.Background(), block))
	assert.Equal(t, int64(11), *block.TrackingID)
}

func TestAssignTrackingID_CounterStrategyPropagatesStoreError(t *testing.T) {
	counters := newFakeCounterStore()
	counters.incrementErr = errors.New("connection reset")
	svc, _ := newTestService(&fakeBlockStore{}, counters, StrategyCounter)

	block := trackableBlock(1, 1, nil)
	err := svc.AssignTrackingID(context.Background(), block)

	require.Error(t, err)
	assert.Nil(t, block.TrackingID, "failed allocation must leave the block unassigned")
}

func TestAssignTrackingID_ScanStrategy(t *testing.T) {
	tests := []struct {
		name     string
		existing []*models.Block
		want     int64
	}{
		{
			name:     "empty course starts at 1",
			existing: nil,
			want:     1,
		},
		{
			name: "max plus one",
			existing: []*models.Block{
				trackableBlock(1, 1, ptr(3)),
				trackableBlock(2, 1, ptr(10)),
			},
			want: 11,
		},
		{
			name: "zero counts as an existing ID",
			existing: []*models.Block{
				trackableBlock(1, 1, ptr(0)),
			},
			want: 1,
		},
		{
			name: "unassigned blocks are ignored",
			existing: []*models.Block{
				trackableBlock(1, 1, nil),
				trackableBlock(2, 1, ptr(models.SentinelTrackingID)),
			},
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocks := &fakeBlockStore{blocks: tt.existing}
			svc, _ := newTestService(blocks, newFakeCounterStore(), StrategyScan)

			block := trackableBlock(99, 1, nil)
			require.NoError(t, svc.AssignTrackingID(context.Background(), block))
			assert.Equal(t, tt.want, *block.TrackingID)
		})
	}
}

func TestResetCourseTrackingIDs_InvalidCourseID(t *testing.T) {
	svc, _ := newTestService(&fakeBlockStore{}, newFakeCounterStore(), StrategyCounter)

	err := svc.ResetCourseTrackingIDs(context.Background(), 0)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestResetCourseTrackingIDs_CompactsGaps(t *testing.T) {
	blocks := &fakeBlockStore{blocks: []*models.Block{
		trackableBlock(10, 1, ptr(5)),
		trackableBlock(11, 1, ptr(12)),
		trackableBlock(12, 1, ptr(20)),
	}}
	counters := newFakeCounterStore()
	counters.counters[1] = 20
	svc, locker := newTestService(blocks, counters, StrategyCounter)

	require.NoError(t, svc.ResetCourseTrackingIDs(context.Background(), 1))

	// Relative order by old tracking ID survives; values become dense.
	assert.Equal(t, int64(1), *blocks.blocks[0].TrackingID)
	assert.Equal(t, int64(2), *blocks.blocks[1].TrackingID)
	assert.Equal(t, int64(3), *blocks.blocks[2].TrackingID)
	assert.Equal(t, []int64{1}, locker.locked)

	// The counter is lifted, never rewound below a previous peak.
	assert.Equal(t, []int64{3}, counters.ensureCalls)
	assert.Equal(t, int64(20), counters.counter(1))
}

func TestResetCourseTrackingIDs_OrdersUnassignedFirst(t *testing.T) {
	// Blocks 1 and 4 are unassigned; 2 and 3 carry IDs 9 and 4.
	blocks := &fakeBlockStore{blocks: []*models.Block{
		trackableBlock(1, 1, nil),
		trackableBlock(2, 1, ptr(9)),
		trackableBlock(3, 1, ptr(4)),
		trackableBlock(4, 1, nil),
	}}
	svc, _ := newTestService(blocks, newFakeCounterStore(), StrategyCounter)

	require.NoError(t, svc.ResetCourseTrackingIDs(context.Background(), 1))

	byID := map[int64]int64{}
	for _, b := range blocks.blocks {
		byID[b.ID] = *b.TrackingID
	}
	// Unassigned come first (NULLS FIRST) in creation order, then assigned
	// ascending by old tracking ID.
	assert.Equal(t, int64(1), byID[1])
	assert.Equal(t, int64(2), byID[4])
	assert.Equal(t, int64(3), byID[3])
	assert.Equal(t, int64(4), byID[2])
}

func TestResetCourseTrackingIDs_SingleBlock(t *testing.T) {
	blocks := &fakeBlockStore{blocks: []*models.Block{
		trackableBlock(1, 1, ptr(37)),
	}}
	svc, _ := newTestService(blocks, newFakeCounterStore(), StrategyCounter)

	require.NoError(t, svc.ResetCourseTrackingIDs(context.Background(), 1))
	assert.Equal(t, int64(1), *blocks.blocks[0].TrackingID)
}

func TestResetCourseTrackingIDs_EmptyCourseWritesNothing(t *testing.T) {
	blocks := &fakeBlockStore{blocks: []*models.Block{
		// Non-trackable content only.
		{ID: 1, CourseID: 1, BlockType: models.BlockTypeSection, Title: "intro"},
	}}
	counters := newFakeCounterStore()
	svc, _ := newTestService(blocks, counters, StrategyCounter)

	require.NoError(t, svc.ResetCourseTrackingIDs(context.Background(), 1))
	assert.Zero(t, blocks.clearCalls)
	assert.Zero(t, blocks.updateCalls)
	assert.Empty(t, counters.ensureCalls)
}

func TestResetCourseTrackingIDs_ListFailureWritesNothing(t *testing.T) {
	blocks := &fakeBlockStore{
		blocks:  []*models.Block{trackableBlock(1, 1, ptr(5))},
		listErr: errors.New("connection reset"),
	}
	svc, _ := newTestService(blocks, newFakeCounterStore(), StrategyCounter)

	err := svc.ResetCourseTrackingIDs(context.Background(), 1)

	require.Error(t, err)
	assert.Zero(t, blocks.clearCalls)
	assert.Zero(t, blocks.updateCalls)
	assert.Equal(t, int64(5), *blocks.blocks[0].TrackingID, "existing IDs untouched")
}

func TestResetCourseTrackingIDs_PartialFailureSurfaces(t *testing.T) {
	blocks := &fakeBlockStore{
		blocks: []*models.Block{
			trackableBlock(1, 1, ptr(1)),
			trackableBlock(2, 1, ptr(2)),
			trackableBlock(3, 1, ptr(3)),
		},
		failUpdateFor: map[int64]error{2: errors.New("connection reset")},
	}
	svc, _ := newTestService(blocks, newFakeCounterStore(), StrategyCounter)

	err := svc.ResetCourseTrackingIDs(context.Background(), 1)

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrPartialRenumber)

	// The failed block stays parked on the sentinel; a re-run reconverges.
	assert.Equal(t, models.SentinelTrackingID, *blocks.blocks[1].TrackingID)

	blocks.failUpdateFor = nil
	require.NoError(t, svc.ResetCourseTrackingIDs(context.Background(), 1))

	// The re-run orders by whatever state the failure left behind: the
	// parked block sorts first (unassigned before assigned), the others
	// follow by their surviving IDs. Density is restored either way.
	assert.Equal(t, int64(1), *blocks.blocks[1].TrackingID)
	assert.Equal(t, int64(2), *blocks.blocks[0].TrackingID)
	assert.Equal(t, int64(3), *blocks.blocks[2].TrackingID)

	seen := map[int64]bool{}
	for _, b := range blocks.blocks {
		seen[*b.TrackingID] = true
	}
	assert.Equal(t, map[int64]bool{1: true, 2: true, 3: true}, seen)
}

func TestResetCourseTrackingIDs_ResultIsIdempotent(t *testing.T) {
	blocks := &fakeBlockStore{blocks: []*models.Block{
		trackableBlock(1, 1, ptr(2)),
		trackableBlock(2, 1, ptr(8)),
	}}
	svc, _ := newTestService(blocks, newFakeCounterStore(), StrategyCounter)

	require.NoError(t, svc.ResetCourseTrackingIDs(context.Background(), 1))
	require.NoError(t, svc.ResetCourseTrackingIDs(context.Background(), 1))

	assert.Equal(t, int64(1), *blocks.blocks[0].TrackingID)
	assert.Equal(t, int64(2), *blocks.blocks[1].TrackingID)
}

func TestResetCourseTrackingIDs_ScopedToCourse(t *testing.T) {
	other := trackableBlock(99, 2, ptr(77))
	blocks := &fakeBlockStore{blocks: []*models.Block{
		trackableBlock(1, 1, ptr(5)),
		other,
	}}
	svc, _ := newTestService(blocks, newFakeCounterStore(), StrategyCounter)

	require.NoError(t, svc.ResetCourseTrackingIDs(context.Background(), 1))
	assert.Equal(t, int64(77), *other.TrackingID, "other courses must be untouched")
}

func TestEnsureCounterCoversID_NeverRewinds(t *testing.T) {
	counters := newFakeCounterStore()
	counters.counters[1] = 50
	svc, _ := newTestService(&fakeBlockStore{}, counters, StrategyCounter)

	require.NoError(t, svc.EnsureCounterCoversID(context.Background(), 1, 10))
	assert.Equal(t, int64(50), counters.counter(1))

	require.NoError(t, svc.EnsureCounterCoversID(context.Background(), 1, 60))
	assert.Equal(t, int64(60), counters.counter(1))
}
