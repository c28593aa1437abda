package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/coursetrack/internal/app/models"
	"github.com/yigit/coursetrack/internal/app/repositories"
	"github.com/yigit/coursetrack/internal/pkg/apperrors"
)

// fakeBlockRepo is an in-memory blockStore.
type fakeBlockRepo struct {
	blocks map[int64]*models.Block
	nextID int64
}

func newFakeBlockRepo(blocks ...*models.Block) *fakeBlockRepo {
	repo := &fakeBlockRepo{blocks: map[int64]*models.Block{}}
	for _, b := range blocks {
		repo.blocks[b.ID] = b
		if b.ID > repo.nextID {
			repo.nextID = b.ID
		}
	}
	return repo
}

func (f *fakeBlockRepo) CreateBlock(ctx context.Context, block *models.Block) (int64, error) {
	f.nextID++
	stored := *block
	stored.ID = f.nextID
	f.blocks[stored.ID] = &stored
	return stored.ID, nil
}

func (f *fakeBlockRepo) GetBlockByID(ctx context.Context, id int64) (*models.Block, error) {
	block, ok := f.blocks[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *block
	return &copied, nil
}

func (f *fakeBlockRepo) ListBlocksByCourse(ctx context.Context, courseID int64, offset uint64, limit int) ([]*models.Block, int64, error) {
	out := []*models.Block{}
	for _, b := range f.blocks {
		if b.CourseID == courseID {
			out = append(out, b)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeBlockRepo) UpdateBlock(ctx context.Context, block *models.Block) error {
	stored, ok := f.blocks[block.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	stored.Title = block.Title
	stored.Content = block.Content
	return nil
}

func (f *fakeBlockRepo) DeleteBlock(ctx context.Context, id int64) error {
	if _, ok := f.blocks[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.blocks, id)
	return nil
}

// fakeCourseRepo is an in-memory courseStore.
type fakeCourseRepo struct {
	courses map[int64]*models.Course
}

func newFakeCourseRepo(ids ...int64) *fakeCourseRepo {
	repo := &fakeCourseRepo{courses: map[int64]*models.Course{}}
	for _, id := range ids {
		repo.courses[id] = &models.Course{ID: id, Code: "C", Title: "Course"}
	}
	return repo
}

func (f *fakeCourseRepo) GetCourseByID(ctx context.Context, id int64) (*models.Course, error) {
	course, ok := f.courses[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return course, nil
}

// stubTracking hands out sequential IDs without a store.
type stubTracking struct {
	next    int64
	ensured []int64
}

func (s *stubTracking) AssignTrackingID(ctx context.Context, block *models.Block) error {
	if block == nil || !block.IsTrackable() || block.HasTrackingID() {
		return nil
	}
	s.next++
	block.SetTrackingID(s.next)
	return nil
}

func (s *stubTracking) ResetCourseTrackingIDs(ctx context.Context, courseID int64) error {
	return nil
}

func (s *stubTracking) EnsureCounterCoversID(ctx context.Context, courseID, trackingID int64) error {
	s.ensured = append(s.ensured, trackingID)
	return nil
}

func newBlockServiceForTest(blockRepo *fakeBlockRepo, courseRepo *fakeCourseRepo) (BlockService, *stubTracking) {
	tracking := &stubTracking{}
	return NewBlockService(blockRepo, courseRepo, tracking), tracking
}

func TestBlockService_GetBlockByID_ScopedToCourse(t *testing.T) {
	block := trackableBlock(5, 1, ptr(3))
	svc, _ := newBlockServiceForTest(newFakeBlockRepo(block), newFakeCourseRepo(1, 2))

	got, err := svc.GetBlockByID(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.ID)

	// The same block ID under another course's path is not found there.
	_, err = svc.GetBlockByID(context.Background(), 2, 5)
	assert.ErrorIs(t, err, apperrors.ErrBlockNotFound)
}

func TestBlockService_DeleteBlock_WrongCourseLeavesBlock(t *testing.T) {
	block := trackableBlock(5, 1, ptr(3))
	repo := newFakeBlockRepo(block)
	svc, _ := newBlockServiceForTest(repo, newFakeCourseRepo(1, 2))

	err := svc.DeleteBlock(context.Background(), 2, 5)
	assert.ErrorIs(t, err, apperrors.ErrBlockNotFound)
	assert.Contains(t, repo.blocks, int64(5), "block must survive a wrong-course delete")

	require.NoError(t, svc.DeleteBlock(context.Background(), 1, 5))
	assert.NotContains(t, repo.blocks, int64(5))
}

func TestBlockService_UpdateBlock_WrongCourseRejected(t *testing.T) {
	block := trackableBlock(5, 1, ptr(3))
	block.Title = "original"
	repo := newFakeBlockRepo(block)
	svc, _ := newBlockServiceForTest(repo, newFakeCourseRepo(1, 2))

	err := svc.UpdateBlock(context.Background(), &models.Block{ID: 5, CourseID: 2, Title: "hijacked"})
	assert.ErrorIs(t, err, apperrors.ErrBlockNotFound)
	assert.Equal(t, "original", repo.blocks[5].Title)

	require.NoError(t, svc.UpdateBlock(context.Background(), &models.Block{ID: 5, CourseID: 1, Title: "edited"}))
	assert.Equal(t, "edited", repo.blocks[5].Title)
}

func TestBlockService_CreateBlock_AssignsBeforePersist(t *testing.T) {
	repo := newFakeBlockRepo()
	svc, _ := newBlockServiceForTest(repo, newFakeCourseRepo(1))

	block := &models.Block{CourseID: 1, BlockType: models.BlockTypeBlock, Title: "week 1"}
	id, err := svc.CreateBlock(context.Background(), block)

	require.NoError(t, err)
	require.NotNil(t, repo.blocks[id].TrackingID)
	assert.Equal(t, int64(1), *repo.blocks[id].TrackingID, "stored block must already carry its ID")
}

func TestBlockService_CreateBlock_UnknownCourse(t *testing.T) {
	svc, _ := newBlockServiceForTest(newFakeBlockRepo(), newFakeCourseRepo(1))

	block := &models.Block{CourseID: 9, BlockType: models.BlockTypeBlock, Title: "week 1"}
	_, err := svc.CreateBlock(context.Background(), block)
	assert.ErrorIs(t, err, apperrors.ErrCourseNotFound)
}

func TestBlockService_CreateBlock_PreassignedLiftsCounter(t *testing.T) {
	repo := newFakeBlockRepo()
	svc, tracking := newBlockServiceForTest(repo, newFakeCourseRepo(1))

	block := &models.Block{CourseID: 1, BlockType: models.BlockTypeBlock, Title: "imported", TrackingID: ptr(40)}
	_, err := svc.CreateBlock(context.Background(), block)

	require.NoError(t, err)
	assert.Equal(t, []int64{40}, tracking.ensured, "counter must be lifted over imported IDs")
}
