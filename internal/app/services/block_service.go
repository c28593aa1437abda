package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yigit/coursetrack/internal/app/models"
	"github.com/yigit/coursetrack/internal/app/repositories"
	"github.com/yigit/coursetrack/internal/pkg/apperrors"
)

// blockStore is the slice of the block repository the block service depends on.
type blockStore interface {
	CreateBlock(ctx context.Context, block *models.Block) (int64, error)
	GetBlockByID(ctx context.Context, id int64) (*models.Block, error)
	ListBlocksByCourse(ctx context.Context, courseID int64, offset uint64, limit int) ([]*models.Block, int64, error)
	UpdateBlock(ctx context.Context, block *models.Block) error
	DeleteBlock(ctx context.Context, id int64) error
}

// courseStore is the slice of the course repository the block service depends on.
type courseStore interface {
	GetCourseByID(ctx context.Context, id int64) (*models.Course, error)
}

// BlockService defines the interface for block-related operations. Blocks are
// always addressed through their owning course; a block ID under the wrong
// course resolves to not-found.
type BlockService interface {
	// CreateBlock persists a new block, assigning a tracking ID first when
	// the block is of the trackable kind and carries none.
	CreateBlock(ctx context.Context, block *models.Block) (int64, error)
	GetBlockByID(ctx context.Context, courseID, blockID int64) (*models.Block, error)
	ListBlocksByCourse(ctx context.Context, courseID int64, offset uint64, limit int) ([]*models.Block, int64, error)
	UpdateBlock(ctx context.Context, block *models.Block) error
	DeleteBlock(ctx context.Context, courseID, blockID int64) error
}

// blockServiceImpl implements the BlockService interface
type blockServiceImpl struct {
	blockRepo  blockStore
	courseRepo courseStore
	tracking   TrackingService
}

// NewBlockService creates a new block service instance
func NewBlockService(blockRepo blockStore, courseRepo courseStore, tracking TrackingService) BlockService {
	return &blockServiceImpl{
		blockRepo:  blockRepo,
		courseRepo: courseRepo,
		tracking:   tracking,
	}
}

// validateBlock validates block data before database operations
func (s *blockServiceImpl) validateBlock(block *models.Block) error {
	if block == nil {
		return fmt.Errorf("%w: block is nil", apperrors.ErrValidationFailed)
	}

	if block.CourseID <= 0 {
		return fmt.Errorf("%w: invalid course ID", apperrors.ErrValidationFailed)
	}

	if strings.TrimSpace(block.Title) == "" {
		return fmt.Errorf("%w: title cannot be empty", apperrors.ErrValidationFailed)
	}

	switch block.BlockType {
	case models.BlockTypeBlock, models.BlockTypeSection, models.BlockTypeAsset:
	default:
		return fmt.Errorf("%w: unknown block type %q", apperrors.ErrValidationFailed, block.BlockType)
	}

	return nil
}

// getScopedBlock fetches a block and verifies it belongs to the given course.
// A block reached through the wrong course is reported as not found, never as
// someone else's resource.
func (s *blockServiceImpl) getScopedBlock(ctx context.Context, courseID, blockID int64) (*models.Block, error) {
	if courseID <= 0 {
		return nil, fmt.Errorf("%w: invalid course ID", apperrors.ErrValidationFailed)
	}
	if blockID <= 0 {
		return nil, fmt.Errorf("%w: invalid block ID", apperrors.ErrValidationFailed)
	}

	block, err := s.blockRepo.GetBlockByID(ctx, blockID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.ErrBlockNotFound
		}
		return nil, fmt.Errorf("error retrieving block: %w", err)
	}

	if block.CourseID != courseID {
		return nil, apperrors.ErrBlockNotFound
	}

	return block, nil
}

// CreateBlock creates a new block. AssignTrackingID runs as a
// pre-persistence hook: the block must carry its ID before it is durably
// stored. A failed allocation therefore fails the whole creation.
func (s *blockServiceImpl) CreateBlock(ctx context.Context, block *models.Block) (int64, error) {
	if err := s.validateBlock(block); err != nil {
		return 0, err
	}

	if _, err := s.courseRepo.GetCourseByID(ctx, block.CourseID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return 0, apperrors.ErrCourseNotFound
		}
		return 0, fmt.Errorf("error retrieving course: %w", err)
	}

	preassigned := block.IsTrackable() && block.HasTrackingID()

	if err := s.tracking.AssignTrackingID(ctx, block); err != nil {
		return 0, fmt.Errorf("error assigning tracking ID: %w", err)
	}

	id, err := s.blockRepo.CreateBlock(ctx, block)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateTrackingID) {
			return 0, apperrors.ErrDuplicateTrackingID
		}
		return 0, fmt.Errorf("error creating block: %w", err)
	}
	block.ID = id

	// A client-supplied ID bypasses the counter; lift the counter over it
	// so later allocations cannot collide.
	if preassigned {
		if err := s.tracking.EnsureCounterCoversID(ctx, block.CourseID, *block.TrackingID); err != nil {
			return 0, fmt.Errorf("error adjusting tracking counter: %w", err)
		}
	}

	return id, nil
}

// GetBlockByID retrieves a block by ID within its course
func (s *blockServiceImpl) GetBlockByID(ctx context.Context, courseID, blockID int64) (*models.Block, error) {
	return s.getScopedBlock(ctx, courseID, blockID)
}

// ListBlocksByCourse retrieves a page of a course's blocks in tracking order
func (s *blockServiceImpl) ListBlocksByCourse(ctx context.Context, courseID int64, offset uint64, limit int) ([]*models.Block, int64, error) {
	if courseID <= 0 {
		return nil, 0, fmt.Errorf("%w: invalid course ID", apperrors.ErrValidationFailed)
	}

	if _, err := s.courseRepo.GetCourseByID(ctx, courseID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, 0, apperrors.ErrCourseNotFound
		}
		return nil, 0, fmt.Errorf("error retrieving course: %w", err)
	}

	blocks, total, err := s.blockRepo.ListBlocksByCourse(ctx, courseID, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing blocks: %w", err)
	}
	return blocks, total, nil
}

// UpdateBlock updates an existing block's content fields; tracking IDs are
// immutable outside renumbering. The block's CourseID scopes the lookup.
func (s *blockServiceImpl) UpdateBlock(ctx context.Context, block *models.Block) error {
	if block == nil {
		return fmt.Errorf("%w: block is nil", apperrors.ErrValidationFailed)
	}

	if strings.TrimSpace(block.Title) == "" {
		return fmt.Errorf("%w: title cannot be empty", apperrors.ErrValidationFailed)
	}

	if _, err := s.getScopedBlock(ctx, block.CourseID, block.ID); err != nil {
		return err
	}

	err := s.blockRepo.UpdateBlock(ctx, block)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.ErrBlockNotFound
		}
		return fmt.Errorf("error updating block: %w", err)
	}
	return nil
}

// DeleteBlock deletes a block by ID within its course
func (s *blockServiceImpl) DeleteBlock(ctx context.Context, courseID, blockID int64) error {
	if _, err := s.getScopedBlock(ctx, courseID, blockID); err != nil {
		return err
	}

	err := s.blockRepo.DeleteBlock(ctx, blockID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.ErrBlockNotFound
		}
		return fmt.Errorf("error deleting block: %w", err)
	}
	return nil
}
