package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/yigit/coursetrack/internal/app/models"
	"github.com/yigit/coursetrack/internal/pkg/apperrors"
	"golang.org/x/sync/errgroup"
)

// Strategy selects how fresh tracking IDs are derived.
type Strategy string

const (
	// StrategyCounter allocates from the course's atomic counter. The store
	// serializes the increment per course row, so it is safe under any
	// number of concurrent writers. This is the default.
	StrategyCounter Strategy = "counter"
	// StrategyScan derives max+1 from the existing blocks. The read-then-
	// write gap makes it racy: two concurrent allocations for the same
	// course can observe the same maximum. Only use it when something else
	// already serializes block creation per course.
	StrategyScan Strategy = "scan"
)

// blockTrackingStore is the slice of the block repository the tracking core
// depends on.
type blockTrackingStore interface {
	MaxTrackingID(ctx context.Context, courseID int64) (int64, bool, error)
	ListTrackableBlocks(ctx context.Context, courseID int64) ([]*models.Block, error)
	ClearTrackingIDs(ctx context.Context, courseID int64) (int64, error)
	UpdateTrackingID(ctx context.Context, blockID, trackingID int64) error
}

// courseCounterStore is the slice of the course repository the tracking core
// depends on.
type courseCounterStore interface {
	IncrementTrackingCounter(ctx context.Context, courseID int64) (int64, error)
	EnsureTrackingCounterAtLeast(ctx context.Context, courseID, value int64) error
}

// courseLocker serializes renumbering runs per course.
type courseLocker interface {
	WithCourseLock(ctx context.Context, courseID int64, fn func(ctx context.Context) error) error
}

// TrackingService owns tracking ID allocation and renumbering. Every
// decision is made from freshly read store state or a store-side atomic
// primitive; nothing is cached between calls.
type TrackingService interface {
	// AssignTrackingID ensures the given in-flight block carries a valid
	// tracking ID before it is persisted. It is a no-op for non-trackable
	// blocks and for blocks that already carry a valid ID.
	AssignTrackingID(ctx context.Context, block *models.Block) error
	// ResetCourseTrackingIDs reassigns a dense 1..N sequence to every
	// trackable block of the course, preserving their relative order.
	ResetCourseTrackingIDs(ctx context.Context, courseID int64) error
	// EnsureCounterCoversID lifts the course counter to at least the given
	// tracking ID, for blocks that arrive with a pre-assigned ID.
	EnsureCounterCoversID(ctx context.Context, courseID, trackingID int64) error
}

// trackingServiceImpl implements the TrackingService interface
type trackingServiceImpl struct {
	blocks           blockTrackingStore
	courses          courseCounterStore
	locks            courseLocker
	strategy         Strategy
	resetConcurrency int
	logger           zerolog.Logger
}

// NewTrackingService creates a new tracking service instance.
// resetConcurrency bounds the per-block update fan-out during renumbering;
// values below 1 are treated as 1.
func NewTrackingService(
	blocks blockTrackingStore,
	courses courseCounterStore,
	locks courseLocker,
	strategy Strategy,
	resetConcurrency int,
	logger zerolog.Logger,
) TrackingService {
	if resetConcurrency < 1 {
		resetConcurrency = 1
	}
	return &trackingServiceImpl{
		blocks:           blocks,
		courses:          courses,
		locks:            locks,
		strategy:         strategy,
		resetConcurrency: resetConcurrency,
		logger:           logger,
	}
}

// AssignTrackingID assigns the next tracking ID to a fresh trackable block.
// Blocks that already carry a valid non-negative ID (zero included) are left
// untouched with no store I/O, so the call is idempotent.
func (s *trackingServiceImpl) AssignTrackingID(ctx context.Context, block *models.Block) error {
	if block == nil {
		return fmt.Errorf("%w: block is nil", apperrors.ErrValidationFailed)
	}

	if !block.IsTrackable() || block.HasTrackingID() {
		return nil
	}

	next, err := s.nextTrackingID(ctx, block.CourseID)
	if err != nil {
		// Store errors propagate unresolved; the caller owns retries.
		return err
	}

	block.SetTrackingID(next)
	return nil
}

func (s *trackingServiceImpl) nextTrackingID(ctx context.Context, courseID int64) (int64, error) {
	switch s.strategy {
	case StrategyScan:
		max, ok, err := s.blocks.MaxTrackingID(ctx, courseID)
		if err != nil {
			return 0, fmt.Errorf("error finding max tracking ID for course %d: %w", courseID, err)
		}
		if !ok {
			return 1, nil
		}
		return max + 1, nil
	default:
		next, err := s.courses.IncrementTrackingCounter(ctx, courseID)
		if err != nil {
			return 0, fmt.Errorf("error incrementing tracking counter for course %d: %w", courseID, err)
		}
		return next, nil
	}
}

// ResetCourseTrackingIDs renumbers a course in two phases under a per-course
// lock: first every trackable block is parked on the sentinel so no reader
// can observe a stale ID colliding with the new range, then the dense 1..N
// sequence is written out in the order captured before any write.
func (s *trackingServiceImpl) ResetCourseTrackingIDs(ctx context.Context, courseID int64) error {
	if courseID <= 0 {
		return fmt.Errorf("%w: invalid course ID", apperrors.ErrValidationFailed)
	}

	return s.locks.WithCourseLock(ctx, courseID, func(ctx context.Context) error {
		// The ordering is captured here, before any write. If this listing
		// fails, the whole operation fails with no updates attempted.
		blocks, err := s.blocks.ListTrackableBlocks(ctx, courseID)
		if err != nil {
			return fmt.Errorf("error listing blocks for course %d: %w", courseID, err)
		}

		if len(blocks) == 0 {
			s.logger.Debug().Int64("courseID", courseID).Msg("No trackable blocks, nothing to renumber")
			return nil
		}

		if _, err := s.blocks.ClearTrackingIDs(ctx, courseID); err != nil {
			return fmt.Errorf("error clearing tracking IDs for course %d: %w", courseID, err)
		}

		// Each update targets a distinct block with a pre-computed,
		// collision-free value, so they can be issued concurrently.
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.resetConcurrency)
		for i, block := range blocks {
			blockID := block.ID
			trackingID := int64(i + 1)
			g.Go(func() error {
				return s.blocks.UpdateTrackingID(gctx, blockID, trackingID)
			})
		}

		if err := g.Wait(); err != nil {
			// Some blocks may already carry new IDs, the rest sit on the
			// sentinel. Re-running the reset reconverges.
			s.logger.Error().Err(err).Int64("courseID", courseID).Msg("Course renumbering failed partway")
			return fmt.Errorf("%w: course %d: %w", apperrors.ErrPartialRenumber, courseID, err)
		}

		// The counter is never rewound, but IDs can enter a course without
		// going through it (imports, the scan strategy). Catch it up so it
		// stays >= the highest ID in use.
		if err := s.courses.EnsureTrackingCounterAtLeast(ctx, courseID, int64(len(blocks))); err != nil {
			return fmt.Errorf("error adjusting tracking counter for course %d: %w", courseID, err)
		}

		s.logger.Info().
			Int64("courseID", courseID).
			Int("blockCount", len(blocks)).
			Msg("Course tracking IDs renumbered")
		return nil
	})
}

// EnsureCounterCoversID lifts the course counter to at least the given ID.
// Used when a block arrives with a pre-assigned tracking ID so later counter
// allocations cannot collide with it.
func (s *trackingServiceImpl) EnsureCounterCoversID(ctx context.Context, courseID, trackingID int64) error {
	return s.courses.EnsureTrackingCounterAtLeast(ctx, courseID, trackingID)
}
