package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/coursetrack/internal/app/models"
	"github.com/yigit/coursetrack/internal/pkg/dberrors"
	"github.com/yigit/coursetrack/internal/pkg/helpers"
	"github.com/yigit/coursetrack/internal/pkg/logger"
)

// Block error types
var (
	// ErrBlockNotFound is returned when a block is not found.
	ErrBlockNotFound = ErrNotFound // Use shared ErrNotFound
	// ErrDuplicateTrackingID is returned when a write collides with the
	// per-course tracking ID uniqueness constraint.
	ErrDuplicateTrackingID = errors.New("duplicate tracking ID within course")
)

const blockColumns = "id, course_id, block_type, title, content, tracking_id, created_at, updated_at"

// BlockRepository handles block database operations
type BlockRepository struct {
	db *pgxpool.Pool
	// Use squirrel instance with placeholder format
	sb squirrel.StatementBuilderType
}

// NewBlockRepository creates a new BlockRepository
func NewBlockRepository(db *pgxpool.Pool) *BlockRepository {
	return &BlockRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanBlock(row pgx.Row) (*models.Block, error) {
	block := &models.Block{}
	err := row.Scan(
		&block.ID, &block.CourseID, &block.BlockType, &block.Title,
		&block.Content, &block.TrackingID, &block.CreatedAt, &block.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return block, nil
}

// CreateBlock creates a new block. The block's tracking ID, when set, is
// persisted as-is; allocation happens before this call.
func (r *BlockRepository) CreateBlock(ctx context.Context, block *models.Block) (int64, error) {
	sql, args, err := r.sb.Insert("blocks").
		Columns("course_id", "block_type", "title", "content", "tracking_id").
		Values(
			block.CourseID,
			block.BlockType,
			block.Title,
			helpers.GetNullString(block.Content),
			helpers.GetNullInt64(block.TrackingID),
		).
		Suffix("RETURNING id").
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building create block SQL")
		return 0, fmt.Errorf("failed to build create block query: %w", err)
	}

	var id int64
	err = r.db.QueryRow(ctx, sql, args...).Scan(&id)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "idx_blocks_course_tracking_id") {
			return 0, ErrDuplicateTrackingID
		}
		logger.Error().Err(err).Int64("courseID", block.CourseID).Msg("Error executing create block query")
		return 0, fmt.Errorf("error creating block: %w", err)
	}

	return id, nil
}

// GetBlockByID retrieves a block by ID
func (r *BlockRepository) GetBlockByID(ctx context.Context, id int64) (*models.Block, error) {
	sql, args, err := r.sb.Select(blockColumns).
		From("blocks").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building get block by ID SQL")
		return nil, fmt.Errorf("failed to build get block query: %w", err)
	}

	block, err := scanBlock(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBlockNotFound
		}
		logger.Error().Err(err).Int64("blockID", id).Msg("Error scanning block row")
		return nil, fmt.Errorf("error getting block by ID: %w", err)
	}

	return block, nil
}

// ListBlocksByCourse retrieves a page of a course's blocks in tracking order,
// along with the total count.
func (r *BlockRepository) ListBlocksByCourse(ctx context.Context, courseID int64, offset uint64, limit int) ([]*models.Block, int64, error) {
	countSQL, countArgs, err := r.sb.Select("COUNT(*)").
		From("blocks").
		Where(squirrel.Eq{"course_id": courseID}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building count blocks SQL")
		return nil, 0, fmt.Errorf("failed to build count blocks query: %w", err)
	}

	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		logger.Error().Err(err).Int64("courseID", courseID).Msg("Error counting blocks")
		return nil, 0, fmt.Errorf("error counting blocks: %w", err)
	}

	sql, args, err := r.sb.Select(blockColumns).
		From("blocks").
		Where(squirrel.Eq{"course_id": courseID}).
		OrderBy("tracking_id ASC NULLS FIRST", "created_at ASC", "id ASC").
		Offset(offset).
		Limit(uint64(limit)).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building list blocks SQL")
		return nil, 0, fmt.Errorf("failed to build list blocks query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("courseID", courseID).Msg("Error executing list blocks query")
		return nil, 0, fmt.Errorf("error querying blocks: %w", err)
	}
	defer rows.Close()

	blocks := []*models.Block{}
	for rows.Next() {
		block, err := scanBlock(rows)
		if err != nil {
			logger.Error().Err(err).Msg("Error scanning block row during list")
			return nil, 0, fmt.Errorf("error scanning block row: %w", err)
		}
		blocks = append(blocks, block)
	}

	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Msg("Error iterating block rows")
		return nil, 0, fmt.Errorf("error iterating block rows: %w", err)
	}

	return blocks, total, nil
}

// UpdateBlock updates a block's content fields. Tracking IDs are written
// only through UpdateTrackingID.
func (r *BlockRepository) UpdateBlock(ctx context.Context, block *models.Block) error {
	sql, args, err := r.sb.Update("blocks").
		SetMap(map[string]interface{}{
			"title":      block.Title,
			"content":    helpers.GetNullString(block.Content),
			"updated_at": squirrel.Expr("CURRENT_TIMESTAMP"),
		}).
		Where(squirrel.Eq{"id": block.ID}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building update block SQL")
		return fmt.Errorf("failed to build update block query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("blockID", block.ID).Msg("Error executing update block query")
		return fmt.Errorf("error updating block: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrBlockNotFound
	}

	return nil
}

// DeleteBlock deletes a block by ID
func (r *BlockRepository) DeleteBlock(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("blocks").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building delete block SQL")
		return fmt.Errorf("failed to build delete block query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("blockID", id).Msg("Error executing delete block query")
		return fmt.Errorf("error deleting block: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrBlockNotFound
	}

	return nil
}

// MaxTrackingID returns the highest assigned tracking ID among a course's
// trackable blocks (descending sort, limit 1). The second return value is
// false when the course has no block with an assigned ID. The sentinel and
// NULL are excluded: they mean "unassigned", not "lowest".
func (r *BlockRepository) MaxTrackingID(ctx context.Context, courseID int64) (int64, bool, error) {
	sql, args, err := r.sb.Select("tracking_id").
		From("blocks").
		Where(squirrel.Eq{"course_id": courseID, "block_type": models.BlockTypeBlock}).
		Where(squirrel.GtOrEq{"tracking_id": 0}).
		OrderBy("tracking_id DESC").
		Limit(1).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building max tracking ID SQL")
		return 0, false, fmt.Errorf("failed to build max tracking ID query: %w", err)
	}

	var max int64
	err = r.db.QueryRow(ctx, sql, args...).Scan(&max)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		logger.Error().Err(err).Int64("courseID", courseID).Msg("Error querying max tracking ID")
		return 0, false, fmt.Errorf("error querying max tracking ID: %w", err)
	}

	return max, true, nil
}

// ListTrackableBlocks returns every trackable block of a course ordered by
// current tracking ID ascending. Blocks without an assigned ID sort first;
// creation time and block ID break ties so the order is total and
// deterministic.
func (r *BlockRepository) ListTrackableBlocks(ctx context.Context, courseID int64) ([]*models.Block, error) {
	sql, args, err := r.sb.Select(blockColumns).
		From("blocks").
		Where(squirrel.Eq{"course_id": courseID, "block_type": models.BlockTypeBlock}).
		OrderBy("tracking_id ASC NULLS FIRST", "created_at ASC", "id ASC").
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building list trackable blocks SQL")
		return nil, fmt.Errorf("failed to build list trackable blocks query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("courseID", courseID).Msg("Error executing list trackable blocks query")
		return nil, fmt.Errorf("error querying trackable blocks: %w", err)
	}
	defer rows.Close()

	blocks := []*models.Block{}
	for rows.Next() {
		block, err := scanBlock(rows)
		if err != nil {
			logger.Error().Err(err).Msg("Error scanning trackable block row")
			return nil, fmt.Errorf("error scanning trackable block row: %w", err)
		}
		blocks = append(blocks, block)
	}

	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Msg("Error iterating trackable block rows")
		return nil, fmt.Errorf("error iterating trackable block rows: %w", err)
	}

	return blocks, nil
}

// ClearTrackingIDs parks every trackable block of a course on the sentinel
// value in a single statement. Returns the number of blocks cleared.
func (r *BlockRepository) ClearTrackingIDs(ctx context.Context, courseID int64) (int64, error) {
	sql, args, err := r.sb.Update("blocks").
		Set("tracking_id", models.SentinelTrackingID).
		Set("updated_at", squirrel.Expr("CURRENT_TIMESTAMP")).
		Where(squirrel.Eq{"course_id": courseID, "block_type": models.BlockTypeBlock}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building clear tracking IDs SQL")
		return 0, fmt.Errorf("failed to build clear tracking IDs query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("courseID", courseID).Msg("Error executing clear tracking IDs query")
		return 0, fmt.Errorf("error clearing tracking IDs: %w", err)
	}

	return cmdTag.RowsAffected(), nil
}

// UpdateTrackingID writes a block's tracking ID, keyed by block ID.
func (r *BlockRepository) UpdateTrackingID(ctx context.Context, blockID, trackingID int64) error {
	sql, args, err := r.sb.Update("blocks").
		Set("tracking_id", trackingID).
		Set("updated_at", squirrel.Expr("CURRENT_TIMESTAMP")).
		Where(squirrel.Eq{"id": blockID}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building update tracking ID SQL")
		return fmt.Errorf("failed to build update tracking ID query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "idx_blocks_course_tracking_id") {
			return ErrDuplicateTrackingID
		}
		logger.Error().Err(err).Int64("blockID", blockID).Int64("trackingID", trackingID).Msg("Error executing update tracking ID query")
		return fmt.Errorf("error updating tracking ID: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrBlockNotFound
	}

	return nil
}
