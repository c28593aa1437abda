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

// Course error types
var (
	// ErrCourseNotFound is returned when a course is not found.
	ErrCourseNotFound = ErrNotFound // Use shared ErrNotFound
	// ErrCourseAlreadyExists is returned when a course with the same code exists.
	ErrCourseAlreadyExists = errors.New("course with this code already exists")
)

// CourseRepository handles course database operations
type CourseRepository struct {
	db *pgxpool.Pool
	// Use squirrel instance with placeholder format
	sb squirrel.StatementBuilderType
}

// NewCourseRepository creates a new CourseRepository
func NewCourseRepository(db *pgxpool.Pool) *CourseRepository {
	return &CourseRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateCourse creates a new course
func (r *CourseRepository) CreateCourse(ctx context.Context, course *models.Course) (int64, error) {
	sql, args, err := r.sb.Insert("courses").
		Columns("code", "title", "description").
		Values(course.Code, course.Title, helpers.GetNullString(course.Description)).
		Suffix("RETURNING id").
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building create course SQL")
		return 0, fmt.Errorf("failed to build create course query: %w", err)
	}

	var id int64
	err = r.db.QueryRow(ctx, sql, args...).Scan(&id)
	if err != nil {
		if dberrors.IsDuplicateKeyError(err) {
			return 0, ErrCourseAlreadyExists
		}
		logger.Error().Err(err).Msg("Error executing create course query")
		return 0, fmt.Errorf("error creating course: %w", err)
	}

	return id, nil
}

// GetCourseByID retrieves a course by ID
func (r *CourseRepository) GetCourseByID(ctx context.Context, id int64) (*models.Course, error) {
	sql, args, err := r.sb.Select("id", "code", "title", "description", "latest_tracking_id", "created_at", "updated_at").
		From("courses").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building get course by ID SQL")
		return nil, fmt.Errorf("failed to build get course query: %w", err)
	}

	course := &models.Course{}
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&course.ID, &course.Code, &course.Title, &course.Description,
		&course.LatestTrackingID, &course.CreatedAt, &course.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCourseNotFound
		}
		logger.Error().Err(err).Int64("courseID", id).Msg("Error scanning course row")
		return nil, fmt.Errorf("error getting course by ID: %w", err)
	}

	return course, nil
}

// GetAllCourses retrieves all courses
func (r *CourseRepository) GetAllCourses(ctx context.Context) ([]*models.Course, error) {
	sql, args, err := r.sb.Select("id", "code", "title", "description", "latest_tracking_id", "created_at", "updated_at").
		From("courses").
		OrderBy("code ASC").
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building get all courses SQL")
		return nil, fmt.Errorf("failed to build get all courses query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing get all courses query")
		return nil, fmt.Errorf("error querying courses: %w", err)
	}
	defer rows.Close()

	courses := []*models.Course{}
	for rows.Next() {
		course := &models.Course{}
		if err := rows.Scan(
			&course.ID, &course.Code, &course.Title, &course.Description,
			&course.LatestTrackingID, &course.CreatedAt, &course.UpdatedAt,
		); err != nil {
			logger.Error().Err(err).Msg("Error scanning course row during get all")
			return nil, fmt.Errorf("error scanning course row: %w", err)
		}
		courses = append(courses, course)
	}

	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Msg("Error iterating course rows")
		return nil, fmt.Errorf("error iterating course rows: %w", err)
	}

	return courses, nil
}

// UpdateCourse updates an existing course's descriptive fields. The tracking
// counter is never written through this method.
func (r *CourseRepository) UpdateCourse(ctx context.Context, course *models.Course) error {
	sql, args, err := r.sb.Update("courses").
		SetMap(map[string]interface{}{
			"code":        course.Code,
			"title":       course.Title,
			"description": helpers.GetNullString(course.Description),
			"updated_at":  squirrel.Expr("CURRENT_TIMESTAMP"),
		}).
		Where(squirrel.Eq{"id": course.ID}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building update course SQL")
		return fmt.Errorf("failed to build update course query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsDuplicateKeyError(err) {
			return ErrCourseAlreadyExists
		}
		logger.Error().Err(err).Int64("courseID", course.ID).Msg("Error executing update course query")
		return fmt.Errorf("error updating course: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrCourseNotFound
	}

	return nil
}

// DeleteCourse deletes a course by ID; its blocks go with it (ON DELETE CASCADE)
func (r *CourseRepository) DeleteCourse(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("courses").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building delete course SQL")
		return fmt.Errorf("failed to build delete course query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("courseID", id).Msg("Error executing delete course query")
		return fmt.Errorf("error deleting course: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrCourseNotFound
	}

	return nil
}

// IncrementTrackingCounter bumps the course's tracking ID cursor by one and
// returns the new value. The UPDATE ... RETURNING round trip is a single
// indivisible operation on the course row, so concurrent callers for the
// same course each receive a distinct value.
func (r *CourseRepository) IncrementTrackingCounter(ctx context.Context, courseID int64) (int64, error) {
	sql, args, err := r.sb.Update("courses").
		Set("latest_tracking_id", squirrel.Expr("latest_tracking_id + 1")).
		Where(squirrel.Eq{"id": courseID}).
		Suffix("RETURNING latest_tracking_id").
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building increment tracking counter SQL")
		return 0, fmt.Errorf("failed to build increment tracking counter query: %w", err)
	}

	var next int64
	err = r.db.QueryRow(ctx, sql, args...).Scan(&next)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrCourseNotFound
		}
		logger.Error().Err(err).Int64("courseID", courseID).Msg("Error executing increment tracking counter query")
		return 0, fmt.Errorf("error incrementing tracking counter: %w", err)
	}

	return next, nil
}

// EnsureTrackingCounterAtLeast lifts the course's tracking counter to at
// least the given value. The counter never decreases; GREATEST makes this a
// no-op when it is already ahead.
func (r *CourseRepository) EnsureTrackingCounterAtLeast(ctx context.Context, courseID, value int64) error {
	sql, args, err := r.sb.Update("courses").
		Set("latest_tracking_id", squirrel.Expr("GREATEST(latest_tracking_id, ?)", value)).
		Where(squirrel.Eq{"id": courseID}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building ensure tracking counter SQL")
		return fmt.Errorf("failed to build ensure tracking counter query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("courseID", courseID).Int64("value", value).Msg("Error executing ensure tracking counter query")
		return fmt.Errorf("error adjusting tracking counter: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrCourseNotFound
	}

	return nil
}
