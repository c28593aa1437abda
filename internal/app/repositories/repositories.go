package repositories

import (
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is the shared not-found error aliased by the per-entity
// sentinel errors in this package.
var ErrNotFound = errors.New("resource not found")

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository   *UserRepository
	CourseRepository *CourseRepository
	BlockRepository  *BlockRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		UserRepository:   NewUserRepository(db),
		CourseRepository: NewCourseRepository(db),
		BlockRepository:  NewBlockRepository(db),
	}
}
