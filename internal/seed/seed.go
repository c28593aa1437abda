package seed

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	appModels "github.com/yigit/coursetrack/internal/app/models"
	appRepos "github.com/yigit/coursetrack/internal/app/repositories"
	"github.com/yigit/coursetrack/internal/config"
	"github.com/yigit/coursetrack/internal/pkg/auth"
)

// CreateDefaultData seeds the default admin account if it does not exist.
// Registration only produces AUTHOR accounts, so without this seed there
// would be no way to run a tracking ID reset.
func CreateDefaultData(ctx context.Context, dbPool *pgxpool.Pool, lgr zerolog.Logger) error {
	userRepo := appRepos.NewUserRepository(dbPool)

	adminEmail := config.GetEnv("ADMIN_EMAIL", "admin@coursetrack.app")
	adminPassword := config.GetEnv("ADMIN_PASSWORD", "Admin123!")

	_, err := userRepo.GetUserByEmail(ctx, adminEmail)
	if err == nil {
		lgr.Info().Msg("Admin user already exists, skipping creation")
		return nil
	}
	if !errors.Is(err, appRepos.ErrNotFound) {
		lgr.Error().Err(err).Msg("Error checking if admin user exists")
		return err
	}

	lgr.Info().Msg("Creating default admin user...")

	hash, err := auth.HashPassword(adminPassword)
	if err != nil {
		lgr.Error().Err(err).Msg("Error hashing admin password")
		return err
	}

	admin := &appModels.User{
		Email:        adminEmail,
		PasswordHash: hash,
		FullName:     "System Administrator",
		RoleType:     appModels.RoleAdmin,
	}

	adminID, err := userRepo.CreateUser(ctx, admin)
	if err != nil {
		// A concurrent instance may have seeded it first.
		if errors.Is(err, appRepos.ErrEmailAlreadyExists) {
			lgr.Info().Msg("Admin user created concurrently, skipping")
			return nil
		}
		lgr.Error().Err(err).Msg("Error creating admin user")
		return err
	}

	lgr.Info().Int64("adminID", adminID).Msg("Default admin user created successfully")
	return nil
}
