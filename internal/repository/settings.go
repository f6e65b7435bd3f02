package repository

import (
	"context"
	"database/sql"
	"fmt"

	"aim-tracker/internal/domain"

	"github.com/rs/zerolog"
)

type SettingsRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewSettingsRepository(sqlDB *sql.DB, logger zerolog.Logger) *SettingsRepository {
	return &SettingsRepository{
		db:     sqlDB,
		logger: logger,
	}
}

// Get returns the persisted settings, or nil when none have been stored yet.
func (r *SettingsRepository) Get(ctx context.Context) (*domain.Settings, error) {
	var s domain.Settings
	err := r.db.QueryRowContext(ctx, "SELECT directory_path FROM setting WHERE id = 1").Scan(&s.DirectoryPath)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	return &s, nil
}

// Update stores the settings, creating the single row on first write.
func (r *SettingsRepository) Update(ctx context.Context, settings domain.Settings) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO setting (id, directory_path) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET directory_path = excluded.directory_path`,
		settings.DirectoryPath,
	)
	if err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}
	r.logger.Info().Str("directory_path", settings.DirectoryPath).Msg("settings updated")
	return nil
}
