package service

import (
	"context"

	"aim-tracker/internal/config"
	"aim-tracker/internal/constants"
	"aim-tracker/internal/domain"
	"aim-tracker/internal/notify"
	"aim-tracker/internal/repository"

	"github.com/rs/zerolog"
)

// PathWatcher is the handle the settings service uses to retarget the
// directory watch when the scan root changes.
type PathWatcher interface {
	SetPath(path string) error
}

type SettingsService struct {
	settings *repository.SettingsRepository
	cfg      *config.Config
	bus      *notify.Bus
	logger   zerolog.Logger

	watcher PathWatcher
}

func NewSettingsService(settings *repository.SettingsRepository, cfg *config.Config, bus *notify.Bus, logger zerolog.Logger) *SettingsService {
	return &SettingsService{
		settings: settings,
		cfg:      cfg,
		bus:      bus,
		logger:   logger,
	}
}

// AttachWatcher hands the service the watcher handle. Set once at startup;
// the watcher cannot be constructed before the settings it watches are read.
func (s *SettingsService) AttachWatcher(w PathWatcher) {
	s.watcher = w
}

// ScanRoot returns the persisted scan root, falling back to the configured
// default (and persisting it) when nothing is stored yet.
func (s *SettingsService) ScanRoot(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return "", err
	}
	if settings != nil {
		return settings.DirectoryPath, nil
	}

	if err := s.settings.Update(ctx, domain.Settings{DirectoryPath: s.cfg.ScanDir}); err != nil {
		return "", err
	}
	s.logger.Info().Str("dir", s.cfg.ScanDir).Msg("scan root initialized from config")
	return s.cfg.ScanDir, nil
}

// SetScanRoot persists a new scan root and retargets the watcher. An event
// already queued for the old directory may still arrive and get ingested;
// that is harmless since ingestion is idempotent by content hash.
func (s *SettingsService) SetScanRoot(ctx context.Context, path string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if err := s.settings.Update(ctx, domain.Settings{DirectoryPath: path}); err != nil {
		return err
	}

	if s.watcher != nil {
		if err := s.watcher.SetPath(path); err != nil {
			s.logger.Error().Err(err).Str("dir", path).Msg("failed to retarget watcher")
			s.bus.Error("Error while starting file watcher", err.Error())
			return err
		}
	}

	s.bus.Warning("Settings updated", "Now watching "+path)
	return nil
}
