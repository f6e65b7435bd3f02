package service

import (
	"context"
	"errors"

	"aim-tracker/internal/constants"
	"aim-tracker/internal/domain"
	"aim-tracker/internal/notify"
	"aim-tracker/internal/repository"

	"github.com/rs/zerolog"
)

var ErrInvalidPlaylistState = errors.New("playlist state must be ACTIVE or INACTIVE")

type PlaylistService struct {
	playlists *repository.PlaylistRepository
	bus       *notify.Bus
	logger    zerolog.Logger
}

func NewPlaylistService(playlists *repository.PlaylistRepository, bus *notify.Bus, logger zerolog.Logger) *PlaylistService {
	return &PlaylistService{
		playlists: playlists,
		bus:       bus,
		logger:    logger,
	}
}

// InsertPlaylist stores a playlist and its scenario associations.
func (s *PlaylistService) InsertPlaylist(ctx context.Context, name, description string, duration int64, scenarios []domain.PlaylistScenario) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if err := s.playlists.Insert(ctx, name, description, duration, scenarios); err != nil {
		return err
	}

	s.logger.Info().Str("name", name).Int("scenarios", len(scenarios)).Msg("playlist created")
	s.bus.Info("Insert playlist", "Playlist was saved successfully")
	return nil
}

// SetPlaylistState flips a playlist's state. Activating resets the active
// window start to now; deactivating closes it.
func (s *PlaylistService) SetPlaylistState(ctx context.Context, id int64, state domain.PlaylistState) error {
	if state != domain.PlaylistActive && state != domain.PlaylistInactive {
		return ErrInvalidPlaylistState
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if err := s.playlists.SetState(ctx, id, state); err != nil {
		return err
	}

	s.logger.Info().Int64("playlist_id", id).Str("state", string(state)).Msg("playlist state updated")
	return nil
}
