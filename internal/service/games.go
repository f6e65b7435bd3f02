package service

import (
	"context"

	"aim-tracker/internal/constants"
	"aim-tracker/internal/domain"
	"aim-tracker/internal/notify"
	"aim-tracker/internal/repository"

	"github.com/rs/zerolog"
)

type GameService struct {
	games     *repository.GameRepository
	scenarios *repository.ScenarioRepository
	bus       *notify.Bus
	logger    zerolog.Logger
}

func NewGameService(games *repository.GameRepository, scenarios *repository.ScenarioRepository, bus *notify.Bus, logger zerolog.Logger) *GameService {
	return &GameService{
		games:     games,
		scenarios: scenarios,
		bus:       bus,
		logger:    logger,
	}
}

// ListGames returns one page of stored games with their child rows.
func (s *GameService) ListGames(ctx context.Context, page, limit int) ([]domain.GameWithRun, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = constants.DefaultPageLimit
	}
	if limit > constants.MaxPageLimit {
		limit = constants.MaxPageLimit
	}

	return s.games.GetPage(ctx, page, limit)
}

// ListGamesForScenario returns every stored game of one scenario.
func (s *GameService) ListGamesForScenario(ctx context.Context, scenarioID int64) ([]domain.GameWithRun, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if _, err := s.scenarios.Get(ctx, scenarioID); err != nil {
		return nil, err
	}
	return s.games.GetByScenario(ctx, scenarioID)
}

// ListScenarios returns every scenario with its game count.
func (s *GameService) ListScenarios(ctx context.Context) ([]domain.Scenario, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	return s.scenarios.List(ctx)
}

// DeleteGame removes one game and, via the cascade, all of its rows.
func (s *GameService) DeleteGame(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if err := s.games.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("game_id", id).Msg("game deleted")
	return nil
}

// ClearDatabase wipes all stored runs and scenarios.
func (s *GameService) ClearDatabase(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if err := s.games.Clear(ctx); err != nil {
		return err
	}
	s.logger.Info().Msg("database cleared")
	s.bus.Info("Database cleared", "Database cleared successfully")
	return nil
}
