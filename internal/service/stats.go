package service

import (
	"context"

	"aim-tracker/internal/constants"
	"aim-tracker/internal/domain"
	"aim-tracker/internal/repository"

	"github.com/rs/zerolog"
)

// StatsService runs the read-only aggregations: flat join rows come from the
// repositories, the nested trees are folded here. Aggregation never mutates
// stored data; a failed query yields an error and no partial tree.
type StatsService struct {
	stats     *repository.StatsRepository
	playlists *repository.PlaylistRepository
	logger    zerolog.Logger
}

func NewStatsService(stats *repository.StatsRepository, playlists *repository.PlaylistRepository, logger zerolog.Logger) *StatsService {
	return &StatsService{
		stats:     stats,
		playlists: playlists,
		logger:    logger,
	}
}

// GeneralScenarioStats returns lifetime averages per scenario. Scenarios
// without games report absent averages.
func (s *StatsService) GeneralScenarioStats(ctx context.Context) ([]domain.ScenarioGeneralStats, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	stats, err := s.stats.GetGeneralScenarioStats(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to aggregate general scenario stats")
		return nil, err
	}
	return stats, nil
}

// ScenarioTimeSeries returns each scenario's day-by-day accuracy, folded
// from the flat daily rows.
func (s *StatsService) ScenarioTimeSeries(ctx context.Context) ([]domain.ScenarioChartStats, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	rows, err := s.stats.GetDailyStatsRows(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to aggregate daily scenario stats")
		return nil, err
	}
	return foldDailyStats(rows), nil
}

// GroupedPlaylists returns the playlist -> scenario -> day trees, folded
// from the flat join rows.
func (s *StatsService) GroupedPlaylists(ctx context.Context, activeOnly bool) ([]domain.GroupedPlaylist, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	rows, err := s.playlists.GetStatsRows(ctx, activeOnly)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to aggregate playlist stats")
		return nil, err
	}
	return foldPlaylists(rows), nil
}

// foldDailyStats groups flat (scenario, date, accuracy) rows into one entry
// per scenario, keeping first-seen scenario order and per-scenario date
// order as delivered. Grouping matches on the scenario name, not adjacency,
// so unsorted input still folds correctly. A scenario whose only row has no
// date (no games at all) appears with an empty series.
func foldDailyStats(rows []repository.DailyStatsRow) []domain.ScenarioChartStats {
	result := []domain.ScenarioChartStats{}
	index := map[string]int{}

	for _, row := range rows {
		i, seen := index[row.ScenarioName]
		if !seen {
			i = len(result)
			index[row.ScenarioName] = i
			result = append(result, domain.ScenarioChartStats{
				Name: row.ScenarioName,
				Data: []domain.DailyScenarioStats{},
			})
		}
		if row.Date == nil {
			continue
		}
		result[i].Data = append(result[i].Data, domain.DailyScenarioStats{
			Date:        *row.Date,
			AvgAccuracy: row.AvgAccuracy,
		})
	}
	return result
}

type playlistScenarioKey struct {
	playlistID   int64
	scenarioName string
}

// foldPlaylists groups flat join rows into the three-level playlist tree.
// Each row is one of: a new playlist, a new scenario under a known playlist,
// or another day bucket under a known (playlist, scenario) pair. Grouping is
// by natural key equality; the underlying order only guarantees
// playlist-then-scenario-then-date ordering, not strict grouping boundaries.
// A playlist whose scenario columns are NULL (no scenarios attached) still
// appears, with no scenario nodes.
func foldPlaylists(rows []repository.PlaylistStatsRow) []domain.GroupedPlaylist {
	result := []domain.GroupedPlaylist{}
	playlistIndex := map[int64]int{}
	scenarioIndex := map[playlistScenarioKey]int{}

	for _, row := range rows {
		pi, seen := playlistIndex[row.PlaylistID]
		if !seen {
			pi = len(result)
			playlistIndex[row.PlaylistID] = pi
			result = append(result, domain.GroupedPlaylist{
				ID:          row.PlaylistID,
				Name:        row.Name,
				Description: row.Description,
				Duration:    row.Duration,
				State:       row.State,
				Scenarios:   []domain.GroupedPlaylistScenario{},
			})
		}

		if row.ScenarioName == nil {
			continue
		}

		day := domain.GroupedPlaylistDay{GamesCount: row.GamesCount}

		key := playlistScenarioKey{playlistID: row.PlaylistID, scenarioName: *row.ScenarioName}
		si, seen := scenarioIndex[key]
		if !seen {
			scenario := domain.GroupedPlaylistScenario{
				ScenarioName: *row.ScenarioName,
				Days:         []domain.GroupedPlaylistDay{day},
			}
			if row.ScenarioDifficulty != nil {
				scenario.ScenarioDifficulty = domain.Difficulty(*row.ScenarioDifficulty)
			}
			if row.Reps != nil {
				scenario.Reps = *row.Reps
			}
			scenarioIndex[key] = len(result[pi].Scenarios)
			result[pi].Scenarios = append(result[pi].Scenarios, scenario)
			continue
		}
		result[pi].Scenarios[si].Days = append(result[pi].Scenarios[si].Days, day)
	}
	return result
}
