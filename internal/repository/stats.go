package repository

import (
	"context"
	"database/sql"
	"fmt"

	"aim-tracker/internal/domain"

	"github.com/rs/zerolog"
)

type StatsRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewStatsRepository(sqlDB *sql.DB, logger zerolog.Logger) *StatsRepository {
	return &StatsRepository{
		db:     sqlDB,
		logger: logger,
	}
}

// DailyStatsRow is one flat row of the per-day accuracy join. Date and
// accuracy are nil for a scenario with no games.
type DailyStatsRow struct {
	ScenarioName string
	Date         *string
	AvgAccuracy  *float64
}

// GetGeneralScenarioStats returns lifetime averages per scenario. SQL AVG
// over zero joined rows yields NULL, which scans into nil pointers, so a
// scenario without games reports absent averages rather than zeros.
func (r *StatsRepository) GetGeneralScenarioStats(ctx context.Context) ([]domain.ScenarioGeneralStats, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.name,
			COUNT(g.id),
			AVG(st.shots),
			AVG(st.hits),
			AVG(st.hits) / AVG(st.shots) * 100 AS accuracy,
			AVG(st.damage_done),
			AVG(st.damage_possible)
		FROM scenario s
		LEFT JOIN game g
		ON s.id = g.scenario_id
		LEFT JOIN stats st
		ON g.id = st.game_id
		GROUP BY s.id
		ORDER BY s.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query general scenario stats: %w", err)
	}
	defer rows.Close()

	stats := []domain.ScenarioGeneralStats{}
	for rows.Next() {
		var s domain.ScenarioGeneralStats
		if err := rows.Scan(&s.Name, &s.GamesCount, &s.Shots, &s.Hits, &s.Accuracy, &s.DamageDone, &s.DamagePossible); err != nil {
			return nil, fmt.Errorf("failed to scan general scenario stats: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate general scenario stats: %w", err)
	}
	return stats, nil
}

// GetDailyStatsRows returns one row per (scenario, calendar day) with that
// day's average accuracy, grouped and ordered by the query. The per-scenario
// time series is folded in the service.
func (r *StatsRepository) GetDailyStatsRows(ctx context.Context) ([]DailyStatsRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.name,
			DATE(g.created_at),
			AVG(st.hits) / AVG(st.shots) * 100 AS accuracy
		FROM scenario s
		LEFT JOIN game g
		ON s.id = g.scenario_id
		LEFT JOIN stats st
		ON g.id = st.game_id
		GROUP BY s.id,
			DATE(g.created_at)
		ORDER BY s.id,
			DATE(g.created_at)`)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily scenario stats: %w", err)
	}
	defer rows.Close()

	result := []DailyStatsRow{}
	for rows.Next() {
		var row DailyStatsRow
		if err := rows.Scan(&row.ScenarioName, &row.Date, &row.AvgAccuracy); err != nil {
			return nil, fmt.Errorf("failed to scan daily scenario stats: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate daily scenario stats: %w", err)
	}
	return result, nil
}
