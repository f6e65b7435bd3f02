package repository

import (
	"context"
	"database/sql"
	"fmt"

	"aim-tracker/internal/domain"

	"github.com/rs/zerolog"
)

type ScenarioRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewScenarioRepository(sqlDB *sql.DB, logger zerolog.Logger) *ScenarioRepository {
	return &ScenarioRepository{
		db:     sqlDB,
		logger: logger,
	}
}

// List returns every scenario with its stored game count, ordered by id.
func (r *ScenarioRepository) List(ctx context.Context) ([]domain.Scenario, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.id, s.name, s.difficulty, s.created_at, COUNT(g.id) AS games_count
		FROM scenario s
		LEFT JOIN game g ON s.id = g.scenario_id
		GROUP BY s.id, s.name, s.difficulty
		ORDER BY s.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query scenarios: %w", err)
	}
	defer rows.Close()

	scenarios := []domain.Scenario{}
	for rows.Next() {
		var s domain.Scenario
		if err := rows.Scan(&s.ID, &s.Name, &s.Difficulty, &s.CreatedAt, &s.GamesCount); err != nil {
			return nil, fmt.Errorf("failed to scan scenario: %w", err)
		}
		scenarios = append(scenarios, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scenarios: %w", err)
	}
	return scenarios, nil
}

// Get returns one scenario by id, without a game count.
func (r *ScenarioRepository) Get(ctx context.Context, id int64) (*domain.Scenario, error) {
	var s domain.Scenario
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, difficulty, created_at FROM scenario WHERE id = ?", id,
	).Scan(&s.ID, &s.Name, &s.Difficulty, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
