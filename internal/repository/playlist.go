package repository

import (
	"context"
	"database/sql"
	"fmt"

	"aim-tracker/internal/domain"

	"github.com/rs/zerolog"
)

type PlaylistRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewPlaylistRepository(sqlDB *sql.DB, logger zerolog.Logger) *PlaylistRepository {
	return &PlaylistRepository{
		db:     sqlDB,
		logger: logger,
	}
}

// PlaylistStatsRow is one flat row of the playlist/scenario/day join. The
// scenario columns are nil for a playlist with no scenarios (left join).
type PlaylistStatsRow struct {
	PlaylistID  int64
	Name        string
	Description string
	Duration    int64
	State       domain.PlaylistState

	ScenarioName       *string
	ScenarioDifficulty *string
	GamesCount         int64
	Reps               *int64
}

// Insert stores a playlist and its scenario associations in one transaction.
func (r *PlaylistRepository) Insert(ctx context.Context, name, description string, duration int64, scenarios []domain.PlaylistScenario) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO playlist (name, description, duration) VALUES (?, ?, ?)",
		name, description, duration,
	)
	if err != nil {
		return fmt.Errorf("failed to insert playlist: %w", err)
	}
	playlistID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read playlist id: %w", err)
	}

	for _, s := range scenarios {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO scenario_playlist (scenario_id, playlist_id, reps) VALUES (?, ?, ?)",
			s.ScenarioID, playlistID, s.Reps,
		)
		if err != nil {
			return fmt.Errorf("failed to insert playlist scenario %d: %w", s.ScenarioID, err)
		}
	}

	return tx.Commit()
}

// Get returns one playlist by id, sql.ErrNoRows when it does not exist.
func (r *PlaylistRepository) Get(ctx context.Context, id int64) (*domain.Playlist, error) {
	var p domain.Playlist
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, description, duration, state, started_at, ended_at, created_at FROM playlist WHERE id = ?",
		id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.Duration, &p.State, &p.StartedAt, &p.EndedAt, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist %d: %w", id, err)
	}
	return &p, nil
}

// SetState flips a playlist between ACTIVE and INACTIVE. The active window
// dates move with it via the update_playlist_state trigger.
func (r *PlaylistRepository) SetState(ctx context.Context, id int64, state domain.PlaylistState) error {
	res, err := r.db.ExecContext(ctx, "UPDATE playlist SET state = ? WHERE id = ?", state, id)
	if err != nil {
		return fmt.Errorf("failed to update playlist state: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// GetStatsRows runs the playlist/scenario/day join: one row per (playlist,
// scenario, day) with the number of games whose creation date falls inside
// the playlist's active window, plus one row per scenario-less playlist.
// The nested grouping happens in the service fold, not here.
func (r *PlaylistRepository) GetStatsRows(ctx context.Context, activeOnly bool) ([]PlaylistStatsRow, error) {
	query := `
		SELECT p.id,
			p.name,
			p.description,
			p.duration,
			p.state,
			s.name,
			s.difficulty,
			COUNT(g.id),
			sp.reps
		FROM playlist p
		LEFT JOIN scenario_playlist sp
		ON p.id = sp.playlist_id
		LEFT JOIN scenario s
		ON s.id = sp.scenario_id
		LEFT JOIN game g
		ON g.scenario_id = s.id
		AND g.created_at
			BETWEEN p.started_at
			AND CASE
					WHEN p.state = 'ACTIVE'
					THEN DATE(p.started_at, '+' || p.duration || ' days')
					ELSE p.ended_at
				END`
	if activeOnly {
		query += `
		WHERE p.state = 'ACTIVE'`
	}
	query += `
		GROUP BY p.id, s.id, DATE(g.created_at)
		ORDER BY p.id, sp.id, DATE(g.created_at)`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist stats: %w", err)
	}
	defer rows.Close()

	result := []PlaylistStatsRow{}
	for rows.Next() {
		var row PlaylistStatsRow
		if err := rows.Scan(
			&row.PlaylistID, &row.Name, &row.Description, &row.Duration, &row.State,
			&row.ScenarioName, &row.ScenarioDifficulty, &row.GamesCount, &row.Reps,
		); err != nil {
			return nil, fmt.Errorf("failed to scan playlist stats row: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate playlist stats rows: %w", err)
	}
	return result, nil
}
