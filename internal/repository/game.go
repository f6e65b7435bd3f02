package repository

import (
	"context"
	"database/sql"
	"fmt"

	"aim-tracker/internal/domain"

	"github.com/rs/zerolog"
)

type GameRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewGameRepository(sqlDB *sql.DB, logger zerolog.Logger) *GameRepository {
	return &GameRepository{
		db:     sqlDB,
		logger: logger,
	}
}

// ExistsByHash reports whether a game with the given content hash is already
// stored.
func (r *GameRepository) ExistsByHash(ctx context.Context, hash int64) (bool, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, "SELECT id FROM game WHERE hash = ?", hash).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check game hash: %w", err)
	}
	return true, nil
}

// InsertGameWithRun stores a game and all of its child rows in one
// transaction. The scenario is resolved by name inside the same transaction
// and created with difficulty EASY when unseen; any failure rolls the whole
// game back.
func (r *GameRepository) InsertGameWithRun(ctx context.Context, hash int64, name, scenarioName string, run *domain.ParsedRun) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var scenarioID int64
	err = tx.QueryRowContext(ctx, "SELECT id FROM scenario WHERE name = ?", scenarioName).Scan(&scenarioID)
	if err == sql.ErrNoRows {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO scenario (name, difficulty) VALUES (?, ?)",
			scenarioName, domain.DifficultyEasy,
		)
		if err != nil {
			return fmt.Errorf("failed to insert scenario %q: %w", scenarioName, err)
		}
		scenarioID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read scenario id: %w", err)
		}
		r.logger.Info().Str("scenario", scenarioName).Int64("scenario_id", scenarioID).Msg("scenario created")
	} else if err != nil {
		return fmt.Errorf("failed to look up scenario %q: %w", scenarioName, err)
	}

	res, err := tx.ExecContext(ctx,
		"INSERT INTO game (hash, scenario_id, name) VALUES (?, ?, ?)",
		hash, scenarioID, name,
	)
	if err != nil {
		return fmt.Errorf("failed to insert game: %w", err)
	}
	gameID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read game id: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO stats (game_id, weapon, shots, hits, damage_done, damage_possible)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		gameID, run.Stats.Weapon, run.Stats.Shots, run.Stats.Hits,
		run.Stats.DamageDone, run.Stats.DamagePossible,
	)
	if err != nil {
		return fmt.Errorf("failed to insert stats: %w", err)
	}

	for _, tile := range run.Tiles {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO tile (game_id, kill, timestamp, bot, weapon, ttk, shots, accuracy, damage_done, damage_taken, efficiency, cheated)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			gameID, tile.Kill, tile.Timestamp, tile.Bot, tile.Weapon, tile.TTK,
			tile.Shots, tile.Accuracy, tile.DamageDone, tile.DamageTaken,
			tile.Efficiency, tile.Cheated,
		)
		if err != nil {
			return fmt.Errorf("failed to insert tile: %w", err)
		}
	}

	for _, kv := range run.KeyValues {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO key_value (game_id, key, value) VALUES (?, ?, ?)",
			gameID, kv.Key, kv.Value,
		)
		if err != nil {
			return fmt.Errorf("failed to insert key/value: %w", err)
		}
	}

	return tx.Commit()
}

// GetPage returns one page of stored games with their child rows, ordered by
// id. Page numbering starts at 1.
func (r *GameRepository) GetPage(ctx context.Context, page, limit int) ([]domain.GameWithRun, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, hash, scenario_id, name, created_at FROM game ORDER BY id LIMIT ? OFFSET ?",
		limit, (page-1)*limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query games: %w", err)
	}
	defer rows.Close()

	return r.collectGames(ctx, rows)
}

// GetByScenario returns every game of one scenario with its child rows.
func (r *GameRepository) GetByScenario(ctx context.Context, scenarioID int64) ([]domain.GameWithRun, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, hash, scenario_id, name, created_at FROM game WHERE scenario_id = ? ORDER BY id",
		scenarioID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query scenario games: %w", err)
	}
	defer rows.Close()

	return r.collectGames(ctx, rows)
}

func (r *GameRepository) collectGames(ctx context.Context, rows *sql.Rows) ([]domain.GameWithRun, error) {
	games := []domain.GameWithRun{}
	for rows.Next() {
		var game domain.Game
		if err := rows.Scan(&game.ID, &game.Hash, &game.ScenarioID, &game.Name, &game.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, domain.GameWithRun{Game: game})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate games: %w", err)
	}

	for i := range games {
		run, err := r.getRun(ctx, games[i].Game.ID)
		if err != nil {
			return nil, err
		}
		games[i].Run = *run
	}
	return games, nil
}

func (r *GameRepository) getRun(ctx context.Context, gameID int64) (*domain.ParsedRun, error) {
	run := &domain.ParsedRun{}

	err := r.db.QueryRowContext(ctx,
		"SELECT weapon, shots, hits, damage_done, damage_possible FROM stats WHERE game_id = ?",
		gameID,
	).Scan(&run.Stats.Weapon, &run.Stats.Shots, &run.Stats.Hits, &run.Stats.DamageDone, &run.Stats.DamagePossible)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}

	tileRows, err := r.db.QueryContext(ctx,
		`SELECT kill, timestamp, bot, weapon, ttk, shots, accuracy, damage_done, damage_taken, efficiency, cheated
		 FROM tile WHERE game_id = ? ORDER BY id`,
		gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query tiles: %w", err)
	}
	defer tileRows.Close()
	for tileRows.Next() {
		var tile domain.TileRow
		if err := tileRows.Scan(
			&tile.Kill, &tile.Timestamp, &tile.Bot, &tile.Weapon, &tile.TTK,
			&tile.Shots, &tile.Accuracy, &tile.DamageDone, &tile.DamageTaken,
			&tile.Efficiency, &tile.Cheated,
		); err != nil {
			return nil, fmt.Errorf("failed to scan tile: %w", err)
		}
		run.Tiles = append(run.Tiles, tile)
	}
	if err := tileRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tiles: %w", err)
	}

	kvRows, err := r.db.QueryContext(ctx,
		"SELECT key, value FROM key_value WHERE game_id = ? ORDER BY id",
		gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query key/values: %w", err)
	}
	defer kvRows.Close()
	for kvRows.Next() {
		var kv domain.KeyValueRow
		if err := kvRows.Scan(&kv.Key, &kv.Value); err != nil {
			return nil, fmt.Errorf("failed to scan key/value: %w", err)
		}
		run.KeyValues = append(run.KeyValues, kv)
	}
	if err := kvRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate key/values: %w", err)
	}

	return run, nil
}

// Delete removes a game; its stats, tile and key/value rows go with it via
// the cascade.
func (r *GameRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM game WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
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

// Clear wipes all stored runs and scenarios. Playlists survive; their
// scenario associations cascade away with the scenarios.
func (r *GameRepository) Clear(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"key_value", "tile", "stats", "game", "scenario"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	return tx.Commit()
}
