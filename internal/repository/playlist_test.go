package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"aim-tracker/internal/database"
	"aim-tracker/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func insertScenario(t *testing.T, db *sql.DB, name string) int64 {
	t.Helper()
	res, err := db.Exec("INSERT INTO scenario (name) VALUES (?)", name)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func TestPlaylistInsertAndGet(t *testing.T) {
	db := newTestDB(t)
	playlists := NewPlaylistRepository(db, zerolog.Nop())
	scenarioID := insertScenario(t, db, "S")

	err := playlists.Insert(context.Background(), "daily", "warmup routine", 14, []domain.PlaylistScenario{
		{ScenarioID: scenarioID, Reps: 5},
	})
	require.NoError(t, err)

	got, err := playlists.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "daily", got.Name)
	assert.Equal(t, "warmup routine", got.Description)
	assert.Equal(t, int64(14), got.Duration)
	assert.Equal(t, domain.PlaylistInactive, got.State)

	_, err = playlists.Get(context.Background(), 99)
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestPlaylistInsertRollsBackOnBadScenario(t *testing.T) {
	db := newTestDB(t)
	playlists := NewPlaylistRepository(db, zerolog.Nop())

	err := playlists.Insert(context.Background(), "broken", "", 7, []domain.PlaylistScenario{
		{ScenarioID: 42, Reps: 1},
	})
	require.Error(t, err)

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM playlist").Scan(&n))
	assert.Equal(t, 0, n)
}

func TestSetStateMovesActiveWindow(t *testing.T) {
	db := newTestDB(t)
	playlists := NewPlaylistRepository(db, zerolog.Nop())

	require.NoError(t, playlists.Insert(context.Background(), "daily", "", 7, nil))

	inactive, err := playlists.Get(context.Background(), 1)
	require.NoError(t, err)
	// defaults park the window far in the future
	assert.True(t, inactive.StartedAt.After(time.Now().AddDate(19, 0, 0)))

	require.NoError(t, playlists.SetState(context.Background(), 1, domain.PlaylistActive))

	active, err := playlists.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, domain.PlaylistActive, active.State)
	assert.False(t, active.StartedAt.After(time.Now()))
	assert.True(t, active.EndedAt.After(time.Now().AddDate(21, 0, 0)))

	require.NoError(t, playlists.SetState(context.Background(), 1, domain.PlaylistInactive))

	closed, err := playlists.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, domain.PlaylistInactive, closed.State)
	assert.False(t, closed.EndedAt.After(time.Now().AddDate(0, 0, 1)))
}

func TestSetStateUnknownPlaylist(t *testing.T) {
	playlists := NewPlaylistRepository(newTestDB(t), zerolog.Nop())
	err := playlists.SetState(context.Background(), 42, domain.PlaylistActive)
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestGetStatsRowsActiveOnly(t *testing.T) {
	db := newTestDB(t)
	playlists := NewPlaylistRepository(db, zerolog.Nop())
	scenarioID := insertScenario(t, db, "S")

	require.NoError(t, playlists.Insert(context.Background(), "on", "", 7, []domain.PlaylistScenario{
		{ScenarioID: scenarioID, Reps: 3},
	}))
	require.NoError(t, playlists.Insert(context.Background(), "off", "", 7, nil))
	require.NoError(t, playlists.SetState(context.Background(), 1, domain.PlaylistActive))

	all, err := playlists.GetStatsRows(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, all, 2)

	active, err := playlists.GetStatsRows(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "on", active[0].Name)
	require.NotNil(t, active[0].ScenarioName)
	assert.Equal(t, "S", *active[0].ScenarioName)
	require.NotNil(t, active[0].Reps)
	assert.Equal(t, int64(3), *active[0].Reps)
	assert.Equal(t, int64(0), active[0].GamesCount)
}
