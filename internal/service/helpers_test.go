package service

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"aim-tracker/internal/database"
	"aim-tracker/internal/domain"
	"aim-tracker/internal/notify"
	"aim-tracker/internal/parser"
	"aim-tracker/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newIngestService(t *testing.T, db *sql.DB) *IngestService {
	t.Helper()
	games := repository.NewGameRepository(db, zerolog.Nop())
	bus := notify.NewBus(zerolog.Nop())
	return NewIngestService(parser.New(zerolog.Nop()), games, bus, zerolog.Nop())
}

func gameRepo(db *sql.DB) *repository.GameRepository {
	return repository.NewGameRepository(db, zerolog.Nop())
}

func scenarioRepo(db *sql.DB) *repository.ScenarioRepository {
	return repository.NewScenarioRepository(db, zerolog.Nop())
}

func playlistRepo(db *sql.DB) *repository.PlaylistRepository {
	return repository.NewPlaylistRepository(db, zerolog.Nop())
}

func busFor(t *testing.T) *notify.Bus {
	t.Helper()
	return notify.NewBus(zerolog.Nop())
}

func loggerFor() zerolog.Logger {
	return zerolog.Nop()
}

func ptr[T any](v T) *T { return &v }

// testRun builds a run for the given scenario; salt makes the content, and
// therefore the fingerprint, distinct.
func testRun(scenario string, salt int64) *domain.ParsedRun {
	return &domain.ParsedRun{
		Tiles: []domain.TileRow{
			{
				Kill:     ptr(salt),
				Bot:      ptr("bot_easy"),
				Weapon:   ptr("pistol"),
				Shots:    ptr(int64(5)),
				Accuracy: ptr(0.8),
			},
		},
		KeyValues: []domain.KeyValueRow{
			{Key: "Scenario:", Value: scenario},
			{Key: "FOV:", Value: "103"},
		},
		Stats: domain.StatsRow{
			Weapon:         "pistol",
			Shots:          20 + salt,
			Hits:           10 + salt,
			DamageDone:     100.5,
			DamagePossible: 200,
		},
	}
}

// testRunCSV renders the same run shape as a raw file for the parse+ingest
// paths.
func testRunCSV(scenario string, salt int64) string {
	return fmt.Sprintf(
		"Kill #,Timestamp,Bot,Weapon,TTK,Shots,Accuracy,Damage Done,Damage Taken,Efficiency,Cheated,\n"+
			"%d,10:00:00.123,bot_easy,pistol,0.500s,5,0.8,100,20,0.75,false,\n"+
			"Scenario:,%s\n"+
			"FOV:,103\n"+
			"pistol,%d,%d,100.5,200,\n",
		salt, scenario, 20+salt, 10+salt,
	)
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}
