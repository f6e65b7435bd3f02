package service

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"aim-tracker/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestStoresGameWithChildren(t *testing.T) {
	db := newTestDB(t)
	svc := newIngestService(t, db)

	ingested, err := svc.Ingest(context.Background(), testRun("1wall6targets", 1))
	require.NoError(t, err)
	assert.True(t, ingested)

	assert.Equal(t, 1, countRows(t, db, "game"))
	assert.Equal(t, 1, countRows(t, db, "scenario"))
	assert.Equal(t, 1, countRows(t, db, "stats"))
	assert.Equal(t, 1, countRows(t, db, "tile"))
	assert.Equal(t, 2, countRows(t, db, "key_value"))

	var name string
	require.NoError(t, db.QueryRow("SELECT name FROM game").Scan(&name))
	assert.NotEmpty(t, name)
}

func TestReingestIsNoOp(t *testing.T) {
	db := newTestDB(t)
	svc := newIngestService(t, db)

	ingested, err := svc.Ingest(context.Background(), testRun("1wall6targets", 1))
	require.NoError(t, err)
	require.True(t, ingested)

	ingested, err = svc.Ingest(context.Background(), testRun("1wall6targets", 1))
	require.NoError(t, err)
	assert.False(t, ingested)

	assert.Equal(t, 1, countRows(t, db, "game"))
	assert.Equal(t, 1, countRows(t, db, "stats"))
}

func TestIngestMissingScenarioTag(t *testing.T) {
	db := newTestDB(t)
	svc := newIngestService(t, db)

	run := testRun("x", 1)
	run.KeyValues = []domain.KeyValueRow{{Key: "FOV:", Value: "103"}}

	_, err := svc.Ingest(context.Background(), run)
	require.ErrorIs(t, err, ErrMissingScenarioTag)

	assert.Equal(t, 0, countRows(t, db, "game"))
	assert.Equal(t, 0, countRows(t, db, "scenario"))
}

func TestIngestAmbiguousScenarioTag(t *testing.T) {
	db := newTestDB(t)
	svc := newIngestService(t, db)

	run := testRun("x", 1)
	run.KeyValues = append(run.KeyValues, domain.KeyValueRow{Key: "Scenario:", Value: "y"})

	_, err := svc.Ingest(context.Background(), run)
	require.ErrorIs(t, err, ErrAmbiguousScenarioTag)
	assert.Equal(t, 0, countRows(t, db, "game"))
}

func TestConcurrentIngestCreatesOneScenario(t *testing.T) {
	db := newTestDB(t)
	svc := newIngestService(t, db)

	var wg sync.WaitGroup
	for i := int64(0); i < 8; i++ {
		wg.Add(1)
		go func(salt int64) {
			defer wg.Done()
			_, err := svc.Ingest(context.Background(), testRun("fresh scenario", salt))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, countRows(t, db, "scenario"))
	assert.Equal(t, 8, countRows(t, db, "game"))
}

func TestIngestDirScansInOrderAndSkipsBadFiles(t *testing.T) {
	db := newTestDB(t)
	svc := newIngestService(t, db)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv"), []byte(testRunCSV("s", 1)), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.csv"), []byte(testRunCSV("s", 2)), 0o644))
	// stats row with unparsable shots aborts this file only
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.csv"), []byte("h1,h2\npistol,oops,5,1,2,\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0o644))

	summary, err := svc.IngestDir(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Files)
	assert.Equal(t, 2, summary.Ingested)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 2, countRows(t, db, "game"))
}

func TestIngestDirMissingDirectory(t *testing.T) {
	svc := newIngestService(t, newTestDB(t))
	_, err := svc.IngestDir(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestEndToEndGameCounts(t *testing.T) {
	db := newTestDB(t)
	svc := newIngestService(t, db)
	games := NewGameService(gameRepo(db), scenarioRepo(db), busFor(t), loggerFor())

	for salt := int64(1); salt <= 3; salt++ {
		ingested, err := svc.Ingest(context.Background(), testRun("S", salt))
		require.NoError(t, err)
		require.True(t, ingested)
	}

	scenarios, err := games.ListScenarios(context.Background())
	require.NoError(t, err)
	require.Len(t, scenarios, 1)
	assert.Equal(t, "S", scenarios[0].Name)
	assert.Equal(t, int64(3), scenarios[0].GamesCount)
	assert.Equal(t, domain.DifficultyEasy, scenarios[0].Difficulty)

	// re-ingesting the second file changes nothing
	ingested, err := svc.Ingest(context.Background(), testRun("S", 2))
	require.NoError(t, err)
	assert.False(t, ingested)

	scenarios, err = games.ListScenarios(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), scenarios[0].GamesCount)
}
