package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"aim-tracker/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRun = `Kill #,Timestamp,Bot,Weapon,TTK,Shots,Accuracy,Damage Done,Damage Taken,Efficiency,Cheated,
1,10:00:00.123,bot_easy,pistol,0.500s,5,0.8,100,20,0.75,false,
2,10:00:01.456,bot_easy,pistol,0.300s,3,0.9,80,10,0.66,false,
Kills:,10
Score:,123.5
Scenario:,1wall6targets
FOV:,103
Horiz Sens:,2.5
pistol,25,20,450.5,500,
`

func newTestParser() *Parser {
	return New(zerolog.Nop())
}

func writeRunFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseFileClassifiesRows(t *testing.T) {
	run, err := newTestParser().ParseFile(writeRunFile(t, sampleRun))
	require.NoError(t, err)

	require.Len(t, run.Tiles, 2)
	require.Len(t, run.KeyValues, 4)

	first := run.Tiles[0]
	require.NotNil(t, first.Kill)
	assert.Equal(t, int64(1), *first.Kill)
	require.NotNil(t, first.Weapon)
	assert.Equal(t, "pistol", *first.Weapon)
	require.NotNil(t, first.Accuracy)
	assert.InDelta(t, 0.8, *first.Accuracy, 1e-9)
	require.NotNil(t, first.Cheated)
	assert.False(t, *first.Cheated)

	assert.Equal(t, domain.KeyValueRow{Key: "Scenario:", Value: "1wall6targets"}, run.KeyValues[2])

	assert.Equal(t, domain.StatsRow{
		Weapon:         "pistol",
		Shots:          25,
		Hits:           20,
		DamageDone:     450.5,
		DamagePossible: 500,
	}, run.Stats)
}

func TestParseMalformedTileCellsBecomeAbsent(t *testing.T) {
	content := "h1,h2\n" +
		",not-a-time-anyway,,pistol,,oops,bad,100,,0.5,maybe,\n"
	run, err := newTestParser().parse(strings.NewReader(content))
	require.NoError(t, err)
	require.Len(t, run.Tiles, 1)

	tile := run.Tiles[0]
	assert.Nil(t, tile.Kill)
	assert.Nil(t, tile.Bot)
	assert.Nil(t, tile.TTK)
	assert.Nil(t, tile.Shots)
	assert.Nil(t, tile.Accuracy)
	assert.Nil(t, tile.DamageTaken)
	assert.Nil(t, tile.Cheated)

	require.NotNil(t, tile.Timestamp)
	assert.Equal(t, "not-a-time-anyway", *tile.Timestamp)
	require.NotNil(t, tile.DamageDone)
	assert.Equal(t, int64(100), *tile.DamageDone)
}

func TestParseKeyValueAllowList(t *testing.T) {
	tests := []struct {
		name     string
		row      string
		accepted bool
	}{
		{"scenario", "Scenario:,tracking", true},
		{"kills", "Kills:,12", true},
		{"fov", "FOV:,103", true},
		{"vert sens outside list", "Vert Sens:,2.5", false},
		{"random pair", "Resolution:,1080p", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run, err := newTestParser().parse(strings.NewReader("h1,h2\n" + tt.row + "\n"))
			require.NoError(t, err)
			if tt.accepted {
				require.Len(t, run.KeyValues, 1)
			} else {
				assert.Empty(t, run.KeyValues)
			}
		})
	}
}

func TestParseUnknownWidthRowsAreSkipped(t *testing.T) {
	content := "h1,h2\n" +
		"a,b,c\n" +
		"a,b,c,d,e,f,g,h\n" +
		"lonely\n"
	run, err := newTestParser().parse(strings.NewReader(content))
	require.NoError(t, err)
	assert.Empty(t, run.Tiles)
	assert.Empty(t, run.KeyValues)
	assert.Equal(t, domain.StatsRow{}, run.Stats)
}

func TestParseLastStatsRowWins(t *testing.T) {
	content := "h1,h2\n" +
		"pistol,10,5,100,200,\n" +
		"rifle,30,25,600,700,\n"
	run, err := newTestParser().parse(strings.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, "rifle", run.Stats.Weapon)
	assert.Equal(t, int64(30), run.Stats.Shots)
}

func TestParseBadStatsRowAbortsFile(t *testing.T) {
	content := "h1,h2\n" +
		"1,t,b,w,ttk,5,0.8,100,20,0.75,false,\n" +
		"pistol,not-a-number,5,100,200,\n"
	_, err := newTestParser().parse(strings.NewReader(content))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stats row shots")
}

func TestParseFileMissing(t *testing.T) {
	_, err := newTestParser().ParseFile(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
}

func TestParseEmbeddedQuotesAreLiteral(t *testing.T) {
	content := "h1,h2\n" +
		`Scenario:,say "hello"` + "\n"
	run, err := newTestParser().parse(strings.NewReader(content))
	require.NoError(t, err)
	require.Len(t, run.KeyValues, 1)
	assert.Equal(t, `say "hello"`, run.KeyValues[0].Value)
}
