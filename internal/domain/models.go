package domain

import (
	"time"
)

// TileRow is one combat tick from a run file. Every cell in the source file
// may be empty or malformed, so all fields are optional; a nil pointer means
// the cell did not decode.
type TileRow struct {
	Kill        *int64
	Timestamp   *string
	Bot         *string
	Weapon      *string
	TTK         *string
	Shots       *int64
	Accuracy    *float64
	DamageDone  *int64
	DamageTaken *int64
	Efficiency  *float64
	Cheated     *bool
}

// KeyValueRow is a single metadata pair from a run file header, e.g.
// ("Scenario:", "1wall6targets").
type KeyValueRow struct {
	Key   string
	Value string
}

// StatsRow holds the whole-run aggregate. At most one per file; a file
// without one yields the zero value.
type StatsRow struct {
	Weapon         string
	Shots          int64
	Hits           int64
	DamageDone     float64
	DamagePossible float64
}

// ParsedRun is the full decoded content of one run file. It is the unit
// that gets fingerprinted and ingested.
type ParsedRun struct {
	Tiles     []TileRow
	KeyValues []KeyValueRow
	Stats     StatsRow
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

type PlaylistState string

const (
	PlaylistActive   PlaylistState = "ACTIVE"
	PlaylistInactive PlaylistState = "INACTIVE"
)

type Game struct {
	ID         int64
	Hash       int64
	ScenarioID int64
	Name       string
	CreatedAt  time.Time
}

// GameWithRun is a stored game together with its child rows.
type GameWithRun struct {
	Game Game
	Run  ParsedRun
}

type Scenario struct {
	ID         int64
	Name       string
	Difficulty Difficulty
	CreatedAt  time.Time
	GamesCount int64
}

type Playlist struct {
	ID          int64
	Name        string
	Description string
	Duration    int64
	State       PlaylistState
	StartedAt   time.Time
	EndedAt     time.Time
	CreatedAt   time.Time
}

// PlaylistScenario associates a scenario with a playlist, carrying the
// number of repetitions the playlist prescribes for it.
type PlaylistScenario struct {
	ScenarioID int64
	Reps       int64
}

type Settings struct {
	DirectoryPath string
}

// ScenarioGeneralStats is one scenario's lifetime averages. The averages are
// nil for a scenario with no games, never zero or NaN.
type ScenarioGeneralStats struct {
	Name           string
	GamesCount     int64
	Shots          *float64
	Hits           *float64
	Accuracy       *float64
	DamageDone     *float64
	DamagePossible *float64
}

// DailyScenarioStats is one calendar day's average accuracy for a scenario.
type DailyScenarioStats struct {
	Date        string
	AvgAccuracy *float64
}

// ScenarioChartStats is the per-scenario time series, ordered by date.
type ScenarioChartStats struct {
	Name string
	Data []DailyScenarioStats
}

// GroupedPlaylist is the nested playlist -> scenario -> day tree produced by
// the aggregation fold. A playlist with no scenarios has an empty Scenarios
// slice.
type GroupedPlaylist struct {
	ID          int64
	Name        string
	Description string
	Duration    int64
	State       PlaylistState
	Scenarios   []GroupedPlaylistScenario
}

type GroupedPlaylistScenario struct {
	ScenarioName       string
	ScenarioDifficulty Difficulty
	Reps               int64
	Days               []GroupedPlaylistDay
}

type GroupedPlaylistDay struct {
	GamesCount int64
}
