package server

import (
	"time"

	"aim-tracker/internal/domain"
)

type tileResponse struct {
	Kill        *int64   `json:"kill"`
	Timestamp   *string  `json:"timestamp"`
	Bot         *string  `json:"bot"`
	Weapon      *string  `json:"weapon"`
	TTK         *string  `json:"ttk"`
	Shots       *int64   `json:"shots"`
	Accuracy    *float64 `json:"accuracy"`
	DamageDone  *int64   `json:"damage_done"`
	DamageTaken *int64   `json:"damage_taken"`
	Efficiency  *float64 `json:"efficiency"`
	Cheated     *bool    `json:"cheated"`
}

type keyValueResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type statsResponse struct {
	Weapon         string  `json:"weapon"`
	Shots          int64   `json:"shots"`
	Hits           int64   `json:"hits"`
	DamageDone     float64 `json:"damage_done"`
	DamagePossible float64 `json:"damage_possible"`
}

type gameResponse struct {
	ID         int64              `json:"id"`
	ScenarioID int64              `json:"scenario_id"`
	Name       string             `json:"name"`
	CreatedAt  time.Time          `json:"created_at"`
	Stats      statsResponse      `json:"stats"`
	Tiles      []tileResponse     `json:"tiles"`
	KeyValues  []keyValueResponse `json:"key_values"`
}

type scenarioResponse struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Difficulty string    `json:"difficulty"`
	CreatedAt  time.Time `json:"created_at"`
	GamesCount int64     `json:"games_count"`
}

type generalStatsResponse struct {
	Name           string   `json:"name"`
	GamesCount     int64    `json:"games_count"`
	Shots          *float64 `json:"shots"`
	Hits           *float64 `json:"hits"`
	Accuracy       *float64 `json:"accuracy"`
	DamageDone     *float64 `json:"damage_done"`
	DamagePossible *float64 `json:"damage_possible"`
}

type dailyStatsResponse struct {
	Date        string   `json:"date"`
	AvgAccuracy *float64 `json:"avg_accuracy"`
}

type chartStatsResponse struct {
	Name string               `json:"name"`
	Data []dailyStatsResponse `json:"data"`
}

type groupedPlaylistDayResponse struct {
	GamesCount int64 `json:"games_count"`
}

type groupedPlaylistScenarioResponse struct {
	ScenarioName       string                       `json:"scenario_name"`
	ScenarioDifficulty string                       `json:"scenario_difficulty"`
	Reps               int64                        `json:"reps"`
	Days               []groupedPlaylistDayResponse `json:"days"`
}

type groupedPlaylistResponse struct {
	ID          int64                             `json:"id"`
	Name        string                            `json:"name"`
	Description string                            `json:"description"`
	Duration    int64                             `json:"duration"`
	State       string                            `json:"state"`
	Scenarios   []groupedPlaylistScenarioResponse `json:"scenarios"`
}

type insertPlaylistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Duration    int64  `json:"duration"`
	Scenarios   []struct {
		ScenarioID int64 `json:"scenario_id"`
		Reps       int64 `json:"reps"`
	} `json:"scenarios"`
}

type setPlaylistStateRequest struct {
	State string `json:"state"`
}

type settingsRequest struct {
	DirectoryPath string `json:"directory_path"`
}

type settingsResponse struct {
	DirectoryPath string `json:"directory_path"`
}

func toGameResponses(games []domain.GameWithRun) []gameResponse {
	result := make([]gameResponse, len(games))
	for i, g := range games {
		tiles := make([]tileResponse, len(g.Run.Tiles))
		for j, t := range g.Run.Tiles {
			tiles[j] = tileResponse{
				Kill:        t.Kill,
				Timestamp:   t.Timestamp,
				Bot:         t.Bot,
				Weapon:      t.Weapon,
				TTK:         t.TTK,
				Shots:       t.Shots,
				Accuracy:    t.Accuracy,
				DamageDone:  t.DamageDone,
				DamageTaken: t.DamageTaken,
				Efficiency:  t.Efficiency,
				Cheated:     t.Cheated,
			}
		}

		keyValues := make([]keyValueResponse, len(g.Run.KeyValues))
		for j, kv := range g.Run.KeyValues {
			keyValues[j] = keyValueResponse{Key: kv.Key, Value: kv.Value}
		}

		result[i] = gameResponse{
			ID:         g.Game.ID,
			ScenarioID: g.Game.ScenarioID,
			Name:       g.Game.Name,
			CreatedAt:  g.Game.CreatedAt,
			Stats: statsResponse{
				Weapon:         g.Run.Stats.Weapon,
				Shots:          g.Run.Stats.Shots,
				Hits:           g.Run.Stats.Hits,
				DamageDone:     g.Run.Stats.DamageDone,
				DamagePossible: g.Run.Stats.DamagePossible,
			},
			Tiles:     tiles,
			KeyValues: keyValues,
		}
	}
	return result
}

func toScenarioResponses(scenarios []domain.Scenario) []scenarioResponse {
	result := make([]scenarioResponse, len(scenarios))
	for i, s := range scenarios {
		result[i] = scenarioResponse{
			ID:         s.ID,
			Name:       s.Name,
			Difficulty: string(s.Difficulty),
			CreatedAt:  s.CreatedAt,
			GamesCount: s.GamesCount,
		}
	}
	return result
}

func toGeneralStatsResponses(stats []domain.ScenarioGeneralStats) []generalStatsResponse {
	result := make([]generalStatsResponse, len(stats))
	for i, s := range stats {
		result[i] = generalStatsResponse{
			Name:           s.Name,
			GamesCount:     s.GamesCount,
			Shots:          s.Shots,
			Hits:           s.Hits,
			Accuracy:       s.Accuracy,
			DamageDone:     s.DamageDone,
			DamagePossible: s.DamagePossible,
		}
	}
	return result
}

func toChartStatsResponses(stats []domain.ScenarioChartStats) []chartStatsResponse {
	result := make([]chartStatsResponse, len(stats))
	for i, s := range stats {
		data := make([]dailyStatsResponse, len(s.Data))
		for j, d := range s.Data {
			data[j] = dailyStatsResponse{Date: d.Date, AvgAccuracy: d.AvgAccuracy}
		}
		result[i] = chartStatsResponse{Name: s.Name, Data: data}
	}
	return result
}

func toGroupedPlaylistResponses(playlists []domain.GroupedPlaylist) []groupedPlaylistResponse {
	result := make([]groupedPlaylistResponse, len(playlists))
	for i, p := range playlists {
		scenarios := make([]groupedPlaylistScenarioResponse, len(p.Scenarios))
		for j, sc := range p.Scenarios {
			days := make([]groupedPlaylistDayResponse, len(sc.Days))
			for k, d := range sc.Days {
				days[k] = groupedPlaylistDayResponse{GamesCount: d.GamesCount}
			}
			scenarios[j] = groupedPlaylistScenarioResponse{
				ScenarioName:       sc.ScenarioName,
				ScenarioDifficulty: string(sc.ScenarioDifficulty),
				Reps:               sc.Reps,
				Days:               days,
			}
		}
		result[i] = groupedPlaylistResponse{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Duration:    p.Duration,
			State:       string(p.State),
			Scenarios:   scenarios,
		}
	}
	return result
}
