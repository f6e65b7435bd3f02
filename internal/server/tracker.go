package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"aim-tracker/internal/domain"
	"aim-tracker/internal/notify"
	"aim-tracker/internal/service"

	"github.com/rs/zerolog"
)

// TrackerServer exposes the stored runs, aggregations and settings as a
// JSON API, plus an SSE stream for ingestion notifications.
type TrackerServer struct {
	games     *service.GameService
	stats     *service.StatsService
	playlists *service.PlaylistService
	settings  *service.SettingsService
	bus       *notify.Bus
	logger    zerolog.Logger
}

func NewTrackerServer(
	games *service.GameService,
	stats *service.StatsService,
	playlists *service.PlaylistService,
	settings *service.SettingsService,
	bus *notify.Bus,
	logger zerolog.Logger,
) *TrackerServer {
	return &TrackerServer{
		games:     games,
		stats:     stats,
		playlists: playlists,
		settings:  settings,
		bus:       bus,
		logger:    logger,
	}
}

func (s *TrackerServer) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/games", s.handleListGames)
	mux.HandleFunc("DELETE /api/games/{id}", s.handleDeleteGame)
	mux.HandleFunc("GET /api/scenarios", s.handleListScenarios)
	mux.HandleFunc("GET /api/scenarios/{id}/games", s.handleScenarioGames)
	mux.HandleFunc("GET /api/stats/scenarios", s.handleGeneralStats)
	mux.HandleFunc("GET /api/stats/scenarios/daily", s.handleDailyStats)
	mux.HandleFunc("GET /api/playlists", s.handleGroupedPlaylists)
	mux.HandleFunc("POST /api/playlists", s.handleInsertPlaylist)
	mux.HandleFunc("PUT /api/playlists/{id}/state", s.handleSetPlaylistState)
	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /api/settings", s.handlePutSettings)
	mux.HandleFunc("POST /api/database/clear", s.handleClearDatabase)
	mux.HandleFunc("GET /api/events", s.handleEvents)
}

func (s *TrackerServer) handleListGames(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	games, err := s.games.ListGames(r.Context(), page, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, toGameResponses(games))
}

func (s *TrackerServer) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeStatus(w, http.StatusBadRequest, "invalid game id")
		return
	}
	if err := s.games.DeleteGame(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *TrackerServer) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	scenarios, err := s.games.ListScenarios(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, toScenarioResponses(scenarios))
}

func (s *TrackerServer) handleScenarioGames(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeStatus(w, http.StatusBadRequest, "invalid scenario id")
		return
	}
	games, err := s.games.ListGamesForScenario(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, toGameResponses(games))
}

func (s *TrackerServer) handleGeneralStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.stats.GeneralScenarioStats(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, toGeneralStatsResponses(stats))
}

func (s *TrackerServer) handleDailyStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.stats.ScenarioTimeSeries(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, toChartStatsResponses(stats))
}

func (s *TrackerServer) handleGroupedPlaylists(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	playlists, err := s.stats.GroupedPlaylists(r.Context(), activeOnly)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, toGroupedPlaylistResponses(playlists))
}

func (s *TrackerServer) handleInsertPlaylist(w http.ResponseWriter, r *http.Request) {
	var req insertPlaylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeStatus(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Duration < 1 {
		s.writeStatus(w, http.StatusBadRequest, "name and a positive duration are required")
		return
	}

	scenarios := make([]domain.PlaylistScenario, len(req.Scenarios))
	for i, sc := range req.Scenarios {
		scenarios[i] = domain.PlaylistScenario{ScenarioID: sc.ScenarioID, Reps: sc.Reps}
	}

	if err := s.playlists.InsertPlaylist(r.Context(), req.Name, req.Description, req.Duration, scenarios); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *TrackerServer) handleSetPlaylistState(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeStatus(w, http.StatusBadRequest, "invalid playlist id")
		return
	}

	var req setPlaylistStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeStatus(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err = s.playlists.SetPlaylistState(r.Context(), id, domain.PlaylistState(req.State))
	if errors.Is(err, service.ErrInvalidPlaylistState) {
		s.writeStatus(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *TrackerServer) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	root, err := s.settings.ScanRoot(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, settingsResponse{DirectoryPath: root})
}

func (s *TrackerServer) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeStatus(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DirectoryPath == "" {
		s.writeStatus(w, http.StatusBadRequest, "directory_path is required")
		return
	}

	if err := s.settings.SetScanRoot(r.Context(), req.DirectoryPath); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *TrackerServer) handleClearDatabase(w http.ResponseWriter, r *http.Request) {
	if err := s.games.ClearDatabase(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleEvents streams notification events to the client as SSE until it
// disconnects.
func (s *TrackerServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeStatus(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	events, cancel := s.bus.Subscribe()
	defer cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case event := <-events:
			payload, err := json.Marshal(event)
			if err != nil {
				s.logger.Error().Err(err).Msg("failed to marshal event")
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Kind, payload)
			flusher.Flush()
		}
	}
}

func (s *TrackerServer) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *TrackerServer) writeStatus(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func (s *TrackerServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, sql.ErrNoRows) {
		s.writeStatus(w, http.StatusNotFound, "not found")
		return
	}
	s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	s.writeStatus(w, http.StatusInternalServerError, "internal error")
}
