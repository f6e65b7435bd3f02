package fx

import (
	"aim-tracker/internal/config"
	"aim-tracker/internal/database"
	"aim-tracker/internal/logger"
	"aim-tracker/internal/notify"
	"aim-tracker/internal/parser"
	"aim-tracker/internal/repository"
	"aim-tracker/internal/server"
	"aim-tracker/internal/service"
	"aim-tracker/internal/watcher"

	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	fx.Provide(notify.NewBus),
	fx.Provide(parser.New),
	// repos
	fx.Provide(repository.NewGameRepository),
	fx.Provide(repository.NewScenarioRepository),
	fx.Provide(repository.NewPlaylistRepository),
	fx.Provide(repository.NewStatsRepository),
	fx.Provide(repository.NewSettingsRepository),
	// svc
	fx.Provide(service.NewIngestService),
	fx.Provide(service.NewGameService),
	fx.Provide(service.NewStatsService),
	fx.Provide(service.NewPlaylistService),
	fx.Provide(service.NewSettingsService),
	// file source
	fx.Provide(watcher.New),
	// server
	fx.Provide(server.NewTrackerServer),
)
