package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"aim-tracker/internal/config"
	"aim-tracker/internal/constants"
	fxmodules "aim-tracker/internal/fx"
	"aim-tracker/internal/middleware"
	"aim-tracker/internal/server"
	"aim-tracker/internal/service"
	"aim-tracker/internal/watcher"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		fxmodules.Module,
		fx.Invoke(runServer),
	).Run()
}

func runServer(
	lc fx.Lifecycle,
	trackerServer *server.TrackerServer,
	ingestSvc *service.IngestService,
	settingsSvc *service.SettingsService,
	fileWatcher *watcher.Watcher,
	cfg *config.Config,
	db *sql.DB,
	logger zerolog.Logger,
) {
	mux := http.NewServeMux()
	trackerServer.Register(mux)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	handler := middleware.RequestID(logger)(c.Handler(mux))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: handler,
	}

	settingsSvc.AttachWatcher(fileWatcher)

	watchCtx, stopWatcher := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Info().Str("addr", srv.Addr).Msg("server starting")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Fatal().Err(err).Msg("server failed")
				}
			}()

			// Catch-up scan first, live watch second; the two never
			// overlap.
			go func() {
				root, err := settingsSvc.ScanRoot(watchCtx)
				if err != nil {
					logger.Error().Err(err).Msg("failed to resolve scan root")
					return
				}

				if _, err := ingestSvc.IngestDir(watchCtx, root); err != nil {
					logger.Error().Err(err).Str("dir", root).Msg("initial scan failed")
				}

				if err := fileWatcher.SetPath(root); err != nil {
					// Live updates are unavailable until the scan root
					// is corrected; everything else keeps working.
					logger.Error().Err(err).Str("dir", root).Msg("failed to start file watcher")
					return
				}

				if err := fileWatcher.Run(watchCtx); err != nil && watchCtx.Err() == nil {
					logger.Error().Err(err).Msg("file watcher stopped")
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()

			stopWatcher()
			if err := fileWatcher.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing file watcher")
			}

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("server shutdown failed")
				return err
			}

			if err := db.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing database connection")
			}

			logger.Info().Msg("server stopped gracefully")
			return nil
		},
	})
}
