// Package app wires config, logging, storage and the search service into
// the pieces the binaries serve.
package app

import (
	"database/sql"
	"fmt"
	"log/slog"

	"phrasehub/internal/history"
	"phrasehub/internal/live"
	"phrasehub/internal/logging"
	"phrasehub/internal/scraper"
	"phrasehub/internal/search"
	"phrasehub/pkg/database"
	"phrasehub/pkg/utils"
)

type App struct {
	Config   utils.Config
	Logger   *slog.Logger
	DB       *sql.DB
	DBPath   string
	History  *history.Repo
	Hub      *live.Hub
	Registry *scraper.Registry
	Search   *search.Service

	cleanup func()
}

// Load reads the config at path (empty for defaults plus environment) and
// builds an App from it.
func Load(path string) (*App, error) {
	cfg, err := utils.Load(path)
	if err != nil {
		return nil, err
	}
	return New(cfg)
}

// New opens the history database and builds the search service. The
// caller must Close the App.
func New(cfg utils.Config) (*App, error) {
	logger, cleanup, err := logging.New(logging.Config{
		Level:    cfg.Log.Level,
		Format:   cfg.Log.Format,
		FilePath: cfg.Log.File,
	})
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	dbCfg := database.ConfigFor(cfg.DBPath)
	db, err := database.OpenAndMigrate(dbCfg)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("app: %w", err)
	}

	a := &App{
		Config:   cfg,
		Logger:   logger,
		DB:       db,
		DBPath:   dbCfg.Path,
		History:  history.NewRepo(db),
		Hub:      live.NewHub(logger),
		Registry: scraper.FromConfig(cfg, logger),
		cleanup:  cleanup,
	}
	a.Search, err = search.NewService(cfg.Search, a.Registry, a.History, a.Hub, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) Close() {
	a.Hub.Close()
	if err := a.DB.Close(); err != nil {
		a.Logger.Warn("closing database failed", "err", err)
	}
	a.cleanup()
}
