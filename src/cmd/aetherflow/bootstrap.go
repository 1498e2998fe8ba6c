package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"aetherflow/local-app/src/pkg/ai"
	"aetherflow/local-app/src/pkg/config"
	"aetherflow/local-app/src/pkg/data"
	"aetherflow/local-app/src/pkg/log"
	"aetherflow/local-app/src/pkg/model"
	"aetherflow/local-app/src/pkg/session"
	"aetherflow/local-app/src/pkg/storage"
)

// app holds the components shared by every command.
type app struct {
	cfg            *model.Config
	logger         *log.Logger
	store          *storage.Storage
	registry       *prometheus.Registry
	client         *ai.Client
	sessionManager *session.SessionManager
}

// bootstrap loads configuration and initializes, in order, the logger,
// storage, AI client and session manager. The returned app must be closed.
func bootstrap(configPath string, offline bool) (*app, error) {
	ctx := context.Background()

	if err := config.ConfigLoad(configPath); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg := config.ConfigGet()

	logger, err := log.NewLogger(cfg, log.ParseLevel(cfg.Log.Level))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	a := &app{cfg: cfg, logger: logger}

	logger.Info(ctx, "Application started", log.Fields{"config": config.ConfigPath(), "offline": offline})

	a.store, err = storage.NewStorage(cfg, logger)
	if err != nil {
		logger.Error(ctx, "Failed to initialize storage", log.Fields{"error": err})
		a.close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	logger.Info(ctx, "Storage initialized", log.Fields{"type": cfg.Storage.Type})

	var backend ai.Backend
	if !offline {
		backend, err = ai.NewBackend(cfg.AI, logger)
		if err != nil {
			logger.Error(ctx, "Failed to initialize AI backend", log.Fields{"error": err})
			a.close()
			return nil, fmt.Errorf("failed to initialize AI backend: %w", err)
		}
	}
	a.registry = prometheus.NewRegistry()
	a.client = ai.NewClient(backend,
		ai.WithLogger(logger),
		ai.WithMetrics(ai.NewMetrics(a.registry)),
		ai.WithMaxConcurrent(cfg.AI.MaxConcurrent),
	)
	logger.Info(ctx, "AI client initialized", log.Fields{"available": a.client.Available(), "provider": cfg.AI.Provider})

	a.sessionManager = session.NewSessionManager(session.Deps{
		AI:        a.client,
		Slot:      a.store.KV,
		Snapshots: a.store.Snapshots,
		StoreOptions: []data.Option{
			data.WithZoomBounds(cfg.Viewport.MinZoom, cfg.Viewport.MaxZoom),
			data.WithLayout(cfg.Layout.Strategy),
			data.WithSlotKey(cfg.Storage.SlotKey),
		},
	}, cfg.Storage.AutosaveInterval, logger)
	logger.Info(ctx, "Session manager initialized", nil)

	return a, nil
}

// historyFile keeps the readline history next to the other data files.
func (a *app) historyFile() string {
	return filepath.Join(a.cfg.Storage.Dir, ".aetherflow_history")
}

// close saves every session and releases storage and the logger.
func (a *app) close() {
	ctx := context.Background()
	if a.sessionManager != nil {
		if err := a.sessionManager.Shutdown(ctx); err != nil {
			a.logger.Error(ctx, "Failed to save sessions", log.Fields{"error": err})
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Error(ctx, "Failed to close storage", log.Fields{"error": err})
		}
	}
	a.logger.Info(ctx, "Application shutting down", nil)
	if err := a.logger.Close(); err != nil {
		fmt.Printf("Failed to close logger: %v\n", err)
	}
}
