package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/Aman-CERP/openmc-assist/internal/config"
	"github.com/Aman-CERP/openmc-assist/internal/embed"
	amerrors "github.com/Aman-CERP/openmc-assist/internal/errors"
	"github.com/Aman-CERP/openmc-assist/internal/retrieve"
	"github.com/Aman-CERP/openmc-assist/internal/store"
)

// app holds the components opened for one command.
type app struct {
	cfg      *config.Config
	store    *store.SQLiteStore
	index    retrieve.VectorIndex
	embedder embed.Embedder
	logger   *slog.Logger
}

// loadConfig loads the configuration for the --config-dir project.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configDir)
	if err != nil {
		var coded *amerrors.Error
		if errors.As(err, &coded) {
			return nil, err
		}
		return nil, amerrors.ConfigError("failed to load configuration", err)
	}
	return cfg, nil
}

// openApp opens the store, the configured collection index and the embedder.
func openApp(ctx context.Context, cfg *config.Config) (*app, error) {
	if err := os.MkdirAll(cfg.Store.Path, 0o755); err != nil {
		return nil, amerrors.StoreError("failed to create storage directory", err)
	}

	s, err := store.OpenSQLite(cfg.DatabasePath())
	if err != nil {
		return nil, err
	}
	col, err := s.GetOrCreateCollection(ctx, cfg.Store.Collection)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	idx, err := retrieve.OpenIndex(cfg.Store.Index, col, cfg.ChromemPath())
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	emb, err := embed.New(ctx, cfg)
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	return &app{cfg: cfg, store: s, index: idx, embedder: emb, logger: slog.Default()}, nil
}

// Close releases the embedder and the store.
func (a *app) Close() error {
	return errors.Join(a.embedder.Close(), a.store.Close())
}
