package system

import (
	"context"
	"fmt"

	"github.com/KevinKickass/ScriptSynth/internal/artifacts"
	"github.com/KevinKickass/ScriptSynth/internal/config"
	"github.com/KevinKickass/ScriptSynth/internal/storage"
	"go.uber.org/zap"
)

// openArtifactStore builds the configured store backend. The returned
// close func releases backend resources and is never nil.
func openArtifactStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (artifacts.Store, func(), error) {
	noop := func() {}

	switch cfg.Store.Backend {
	case "", "file":
		store, err := artifacts.NewFileStore(cfg.Store.Dir)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("Using file artifact store", zap.String("dir", cfg.Store.Dir))
		return store, noop, nil

	case "postgres":
		db, err := storage.NewPostgresClient(ctx, cfg.Database)
		if err != nil {
			return nil, noop, err
		}
		if err := db.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, noop, err
		}
		logger.Info("Using postgres artifact store",
			zap.String("host", cfg.Database.Host),
			zap.String("database", cfg.Database.Database))
		return storage.NewPostgresStore(db), db.Close, nil

	case "minio":
		store, err := storage.NewMinioStore(ctx, cfg.Minio)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("Using minio artifact store",
			zap.String("endpoint", cfg.Minio.Endpoint),
			zap.String("bucket", cfg.Minio.Bucket))
		return store, noop, nil

	default:
		return nil, noop, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
