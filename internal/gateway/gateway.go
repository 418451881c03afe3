package gateway

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/KevinKickass/ScriptSynth/internal/document"
	"github.com/KevinKickass/ScriptSynth/internal/metrics"
	"github.com/KevinKickass/ScriptSynth/internal/types"
	"go.uber.org/zap"
)

// ArtifactName is the file name the store serves and the gateway saves.
const ArtifactName = "config.yaml"

// Store is the external persistence collaborator.
type Store interface {
	Submit(ctx context.Context, doc *document.Document) error
	Fetch(ctx context.Context) ([]byte, error)
}

type Artifact struct {
	Name string
	Data []byte
	// Path is where the artifact was saved locally, empty when no download
	// directory is configured.
	Path string
}

// Gateway hands configurations to the store and retrieves the stored file.
// It only ever sees snapshots, so saving never touches editor state, and
// each call is independent of any other in flight.
type Gateway struct {
	store       Store
	downloadDir string
	logger      *zap.Logger
}

func New(store Store, downloadDir string, logger *zap.Logger) *Gateway {
	return &Gateway{
		store:       store,
		downloadDir: downloadDir,
		logger:      logger,
	}
}

// Materialize submits the projection of cfg, waits for the store to
// acknowledge it, then downloads config.yaml. No retry is attempted; the
// caller's context is the only deadline.
func (g *Gateway) Materialize(ctx context.Context, cfg types.RunConfiguration) (*Artifact, error) {
	doc := document.Project(cfg)

	if err := g.store.Submit(ctx, doc); err != nil {
		return nil, g.fail("submit", err)
	}

	data, err := g.store.Fetch(ctx)
	if err != nil {
		return nil, g.fail("fetch", err)
	}

	artifact := &Artifact{Name: ArtifactName, Data: data}

	if g.downloadDir != "" {
		path, err := g.save(data)
		if err != nil {
			return nil, g.fail("save", err)
		}
		artifact.Path = path
	}

	metrics.Materializations.WithLabelValues("ok").Inc()
	g.logger.Info("Configuration materialized",
		zap.String("test_name", cfg.TestName),
		zap.Int("bytes", len(data)),
		zap.String("path", artifact.Path))

	return artifact, nil
}

func (g *Gateway) fail(step string, err error) error {
	metrics.Materializations.WithLabelValues("failed").Inc()
	g.logger.Error("Failed to materialize configuration",
		zap.String("step", step),
		zap.Error(err))
	return fmt.Errorf("materialize %s: %w", step, err)
}

// save writes the artifact next to a temp file and renames it, so a reader
// never sees a partially written config.yaml.
func (g *Gateway) save(data []byte) (string, error) {
	if err := os.MkdirAll(g.downloadDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create download dir: %w", err)
	}

	tmp, err := os.CreateTemp(g.downloadDir, ArtifactName+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close artifact: %w", err)
	}

	path := filepath.Join(g.downloadDir, ArtifactName)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to move artifact into place: %w", err)
	}
	return path, nil
}
