package artifacts

import (
	"context"
	"errors"
	"fmt"

	"github.com/KevinKickass/ScriptSynth/internal/document"
	"github.com/KevinKickass/ScriptSynth/internal/metrics"
	"go.uber.org/zap"
)

// ErrInvalidDocument wraps schema and decode failures of submitted bodies.
var ErrInvalidDocument = errors.New("invalid document")

// Service is the persistence collaborator: it accepts projected documents,
// serializes them and serves the result back as config.yaml.
type Service struct {
	store     Store
	validator *document.Validator
	logger    *zap.Logger
}

func NewService(store Store, logger *zap.Logger) (*Service, error) {
	validator, err := document.NewValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create validator: %w", err)
	}

	return &Service{
		store:     store,
		validator: validator,
		logger:    logger,
	}, nil
}

// Generate validates a JSON document, renders it and stores config.yaml.
func (s *Service) Generate(ctx context.Context, body []byte) (Revision, error) {
	if err := s.validator.ValidateJSON(body); err != nil {
		return Revision{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	doc, err := document.DecodeJSON(body)
	if err != nil {
		return Revision{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	content, err := document.Render(doc)
	if err != nil {
		return Revision{}, fmt.Errorf("failed to render document: %w", err)
	}

	rev, err := s.store.Put(ctx, Upload{
		Name:     DefaultName,
		Content:  content,
		Document: body,
		TestName: doc.TestName,
	})
	if err != nil {
		return Revision{}, fmt.Errorf("failed to store artifact: %w", err)
	}

	metrics.ArtifactsStored.WithLabelValues(s.store.Backend()).Inc()
	metrics.ArtifactBytes.Set(float64(rev.Size))

	s.logger.Info("Config generated",
		zap.String("backend", s.store.Backend()),
		zap.String("revision", rev.ID.String()),
		zap.String("test_name", rev.TestName),
		zap.Int("hardware", len(doc.Hardware)),
		zap.Int("commands", len(doc.Commands)))

	return rev, nil
}

// Download returns the current config.yaml.
func (s *Service) Download(ctx context.Context) ([]byte, error) {
	return s.store.Get(ctx, DefaultName)
}

func (s *Service) Revisions(ctx context.Context) ([]Revision, error) {
	return s.store.List(ctx, DefaultName)
}

func (s *Service) Backend() string {
	return s.store.Backend()
}
