package classify

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/vidclass/internal/domain"
	"github.com/kailas-cloud/vidclass/internal/domain/bundle"
	"github.com/kailas-cloud/vidclass/internal/engine/linear"
	"github.com/kailas-cloud/vidclass/internal/engine/vectorizer"
)

// DefaultWorkers bounds ClassifyBatch concurrency when none is configured.
const DefaultWorkers = 4

// Compile-time checks.
var (
	_ domain.Classifier      = (*Service)(nil)
	_ domain.BatchClassifier = (*Service)(nil)
	_ domain.HealthChecker   = (*Service)(nil)
)

// Service runs the vectorizer and the linear classifier over one bundle.
type Service struct {
	bundle  *bundle.Bundle
	linear  *linear.Classifier
	workers int
}

// New creates a classification service for b.
func New(b *bundle.Bundle, lc *linear.Classifier) *Service {
	if lc == nil {
		lc = linear.New()
	}
	return &Service{bundle: b, linear: lc, workers: DefaultWorkers}
}

// WithWorkers configures ClassifyBatch concurrency.
func (s *Service) WithWorkers(n int) *Service {
	if n > 0 {
		s.workers = n
	}
	return s
}

// Bundle returns the bundle the service classifies with.
func (s *Service) Bundle() *bundle.Bundle { return s.bundle }

// Classify vectorizes text and picks its label.
func (s *Service) Classify(ctx context.Context, text string) (domain.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return domain.Prediction{}, err
	}
	fv, err := vectorizer.Vectorize(text, s.bundle)
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("vectorize: %w", err)
	}
	p, err := s.linear.Classify(fv, s.bundle)
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("score: %w", err)
	}
	return p, nil
}

// ClassifyBatch classifies texts concurrently and returns predictions in
// input order. The first failure cancels the remaining work.
func (s *Service) ClassifyBatch(ctx context.Context, texts []string) ([]domain.Prediction, error) {
	out := make([]domain.Prediction, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, text := range texts {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			p, err := s.Classify(gctx, text)
			if err != nil {
				return fmt.Errorf("classify [%d]: %w", i, err)
			}
			out[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// HealthCheck reports whether a usable bundle is loaded.
func (s *Service) HealthCheck(_ context.Context) error {
	if s.bundle == nil {
		return domain.ErrEmptyModel
	}
	if !s.bundle.Validated() {
		return s.bundle.Check()
	}
	return nil
}
