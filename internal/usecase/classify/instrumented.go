package classify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vidclass/internal/domain"
	"github.com/kailas-cloud/vidclass/internal/metrics"
)

var _ domain.BatchingClassifier = (*InstrumentedClassifier)(nil)

// InstrumentedClassifier wraps a Classifier with metrics and logging.
// It is the outermost decorator, so cache hits are counted as requests too.
type InstrumentedClassifier struct {
	inner  domain.BatchingClassifier
	logger *zap.Logger
}

// NewInstrumentedClassifier wraps a classifier with observability.
func NewInstrumentedClassifier(inner domain.BatchingClassifier, logger *zap.Logger) *InstrumentedClassifier {
	return &InstrumentedClassifier{inner: inner, logger: logger}
}

// Classify delegates to the inner classifier and records the outcome.
func (c *InstrumentedClassifier) Classify(ctx context.Context, text string) (domain.Prediction, error) {
	start := time.Now()

	p, err := c.inner.Classify(ctx, text)

	duration := time.Since(start)
	metrics.ClassifyDuration.Observe(duration.Seconds())

	if err != nil {
		metrics.ClassifyRequestsTotal.WithLabelValues("error").Inc()
		c.logger.Error("Classification failed",
			zap.Duration("duration", duration),
			zap.Int("text_len", len(text)),
			zap.Error(err),
		)
		return domain.Prediction{}, fmt.Errorf("classify: %w", err)
	}

	metrics.ClassifyRequestsTotal.WithLabelValues("ok").Inc()
	metrics.PredictionsTotal.WithLabelValues(p.Label).Inc()

	c.logger.Debug("Classification completed",
		zap.Duration("duration", duration),
		zap.String("label", p.Label),
		zap.Float64("confidence", p.Confidence),
	)
	return p, nil
}

// ClassifyVideo classifies a video from its title and description.
func (c *InstrumentedClassifier) ClassifyVideo(ctx context.Context, title, description string) (domain.Prediction, error) {
	return c.Classify(ctx, domain.VideoText(title, description))
}

// ClassifyBatch delegates to the inner batch path and records the outcome.
func (c *InstrumentedClassifier) ClassifyBatch(ctx context.Context, texts []string) ([]domain.Prediction, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	start := time.Now()
	preds, err := c.inner.ClassifyBatch(ctx, texts)
	duration := time.Since(start)

	if err != nil {
		metrics.ClassifyRequestsTotal.WithLabelValues("error").Add(float64(len(texts)))
		c.logger.Error("Batch classification failed",
			zap.Duration("duration", duration),
			zap.Int("batch_size", len(texts)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("classify batch: %w", err)
	}

	metrics.ClassifyRequestsTotal.WithLabelValues("ok").Add(float64(len(preds)))
	for _, p := range preds {
		metrics.PredictionsTotal.WithLabelValues(p.Label).Inc()
	}

	c.logger.Debug("Batch classification completed",
		zap.Duration("duration", duration),
		zap.Int("batch_size", len(texts)),
	)
	return preds, nil
}
