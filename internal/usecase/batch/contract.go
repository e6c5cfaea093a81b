package batch

import (
	"context"

	"github.com/kailas-cloud/vidclass/internal/domain"
)

// Classifier labels texts one at a time or as a whole batch.
type Classifier interface {
	Classify(ctx context.Context, text string) (domain.Prediction, error)
	ClassifyBatch(ctx context.Context, texts []string) ([]domain.Prediction, error)
}
