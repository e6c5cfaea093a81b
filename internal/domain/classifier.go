package domain

import (
	"context"
	"slices"
)

// KeyPrefix namespaces every key this service writes to the shared store.
const KeyPrefix = "vidclass:"

// Classifier is the shared text classification contract between layers.
type Classifier interface {
	Classify(ctx context.Context, text string) (Prediction, error)
}

// BatchClassifier classifies several texts in one call, preserving input order.
type BatchClassifier interface {
	ClassifyBatch(ctx context.Context, texts []string) ([]Prediction, error)
}

// BatchingClassifier is a Classifier with a native batch path. Every layer
// of the decorator chain implements it.
type BatchingClassifier interface {
	Classifier
	BatchClassifier
}

// HealthChecker verifies that a component is ready to serve.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Score is the raw linear decision value of a single class.
type Score struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Prediction carries the decision and the full per-class score list.
// Scores are raw linear values in class order, not probabilities.
type Prediction struct {
	Label      string  `json:"label"`
	Index      int     `json:"index"`
	Scores     []Score `json:"scores"`
	Confidence float64 `json:"confidence"`
}

// Ranked returns a copy of Scores sorted by descending score.
// Equal scores keep class order.
func (p Prediction) Ranked() []Score {
	ranked := slices.Clone(p.Scores)
	slices.SortStableFunc(ranked, func(a, b Score) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
	return ranked
}

// VideoText joins a title and a description the way the trainer built its
// documents: title, one space, description.
func VideoText(title, description string) string {
	return title + " " + description
}
