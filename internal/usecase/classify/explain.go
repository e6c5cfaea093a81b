package classify

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/vidclass/internal/domain"
	"github.com/kailas-cloud/vidclass/internal/engine/vectorizer"
)

// Feature is one non-zero entry of a document vector.
type Feature struct {
	Term   string  `json:"term"`
	Index  int     `json:"index"`
	Weight float64 `json:"weight"`
}

// Explanation shows how a text was turned into a prediction.
type Explanation struct {
	Terms      []string          `json:"terms"`
	Features   []Feature         `json:"features"`
	Prediction domain.Prediction `json:"prediction"`
}

// Explain returns the analyzed terms, the weighted in-vocabulary features
// and the prediction for text.
func (s *Service) Explain(ctx context.Context, text string) (Explanation, error) {
	if err := ctx.Err(); err != nil {
		return Explanation{}, err
	}
	terms, err := vectorizer.Analyze(text, s.bundle)
	if err != nil {
		return Explanation{}, fmt.Errorf("analyze: %w", err)
	}
	fv, err := vectorizer.Vectorize(text, s.bundle)
	if err != nil {
		return Explanation{}, fmt.Errorf("vectorize: %w", err)
	}
	p, err := s.linear.Classify(fv, s.bundle)
	if err != nil {
		return Explanation{}, fmt.Errorf("score: %w", err)
	}

	features := make([]Feature, fv.Len())
	for i, idx := range fv.Indices {
		features[i] = Feature{Term: s.bundle.Term(idx), Index: idx, Weight: fv.Values[i]}
	}
	return Explanation{Terms: terms, Features: features, Prediction: p}, nil
}
