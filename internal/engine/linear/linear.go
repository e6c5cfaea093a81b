// Package linear implements the one-vs-rest linear decision rule over
// sparse feature vectors.
package linear

import (
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/vidclass/internal/domain"
	"github.com/kailas-cloud/vidclass/internal/domain/bundle"
	"github.com/kailas-cloud/vidclass/internal/domain/features"
)

// chunkSize is the number of classes scored by one goroutine.
const chunkSize = 64

// Classifier scores feature vectors against the weight rows of a bundle.
// The zero value scores sequentially.
type Classifier struct {
	parallelism int
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithParallelism scores classes on up to n goroutines when the model has
// at least two chunks of classes. n <= 1 keeps scoring sequential.
func WithParallelism(n int) Option {
	return func(c *Classifier) { c.parallelism = n }
}

// New creates a Classifier.
func New(opts ...Option) *Classifier {
	c := &Classifier{}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Classify scores fv with a sequential Classifier.
func Classify(fv features.Vector, b *bundle.Bundle) (domain.Prediction, error) {
	var c Classifier
	return c.Classify(fv, b)
}

// Classify computes score_k = dot(fv, w_k) + b_k for every class and picks
// the highest score. Ties go to the class listed first.
//
// Bundles built by bundle.New are trusted; anything else is checked first
// and fails with domain.ErrEmptyModel or domain.ErrDimensionMismatch.
func (c *Classifier) Classify(fv features.Vector, b *bundle.Bundle) (domain.Prediction, error) {
	if !b.Validated() {
		if err := b.Check(); err != nil {
			return domain.Prediction{}, err
		}
	}

	raw := c.decision(fv, b)

	scores := make([]domain.Score, b.NumClasses())
	if b.Binary() {
		// A single row separates classes[1] (positive side) from classes[0].
		scores[0] = domain.Score{Label: b.Class(0), Score: -raw[0]}
		scores[1] = domain.Score{Label: b.Class(1), Score: raw[0]}
	} else {
		for k := range scores {
			scores[k] = domain.Score{Label: b.Class(k), Score: raw[k]}
		}
	}

	best := 0
	for k := 1; k < len(scores); k++ {
		if scores[k].Score > scores[best].Score {
			best = k
		}
	}

	return domain.Prediction{
		Label:      scores[best].Label,
		Index:      best,
		Scores:     scores,
		Confidence: Confidence(scores),
	}, nil
}

func (c *Classifier) decision(fv features.Vector, b *bundle.Bundle) []float64 {
	rows := b.NumRows()
	out := make([]float64, rows)

	if c.parallelism <= 1 || rows < 2*chunkSize {
		scoreRange(fv, b, out, 0, rows)
		return out
	}

	// Each goroutine writes a disjoint range of out.
	var g errgroup.Group
	g.SetLimit(c.parallelism)
	for start := 0; start < rows; start += chunkSize {
		end := min(start+chunkSize, rows)
		g.Go(func() error {
			scoreRange(fv, b, out, start, end)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func scoreRange(fv features.Vector, b *bundle.Bundle, out []float64, start, end int) {
	for k := start; k < end; k++ {
		out[k] = fv.Dot(b.Row(k)) + b.Bias(k)
	}
}

// Confidence is the top-2 margin heuristic: min((top-second)/2 + 0.5, 1)
// rounded to two decimals. A single class is fully confident.
func Confidence(scores []domain.Score) float64 {
	if len(scores) < 2 {
		return 1
	}
	top, second := math.Inf(-1), math.Inf(-1)
	for _, s := range scores {
		if s.Score > top {
			second = top
			top = s.Score
		} else if s.Score > second {
			second = s.Score
		}
	}
	c := math.Min((top-second)/2+0.5, 1)
	return math.Round(c*100) / 100
}
