package batch

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	dombatch "github.com/kailas-cloud/vidclass/internal/domain/batch"
)

// MaxBatchSize is the default number of items a caller should hand over per call.
const MaxBatchSize = 256

// ErrMissingID is reported for items without an identifier.
var ErrMissingID = errors.New("item id is required")

// Service classifies batches of videos with per-item error reporting.
type Service struct {
	classifier Classifier
	workers    int
}

// New creates a batch service.
func New(c Classifier) *Service {
	return &Service{classifier: c, workers: 1}
}

// WithWorkers configures how many items are classified concurrently when
// the batch call fails and items are retried one by one.
func (s *Service) WithWorkers(n int) *Service {
	if n > 0 {
		s.workers = n
	}
	return s
}

// Classify labels every item. Valid items go to the classifier in a single
// batch call; if that call fails they are classified one by one, so a
// failing item never affects the others. Items not started before ctx is
// done fail with the context error.
func (s *Service) Classify(ctx context.Context, items []dombatch.Item) []dombatch.Result {
	results := make([]dombatch.Result, len(items))

	pending := make([]int, 0, len(items))
	for i, item := range items {
		if item.ID == "" {
			results[i] = dombatch.NewError(item.ID, ErrMissingID)
			continue
		}
		pending = append(pending, i)
	}
	if len(pending) == 0 {
		return results
	}

	if ctx.Err() == nil && s.classifyBatch(ctx, items, pending, results) {
		return results
	}
	s.classifyEach(ctx, items, pending, results)
	return results
}

// classifyBatch fills results for pending items with one batch call and
// reports whether it succeeded.
func (s *Service) classifyBatch(ctx context.Context, items []dombatch.Item, pending []int, results []dombatch.Result) bool {
	texts := make([]string, len(pending))
	for j, i := range pending {
		texts[j] = items[i].Text()
	}

	preds, err := s.classifier.ClassifyBatch(ctx, texts)
	if err != nil || len(preds) != len(texts) {
		return false
	}
	for j, i := range pending {
		results[i] = dombatch.NewOK(items[i].ID, preds[j])
	}
	return true
}

func (s *Service) classifyEach(ctx context.Context, items []dombatch.Item, pending []int, results []dombatch.Result) {
	var g errgroup.Group
	g.SetLimit(s.workers)

	for _, i := range pending {
		item := items[i]
		if err := ctx.Err(); err != nil {
			results[i] = dombatch.NewError(item.ID, err)
			continue
		}
		g.Go(func() error {
			p, err := s.classifier.Classify(ctx, item.Text())
			if err != nil {
				results[i] = dombatch.NewError(item.ID, fmt.Errorf("classify: %w", err))
				return nil
			}
			results[i] = dombatch.NewOK(item.ID, p)
			return nil
		})
	}
	_ = g.Wait()
}
