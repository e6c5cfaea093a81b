package batch

import "github.com/kailas-cloud/vidclass/internal/domain"

// ItemStatus is the processing outcome of a single batch item.
type ItemStatus string

// Batch item status values.
const (
	StatusOK    ItemStatus = "ok"
	StatusError ItemStatus = "error"
)

// Item is one video to classify.
type Item struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Text returns the classifier input built from title and description.
func (i Item) Text() string { return domain.VideoText(i.Title, i.Description) }

// Result is the outcome of classifying one item.
type Result struct {
	id         string
	status     ItemStatus
	prediction domain.Prediction
	err        error
}

// NewOK creates a successful batch result.
func NewOK(id string, p domain.Prediction) Result {
	return Result{id: id, status: StatusOK, prediction: p}
}

// NewError creates a failed batch result.
func NewError(id string, err error) Result { return Result{id: id, status: StatusError, err: err} }

// ID returns the item identifier.
func (r Result) ID() string { return r.id }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// Prediction returns the classification, zero for failed items.
func (r Result) Prediction() domain.Prediction { return r.prediction }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }
