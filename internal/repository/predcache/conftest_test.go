package predcache

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vidclass/internal/db"
	"github.com/kailas-cloud/vidclass/internal/domain"
)

const testFingerprint = "abc123"

type mockClassifier struct {
	pred       domain.Prediction
	err        error
	calls      int
	batchCalls int
	batchTexts []string
}

func (m *mockClassifier) Classify(_ context.Context, text string) (domain.Prediction, error) {
	m.calls++
	if m.err != nil {
		return domain.Prediction{}, m.err
	}
	p := m.pred
	p.Label = text
	return p, nil
}

func (m *mockClassifier) ClassifyBatch(ctx context.Context, texts []string) ([]domain.Prediction, error) {
	m.batchCalls++
	m.batchTexts = append(m.batchTexts, texts...)
	out := make([]domain.Prediction, len(texts))
	for i, text := range texts {
		p, err := m.Classify(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

// mockKVStore is an in-memory consumer interface implementation.
type mockKVStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func newMockKVStore() *mockKVStore {
	return &mockKVStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *mockKVStore) GetCached(_ context.Context, key string, _ time.Duration) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockKVStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func newTestCachedClassifier(t *testing.T, inner domain.BatchingClassifier) (*CachedClassifier, *mockKVStore) {
	t.Helper()
	ms := newMockKVStore()
	cc := New(inner, ms, testFingerprint, time.Hour, nil, zap.NewNop())
	return cc, ms
}
