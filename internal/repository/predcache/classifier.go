package predcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vidclass/internal/db"
	"github.com/kailas-cloud/vidclass/internal/domain"
)

var cacheKeyPrefix = domain.KeyPrefix + "pred:"

var _ domain.BatchingClassifier = (*CachedClassifier)(nil)

// store is the consumer interface for the prediction cache (ISP).
type store interface {
	GetCached(ctx context.Context, key string, ttl time.Duration) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedClassifier caches predictions in a key-value store. Keys include the
// bundle fingerprint, so loading a different bundle never serves stale labels.
type CachedClassifier struct {
	inner       domain.BatchingClassifier
	store       store
	fingerprint string
	ttl         time.Duration
	cacheTotal  *prometheus.CounterVec
	logger      *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner domain.BatchingClassifier,
	s store,
	fingerprint string,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedClassifier {
	return &CachedClassifier{
		inner:       inner,
		store:       s,
		fingerprint: fingerprint,
		ttl:         ttl,
		cacheTotal:  cacheTotal,
		logger:      logger,
	}
}

// Classify returns a cached prediction or calls the inner classifier.
// Store failures are logged and never fail the call.
func (c *CachedClassifier) Classify(ctx context.Context, text string) (domain.Prediction, error) {
	key := c.cacheKey(text)

	if p, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return p, nil
	}

	c.incCache("miss")

	p, err := c.inner.Classify(ctx, text)
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("classify text: %w", err)
	}

	c.putToCache(ctx, key, p)
	return p, nil
}

// ClassifyBatch serves hits from the cache and classifies the misses in one
// inner batch call.
func (c *CachedClassifier) ClassifyBatch(ctx context.Context, texts []string) ([]domain.Prediction, error) {
	out := make([]domain.Prediction, len(texts))
	keys := make([]string, len(texts))
	var missIdx []int
	var missTexts []string

	for i, text := range texts {
		keys[i] = c.cacheKey(text)
		if p, ok := c.getFromCache(ctx, keys[i]); ok {
			c.incCache("hit")
			out[i] = p
			continue
		}
		c.incCache("miss")
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	preds, err := c.inner.ClassifyBatch(ctx, missTexts)
	if err != nil {
		return nil, fmt.Errorf("classify batch: %w", err)
	}
	if len(preds) != len(missTexts) {
		return nil, fmt.Errorf("classify batch: got %d predictions for %d texts", len(preds), len(missTexts))
	}

	for j, i := range missIdx {
		out[i] = preds[j]
		c.putToCache(ctx, keys[i], preds[j])
	}
	return out, nil
}

func (c *CachedClassifier) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedClassifier) cacheKey(text string) string {
	h := sha256.Sum256([]byte(text))
	return cacheKeyPrefix + c.fingerprint + ":" + hex.EncodeToString(h[:])
}

func (c *CachedClassifier) getFromCache(ctx context.Context, key string) (domain.Prediction, bool) {
	data, err := c.store.GetCached(ctx, key, c.ttl)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached prediction", zap.String("key", key), zap.Error(err))
		}
		return domain.Prediction{}, false
	}
	if len(data) == 0 {
		return domain.Prediction{}, false
	}

	var p domain.Prediction
	if err := json.Unmarshal(data, &p); err != nil {
		c.logger.Warn("Failed to parse cached prediction", zap.String("key", key), zap.Error(err))
		return domain.Prediction{}, false
	}
	return p, true
}

func (c *CachedClassifier) putToCache(ctx context.Context, key string, p domain.Prediction) {
	data, err := json.Marshal(p)
	if err != nil {
		c.logger.Warn("Failed to encode prediction", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache prediction", zap.String("key", key), zap.Error(err))
	}
}
