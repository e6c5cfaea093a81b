package bundle

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vidclass/internal/db"
	"github.com/kailas-cloud/vidclass/internal/domain"
	dombundle "github.com/kailas-cloud/vidclass/internal/domain/bundle"
	"github.com/kailas-cloud/vidclass/internal/metrics"
)

// RedisScheme prefixes bundle references stored in Redis.
const RedisScheme = "redis://"

var keyPrefix = domain.KeyPrefix + "bundle:"

// store is the consumer interface for bundle storage (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Repo loads serialized bundles from files or Redis.
type Repo struct {
	store  store
	logger *zap.Logger
}

// New creates a bundle repository. s may be nil when only file references
// are used.
func New(s store, logger *zap.Logger) *Repo {
	return &Repo{store: s, logger: logger}
}

// Key returns the Redis key a bundle named name is stored under.
func Key(name string) string {
	return keyPrefix + name
}

// Fetch returns the raw bytes behind ref: a file path, or redis://<name>.
func (r *Repo) Fetch(ctx context.Context, ref string) ([]byte, error) {
	if name, ok := strings.CutPrefix(ref, RedisScheme); ok {
		return r.fetchRedis(ctx, name)
	}
	return r.fetchFile(ref)
}

func (r *Repo) fetchFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrBundleNotFound, path)
		}
		return nil, fmt.Errorf("read bundle file: %w", err)
	}
	return data, nil
}

func (r *Repo) fetchRedis(ctx context.Context, name string) ([]byte, error) {
	if name == "" {
		return nil, fmt.Errorf("empty bundle name in %q", RedisScheme)
	}
	if r.store == nil {
		return nil, fmt.Errorf("bundle %q: no database configured", name)
	}
	data, err := r.store.Get(ctx, Key(name))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %s%s", domain.ErrBundleNotFound, RedisScheme, name)
		}
		return nil, fmt.Errorf("get bundle: %w", err)
	}
	return data, nil
}

// Load fetches and decodes the bundle behind ref.
func (r *Repo) Load(ctx context.Context, ref string) (*dombundle.Bundle, error) {
	source := sourceOf(ref)

	raw, err := r.Fetch(ctx, ref)
	if err != nil {
		r.observe(source, "error")
		return nil, err
	}

	b, err := Decode(raw)
	if err != nil {
		r.observe(source, "invalid")
		return nil, fmt.Errorf("decode %s: %w", ref, err)
	}

	r.observe(source, "ok")
	metrics.BundleInfo.Reset()
	metrics.BundleInfo.WithLabelValues(b.Fingerprint(), strings.Join(b.Classes(), ",")).Set(float64(b.VocabularySize()))
	r.logger.Info("Bundle loaded",
		zap.String("ref", ref),
		zap.String("fingerprint", b.Fingerprint()),
		zap.Int("vocabulary", b.VocabularySize()),
		zap.Int("classes", b.NumClasses()),
	)
	return b, nil
}

// Publish validates raw and stores it under name. Invalid bundles are
// rejected before anything is written.
func (r *Repo) Publish(ctx context.Context, name string, raw []byte) (*dombundle.Bundle, error) {
	if name == "" {
		return nil, fmt.Errorf("bundle name is required")
	}
	if r.store == nil {
		return nil, fmt.Errorf("bundle %q: no database configured", name)
	}

	b, err := Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("validate bundle: %w", err)
	}
	if err := r.store.Set(ctx, Key(name), raw); err != nil {
		return nil, fmt.Errorf("store bundle: %w", err)
	}

	r.logger.Info("Bundle published",
		zap.String("key", Key(name)),
		zap.String("fingerprint", b.Fingerprint()),
	)
	return b, nil
}

func (r *Repo) observe(source, status string) {
	metrics.BundleLoadsTotal.WithLabelValues(source, status).Inc()
}

func sourceOf(ref string) string {
	if strings.HasPrefix(ref, RedisScheme) {
		return "redis"
	}
	return "file"
}
