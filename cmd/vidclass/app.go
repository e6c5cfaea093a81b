package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gonuts/commander"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vidclass/internal/config"
	"github.com/kailas-cloud/vidclass/internal/db"
	dbRedis "github.com/kailas-cloud/vidclass/internal/db/redis"
	"github.com/kailas-cloud/vidclass/internal/domain"
	dombundle "github.com/kailas-cloud/vidclass/internal/domain/bundle"
	"github.com/kailas-cloud/vidclass/internal/engine/linear"
	logpkg "github.com/kailas-cloud/vidclass/internal/logger"
	"github.com/kailas-cloud/vidclass/internal/metrics"
	bundlerepo "github.com/kailas-cloud/vidclass/internal/repository/bundle"
	"github.com/kailas-cloud/vidclass/internal/repository/predcache"
	classifyuc "github.com/kailas-cloud/vidclass/internal/usecase/classify"
)

// commonFlags are registered on every sub-command that loads a bundle.
type commonFlags struct {
	env    string
	bundle string
}

func addCommonFlags(cmd *commander.Command, f *commonFlags) {
	cmd.Flag.StringVar(&f.env, "env", config.GetEnv(), "config environment (config/<env>.yaml)")
	cmd.Flag.StringVar(&f.bundle, "bundle", "", "bundle file or redis://<name>, overrides model.ref")
}

// app is the composition root shared by the sub-commands.
type app struct {
	env     string
	cfg     config.Config
	logger  *zap.Logger
	store   db.Store // nil without database.addrs
	bundles *bundlerepo.Repo
}

func newApp(ctx context.Context, f commonFlags) (*app, error) {
	cfg, err := config.Load(f.env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if f.bundle != "" {
		cfg.Model.Ref = f.bundle
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
	}

	logger, err := logpkg.NewLogger(f.env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	metrics.RegisterClassifyMetrics()
	metrics.RegisterOpsMetrics()

	a := &app{env: f.env, cfg: cfg, logger: logger}

	if cfg.Database.Enabled() {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:       cfg.Database.Addrs,
			Username:    cfg.Database.Username,
			Password:    cfg.Database.Password,
			DB:          cfg.Database.DB,
			ClientCache: cfg.Database.ClientCache,
		})
		if err != nil {
			return nil, fmt.Errorf("create database store: %w", err)
		}
		timeout := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, timeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("database not ready: %w", err)
		}
		logger.Debug("Connected to database", zap.Strings("addrs", cfg.Database.Addrs))
		a.store = store
	}

	// a.store stays a nil interface, never a typed nil pointer, without a database.
	a.bundles = bundlerepo.New(a.store, logger)
	return a, nil
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
	}
	_ = a.logger.Sync()
}

// loadBundle loads the configured model.
func (a *app) loadBundle(ctx context.Context) (*dombundle.Bundle, error) {
	b, err := a.bundles.Load(ctx, a.cfg.Model.Ref)
	if err != nil {
		return nil, fmt.Errorf("load bundle: %w", err)
	}
	return b, nil
}

// newService builds the classification service for b.
func (a *app) newService(b *dombundle.Bundle) *classifyuc.Service {
	lc := linear.New(linear.WithParallelism(a.cfg.Classify.Parallelism))
	return classifyuc.New(b, lc).WithWorkers(a.cfg.Classify.Workers)
}

// buildClassifier assembles the decorator chain: base -> cached -> instrumented.
func (a *app) buildClassifier(svc *classifyuc.Service) *classifyuc.InstrumentedClassifier {
	var c domain.BatchingClassifier = svc

	if a.cfg.Cache.Enabled && a.store != nil {
		c = predcache.New(
			c, a.store, svc.Bundle().Fingerprint(),
			time.Duration(a.cfg.Cache.TTLSec)*time.Second,
			metrics.PredictionCacheTotal, a.logger,
		)
		a.logger.Debug("Prediction cache enabled", zap.Int("ttl_sec", a.cfg.Cache.TTLSec))
	}

	return classifyuc.NewInstrumentedClassifier(c, a.logger)
}
