package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/casedex/internal/config"
	"github.com/kailas-cloud/casedex/internal/db"
	dbRedis "github.com/kailas-cloud/casedex/internal/db/redis"
	"github.com/kailas-cloud/casedex/internal/domain"
	"github.com/kailas-cloud/casedex/internal/kg"
	logpkg "github.com/kailas-cloud/casedex/internal/logger"
	"github.com/kailas-cloud/casedex/internal/metrics"
	"github.com/kailas-cloud/casedex/internal/repository/embcache"
	"github.com/kailas-cloud/casedex/internal/repository/snapshot"
	openaiTransport "github.com/kailas-cloud/casedex/internal/transport/openai"
	taggerTransport "github.com/kailas-cloud/casedex/internal/transport/tagger"
)

// app is the composition root shared by the subcommands. Collaborators are
// created lazily so commands only pay for what they use.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	store  db.Store
}

func newApp() (*app, error) {
	cfg, err := config.Load(envName)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(envName, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	metrics.Register()

	return &app{cfg: cfg, logger: logger}, nil
}

func (a *app) Close() {
	if a.store != nil {
		a.store.Close()
	}
	_ = a.logger.Sync()
}

// database connects to the key-value store on first use.
func (a *app) database(ctx context.Context) (db.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	if len(a.cfg.Database.Addrs) == 0 {
		return nil, fmt.Errorf("database.addrs is not configured")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    a.cfg.Database.Addrs,
		Username: a.cfg.Database.Username,
		Password: a.cfg.Database.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create database store: %w", err)
	}

	timeout := time.Duration(a.cfg.Database.ReadinessTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if err := store.WaitForReady(ctx, timeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}

	a.store = store
	a.logger.Info("Connected to database", zap.Strings("addrs", a.cfg.Database.Addrs))
	return store, nil
}

// embedder assembles the decorator chain: OpenAI -> Cached.
func (a *app) embedder(ctx context.Context) (domain.Embedder, error) {
	embCfg := a.cfg.Embedding
	if embCfg.APIKey == "" {
		return nil, fmt.Errorf("embedding.api_key is required")
	}

	base := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     embCfg.APIKey,
		BaseURL:    embCfg.BaseURL,
		Model:      embCfg.Model,
		Dimensions: embCfg.Dimensions,
		Provider:   embCfg.Provider,
		MaxRetries: embCfg.MaxRetries,
		Logger:     a.logger,
	})

	if !embCfg.Cache {
		return base, nil
	}
	store, err := a.database(ctx)
	if err != nil {
		return nil, fmt.Errorf("embedding cache: %w", err)
	}
	return embcache.New(base, store, metrics.EmbeddingCacheTotal, a.logger), nil
}

// tagger selects the external tagging service or the heuristic fallback.
func (a *app) tagger() domain.Tagger {
	if a.cfg.Tagger.URL == "" {
		a.logger.Info("No tagger service configured, using heuristic fallback")
		return domain.FallbackTagger{}
	}
	return taggerTransport.NewClient(&taggerTransport.Config{
		URL:        a.cfg.Tagger.URL,
		TimeoutSec: a.cfg.Tagger.TimeoutSec,
		MaxRetries: a.cfg.Tagger.MaxRetries,
		Logger:     a.logger,
	})
}

// textGenerator returns nil when generation is not configured; the engine
// then emits labeled placeholders instead of calling a provider.
func (a *app) textGenerator() domain.TextGenerator {
	genCfg := a.cfg.Generation
	if genCfg.APIKey == "" {
		a.logger.Info("No generation provider configured, placeholder synthesis enabled")
		return nil
	}
	return openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
		APIKey:      genCfg.APIKey,
		BaseURL:     genCfg.BaseURL,
		Model:       genCfg.Model,
		Temperature: genCfg.Temperature,
		MaxAttempts: genCfg.MaxAttempts,
		BackoffSec:  genCfg.BackoffSec,
		Logger:      a.logger,
	})
}

// loadSnapshot rehydrates the given components from the configured backend.
// A snapshot that was never written reports ErrCorpusNotBuilt.
func (a *app) loadSnapshot(ctx context.Context, c snapshot.Components) (*kg.Result, error) {
	repo, err := a.snapshotRepo(ctx)
	if err != nil {
		return nil, err
	}
	result, err := repo.Load(ctx, c)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, db.ErrKeyNotFound) {
			return nil, fmt.Errorf("no snapshot found, run \"casedex build\" first: %w", domain.ErrCorpusNotBuilt)
		}
		return nil, err
	}
	return result, nil
}

// snapshotRepo builds the snapshot repository for the configured backend.
func (a *app) snapshotRepo(ctx context.Context) (*snapshot.Repository, error) {
	switch a.cfg.Snapshot.Backend {
	case "redis":
		store, err := a.database(ctx)
		if err != nil {
			return nil, fmt.Errorf("snapshot backend: %w", err)
		}
		return snapshot.NewRepository(snapshot.NewKVBackend(store, a.cfg.Snapshot.Key), a.logger), nil
	default:
		return snapshot.NewRepository(snapshot.NewFileBackend(a.cfg.Snapshot.Path), a.logger), nil
	}
}
