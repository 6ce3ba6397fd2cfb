package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/jobmatch/internal/embedding"
	"github.com/spigell/jobmatch/internal/logger"
	"github.com/spigell/jobmatch/internal/matching"
	"github.com/spigell/jobmatch/internal/ranking"
	"github.com/spigell/jobmatch/internal/repository"
	"github.com/spigell/jobmatch/internal/secrets"
	"github.com/spigell/jobmatch/internal/vectorstore"
)

const (
	storeChroma = "chroma"
	storeMemory = "memory"
	storeNone   = "none"

	embeddingGemini = "gemini"
	embeddingHash   = "hash"
)

// deps holds everything a command may need. Fields are nil when the
// command did not ask for them.
type deps struct {
	config *Config
	logger *zap.Logger

	repo    repository.Repository
	adapter *vectorstore.Adapter
	engine  *matching.Engine
	ranker  *ranking.Ranker

	closers []func() error
}

type depsOptions struct {
	repository bool
	store      bool
	engine     bool
}

// command runs fn with a configured logger and dependencies, exiting on error.
func command(opts depsOptions, fn func(ctx context.Context, cmd *cobra.Command, d *deps) error) func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, _ []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
		if err != nil {
			log.Fatalf("creating a logger: %s", err)
		}
		defer logger.Sync()

		config, err := getConfig()
		if err != nil {
			logger.Fatal("getting a config", zap.Error(err))
		}

		d, err := newDeps(ctx, config, logger, opts)
		if err != nil {
			logger.Fatal("preparing dependencies", zap.Error(err))
		}
		defer d.close()

		if err := fn(ctx, cmd, d); err != nil {
			d.close()
			logger.Fatal(cmd.Name()+" failed", zap.Error(err))
		}
	}
}

func newDeps(ctx context.Context, config *Config, logger *zap.Logger, opts depsOptions) (*deps, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}

	d := &deps{config: config, logger: logger}

	if opts.repository {
		repo, err := repository.Open(ctx, config.Repository, logger)
		if err != nil {
			return nil, fmt.Errorf("opening repository: %w", err)
		}
		d.repo = repo
		d.closers = append(d.closers, repo.Close)
	}

	if opts.store || opts.engine {
		adapter, err := d.buildStore(ctx)
		if err != nil {
			d.close()
			return nil, err
		}
		d.adapter = adapter
	}

	if opts.engine {
		if err := d.buildEngine(); err != nil {
			d.close()
			return nil, err
		}
	}

	return d, nil
}

func (d *deps) close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			d.logger.Debug("closing dependency", zap.Error(err))
		}
	}
	d.closers = nil
}

// buildStore returns nil when the vector store is disabled.
func (d *deps) buildStore(ctx context.Context) (*vectorstore.Adapter, error) {
	cfg := d.config.Store
	if cfg == nil {
		cfg = &StoreConfig{Provider: storeMemory}
	}

	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == storeNone {
		d.logger.Info("vector store disabled, scoring on exact matching only")
		return nil, nil
	}

	embedder, err := d.buildEmbedder(ctx)
	if err != nil {
		return nil, err
	}

	var store vectorstore.Store
	switch provider {
	case storeMemory, "":
		store = vectorstore.NewMemory(embedder)
	case storeChroma:
		if cfg.Chroma == nil {
			return nil, errors.New("store.chroma section is required for the chroma provider")
		}
		token, err := secrets.LoadOptional(secrets.Source{
			Name: "chroma token",
			File: cfg.Chroma.TokenFile,
			Env:  "CHROMA_TOKEN",
		})
		if err != nil {
			return nil, err
		}
		store = vectorstore.NewChroma(vectorstore.ChromaConfig{
			URL:        cfg.Chroma.URL,
			APIVersion: cfg.Chroma.APIVersion,
			Tenant:     cfg.Chroma.Tenant,
			Database:   cfg.Chroma.Database,
			Collection: cfg.Chroma.Collection,
			Token:      token,
			RateLimit:  cfg.Chroma.RateLimit,
		}, embedder, d.logger.With(zap.String(logger.FieldStore, storeChroma)))
	default:
		return nil, fmt.Errorf("unsupported store provider: %s", cfg.Provider)
	}

	adapter := vectorstore.NewAdapter(store, cfg.Timeout, d.logger).WithCooldown(cfg.Cooldown)
	d.closers = append(d.closers, adapter.Close)
	return adapter, nil
}

func (d *deps) buildEmbedder(ctx context.Context) (embedding.Embedder, error) {
	cfg := d.config.Embedding
	if cfg == nil {
		cfg = &EmbeddingConfig{Provider: embeddingHash}
	}

	var inner embedding.Embedder
	switch provider := strings.ToLower(strings.TrimSpace(cfg.Provider)); provider {
	case embeddingHash, "":
		inner = embedding.NewHash(cfg.HashDimensions)
	case embeddingGemini:
		g, err := d.buildGemini(ctx, cfg.Gemini)
		if err != nil {
			return nil, err
		}
		inner = g
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}

	if cfg.Cache == nil {
		return embedding.NewCache(inner, nil, 0, d.logger), nil
	}

	url := strings.TrimSpace(cfg.Cache.RedisURL)
	if url == "" {
		return embedding.NewCache(inner, nil, cfg.Cache.TTL, d.logger), nil
	}

	rdb, err := embedding.ConnectRedis(ctx, url)
	if err != nil {
		// The in-memory tier still works without redis.
		d.logger.Warn("embedding cache redis unavailable", zap.Error(err))
		return embedding.NewCache(inner, nil, cfg.Cache.TTL, d.logger), nil
	}
	d.closers = append(d.closers, rdb.Close)

	return embedding.NewCache(inner, rdb, cfg.Cache.TTL, d.logger), nil
}

func (d *deps) buildGemini(ctx context.Context, cfg *GeminiConfig) (*embedding.Gemini, error) {
	if cfg == nil {
		cfg = &GeminiConfig{}
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.APIKeyFile,
		Env:  "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set embedding.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	return embedding.NewGemini(ctx, apiKey, cfg.Model, d.logger.With(
		zap.String("provider", embeddingGemini),
		zap.String("model", cfg.Model),
	))
}

func (d *deps) buildEngine() error {
	engineCfg := matching.DefaultConfig()
	if m := d.config.Matching; m != nil {
		engineCfg.Weights = m.Weights
		engineCfg.Neighbors = m.SimilarityK
		engineCfg.SimilarityTimeout = m.SimilarityTimeout
		engineCfg.NoMatchSimilarity = m.NoMatchSimilarity
		engineCfg.UpsertOnMatch = m.UpsertOnMatch
	}

	var index matching.VectorIndex
	if d.adapter != nil {
		index = d.adapter
	}

	engine, err := matching.NewEngine(engineCfg, index, d.logger)
	if err != nil {
		return fmt.Errorf("building engine: %w", err)
	}
	d.engine = engine

	ranker, err := ranking.NewRanker(engine, d.config.Ranking, d.logger)
	if err != nil {
		return fmt.Errorf("building ranker: %w", err)
	}
	d.ranker = ranker

	return nil
}
