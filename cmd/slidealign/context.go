package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"slidealign/internal/config"
	"slidealign/internal/embedding"
	"slidealign/internal/embedding/onnx"
	"slidealign/internal/embedding/openai"
	"slidealign/internal/embedding/tfidf"
	"slidealign/internal/logging"
	"slidealign/internal/metrics"
	"slidealign/internal/service"
	"slidealign/internal/store"
	"slidealign/internal/transcript"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.AppConfig
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag, logLevelFlag: logLevelFlag}
}

func (c *commandContext) ensureConfig() (*config.AppConfig, error) {
	c.configOnce.Do(func() {
		path := ""
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		if path == "" {
			c.config, c.configPath, c.configErr = config.LoadDefault()
			return
		}
		c.config, c.configErr = config.Load(path)
		c.configPath = path
	})
	if c.configErr != nil {
		return nil, fmt.Errorf("load config: %w", c.configErr)
	}
	return c.config, nil
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		level := cfg.Log.Level
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			level = *c.logLevelFlag
		}
		c.logger, c.loggerErr = logging.New(logging.Options{Level: level, Format: cfg.Log.Format})
	})
	return c.logger, c.loggerErr
}

// app bundles what a command needs to align lectures.
type app struct {
	cfg     *config.AppConfig
	logger  *slog.Logger
	svc     *service.AlignService
	store   *store.Store
	metrics *metrics.Metrics
	closers []func() error
}

func (r *app) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i]())
	}
	return errors.Join(errs...)
}

// newRuntime builds the embedder, the optional run store and the service.
func (c *commandContext) newRuntime(ctx context.Context, withMetrics bool) (*app, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	rt := &app{cfg: cfg, logger: logger}

	emb, closeEmb, err := newEmbedder(cfg.Embedder)
	if err != nil {
		return nil, err
	}
	if closeEmb != nil {
		rt.closers = append(rt.closers, closeEmb)
	}

	opts := service.Options{Logger: logger}
	if cfg.Store.Enabled {
		st, err := store.Open(ctx, cfg.Store.Path)
		if err != nil {
			_ = rt.Close()
			return nil, err
		}
		rt.store = st
		rt.closers = append(rt.closers, st.Close)
		opts.Store = st
	}
	if withMetrics {
		rt.metrics = metrics.New()
		opts.Metrics = rt.metrics
	}

	cleaner := transcript.NewCleaner(transcript.Options{
		MinLength:   cfg.Transcript.MinLength,
		Fillers:     cfg.Transcript.Fillers,
		SkipMarkers: cfg.Transcript.SkipMarkers,
	})
	defaults := service.Params{WindowSize: cfg.Alignment.WindowSize, Threshold: cfg.Alignment.SimilarityThreshold}
	rt.svc = service.NewAlignService(emb, cleaner, defaults, opts)
	logger.Debug("runtime ready", "embedder", emb.Name(), "store", cfg.Store.Enabled, "config", c.configPath)
	return rt, nil
}

func newEmbedder(cfg config.EmbedderConfig) (embedding.Embedder, func() error, error) {
	switch cfg.Type {
	case "tfidf", "":
		return tfidf.NewEmbedder(cfg.Stopwords...), nil, nil
	case "openai":
		if cfg.OpenAI == nil {
			return nil, nil, errors.New("openai embedder config missing")
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:    cfg.OpenAI.BaseURL,
			APIKeyEnv:  cfg.OpenAI.APIKeyEnv,
			Model:      cfg.OpenAI.Model,
			Dimensions: cfg.OpenAI.Dimensions,
			Timeout:    time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
			MaxRetries: cfg.OpenAI.MaxRetries,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("openai embedder init failed: %w", err)
		}
		return client, nil, nil
	case "onnx":
		if cfg.ONNX == nil {
			return nil, nil, errors.New("onnx embedder config missing")
		}
		model, err := onnx.New(onnx.Config{
			ModelPath:     cfg.ONNX.ModelPath,
			TokenizerPath: cfg.ONNX.TokenizerPath,
			LibraryPath:   cfg.ONNX.LibraryPath,
			Dimension:     cfg.ONNX.Dimension,
			MaxTokens:     cfg.ONNX.MaxTokens,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("onnx embedder init failed: %w", err)
		}
		return model, model.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown embedder: %s", cfg.Type)
	}
}
