package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hyperjump/ticketrag/internal/config"
	"github.com/hyperjump/ticketrag/internal/embedding"
	"github.com/hyperjump/ticketrag/internal/extract"
	"github.com/hyperjump/ticketrag/internal/fetch"
	"github.com/hyperjump/ticketrag/internal/indexer"
	"github.com/hyperjump/ticketrag/internal/llm"
	"github.com/hyperjump/ticketrag/internal/metrics"
	"github.com/hyperjump/ticketrag/internal/search"
	"github.com/hyperjump/ticketrag/internal/server"
	"github.com/hyperjump/ticketrag/internal/synonyms"
	"github.com/hyperjump/ticketrag/internal/tickets"
	"github.com/hyperjump/ticketrag/internal/vector"
	"github.com/hyperjump/ticketrag/internal/watcher"
	"github.com/hyperjump/ticketrag/pkg/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServerCmd() *cobra.Command {
	var (
		configPath string
		debug      bool
	)
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(configPath, debug)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", defaultConfigPath, "config file path")
	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")
	return cmd
}

func runServer(configPath string, debug bool) error {
	cfg, resolvedConfigPath, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	debugMode := cfg.Debug || debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
		zap.String("backend", cfg.Vector.Backend),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize components: %w", err)
	}
	defer components.Close()

	if path := cfg.RAG.SynonymsPath; path != "" {
		table := components.Synonyms
		w := watcher.NewWatcher([]string{path}, func(changed string) {
			if err := table.Reload(changed); err != nil {
				logger.Warn("synonyms reload failed, keeping previous table", zap.String("path", changed), zap.Error(err))
				return
			}
			logger.Info("synonyms reloaded", zap.String("path", changed), zap.Int("entries", table.Len()))
		}, watcher.WithLogger(logger))
		if err := w.Start(ctx); err != nil {
			logger.Warn("synonyms watcher not started", zap.String("path", path), zap.Error(err))
		} else {
			defer w.Stop()
		}
	}

	srv := server.NewServer(components.Engine, components.Store, cfg, logger, server.WithMetrics(components.Metrics))
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigChan:
	case err := <-errCh:
		logger.Error("Server failed", zap.Error(err))
	}

	logger.Info("Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	components.saveSnapshot(cfg, logger)
	return nil
}

// Components holds the long-lived pieces shared by the server.
type Components struct {
	Store    vector.Store
	Embedder embedding.Embedder
	Engine   *search.Engine
	Metrics  *metrics.Metrics
	Synonyms *synonyms.Table
}

// Close releases the store and the embedding model.
func (c *Components) Close() {
	if c.Store != nil {
		_ = c.Store.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
}

// saveSnapshot persists the memory backend to vector.path.
func (c *Components) saveSnapshot(cfg *config.Config, logger *zap.Logger) {
	snap, ok := c.Store.(vector.Snapshotter)
	if !ok || cfg.Vector.Path == "" {
		return
	}
	if err := snap.Save(cfg.Vector.Path); err != nil {
		logger.Warn("vector snapshot save failed", zap.String("path", cfg.Vector.Path), zap.Error(err))
		return
	}
	logger.Info("vector snapshot saved", zap.String("path", cfg.Vector.Path))
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	m := metrics.New()
	embedder := embedding.New(&cfg.Embedding, logger)

	store, err := vector.NewStore(ctx, &cfg.Vector, embedder.Dimensions())
	if err != nil {
		_ = embedder.Close()
		return nil, fmt.Errorf("failed to initialize vector store: %w", err)
	}
	logger.Info("vector store initialized",
		zap.String("backend", store.Backend()),
		zap.String("collection", cfg.Vector.Collection),
	)

	fetcher := fetch.NewHTTPFetcher(cfg.Fetch.Timeout, cfg.Fetch.MaxBytes,
		fetch.WithUserAgent(cfg.Fetch.UserAgent),
		fetch.WithLogger(logger),
	)
	idx := indexer.NewIndexer(
		extract.NewExtractor(fetcher, extract.WithLogger(logger)),
		embedder, store, &cfg.RAG,
		indexer.WithLogger(logger),
		indexer.WithMetrics(m),
	)

	table := synonyms.Default()
	table.SetMaxEdits(cfg.RAG.SynonymMaxEdits)
	if cfg.RAG.SynonymsPath != "" {
		if err := table.Reload(cfg.RAG.SynonymsPath); err != nil {
			logger.Warn("synonyms file not loaded, using built-in table",
				zap.String("path", cfg.RAG.SynonymsPath),
				zap.Error(err),
			)
		}
	}

	opts := []search.EngineOption{
		search.WithLogger(logger),
		search.WithMetrics(m),
		search.WithSynonyms(table),
	}
	completer, err := llm.NewClient(&cfg.LLM, llm.WithLogger(logger))
	switch {
	case err == nil:
		opts = append(opts, search.WithCompleter(completer))
	case errors.Is(err, llm.ErrDisabled):
		logger.Info("answer synthesis disabled")
	default:
		logger.Warn("language model client not created, answers disabled", zap.Error(err))
	}

	engine := search.NewEngine(
		tickets.NewClient(&cfg.Tickets, tickets.WithLogger(logger)),
		idx, embedder, store, &cfg.RAG, opts...,
	)
	return &Components{
		Store:    store,
		Embedder: embedder,
		Engine:   engine,
		Metrics:  m,
		Synonyms: table,
	}, nil
}
