package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/glassbox/internal/config"
	"github.com/kailas-cloud/glassbox/internal/db"
	dbRedis "github.com/kailas-cloud/glassbox/internal/db/redis"
	"github.com/kailas-cloud/glassbox/internal/domain"
	"github.com/kailas-cloud/glassbox/internal/domain/section"
	logpkg "github.com/kailas-cloud/glassbox/internal/logger"
	"github.com/kailas-cloud/glassbox/internal/metrics"
	archiverepo "github.com/kailas-cloud/glassbox/internal/repository/archive"
	anthropicGen "github.com/kailas-cloud/glassbox/internal/transport/anthropic"
	chiTransport "github.com/kailas-cloud/glassbox/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/glassbox/internal/transport/openai"
	chunkinguc "github.com/kailas-cloud/glassbox/internal/usecase/chunking"
	generationuc "github.com/kailas-cloud/glassbox/internal/usecase/generation"
	healthuc "github.com/kailas-cloud/glassbox/internal/usecase/health"
	indexuc "github.com/kailas-cloud/glassbox/internal/usecase/index"
	pipelineuc "github.com/kailas-cloud/glassbox/internal/usecase/pipeline"
	retrievaluc "github.com/kailas-cloud/glassbox/internal/usecase/retrieval"
	"github.com/kailas-cloud/glassbox/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting glassbox API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("generation_provider", cfg.Generation.Provider),
		zap.Int("sections", len(cfg.Sections)),
	)

	// Create document store. rueidis serves both drivers.
	var store db.Store
	switch cfg.Database.Driver {
	case "valkey", "redis":
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
	default:
		logger.Fatal("Unknown database driver", zap.String("driver", cfg.Database.Driver))
	}
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register provider metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterGenerationMetrics()

	// Build embedder chain — composition root
	docEmbedder := buildEmbedder(cfg.Embedding, cfg.Embedding.DocumentInstruction, logger)
	queryEmbedder := buildEmbedder(cfg.Embedding, cfg.Embedding.QueryInstruction, logger)
	logger.Info("Embedders created",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	generator, genChecker := buildGenerator(cfg.Generation, logger)

	specs, err := sectionSpecs(cfg.Sections)
	if err != nil {
		logger.Fatal("Invalid section configuration", zap.Error(err))
	}

	// Create repositories and use case services
	archRepo := archiverepo.New(store, cfg.Storage.KeyPrefix)

	chunkSvc := chunkinguc.New(
		chunkinguc.NewMarkdownStrategy(),
		cfg.Chunking.MinChunkChars,
		cfg.Chunking.MaxChunkChars,
	)
	indexSvc := indexuc.New(docEmbedder)
	retrievalSvc := retrievaluc.New(queryEmbedder)

	genSvc := generationuc.New(retrievalSvc, generator).
		WithConcurrency(cfg.Generation.MaxConcurrent).
		WithRetry(
			cfg.Generation.MaxAttempts,
			time.Duration(cfg.Generation.InitialBackoffMS)*time.Millisecond,
			time.Duration(cfg.Generation.MaxBackoffMS)*time.Millisecond,
		)
	if cfg.Generation.RateLimitPerSec > 0 {
		genSvc = genSvc.WithRateLimiter(
			rate.NewLimiter(rate.Limit(cfg.Generation.RateLimitPerSec), 1),
		)
	}

	pipelineSvc := pipelineuc.New(chunkSvc, indexSvc, genSvc, archRepo, specs).
		WithMaxSourceBytes(cfg.Chunking.MaxSourceBytes).
		WithTimeout(time.Duration(cfg.HTTP.TransactionSec) * time.Second)

	healthSvc := healthuc.New(store, newProviderHealthChecker(docEmbedder), genChecker)

	// Create chi server
	server := chiTransport.NewServer(pipelineSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the embedder chain: OpenAI-compatible base, then an
// instruction prefix when the model wants one.
func buildEmbedder(cfg config.EmbeddingConfig, instruction string, logger *zap.Logger) domain.Embedder {
	base := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Provider:   "openai",
		Logger:     logger,
	})

	if instruction != "" {
		return domain.NewInstructionEmbedder(base, instruction)
	}
	return base
}

// buildGenerator picks the configured generation provider. The health checker
// is nil for providers without a cheap availability endpoint.
func buildGenerator(cfg config.GenerationConfig, logger *zap.Logger) (domain.Generator, healthuc.ProviderChecker) {
	switch cfg.Provider {
	case "claude":
		gen := anthropicGen.NewGenerator(&anthropicGen.Config{
			APIKey:      cfg.Claude.APIKey,
			BaseURL:     cfg.Claude.BaseURL,
			Model:       cfg.Claude.Model,
			Temperature: cfg.Claude.Temperature,
			MaxTokens:   cfg.Claude.MaxTokens,
			Provider:    "claude",
			Logger:      logger,
		})
		return gen, nil
	default:
		gen := openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
			APIKey:      cfg.OpenAI.APIKey,
			BaseURL:     cfg.OpenAI.BaseURL,
			Model:       cfg.OpenAI.Model,
			Temperature: cfg.OpenAI.Temperature,
			MaxTokens:   cfg.OpenAI.MaxTokens,
			Provider:    "openai",
			Logger:      logger,
		})
		return gen, gen
	}
}

// sectionSpecs converts the configured section list into domain specs,
// preserving order.
func sectionSpecs(cfgs []config.SectionConfig) ([]section.Spec, error) {
	specs := make([]section.Spec, len(cfgs))
	for i, sc := range cfgs {
		spec, err := section.NewSpec(sc.Key, sc.Title, sc.PromptTemplate, sc.MaxChunks, sc.SimilarityThreshold)
		if err != nil {
			return nil, fmt.Errorf("section %q: %w", sc.Key, err)
		}
		specs[i] = spec
	}
	return specs, nil
}

// providerHealthChecker wraps domain.Embedder to implement health.ProviderChecker.
type providerHealthChecker struct {
	embedder domain.Embedder
}

func newProviderHealthChecker(embedder domain.Embedder) *providerHealthChecker {
	return &providerHealthChecker{embedder: embedder}
}

func (h *providerHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
