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

	"github.com/govscan/tendersearch/internal/config"
	dbRedis "github.com/govscan/tendersearch/internal/db/redis"
	logpkg "github.com/govscan/tendersearch/internal/logger"
	"github.com/govscan/tendersearch/internal/metrics"
	"github.com/govscan/tendersearch/internal/repository/embcache"
	searchrepo "github.com/govscan/tendersearch/internal/repository/search"
	taxonomyrepo "github.com/govscan/tendersearch/internal/repository/taxonomy"
	chiTransport "github.com/govscan/tendersearch/internal/transport/chi"
	openaiTransport "github.com/govscan/tendersearch/internal/transport/openai"
	embeddinguc "github.com/govscan/tendersearch/internal/usecase/embedding"
	healthuc "github.com/govscan/tendersearch/internal/usecase/health"
	preprocessuc "github.com/govscan/tendersearch/internal/usecase/preprocess"
	relevanceuc "github.com/govscan/tendersearch/internal/usecase/relevance"
	routeruc "github.com/govscan/tendersearch/internal/usecase/router"
	searchuc "github.com/govscan/tendersearch/internal/usecase/search"
	"github.com/govscan/tendersearch/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting tendersearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
	})
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

	// Register pipeline metrics explicitly (no init())
	metrics.Register()

	// Embedder chain: OpenAI -> Cached
	baseEmbedder := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Timeout:    time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
		Logger:     logger,
	})
	cachedEmbedder := embcache.New(
		baseEmbedder,
		store,
		cfg.Storage.KeyPrefix,
		time.Duration(cfg.Embedding.CacheTTLHours)*time.Hour,
		metrics.EmbeddingCacheTotal,
		logger,
	)
	logger.Info("Embedder created",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	// Shared JSON-mode chat client behind one circuit breaker
	chat := openaiTransport.NewChat(&openaiTransport.ChatConfig{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Timeout: time.Duration(cfg.LLM.TimeoutSec) * time.Second,

		BreakerMaxRequests: cfg.LLM.Breaker.MaxRequests,
		BreakerInterval:    time.Duration(cfg.LLM.Breaker.IntervalSec) * time.Second,
		BreakerTimeout:     time.Duration(cfg.LLM.Breaker.TimeoutSec) * time.Second,
		BreakerTripRatio:   cfg.LLM.Breaker.TripRatio,

		Logger: logger,
	})
	understander := openaiTransport.NewUnderstander(chat)
	judge := openaiTransport.NewJudge(chat)

	// Repositories
	noticeRepo := searchrepo.New(store, cfg.Storage.KeyPrefix)
	categoryRepo := taxonomyrepo.New(store, cfg.Storage.KeyPrefix)

	// Category router with the taxonomy snapshot loaded up front
	router := routeruc.New(categoryRepo)
	if err := router.Reload(ctx); err != nil {
		logger.Warn("Taxonomy load failed, category routing degraded", zap.Error(err))
	} else {
		logger.Info("Taxonomy loaded", zap.Int("categories", router.Size()))
	}

	// Use case services
	vectorizer := embeddinguc.New(cachedEmbedder, cfg.Embedding.NegationWeight)
	preprocessor := preprocessuc.New(understander)
	relevanceFilter, err := relevanceuc.New(
		judge,
		cfg.Relevance.PoolSize,
		cfg.Relevance.FlexibleThreshold,
		cfg.Relevance.RestrictiveThreshold,
	)
	if err != nil {
		logger.Fatal("Failed to create relevance filter", zap.Error(err))
	}
	defer relevanceFilter.Close()

	searchSvc := searchuc.New(
		noticeRepo,
		preprocessor,
		vectorizer,
		router,
		relevanceFilter,
		searchuc.Config{
			SemanticWeight:  cfg.Search.SemanticWeight,
			KeywordWeight:   cfg.Search.KeywordWeight,
			CandidateFactor: cfg.Search.CandidateFactor,
		},
	)

	healthSvc := healthuc.New(store, baseEmbedder)

	server := chiTransport.NewServer(searchSvc, healthSvc, logger)

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

			// Set X-Request-ID in response header
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
