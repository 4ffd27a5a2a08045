// ABOUTME: Entry point for the LeafDoctor diagnosis service
// ABOUTME: Wires the model server, catalog, upload archive and HTTP API

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agrisense/leafdoctor/backend/cache"
	"github.com/agrisense/leafdoctor/backend/catalog"
	"github.com/agrisense/leafdoctor/backend/config"
	"github.com/agrisense/leafdoctor/backend/handlers"
	"github.com/agrisense/leafdoctor/backend/logger"
	"github.com/agrisense/leafdoctor/backend/middleware"
	"github.com/agrisense/leafdoctor/backend/models"
	"github.com/agrisense/leafdoctor/backend/services"
	"github.com/agrisense/leafdoctor/backend/uploads"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Initialize structured logging
	logger.Init()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	slog.Info("Starting LeafDoctor backend")
	slog.Info("Model server configured", "url", cfg.ModelServerURL, "proxied", cfg.ModelServerAllProxy != "")

	handler, cleanup, err := buildHandler(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildHandler wires every collaborator from cfg. cleanup releases the
// catalog and cache and must be called once the handler is no longer served.
func buildHandler(ctx context.Context, cfg *config.Config) (http.Handler, func(), error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := services.NewMetrics(reg)

	registry, err := services.LoadRegistry(cfg.ModelManifest)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("Model registry loaded", "crops", registry.Supported())

	store, err := catalog.Open(ctx, catalog.Config{
		Driver:   catalog.Driver(cfg.CatalogDriver),
		DSN:      cfg.CatalogDSN,
		SeedPath: cfg.CatalogSeed,
	})
	if err != nil {
		return nil, nil, err
	}

	archive, err := uploads.Open(ctx, uploads.Config{
		Driver: uploads.Driver(cfg.UploadDriver),
		FSRoot: cfg.UploadFSRoot,
		S3: uploads.S3Config{
			Bucket:          cfg.UploadS3Bucket,
			Region:          cfg.UploadS3Region,
			Endpoint:        cfg.UploadS3Endpoint,
			AccessKeyID:     cfg.UploadS3AccessKey,
			SecretAccessKey: cfg.UploadS3SecretKey,
			PathStyle:       cfg.UploadS3PathStyle,
		},
	})
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	if archive == nil {
		slog.Info("Upload archive disabled")
	}

	modelServer := services.NewModelServerClient(cfg.ModelServerURL, cfg.ModelTimeout, cfg.ModelServerAllProxy)

	// Without a key every call fails as unavailable and callers fall back.
	// A rejected key resets the holder so the next call rebuilds the client.
	holder := services.NewAnthropicHolder(services.LLMConfig{
		APIKey:      cfg.AnthropicAPIKey,
		BaseURL:     cfg.AnthropicBaseURL,
		VisionModel: cfg.VisionModel,
		ChatModel:   cfg.ChatModel,
	})
	vision := services.NewAnthropicVision(holder, cfg.VisionModel)
	if cfg.AnthropicConfigured() {
		slog.Info("Anthropic configured", "vision_model", cfg.VisionModel, "chat_model", cfg.ChatModel)
	} else {
		slog.Warn("Anthropic not configured, vision tier and chat will use fallbacks")
	}
	translator := services.NewTranslator(holder, cfg.ChatModel, cfg.LLMTimeout, metrics)
	chat := services.NewChatAdvisor(holder, cfg.ChatModel, cfg.LLMTimeout, translator, metrics)

	classifier := services.NewDiseaseClassifier(registry, modelServer, models.DefaultOverrides(), metrics)
	identifier := services.NewCropIdentifier(vision, classifier, services.CropIdentifierConfig{
		VisionTimeout:       cfg.VisionTimeout,
		BruteForceThreshold: cfg.BruteForceThreshold,
		BruteForceWorkers:   cfg.BruteForceWorkers,
	}, metrics)
	advisor := services.NewTreatmentAdvisor(store)

	// Initialize cache
	cacheTTL := time.Duration(cfg.CacheTTL) * time.Second
	reports := cache.New[*models.DiagnosisReport](cacheTTL)
	slog.Info("Cache initialized", "ttl", cacheTTL)

	h := handlers.NewHandler(cfg, reports, handlers.Services{
		Pipeline:    services.NewDiagnosisPipeline(identifier, classifier, metrics),
		Registry:    registry,
		Advisor:     advisor,
		Costs:       services.NewCostEstimator(advisor),
		Translator:  translator,
		Chat:        chat,
		Catalog:     store,
		Uploads:     archive,
		ModelStatus: modelServer,
	})

	mux := http.NewServeMux()
	registerRoutes(mux, cfg, h)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	cleanup := func() {
		reports.Close()
		store.Close()
	}
	return mux, cleanup, nil
}

// registerRoutes mounts the route table behind recovery, logging, CORS and
// the per-tier rate limiter.
func registerRoutes(mux *http.ServeMux, cfg *config.Config, h *handlers.Handler) {
	limiters := map[handlers.RateTier]middleware.Middleware{}
	if cfg.RateLimitEnabled {
		limiters[handlers.TierDiagnose] = middleware.RateLimit(middleware.NewRateLimiter(cfg.RateLimitDiagnose, time.Minute), middleware.ClientIP)
		limiters[handlers.TierDefault] = middleware.RateLimit(middleware.NewRateLimiter(cfg.RateLimitDefault, time.Minute), middleware.ClientIP)
		slog.Info("Rate limiting enabled", "diagnose_per_min", cfg.RateLimitDiagnose, "default_per_min", cfg.RateLimitDefault)
	}
	cors := middleware.CORS(cfg.CORSAllowedOrigins)

	for _, route := range h.Routes() {
		handler := middleware.Chain(route.Handler,
			middleware.Recover,
			middleware.LogRequest,
			cors,
			limiters[route.Tier],
		)
		mux.HandleFunc(route.Method+" "+route.Path, handler)
		// Preflight requests are answered by the CORS middleware
		mux.HandleFunc("OPTIONS "+route.Path, handler)
	}
}
