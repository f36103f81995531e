package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/benvon/break-my-assignment/internal/config"
	"github.com/benvon/break-my-assignment/internal/database"
	"github.com/benvon/break-my-assignment/internal/handlers"
	"github.com/benvon/break-my-assignment/internal/logger"
	"github.com/benvon/break-my-assignment/internal/middleware"
	"github.com/benvon/break-my-assignment/internal/services/ai"
	"github.com/benvon/break-my-assignment/internal/services/extract"
	"github.com/benvon/break-my-assignment/internal/services/oidc"
	"github.com/benvon/break-my-assignment/internal/services/quota"
	"github.com/benvon/break-my-assignment/internal/services/storage"
	"github.com/benvon/break-my-assignment/internal/services/workflow"
	"github.com/benvon/break-my-assignment/internal/telemetry"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

// configReloadInterval is how often CORS and rate limit settings are re-read
const configReloadInterval = time.Minute

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug mode for LLM API logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.New(cfg.Environment, debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	zapLogger.Info("starting_server",
		zap.String("version", version),
		zap.String("environment", cfg.Environment),
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.String("ai_provider", cfg.AIProvider),
		zap.String("ai_model", cfg.AIModel),
		zap.Int("free_tier_limit", cfg.FreeTierLimit),
		zap.Bool("blob_storage_enabled", cfg.BlobStorageEnabled()),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	tracingEnabled := false
	if cfg.OTELEnabled {
		tp, err := telemetry.InitTracer(context.Background(), telemetry.Config{
			ServiceName: telemetry.ServiceName,
			Environment: cfg.Environment,
			Endpoint:    cfg.OTELEndpoint,
			Insecure:    cfg.OTELInsecure,
		})
		if err != nil {
			zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		} else {
			tracingEnabled = true
			zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
					zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
				}
			}()
		}
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_database")

	redisLimiter, err := middleware.NewRedisRateLimiter(cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
	}
	defer func() {
		if err := redisLimiter.Close(); err != nil {
			zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_redis")

	userRepo := database.NewUserRepository(db)
	uploadRepo := database.NewUploadRepository(db)
	assignmentRepo := database.NewAssignmentRepository(db)
	oidcConfigRepo := database.NewOIDCConfigRepository(db)
	corsConfigRepo := database.NewCorsConfigRepository(db)
	ratelimitConfigRepo := database.NewRatelimitConfigRepository(db)

	completer, err := createAIProvider(cfg, zapLogger, debugMode)
	if err != nil {
		// Without a model the analysis endpoints answer analysis_failed
		zapLogger.Warn("failed_to_create_ai_provider", zap.Error(err))
		completer = unavailableCompleter{err: err}
	}
	breakdownService := ai.NewBreakdownService(completer, cfg.AIModel, zapLogger)

	quotaTracker := quota.NewTracker(userRepo, uploadRepo, zapLogger, quota.WithLimit(cfg.FreeTierLimit))

	fetcher := extract.NewFetcher(cfg.FetchTimeout,
		extract.WithMaxBytes(cfg.MaxFileBytes),
		extract.WithAllowedHosts(cfg.AllowedFileHosts),
	)

	workflowService := workflow.NewService(
		fetcher,
		extract.NewExtractor(),
		breakdownService,
		quotaTracker,
		assignmentRepo,
		zapLogger,
		workflow.WithPersistTimeout(cfg.PersistTimeout),
	)

	oidcProvider := oidc.NewProvider(oidcConfigRepo)
	jwksManager := oidc.NewJWKSManager()
	authenticator := middleware.NewAuthenticator(
		middleware.NewProviderVerifier(oidcProvider, jwksManager, cfg.OIDCProvider),
		userRepo,
		zapLogger,
	)

	healthChecker := handlers.NewHealthChecker().
		AddCheck("database", db.PingContext).
		AddCheck("redis", redisLimiter.Ping)

	var uploadHandler *handlers.UploadHandler
	if cfg.BlobStorageEnabled() {
		blobStore, err := storage.NewBlobStore(storage.Config{
			Endpoint:     cfg.MinioEndpoint,
			AccessKey:    cfg.MinioAccessKey,
			SecretKey:    cfg.MinioSecretKey,
			Bucket:       cfg.MinioBucket,
			UseSSL:       cfg.MinioUseSSL,
			UploadURLTTL: cfg.UploadURLTTL,
			FileURLTTL:   cfg.FileURLTTL,
		})
		if err != nil {
			zapLogger.Fatal("failed_to_create_blob_store", zap.Error(err))
		}
		bucketCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := blobStore.EnsureBucket(bucketCtx); err != nil {
			zapLogger.Warn("failed_to_ensure_bucket", zap.String("bucket", cfg.MinioBucket), zap.Error(err))
		}
		cancel()
		uploadHandler = handlers.NewUploadHandler(blobStore, zapLogger)
		healthChecker.AddCheck("blob_storage", blobStore.Ping)
		zapLogger.Info("blob_storage_enabled", zap.String("bucket", cfg.MinioBucket))
	}

	assignmentHandler := handlers.NewAssignmentHandler(workflowService, assignmentRepo, zapLogger)
	authHandler := handlers.NewAuthHandler(oidcProvider, cfg.OIDCProvider, quotaTracker, zapLogger)
	quotaHandler := handlers.NewQuotaHandler(quotaTracker, zapLogger)
	modelsHandler := handlers.NewModelsHandler(cfg.AIModel)

	r := mux.NewRouter()

	// gorilla/mux runs middleware in registration order; the first registered is outermost
	if tracingEnabled {
		r.Use(otelmux.Middleware(telemetry.ServiceName))
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	corsReloader := middleware.NewCORSReloader(corsConfigRepo, cfg.FrontendURL, zapLogger, configReloadInterval)
	r.Use(corsReloader.Middleware())
	r.Use(middleware.Logging(zapLogger))
	r.Use(middleware.Audit(zapLogger))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)

	defaultLimiter := middleware.NewRateLimitReloader(redisLimiter.Client(), ratelimitConfigRepo,
		middleware.RatelimitGroupDefault, middleware.DefaultRatelimitRate, zapLogger, configReloadInterval)
	analysisLimiter := middleware.NewRateLimitReloader(redisLimiter.Client(), ratelimitConfigRepo,
		middleware.RatelimitGroupAnalysis, middleware.DefaultAnalysisRatelimitRate, zapLogger, configReloadInterval)
	if defaultLimiter == nil || analysisLimiter == nil {
		zapLogger.Fatal("failed_to_create_rate_limit_reloader")
	}

	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")
	r.HandleFunc("/version", versionInfo).Methods("GET")

	openAPIHandler, err := handlers.NewOpenAPIHandler(filepath.Join("api", "openapi", "openapi.yaml"), cfg.BaseURL)
	if err != nil {
		zapLogger.Warn("openapi_document_unavailable", zap.Error(err))
	} else {
		openAPIHandler.RegisterRoutes(r)
	}

	apiRouter := r.PathPrefix("/api/v1").Subrouter()

	// Extraction and analysis: optional identity, tighter limits, long timeout
	analysisRouter := apiRouter.NewRoute().Subrouter()
	analysisRouter.Use(authenticator.OptionalAuth)
	analysisRouter.Use(analysisLimiter.Middleware())
	analysisRouter.Use(middleware.Timeout(max(cfg.RequestTimeout, middleware.DefaultAnalysisTimeout)))
	assignmentHandler.RegisterAnalysisRoutes(analysisRouter)

	// Save, read, catalog and uploads: optional identity
	optionalRouter := apiRouter.NewRoute().Subrouter()
	optionalRouter.Use(authenticator.OptionalAuth)
	optionalRouter.Use(defaultLimiter.Middleware())
	optionalRouter.Use(middleware.Timeout(middleware.DefaultRequestTimeout))
	assignmentHandler.RegisterRoutes(optionalRouter)
	modelsHandler.RegisterRoutes(optionalRouter)
	if uploadHandler != nil {
		uploadHandler.RegisterRoutes(optionalRouter)
	}

	// Sign-in
	loginRouter := apiRouter.PathPrefix("/auth").Subrouter()
	loginRouter.Use(defaultLimiter.Middleware())
	loginRouter.Use(middleware.Timeout(middleware.DefaultRequestTimeout))
	authHandler.RegisterPublicRoutes(loginRouter)

	// Signed-in callers only
	protectedRouter := apiRouter.NewRoute().Subrouter()
	protectedRouter.Use(authenticator.RequireAuth)
	protectedRouter.Use(defaultLimiter.Middleware())
	protectedRouter.Use(middleware.Timeout(middleware.DefaultRequestTimeout))
	assignmentHandler.RegisterAuthenticatedRoutes(protectedRouter)
	quotaHandler.RegisterRoutes(protectedRouter)
	authHandler.RegisterRoutes(protectedRouter.PathPrefix("/auth").Subrouter())

	// Preflight requests; the CORS middleware has already answered with headers
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Must outlast the analysis timeout so its 503 reaches the client
		WriteTimeout:   max(cfg.RequestTimeout, middleware.DefaultAnalysisTimeout) + 10*time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	reloadCtx, reloadCancel := context.WithCancel(context.Background())
	defer reloadCancel()
	go corsReloader.Start(reloadCtx)
	go defaultLimiter.Start(reloadCtx)
	go analysisLimiter.Start(reloadCtx)

	go func() {
		zapLogger.Info("server_listening", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")
	reloadCancel()

	// In-flight analyses may be waiting on the model
	ctx, cancel := context.WithTimeout(context.Background(), middleware.DefaultAnalysisTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

// createAIProvider builds the chat completion provider named by AI_PROVIDER
func createAIProvider(cfg *config.Config, logger *zap.Logger, debugMode bool) (ai.ChatCompleter, error) {
	if cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("OpenAI API key not configured")
	}

	registry := ai.NewProviderRegistry()
	ai.RegisterOpenAI(registry, logger, debugMode)

	return registry.GetProvider(cfg.AIProvider, map[string]string{
		"api_key":  cfg.OpenAIKey,
		"base_url": cfg.AIBaseURL,
		"timeout":  cfg.AITimeout.String(),
	})
}

// unavailableCompleter fails every completion with the provider setup error
type unavailableCompleter struct {
	err error
}

func (u unavailableCompleter) Complete(context.Context, ai.CompletionRequest) (string, error) {
	return "", fmt.Errorf("AI provider unavailable: %w", u.err)
}

func versionInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"version":   version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
