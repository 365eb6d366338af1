package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"campaign-builder/internal/cache"
	"campaign-builder/internal/config"
	httphandler "campaign-builder/internal/http"
	"campaign-builder/internal/ingest"
	"campaign-builder/internal/metrics"
	"campaign-builder/internal/middleware"
	"campaign-builder/internal/repo"
	"campaign-builder/internal/services/llm"
	"campaign-builder/internal/services/planner"
	"campaign-builder/internal/services/prompts"
	"campaign-builder/internal/services/seo"
)

func main() {
	// Parse command line flags
	var (
		importPath = flag.String("import", "", "Import accepted plans from a JSON/YAML file or directory and exit")
		port       = flag.String("port", "", "Port to run the server on (overrides PORT)")
	)
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	config.SetupLogging(cfg.Log, os.Stderr)
	if *port != "" {
		cfg.Server.Port = *port
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	checks := map[string]httphandler.ReadinessCheck{}

	// Plan storage: Postgres when configured, memory otherwise
	var plans repo.PlanRepository
	if cfg.Database.URL != "" {
		db, err := repo.NewDB(ctx, cfg.Database.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()

		if err := db.RunMigrations(cfg.Database.URL); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}
		plans = repo.NewPostgresPlanRepository(db)
		checks["postgres"] = db.Ping
	} else {
		log.Warn().Msg("POSTGRES_URL not set, accepted plans are kept in memory")
		plans = repo.NewMemoryPlanRepository()
	}

	// If import flag is set, load plans and exit
	if *importPath != "" {
		res, err := ingest.NewLoader(plans).LoadFromPath(ctx, *importPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to import plans")
		}
		log.Info().Int("files", res.Files).Int("loaded", res.Loaded).Int("skipped", res.Skipped).Msg("Plans imported")
		return
	}

	// Sessions and the snapshot cache: Redis when configured, memory otherwise
	var (
		sessions repo.SessionRepository
		fetcher  seo.Fetcher = seo.NewHTTPFetcher(cfg.Fetcher.Timeout, cfg.Fetcher.UserAgent)
	)
	if cfg.Redis.Addr != "" {
		redisCache, err := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisCache.Close()

		sessions = repo.NewRedisSessionRepository(redisCache, cfg.Session.TTL, cfg.Session.LockTTL)
		fetcher = seo.NewCachedFetcher(fetcher, redisCache, cfg.Fetcher.CacheTTL, cache.SnapshotKey).WithTimeout(cfg.Fetcher.Timeout)
		checks["redis"] = redisCache.Ping
	} else {
		log.Warn().Msg("REDIS_ADDR not set, sessions are kept in memory")
		memSessions := repo.NewMemorySessionRepository(cfg.Session.TTL)
		memSessions.Start(ctx, cfg.Session.SweepInterval)
		defer memSessions.Stop()
		sessions = memSessions
	}

	// Initialize LLM client
	llmClient, err := llm.NewOpenAIClient(llm.OpenAIConfig{
		APIKey:      cfg.OpenAI.APIKey,
		Model:       cfg.OpenAI.Model,
		BaseURL:     cfg.OpenAI.BaseURL,
		Timeout:     cfg.OpenAI.Timeout,
		Temperature: cfg.OpenAI.Temperature,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create LLM client")
	}

	composer, err := prompts.NewComposer(cfg.Prompt.KeywordCount, cfg.Prompt.GroupCount)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid prompt configuration")
	}

	// Initialize services
	plannerService := planner.NewService(sessions, plans, composer, llmClient, fetcher, planner.Options{
		RequireKnownGroups: cfg.Session.RequireKnownGroups,
	})

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.Init(registry)

	// Initialize HTTP router
	router := httphandler.NewRouter(httphandler.RouterConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: cfg.Server.WriteTimeout,
		RateLimit: middleware.RateLimitConfig{
			RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
			BurstSize:         cfg.RateLimit.BurstSize,
		},
		TrustProxyHeaders: cfg.RateLimit.TrustProxyHeaders,
	})

	// Register routes
	router.RegisterPlannerRoutes(httphandler.NewPlannerHandler(plannerService))
	router.RegisterHealthRoutes(checks)
	router.RegisterMetricsRoutes(registry)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Shutdown server gracefully
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	log.Info().Msg("Server stopped")
}
