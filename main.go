package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	database "github.com/hubb-app/bantadthong/app/db"
	appLogger "github.com/hubb-app/bantadthong/app/logger"
	"github.com/hubb-app/bantadthong/app/observability/metrics"
	"github.com/hubb-app/bantadthong/app/tracer"
	"github.com/hubb-app/bantadthong/config"
	"github.com/hubb-app/bantadthong/internal/api/chat"
	generativeAI "github.com/hubb-app/bantadthong/internal/api/generative_ai"
	"github.com/hubb-app/bantadthong/internal/api/geoposition"
	"github.com/hubb-app/bantadthong/internal/api/itinerary"
	"github.com/hubb-app/bantadthong/internal/api/navigation"
	"github.com/hubb-app/bantadthong/internal/api/recommend"
	"github.com/hubb-app/bantadthong/internal/api/route"
	"github.com/hubb-app/bantadthong/internal/api/venue"
	apiRouter "github.com/hubb-app/bantadthong/internal/router"
)

func main() {
	// Use standard log until slog is configured, in case godotenv fails
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("FATAL: Error initializing config: %v", err)
	}

	logger := setupLogger()
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// --- Observability ---
	tracer.InitTracingAndMetrics(cfg.Handlers.Prometheus.Port)
	metrics.InitAppMetrics()

	// --- Database Setup ---
	dbConfig, err := database.NewDatabaseConfig(&cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		os.Exit(1)
	}

	if err = database.RunMigrations(dbConfig.ConnectionURL, logger); err != nil {
		logger.Error("Failed to run database migrations", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if !database.WaitForDB(ctx, pool, logger) {
		logger.Error("Database not ready after waiting, exiting.")
		os.Exit(1)
	}

	// --- Completion service ---
	aiClient, err := generativeAI.NewAIClient(ctx, cfg.LLM.Model, float32(cfg.LLM.Temperature))
	if err != nil {
		logger.Error("Failed to initialize completion client", slog.Any("error", err))
		os.Exit(1)
	}

	// --- Dependency Injection ---
	venueRepo := venue.NewPostgresVenueRepository(pool, logger)
	venueService := venue.NewServiceImpl(venueRepo, logger)
	venueHandler := venue.NewHandler(venueService, logger)

	recommendService := recommend.NewServiceImpl(logger)
	recommendHandler := recommend.NewHandler(recommendService, venueService, logger)

	itineraryService := itinerary.NewServiceImpl(aiClient, logger)
	itineraryHandler := itinerary.NewHandler(itineraryService, venueService, logger)

	osrmClient := route.NewOSRMClient(cfg.Routing.OSRMBaseURL, cfg.Routing.Timeout)
	routeService := route.NewServiceImpl(osrmClient, logger)
	routeHandler := route.NewHandler(routeService, logger)

	navManager := navigation.NewManager(logger)
	navHandler := navigation.NewHandler(navManager, routeService, logger)

	chatService := chat.NewServiceImpl(aiClient, recommendService, venueService, logger)
	chatHandler := chat.NewHandler(chatService, logger)

	positionProvider := geoposition.NewProviderImpl(logger)
	positionHandler := geoposition.NewHandler(positionProvider, logger)

	// Live navigation follows whatever fixes the position boundary
	// accepts.
	positionProvider.Subscribe("navigation", func(clientID string, fix geoposition.Fix) {
		if sess := navManager.Get(clientID); sess != nil {
			sess.UpdatePosition(fix.Position)
		}
	})

	// --- Router Setup ---
	mainRouter := apiRouter.SetupRouter(&apiRouter.Config{
		VenueHandler:       venueHandler,
		RecommendHandler:   recommendHandler,
		ItineraryHandler:   itineraryHandler,
		RouteHandler:       routeHandler,
		NavigationHandler:  navHandler,
		ChatHandler:        chatHandler,
		GeopositionHandler: positionHandler,
	})

	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(appLogger.StructuredLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.StripSlashes)
	router.Use(middleware.Timeout(cfg.Server.Timeout))
	router.Use(middleware.Compress(5, "application/json"))
	router.Mount("/", mainRouter)

	// --- HTTP Server Setup ---
	serverAddress := fmt.Sprintf(":%s", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddress,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	go func() {
		logger.Info("Starting HTTP server", slog.String("address", serverAddress))
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server ListenAndServe error", slog.Any("error", err))
			cancel()
		}
	}()

	<-ctx.Done()

	logger.Info("Shutdown signal received, starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server graceful shutdown failed", slog.Any("error", err))
	} else {
		logger.Info("HTTP server gracefully stopped")
	}

	logger.Info("Application shut down complete.")
}

// setupLogger configures and returns the application logger.
func setupLogger() *slog.Logger {
	var logger *slog.Logger
	env := os.Getenv("APP_ENV")

	if env == "development" || env == "" {
		tintOpts := &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
			AddSource:  true,
		}
		logger = slog.New(tint.NewHandler(os.Stdout, tintOpts))
		log.Println("Initialized development logger (tint)")
	} else {
		jsonOpts := &slog.HandlerOptions{
			Level:     slog.LevelInfo,
			AddSource: false,
		}
		logger = slog.New(slog.NewJSONHandler(os.Stdout, jsonOpts))
		log.Println("Initialized production logger (JSON)")
	}
	return logger
}
