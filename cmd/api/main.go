package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mpc-backend/cmd"
	"mpc-backend/internal/api"
	"mpc-backend/internal/artifacts"
	"mpc-backend/internal/config"
	"mpc-backend/internal/core/training"
	"mpc-backend/internal/database"
	"mpc-backend/internal/lifecycle"
	"mpc-backend/internal/readiness"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	log.Println("Starting API Server...")

	cmd.LoadEnvFile()

	cfg, err := config.Load[config.APIConfig]()
	if err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	startup := readiness.Policy{Attempts: cfg.PostgresReadyAttempts, Interval: cfg.PostgresReadyDelay}
	if err := startup.Probe(context.Background(), "postgresql", func(ctx context.Context) error {
		return database.Ping(ctx, db)
	}); err != nil {
		log.Fatalf("PostgreSQL is not available: %v", err)
	}

	if err := database.GetMigrator(db).Migrate(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	objects, err := cmd.NewObjectStore(cfg.ObjectStoreConfig)
	if err != nil {
		log.Fatalf("Failed to create object store: %v", err)
	}

	trainerCfg := training.DefaultConfig()
	if cfg.TrainingWorkers > 0 {
		trainerCfg.Workers = cfg.TrainingWorkers
	}

	service := lifecycle.NewService(lifecycle.Deps{
		Generator:     cmd.NewGenerator(cfg.DataServiceURL, cfg.RequestTimeout),
		Artifacts:     artifacts.NewStore(objects, cfg.ModelBucketName),
		Animals:       database.NewRepository(db),
		Trainer:       training.NewTrainer(trainerCfg),
		CacheSize:     cfg.ModelCacheSize,
		HealthTimeout: cfg.HealthCheckTimeout,
	})

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	api.NewBackendService(service).AddRoutes(r)
	r.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: r,
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}
	}()

	slog.Info("API server listening", "port", cfg.APIPort, "bucket", cfg.ModelBucketName, "cache_size", cfg.ModelCacheSize)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %s: %v\n", cfg.APIPort, err)
	}

	log.Println("Server stopped.")
}
