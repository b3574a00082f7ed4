package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"phishdetector/cmd"
	"phishdetector/internal/api"
	"phishdetector/internal/database"
	"phishdetector/internal/inference"
	"phishdetector/internal/messaging"
	"phishdetector/internal/selection"
	"phishdetector/internal/storage"
	"phishdetector/internal/worker"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"gorm.io/gorm"
)

type Config struct {
	Root        string `env:"ROOT" envDefault:"./phishdetector"`
	Port        int    `env:"PORT" envDefault:"3001"`
	Concurrency int    `env:"CONCURRENCY" envDefault:"0"`

	Layout cmd.LayoutConfig
}

func createDatabase(root string) *gorm.DB {
	path := filepath.Join(root, "db", "phishdetector.db")
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	db, err := database.NewDatabase(path)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	return db
}

func createServer(service *api.BackendService, port int) *http.Server {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", api.RestHandler(api.HealthCheck))
	r.Route("/api/v1", func(r chi.Router) {
		service.AddRoutes(r)
	})

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: r,
	}
}

func main() {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if err := os.MkdirAll(cfg.Root, os.ModePerm); err != nil {
		log.Fatalf("error creating directory for log file: %v", err)
	}

	f, err := os.OpenFile(filepath.Join(cfg.Root, "backend.log"), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer f.Close()

	log.SetOutput(io.MultiWriter(f, os.Stderr))

	slog.Info("starting backend", "root", cfg.Root, "port", cfg.Port, "artifacts", cfg.Layout.Artifacts)

	db := createDatabase(cfg.Root)

	store, err := storage.NewLocalObjectStore(filepath.Join(cfg.Root, "storage"))
	if err != nil {
		log.Fatalf("Failed to create storage: %v", err)
	}

	queue := messaging.NewInMemoryQueue()
	cmd.RequeueQueuedRuns(context.Background(), db, queue)

	layout := cfg.Layout.Layout()

	handle, err := inference.Load(context.Background(), store, layout.Prediction())
	if err != nil {
		slog.Warn("no model loaded yet, predictions are unavailable until a training run completes", "error", err)
	}
	service := api.NewBackendService(db, queue, handle)

	reload := func(ctx context.Context) {
		handle, err := inference.Load(ctx, store, layout.Prediction())
		if err != nil {
			slog.Error("error reloading model after training", "error", err)
			return
		}
		service.SetHandle(handle)
		slog.Info("serving newly trained model", "model", handle.Model().Family)
	}

	proc := worker.NewTaskProcessor(db, store, layout, queue, queue,
		worker.WithSelectionOptions(selection.Options{Folds: layout.Folds, Workers: cfg.Concurrency}),
		worker.WithTrainingHook(reload),
	)

	server := createServer(service, cfg.Port)

	slog.Info("starting worker")
	go proc.Start()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		slog.Info("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}

		slog.Info("shutting down worker")
		proc.Stop()
	}()

	slog.Info("server started", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %d: %v\n", cfg.Port, err)
	}

	slog.Info("server stopped")
}
