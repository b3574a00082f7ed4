package main

import (
	"log"
	"log/slog"
	"os"
	"os/signal"
	"phishdetector/cmd"
	"phishdetector/internal/database"
	"phishdetector/internal/messaging"
	"phishdetector/internal/selection"
	"phishdetector/internal/worker"
	"syscall"

	"github.com/caarlos0/env/v11"
)

type WorkerConfig struct {
	DatabaseURL string `env:"DATABASE_URL,notEmpty,required"`
	RabbitMQURL string `env:"RABBITMQ_URL,notEmpty,required"`
	// Concurrency bounds the trials evaluated in parallel during grid search.
	// Zero uses every available core.
	Concurrency int `env:"CONCURRENCY" envDefault:"0"`

	Store  cmd.StoreConfig
	Layout cmd.LayoutConfig
}

func main() {
	log.Println("Starting Worker Process...")

	cmd.LoadEnvFile()

	var cfg WorkerConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	store := cmd.CreateStore(cfg.Store)

	publisher, err := messaging.NewRabbitMQPublisher(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}

	reciever, err := messaging.NewRabbitMQReceiver(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("Failed to start RabbitMQ consumer: %v", err)
	}

	layout := cfg.Layout.Layout()
	proc := worker.NewTaskProcessor(db, store, layout, publisher, reciever,
		worker.WithSelectionOptions(selection.Options{Folds: layout.Folds, Workers: cfg.Concurrency}),
	)

	go proc.Start()

	log.Println("Worker started. Waiting for tasks. Press Ctrl+C to exit.")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutdown signal received, stopping consumers")
	proc.Stop()

	log.Println("Worker process stopped.")
}
