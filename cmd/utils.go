package cmd

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"phishdetector/internal/config"
	"phishdetector/internal/database"
	"phishdetector/internal/messaging"
	"phishdetector/internal/storage"

	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func LoadEnvFile() {
	var configPath string

	flag.StringVar(&configPath, "env", "", "path to load env from")
	flag.Parse()

	if configPath == "" {
		log.Printf("no env file specified, using os.Environ only")
		return
	}

	log.Printf("loading env from file %s", configPath)
	err := godotenv.Load(configPath)
	if err != nil {
		log.Fatalf("error loading .env file '%s': %v", configPath, err)
	}
}

// StoreConfig selects the artifact store. An S3 bucket takes precedence over
// the local root directory.
type StoreConfig struct {
	Root              string `env:"ROOT" envDefault:"./phishdetector"`
	S3Bucket          string `env:"S3_BUCKET"`
	S3Prefix          string `env:"S3_PREFIX"`
	S3EndpointURL     string `env:"S3_ENDPOINT_URL"`
	S3AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	S3Region          string `env:"AWS_REGION"`
}

func CreateStore(cfg StoreConfig) storage.ObjectStore {
	if cfg.S3Bucket != "" {
		store, err := storage.NewS3ObjectStore(cfg.S3Bucket, cfg.S3Prefix, storage.S3ClientConfig{
			Endpoint:        cfg.S3EndpointURL,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			log.Fatalf("failed to create s3 store: %v", err)
		}
		slog.Info("using s3 artifact store", "bucket", cfg.S3Bucket, "prefix", cfg.S3Prefix)
		return store
	}

	store, err := storage.NewLocalObjectStore(cfg.Root)
	if err != nil {
		log.Fatalf("failed to create local store: %v", err)
	}
	slog.Info("using local artifact store", "root", cfg.Root)
	return store
}

type LayoutConfig struct {
	RawData     string  `env:"RAW_DATA" envDefault:"data/phishingData.csv"`
	Schema      string  `env:"SCHEMA" envDefault:"data/schema.yaml"`
	SearchSpace string  `env:"SEARCH_SPACE" envDefault:"data/search_space.yaml"`
	Artifacts   string  `env:"ARTIFACTS" envDefault:"artifacts"`
	Label       string  `env:"LABEL" envDefault:"result"`
	TestSize    float64 `env:"TEST_SIZE" envDefault:"0.2"`
	Seed        int64   `env:"SEED" envDefault:"42"`
	Folds       int     `env:"FOLDS" envDefault:"5"`
}

func (c LayoutConfig) Layout() config.Layout {
	return config.Layout{
		RawData:     c.RawData,
		Schema:      c.Schema,
		SearchSpace: c.SearchSpace,
		Artifacts:   c.Artifacts,
		Label:       c.Label,
		TestSize:    c.TestSize,
		Seed:        c.Seed,
		Folds:       c.Folds,
	}
}

// RequeueQueuedRuns republishes runs that were queued but never picked up,
// for queues that do not survive a restart.
func RequeueQueuedRuns(ctx context.Context, db *gorm.DB, publisher messaging.Publisher) {
	runs, err := database.ListRuns(ctx, db, database.RunFilter{Status: database.JobQueued})
	if err != nil {
		log.Fatalf("failed to fetch queued runs from database: %v", err)
	}

	// ListRuns is newest first, publish oldest first.
	for i := len(runs) - 1; i >= 0; i-- {
		run := runs[i]
		payload := messaging.RunTaskPayload{RunId: run.Id}
		if run.Kind == database.RunTraining {
			err = publisher.PublishTrainingTask(ctx, payload)
		} else {
			err = publisher.PublishPreprocessingTask(ctx, payload)
		}
		if err != nil {
			log.Fatalf("failed to requeue run %v: %v", run.Id, err)
		}
	}

	if len(runs) > 0 {
		slog.Info("requeued pending runs", "count", len(runs))
	}
}
