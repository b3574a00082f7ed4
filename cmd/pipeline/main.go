package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"phishdetector/cmd"
	"phishdetector/internal/config"
	"phishdetector/internal/storage"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Run the phishing detector training pipelines",
	Long: `Runs the preprocessing pipeline (ingestion and validation) and the
training pipeline (model selection and evaluation) against a local directory
or an S3 bucket.`,
	PersistentPreRunE: initConfig,
	SilenceUsage:      true,
}

func init() {
	defaults := config.DefaultLayout()

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "optional YAML config file with flag values")
	flags.String("root", "./phishdetector", "local directory holding data and artifacts")
	flags.String("s3-bucket", "", "S3 bucket to use instead of the local root")
	flags.String("s3-prefix", "", "key prefix inside the S3 bucket")
	flags.String("s3-endpoint", "", "S3 endpoint url, for S3 compatible stores")
	flags.String("s3-region", "", "S3 region")
	flags.String("raw-data", defaults.RawData, "raw dataset key")
	flags.String("schema", defaults.Schema, "schema document key")
	flags.String("search-space", defaults.SearchSpace, "search space document key")
	flags.String("artifacts", defaults.Artifacts, "artifact key prefix")
	flags.String("label", defaults.Label, "label column")
	flags.Float64("test-size", defaults.TestSize, "fraction of rows held out for the test split")
	flags.Int64("seed", defaults.Seed, "seed for the train/test split")
	flags.Int("folds", defaults.Folds, "cross-validation folds")
	flags.Int("workers", 0, "trials evaluated in parallel, 0 uses every core")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "console", "log format (console, json)")

	flags.VisitAll(func(f *pflag.Flag) {
		if f.Name != "config" {
			_ = viper.BindPFlag(f.Name, f)
		}
	})

	rootCmd.AddCommand(preprocessCmd())
	rootCmd.AddCommand(trainCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(leaderboardCmd())
	rootCmd.AddCommand(predictCmd())
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("received interrupt signal, stopping")
		cancel()
	}()

	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	viper.SetEnvPrefix("PHISH")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	return setupLogging()
}

func setupLogging() error {
	var level slog.Level
	switch viper.GetString("log-level") {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level: %s", viper.GetString("log-level"))
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch viper.GetString("log-format") {
	case "console":
		handler = slog.NewTextHandler(os.Stderr, opts)
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("invalid log format: %s", viper.GetString("log-format"))
	}

	slog.SetDefault(slog.New(handler))
	return nil
}

func layout() config.Layout {
	return config.Layout{
		RawData:     viper.GetString("raw-data"),
		Schema:      viper.GetString("schema"),
		SearchSpace: viper.GetString("search-space"),
		Artifacts:   viper.GetString("artifacts"),
		Label:       viper.GetString("label"),
		TestSize:    viper.GetFloat64("test-size"),
		Seed:        viper.GetInt64("seed"),
		Folds:       viper.GetInt("folds"),
	}
}

// store resolves credentials for S3 from the standard AWS environment.
func store() storage.ObjectStore {
	return cmd.CreateStore(cmd.StoreConfig{
		Root:              viper.GetString("root"),
		S3Bucket:          viper.GetString("s3-bucket"),
		S3Prefix:          viper.GetString("s3-prefix"),
		S3EndpointURL:     viper.GetString("s3-endpoint"),
		S3Region:          viper.GetString("s3-region"),
		S3AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		S3SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
	})
}
