package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"phishdetector/internal/dataset"
	"phishdetector/internal/inference"
	"phishdetector/internal/pipeline"
	"phishdetector/internal/selection"
	"phishdetector/internal/storage"
	"text/tabwriter"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// trialProgress renders grid search progress on stderr. The bar is created
// on the first report since the trial count is only known then.
func trialProgress() func(done, total int) {
	var bar *progressbar.ProgressBar
	return func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionShowElapsedTimeOnFinish(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription("evaluating trials"),
				progressbar.OptionOnCompletion(func() { fmt.Fprintln(os.Stderr) }),
			)
		}
		_ = bar.Set(done)
	}
}

func pipelineOptions() pipeline.Options {
	return pipeline.Options{
		Selection: selection.Options{
			Folds:    viper.GetInt("folds"),
			Workers:  viper.GetInt("workers"),
			Progress: trialProgress(),
		},
	}
}

func run(ctx context.Context, runners ...*pipeline.Runner) error {
	for _, r := range runners {
		artifact, err := r.Run(ctx)
		if err != nil {
			return fmt.Errorf("%s pipeline failed: %w", r.Name(), err)
		}
		printArtifact(artifact)
	}
	return nil
}

func printArtifact(artifact pipeline.Artifact) {
	switch a := artifact.(type) {
	case pipeline.ValidationArtifact:
		fmt.Printf("validated train set: %s\nvalidated test set:  %s\n", a.Train, a.Test)
	case pipeline.EvaluationArtifact:
		fmt.Printf("accuracy:  %.4f\nprecision: %.4f\nrecall:    %.4f\nf1 score:  %.4f\nreport:    %s\n",
			a.Metrics.Accuracy, a.Metrics.Precision, a.Metrics.Recall, a.Metrics.F1Score, a.Report)
	}
}

func preprocessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preprocess",
		Short: "Ingest and validate the raw dataset",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), pipeline.NewPreprocessing(store(), layout(), pipeline.Options{}))
		},
	}
}

func trainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Select and evaluate a model on the validated splits",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), pipeline.NewTraining(store(), layout(), pipelineOptions()))
		},
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run preprocessing followed by training",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, l := store(), layout()
			return run(cmd.Context(),
				pipeline.NewPreprocessing(s, l, pipeline.Options{}),
				pipeline.NewTraining(s, l, pipelineOptions()),
			)
		},
	}
}

func leaderboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leaderboard",
		Short: "Print the leaderboard of the last training run",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var leaderboard selection.Leaderboard
			key := layout().Training().Leaderboard
			if err := storage.LoadYAML(cmd.Context(), store(), key, &leaderboard); err != nil {
				return fmt.Errorf("error loading leaderboard: %w", err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "RANK\tCLASSIFIER\tMEAN SCORE\tSTD\tFIT TIME (s)\tBEST PARAMS")
			for i, e := range leaderboard {
				fmt.Fprintf(w, "%d\t%s\t%.4f\t%.4f\t%.3f\t%s\n", i+1, e.ClfName, e.MeanTestScore, e.StdTestScore, e.MeanFitTime, e.ParamClf)
			}
			return w.Flush()
		},
	}
}

func predictCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "predict <file.csv>",
		Short: "Predict a local CSV file with the trained model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("error opening %s: %w", args[0], err)
			}
			defer f.Close()

			frame, err := dataset.ReadCSV(f)
			if err != nil {
				return fmt.Errorf("error reading %s: %w", args[0], err)
			}

			handle, err := inference.Load(cmd.Context(), store(), layout().Prediction())
			if err != nil {
				return err
			}

			artifact, err := pipeline.NewInference(handle, frame, pipeline.Options{}).Run(cmd.Context())
			if err != nil {
				return err
			}
			return json.NewEncoder(os.Stdout).Encode(artifact)
		},
	}
}
