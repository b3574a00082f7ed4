package selection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"phishdetector/internal/dataset"
	"phishdetector/internal/estimator"
	"phishdetector/internal/utils"
	"runtime"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var ErrNoSuccessfulTrials = errors.New("no trial in the search space could be fitted")

const DefaultFolds = 5

type Options struct {
	Folds   int
	Workers int
	// Progress, when set, is called from the selecting goroutine after each
	// trial completes.
	Progress func(done, total int)
}

type Selector struct {
	folds    int
	workers  int
	progress func(done, total int)
}

func NewSelector(opts Options) *Selector {
	s := &Selector{folds: opts.Folds, workers: opts.Workers, progress: opts.Progress}
	if s.folds == 0 {
		s.folds = DefaultFolds
	}
	if s.workers <= 0 {
		s.workers = runtime.GOMAXPROCS(0)
	}
	return s
}

type Outcome struct {
	// Results has one entry per trial in evaluation order.
	Results     []TrialResult
	Leaderboard Leaderboard
	Best        TrialResult
	Bundle      *estimator.Bundle
}

// Select grid searches the space with stratified k-fold cross-validation on
// the training frame, then refits the best trial on the whole frame.
// Failing trials are recorded in the outcome and excluded from ranking.
func (s *Selector) Select(ctx context.Context, frame *dataset.Frame, label string, space SearchSpace) (*Outcome, error) {
	if frame.Len() == 0 {
		return nil, dataset.ErrEmptyDataset
	}
	if !frame.HasColumn(label) {
		return nil, fmt.Errorf("%w: label column '%s'", dataset.ErrMissingColumn, label)
	}
	trials := space.Trials()
	if len(trials) == 0 {
		return nil, ErrEmptySearchSpace
	}

	var features []string
	for _, name := range frame.Columns() {
		if name != label {
			features = append(features, name)
		}
	}
	X, err := frame.Features(features)
	if err != nil {
		return nil, fmt.Errorf("error building feature matrix: %w", err)
	}
	y, err := frame.Labels(label)
	if err != nil {
		return nil, err
	}
	folds, err := StratifiedKFold(y, s.folds)
	if err != nil {
		return nil, err
	}
	cv := newCrossValidation(X, y, folds)

	slog.Info("starting grid search", "trials", len(trials), "folds", s.folds, "workers", s.workers, "samples", frame.Len(), "features", len(features))

	pool := utils.RunInPool(ctx, func(_ context.Context, t Trial) (TrialResult, error) {
		return cv.run(t), nil
	}, trials, s.workers)

	results := make([]TrialResult, len(trials))
	done := 0
	for task := range pool {
		if task.Error != nil {
			continue
		}
		results[task.Index] = task.Result
		done++
		if task.Result.Err != nil {
			slog.Warn("trial failed", "trial", task.Result.Trial.String(), "error", task.Result.Err)
		}
		if s.progress != nil {
			s.progress(done, len(trials))
		}
	}
	if err := ctx.Err(); err != nil {
		slog.Warn("grid search cancelled", "completed", done, "trials", len(trials))
		return nil, err
	}

	leaderboard, best, ok := Aggregate(results)
	if !ok {
		slog.Error("grid search produced no fitted trial", "trials", len(trials))
		return nil, ErrNoSuccessfulTrials
	}

	pipeline, err := estimator.NewPipeline(best.Scaler, best.Family, best.Params)
	if err != nil {
		return nil, fmt.Errorf("error rebuilding best estimator %s: %w", best.Trial.String(), err)
	}
	if err := pipeline.Fit(X, y); err != nil {
		return nil, fmt.Errorf("error refitting best estimator %s: %w", best.Trial.String(), err)
	}

	slog.Info("grid search complete", "best", best.Trial.String(), "mean_test_score", best.MeanTestScore, "families", len(leaderboard))

	return &Outcome{
		Results:     results,
		Leaderboard: leaderboard,
		Best:        best,
		Bundle: &estimator.Bundle{
			FormatVersion: estimator.BundleFormatVersion,
			FeatureNames:  features,
			Label:         label,
			Classes:       uniqueSorted(y),
			Pipeline:      pipeline,
			BestTrial:     best.Summary(),
		},
	}, nil
}

type foldData struct {
	trainX *mat.Dense
	trainY []int
	testX  *mat.Dense
	testY  []int
}

// crossValidation holds the fold matrices shared read-only by all trials.
type crossValidation struct {
	folds []foldData
}

func newCrossValidation(X *mat.Dense, y []int, testFolds [][]int) *crossValidation {
	n, _ := X.Dims()
	cv := &crossValidation{folds: make([]foldData, len(testFolds))}
	for f, test := range testFolds {
		train := complement(n, test)
		cv.folds[f] = foldData{
			trainX: takeRows(X, train),
			trainY: takeLabels(y, train),
			testX:  takeRows(X, test),
			testY:  takeLabels(y, test),
		}
	}
	return cv
}

func (cv *crossValidation) run(t Trial) (result TrialResult) {
	result = TrialResult{Trial: t}
	defer func() {
		if r := recover(); r != nil {
			result = TrialResult{Trial: t, Err: fmt.Errorf("trial panicked: %v", r)}
		}
	}()

	scores := make([]float64, len(cv.folds))
	fitTimes := make([]float64, len(cv.folds))

	for f, fold := range cv.folds {
		pipeline, err := estimator.NewPipeline(t.Scaler, t.Family, t.Params)
		if err != nil {
			result.Err = err
			return result
		}

		start := time.Now()
		if err := pipeline.Fit(fold.trainX, fold.trainY); err != nil {
			result.Err = fmt.Errorf("fold %d: %w", f, err)
			return result
		}
		fitTimes[f] = time.Since(start).Seconds()

		pred, err := pipeline.Predict(fold.testX)
		if err != nil {
			result.Err = fmt.Errorf("fold %d: %w", f, err)
			return result
		}
		scores[f] = accuracyScore(fold.testY, pred)
	}

	mean, variance := stat.PopMeanVariance(scores, nil)
	result.FoldScores = scores
	result.MeanTestScore = mean
	result.StdTestScore = math.Sqrt(variance)
	result.MeanFitTime = stat.Mean(fitTimes, nil)
	return result
}

func accuracyScore(y, pred []int) float64 {
	correct := 0
	for i := range y {
		if y[i] == pred[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(y))
}

func takeRows(X *mat.Dense, idx []int) *mat.Dense {
	_, d := X.Dims()
	out := mat.NewDense(len(idx), d, nil)
	for i, r := range idx {
		out.SetRow(i, X.RawRowView(r))
	}
	return out
}

func takeLabels(y []int, idx []int) []int {
	out := make([]int, len(idx))
	for i, r := range idx {
		out[i] = y[r]
	}
	return out
}

func uniqueSorted(y []int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, v := range y {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}
