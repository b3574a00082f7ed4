package pipeline

import (
	"context"
	"log/slog"
	"time"
)

// Artifact is the immutable output of a stage. The first stage of a
// pipeline receives nil.
type Artifact any

type Stage interface {
	Name() string
	Run(ctx context.Context, in Artifact) (Artifact, error)
}

type stageFunc struct {
	name string
	run  func(ctx context.Context, in Artifact) (Artifact, error)
}

func (s stageFunc) Name() string {
	return s.name
}

func (s stageFunc) Run(ctx context.Context, in Artifact) (Artifact, error) {
	return s.run(ctx, in)
}

func NewStage(name string, run func(ctx context.Context, in Artifact) (Artifact, error)) Stage {
	return stageFunc{name: name, run: run}
}

// Tracker observes stage transitions. Tracker failures are logged by the
// tracker itself and never change the outcome of a run.
type Tracker interface {
	StageStarted(ctx context.Context, stage string, position int)
	StageFinished(ctx context.Context, stage string, artifact Artifact, err error)
}

type NopTracker struct{}

func (NopTracker) StageStarted(context.Context, string, int) {}

func (NopTracker) StageFinished(context.Context, string, Artifact, error) {}

type Runner struct {
	name    string
	stages  []Stage
	tracker Tracker
}

func NewRunner(name string, tracker Tracker, stages ...Stage) *Runner {
	if tracker == nil {
		tracker = NopTracker{}
	}
	return &Runner{name: name, stages: stages, tracker: tracker}
}

func (r *Runner) Name() string {
	return r.name
}

func (r *Runner) Stages() []string {
	names := make([]string, len(r.stages))
	for i, s := range r.stages {
		names[i] = s.Name()
	}
	return names
}

// Run executes the stages in order, feeding each the artifact of the one
// before. The first failing stage ends the run and its error is returned
// as is. There is no resume; a failed pipeline is run again from the start.
func (r *Runner) Run(ctx context.Context) (Artifact, error) {
	start := time.Now()
	slog.Info("starting pipeline", "pipeline", r.name, "stages", len(r.stages))

	var artifact Artifact
	for i, stage := range r.stages {
		stageStart := time.Now()
		slog.Info("starting stage", "pipeline", r.name, "stage", stage.Name(), "position", i)
		r.tracker.StageStarted(ctx, stage.Name(), i)

		out, err := stage.Run(ctx, artifact)
		r.tracker.StageFinished(ctx, stage.Name(), out, err)
		if err != nil {
			slog.Error("stage failed", "pipeline", r.name, "stage", stage.Name(), "error", err)
			return nil, err
		}

		slog.Info("stage complete", "pipeline", r.name, "stage", stage.Name(), "duration", time.Since(stageStart))
		artifact = out
	}

	slog.Info("pipeline complete", "pipeline", r.name, "duration", time.Since(start))
	return artifact, nil
}
