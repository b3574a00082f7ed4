package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"phishdetector/internal/config"
	"phishdetector/internal/database"
	"phishdetector/internal/messaging"
	"phishdetector/internal/pipeline"
	"phishdetector/internal/selection"
	"phishdetector/internal/storage"

	"gorm.io/gorm"
)

var ErrKindMismatch = errors.New("run kind does not match queue")

type TaskProcessor struct {
	db        *gorm.DB
	storage   storage.ObjectStore
	layout    config.Layout
	publisher messaging.Publisher
	reciever  messaging.Reciever

	selection selection.Options

	// onTrained, when set, runs after a training run completes.
	onTrained func(ctx context.Context)
}

type Option func(*TaskProcessor)

func WithSelectionOptions(opts selection.Options) Option {
	return func(p *TaskProcessor) { p.selection = opts }
}

func WithTrainingHook(hook func(ctx context.Context)) Option {
	return func(p *TaskProcessor) { p.onTrained = hook }
}

func NewTaskProcessor(db *gorm.DB, storage storage.ObjectStore, layout config.Layout, publisher messaging.Publisher, reciever messaging.Reciever, opts ...Option) *TaskProcessor {
	proc := &TaskProcessor{
		db:        db,
		storage:   storage,
		layout:    layout,
		publisher: publisher,
		reciever:  reciever,
	}
	for _, opt := range opts {
		opt(proc)
	}
	return proc
}

func (proc *TaskProcessor) Start() {
	slog.Info("starting task processor")

	for task := range proc.reciever.Tasks() {
		proc.ProcessTask(task)
	}
}

func (proc *TaskProcessor) Stop() {
	slog.Info("stopping task processor")

	proc.publisher.Close()
	proc.reciever.Close()
}

func (proc *TaskProcessor) ProcessTask(task messaging.Task) {
	ctx := context.Background()

	var kind string
	switch task.Type() {
	case messaging.PreprocessingQueue:
		kind = database.RunPreprocessing
	case messaging.TrainingQueue:
		kind = database.RunTraining
	default:
		slog.Error("received unknown task type", "queue", task.Type())
		if err := task.Reject(); err != nil {
			slog.Error("error rejecting message from queue", "error", err)
		}
		return
	}

	var payload messaging.RunTaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		slog.Error("error unmarshalling run task", "queue", task.Type(), "error", err)
		if err := task.Reject(); err != nil {
			slog.Error("error rejecting message from queue", "error", err)
		}
		return
	}

	if err := proc.processRun(ctx, kind, payload); err != nil {
		slog.Error("error processing task", "queue", task.Type(), "run_id", payload.RunId, "error", err)
		if err := task.Nack(); err != nil {
			slog.Error("error reporting processing failure on message from queue", "error", err)
		}
	} else {
		slog.Info("successfully processed task", "queue", task.Type(), "run_id", payload.RunId)
		if err := task.Ack(); err != nil {
			slog.Error("error acknowledging message from queue", "error", err)
		}
	}
}

func (proc *TaskProcessor) runner(kind string, tracker pipeline.Tracker) *pipeline.Runner {
	opts := pipeline.Options{Tracker: tracker, Selection: proc.selection}
	if kind == database.RunTraining {
		return pipeline.NewTraining(proc.storage, proc.layout, opts)
	}
	return pipeline.NewPreprocessing(proc.storage, proc.layout, opts)
}

func (proc *TaskProcessor) processRun(ctx context.Context, kind string, payload messaging.RunTaskPayload) error {
	run, err := database.GetRun(ctx, proc.db, payload.RunId)
	if err != nil {
		return fmt.Errorf("error getting pipeline run: %w", err)
	}
	if run.Kind != kind {
		err := fmt.Errorf("%w: run %v is %s", ErrKindMismatch, run.Id, run.Kind)
		_ = database.UpdateRunStatus(ctx, proc.db, run.Id, database.JobFailed, err.Error())
		return err
	}

	slog.Info("processing pipeline run", "run_id", run.Id, "kind", run.Kind)
	if err := database.UpdateRunStatus(ctx, proc.db, run.Id, database.JobRunning, ""); err != nil {
		return fmt.Errorf("error updating run status: %w", err)
	}

	if _, err := proc.runner(kind, &runTracker{db: proc.db, runId: run.Id}).Run(ctx); err != nil {
		if dbErr := database.UpdateRunStatus(ctx, proc.db, run.Id, database.JobFailed, err.Error()); dbErr != nil {
			slog.Error("error marking run failed", "run_id", run.Id, "error", dbErr)
		}
		return err
	}

	if err := database.UpdateRunStatus(ctx, proc.db, run.Id, database.JobCompleted, ""); err != nil {
		return fmt.Errorf("error updating run status: %w", err)
	}

	if kind == database.RunTraining && proc.onTrained != nil {
		proc.onTrained(ctx)
	}
	return nil
}
