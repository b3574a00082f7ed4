package messaging

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	PreprocessingQueue = "preprocessing_queue"
	TrainingQueue      = "training_queue"
	RetryDelay         = 5 * time.Second
	MaxConnectRetry    = 5
)

var ErrQueueClosed = errors.New("queue is closed")

var Queues = []string{PreprocessingQueue, TrainingQueue}

type Task interface {
	Type() string

	Payload() []byte

	Ack() error

	Nack() error

	Reject() error
}

// RunTaskPayload identifies the pipeline run a task executes. The run row
// carries everything else.
type RunTaskPayload struct {
	RunId uuid.UUID
}

type Publisher interface {
	PublishPreprocessingTask(ctx context.Context, payload RunTaskPayload) error

	PublishTrainingTask(ctx context.Context, payload RunTaskPayload) error

	Close()
}

type Reciever interface {
	Tasks() <-chan Task

	Close()
}
