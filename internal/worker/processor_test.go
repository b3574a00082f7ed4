package worker_test

import (
	"context"
	"encoding/json"
	"fmt"
	"phishdetector/internal/config"
	"phishdetector/internal/database"
	"phishdetector/internal/messaging"
	"phishdetector/internal/pipeline"
	"phishdetector/internal/storage"
	"phishdetector/internal/worker"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testSchema = `
columns:
  having_ip_address:
    data_type: int64
    allowed_unique_values: [-1, 1]
  result:
    data_type: int64
    allowed_unique_values: [-1, 1]
`
	testSearchSpace = `
- estimator: logistic_regression
  params:
    C: [1.0]
- estimator: ridge_classifier
  params:
    alpha: [1.0]
`
)

type fakeTask struct {
	queue    string
	payload  []byte
	acked    bool
	nacked   bool
	rejected bool
}

func (t *fakeTask) Type() string    { return t.queue }
func (t *fakeTask) Payload() []byte { return t.payload }
func (t *fakeTask) Ack() error      { t.acked = true; return nil }
func (t *fakeTask) Nack() error     { t.nacked = true; return nil }
func (t *fakeTask) Reject() error   { t.rejected = true; return nil }

func runTask(t *testing.T, queue string, runId uuid.UUID) *fakeTask {
	t.Helper()
	data, err := json.Marshal(messaging.RunTaskPayload{RunId: runId})
	require.NoError(t, err)
	return &fakeTask{queue: queue, payload: data}
}

func setup(t *testing.T, schemaDoc string) (*gorm.DB, storage.ObjectStore, *worker.TaskProcessor) {
	t.Helper()
	db, err := database.NewDatabase(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)

	store, err := storage.NewLocalObjectStore(t.TempDir())
	require.NoError(t, err)

	layout := config.DefaultLayout()
	var raw strings.Builder
	raw.WriteString("having_ip_address,Result\n")
	for i := 0; i < 40; i++ {
		v := 1 - 2*(i%2)
		fmt.Fprintf(&raw, "%d,%d\n", v, v)
	}
	ctx := context.Background()
	require.NoError(t, store.PutObject(ctx, layout.RawData, strings.NewReader(raw.String())))
	require.NoError(t, store.PutObject(ctx, layout.Schema, strings.NewReader(schemaDoc)))
	require.NoError(t, store.PutObject(ctx, layout.SearchSpace, strings.NewReader(testSearchSpace)))

	queue := messaging.NewInMemoryQueue()
	t.Cleanup(queue.Close)
	return db, store, worker.NewTaskProcessor(db, store, layout, queue, queue)
}

func TestProcessPreprocessingAndTrainingRuns(t *testing.T) {
	db, _, proc := setup(t, testSchema)
	ctx := context.Background()

	prep, err := database.CreateRun(ctx, db, database.RunPreprocessing)
	require.NoError(t, err)
	task := runTask(t, messaging.PreprocessingQueue, prep.Id)
	proc.ProcessTask(task)
	assert.True(t, task.acked)

	loaded, err := database.GetRun(ctx, db, prep.Id)
	require.NoError(t, err)
	assert.Equal(t, database.JobCompleted, loaded.Status)
	require.Len(t, loaded.Stages, 2)
	assert.Equal(t, pipeline.IngestionStage, loaded.Stages[0].Stage)
	assert.Equal(t, pipeline.ValidationStage, loaded.Stages[1].Stage)
	assert.Equal(t, database.JobCompleted, loaded.Stages[1].Status)

	train, err := database.CreateRun(ctx, db, database.RunTraining)
	require.NoError(t, err)
	task = runTask(t, messaging.TrainingQueue, train.Id)
	proc.ProcessTask(task)
	assert.True(t, task.acked)

	loaded, err = database.GetRun(ctx, db, train.Id)
	require.NoError(t, err)
	assert.Equal(t, database.JobCompleted, loaded.Status)
	require.Len(t, loaded.Leaderboard, 2)
	assert.Equal(t, "Logistic", loaded.Leaderboard[0].ClfName)
	require.NotNil(t, loaded.Model)
	assert.Equal(t, "Logistic", loaded.Model.Family)
	assert.Equal(t, config.DefaultLayout().Training().Model, loaded.Model.ArtifactKey)
}

func TestFailedRunIsNacked(t *testing.T) {
	db, _, proc := setup(t, `
columns:
  country:
    data_type: object
`)
	ctx := context.Background()

	run, err := database.CreateRun(ctx, db, database.RunPreprocessing)
	require.NoError(t, err)
	task := runTask(t, messaging.PreprocessingQueue, run.Id)
	proc.ProcessTask(task)
	assert.True(t, task.nacked)
	assert.False(t, task.acked)

	loaded, err := database.GetRun(ctx, db, run.Id)
	require.NoError(t, err)
	assert.Equal(t, database.JobFailed, loaded.Status)
	assert.Contains(t, loaded.Error.String, "Missing expected column: country")
	require.Len(t, loaded.Stages, 2)
	assert.Equal(t, database.JobFailed, loaded.Stages[1].Status)
}

func TestMalformedAndUnknownTasksAreRejected(t *testing.T) {
	_, _, proc := setup(t, testSchema)

	malformed := &fakeTask{queue: messaging.TrainingQueue, payload: []byte("{")}
	proc.ProcessTask(malformed)
	assert.True(t, malformed.rejected)

	unknown := runTask(t, "inference_queue", uuid.New())
	proc.ProcessTask(unknown)
	assert.True(t, unknown.rejected)
}

func TestRunKindMustMatchQueue(t *testing.T) {
	db, _, proc := setup(t, testSchema)
	ctx := context.Background()

	run, err := database.CreateRun(ctx, db, database.RunPreprocessing)
	require.NoError(t, err)
	task := runTask(t, messaging.TrainingQueue, run.Id)
	proc.ProcessTask(task)
	assert.True(t, task.nacked)

	loaded, err := database.GetRun(ctx, db, run.Id)
	require.NoError(t, err)
	assert.Equal(t, database.JobFailed, loaded.Status)
}
