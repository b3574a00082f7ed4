package messaging_test

import (
	"context"
	"encoding/json"
	"phishdetector/internal/messaging"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryQueueRoutesByQueue(t *testing.T) {
	queue := messaging.NewInMemoryQueue()
	ctx := context.Background()

	first, second := uuid.New(), uuid.New()
	require.NoError(t, queue.PublishPreprocessingTask(ctx, messaging.RunTaskPayload{RunId: first}))
	require.NoError(t, queue.PublishTrainingTask(ctx, messaging.RunTaskPayload{RunId: second}))
	queue.Close()

	var types []string
	var ids []uuid.UUID
	for task := range queue.Tasks() {
		types = append(types, task.Type())
		var payload messaging.RunTaskPayload
		require.NoError(t, json.Unmarshal(task.Payload(), &payload))
		ids = append(ids, payload.RunId)
		assert.NoError(t, task.Ack())
	}

	assert.Equal(t, []string{messaging.PreprocessingQueue, messaging.TrainingQueue}, types)
	assert.Equal(t, []uuid.UUID{first, second}, ids)
}

func TestInMemoryQueuePublishAfterClose(t *testing.T) {
	queue := messaging.NewInMemoryQueue()
	queue.Close()
	queue.Close()

	err := queue.PublishTrainingTask(context.Background(), messaging.RunTaskPayload{RunId: uuid.New()})
	assert.ErrorIs(t, err, messaging.ErrQueueClosed)
}
