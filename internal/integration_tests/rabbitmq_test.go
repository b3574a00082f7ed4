package integrationtests

import (
	"context"
	"encoding/json"
	"phishdetector/internal/messaging"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRabbitMQ(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	url := setupRabbitMQContainer(t, ctx)

	publisher, err := messaging.NewRabbitMQPublisher(url)
	require.NoError(t, err)
	defer publisher.Close()

	receiver, err := messaging.NewRabbitMQReceiver(url)
	require.NoError(t, err)
	defer receiver.Close()

	cases := []struct {
		queue   string
		publish func(context.Context, messaging.RunTaskPayload) error
	}{
		{messaging.PreprocessingQueue, publisher.PublishPreprocessingTask},
		{messaging.TrainingQueue, publisher.PublishTrainingTask},
	}

	for _, tc := range cases {
		t.Run(tc.queue, func(t *testing.T) {
			payload := messaging.RunTaskPayload{RunId: uuid.New()}
			require.NoError(t, tc.publish(ctx, payload))

			select {
			case task := <-receiver.Tasks():
				assert.Equal(t, tc.queue, task.Type())

				var received messaging.RunTaskPayload
				require.NoError(t, json.Unmarshal(task.Payload(), &received))
				assert.Equal(t, payload, received)

				require.NoError(t, task.Ack())
			case <-time.After(10 * time.Second):
				t.Fatal("Timed out waiting for task")
			}
		})
	}
}
