package integrationtests

import (
	"context"
	"fmt"
	"phishdetector/internal/config"
	"phishdetector/internal/storage"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/minio"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	minioUsername = "admin"
	minioPassword = "password"
)

func setupMinioContainer(t *testing.T, ctx context.Context) string {
	minioContainer, err := minio.Run(
		ctx,
		"minio/minio:RELEASE.2024-01-16T16-07-38Z",
		minio.WithUsername(minioUsername),
		minio.WithPassword(minioPassword),
	)
	require.NoError(t, err, "Failed to start MinIO container")

	t.Cleanup(func() {
		err := minioContainer.Terminate(context.Background())
		require.NoError(t, err, "Failed to terminate MinIO container")
	})

	connStr, err := minioContainer.ConnectionString(ctx)
	require.NoError(t, err, "Failed to get MinIO connection string")

	return "http://" + connStr
}

func setupS3Store(t *testing.T, ctx context.Context, bucket, prefix string) *storage.S3ObjectStore {
	t.Helper()

	endpoint := setupMinioContainer(t, ctx)

	store, err := storage.NewS3ObjectStore(bucket, prefix, storage.S3ClientConfig{
		Endpoint:        endpoint,
		Region:          "us-east-1",
		AccessKeyID:     minioUsername,
		SecretAccessKey: minioPassword,
	})
	require.NoError(t, err)
	require.NoError(t, store.CreateBucket(ctx))
	return store
}

func setupPostgresContainer(t *testing.T, ctx context.Context) string {
	dbName, dbUser, dbPassword := "test_db", "test_user", "test_password"

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")

	t.Cleanup(func() {
		err := postgresContainer.Terminate(context.Background())
		require.NoError(t, err, "Failed to terminate PostgreSQL container")
	})

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get PostgreSQL connection string")

	return connStr
}

func setupRabbitMQContainer(t *testing.T, ctx context.Context) string {
	rabbitmqContainer, err := rabbitmq.Run(ctx, "rabbitmq:3.13-management-alpine")
	require.NoError(t, err, "Failed to start RabbitMQ container")

	t.Cleanup(func() {
		err := rabbitmqContainer.Terminate(context.Background())
		require.NoError(t, err, "Failed to terminate RabbitMQ container")
	})

	connStr, err := rabbitmqContainer.AmqpURL(ctx)
	require.NoError(t, err, "Failed to get RabbitMQ AMQP URL")

	return connStr
}

const (
	testSchema = `
columns:
  having_ip_address:
    data_type: int64
    allowed_unique_values: [-1, 1]
  sslfinal_state:
    data_type: int64
    allowed_unique_values: [-1, 0, 1]
  result:
    data_type: int64
    allowed_unique_values: [-1, 1]
`
	testSearchSpace = `
- estimator: logistic_regression
  scaler: standard
  params:
    C: [0.1, 1.0]
- estimator: random_forest
  params:
    n_estimators: [5]
    random_state: [42]
- estimator: k_neighbors
  params:
    n_neighbors: [3]
`
)

// phishingData labels a row phishing exactly when the site uses a raw IP
// address, so every family can fit it.
func phishingData(rows int) string {
	var b strings.Builder
	b.WriteString("having_IP_Address,SSLfinal_State,Result\n")
	for i := 0; i < rows; i++ {
		ip := 1
		if i%2 == 1 {
			ip = -1
		}
		fmt.Fprintf(&b, "%d,%d,%d\n", ip, i%3-1, ip)
	}
	return b.String()
}

func seedStore(t *testing.T, ctx context.Context, store storage.ObjectStore, layout config.Layout) {
	t.Helper()
	require.NoError(t, store.PutObject(ctx, layout.RawData, strings.NewReader(phishingData(80))))
	require.NoError(t, store.PutObject(ctx, layout.Schema, strings.NewReader(testSchema)))
	require.NoError(t, store.PutObject(ctx, layout.SearchSpace, strings.NewReader(testSearchSpace)))
}
