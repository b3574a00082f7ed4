package integrationtests

import (
	"context"
	"phishdetector/internal/storage"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestS3ObjectStore(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	store := setupS3Store(t, ctx, "test-bucket", "test-prefix")

	t.Run("PutGetObject", func(t *testing.T) {
		require.NoError(t, store.PutObject(ctx, "reports/a.yaml", strings.NewReader("status: passed\n")))

		data, err := store.GetObject(ctx, "reports/a.yaml")
		require.NoError(t, err)
		assert.Equal(t, "status: passed\n", string(data))

		ok, err := store.Exists(ctx, "reports/a.yaml")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "s3://test-bucket/test-prefix/reports/a.yaml", store.Location("reports/a.yaml"))
	})

	t.Run("MissingObject", func(t *testing.T) {
		_, err := store.GetObject(ctx, "reports/missing.yaml")
		assert.ErrorIs(t, err, storage.ErrObjectNotFound)

		ok, err := store.Exists(ctx, "reports/missing.yaml")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("ListAndDeleteObjects", func(t *testing.T) {
		require.NoError(t, store.PutObject(ctx, "models/m1.gob", strings.NewReader("one")))
		require.NoError(t, store.PutObject(ctx, "models/m2.gob", strings.NewReader("three")))

		objs, err := store.ListObjects(ctx, "models")
		require.NoError(t, err)
		require.Len(t, objs, 2)
		assert.Equal(t, storage.Object{Name: "models/m1.gob", Size: 3}, objs[0])
		assert.Equal(t, storage.Object{Name: "models/m2.gob", Size: 5}, objs[1])

		require.NoError(t, store.DeleteObjects(ctx, "models"))

		objs, err = store.ListObjects(ctx, "models")
		require.NoError(t, err)
		assert.Empty(t, objs)

		ok, err := store.Exists(ctx, "reports/a.yaml")
		require.NoError(t, err)
		assert.True(t, ok)
	})
}
