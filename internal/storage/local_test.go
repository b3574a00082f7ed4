package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"phishdetector/internal/dataset"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestObjectStore(t *testing.T) (*LocalObjectStore, string) {
	t.Helper()
	dir := t.TempDir()
	objectStore, err := NewLocalObjectStore(dir)
	require.NoError(t, err)
	return objectStore, dir
}

func TestLocalObjectStore_PutGetObject(t *testing.T) {
	objectStore, baseDir := setupTestObjectStore(t)

	key := "artifacts/validation/report.yaml"
	content := []byte("Test content")

	require.NoError(t, objectStore.PutObject(context.Background(), key, bytes.NewReader(content)))

	data, err := os.ReadFile(filepath.Join(baseDir, "artifacts", "validation", "report.yaml"))
	require.NoError(t, err)
	assert.Equal(t, content, data)

	data, err = objectStore.GetObject(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, content, data)

	exists, err := objectStore.Exists(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestLocalObjectStore_MissingObject(t *testing.T) {
	objectStore, _ := setupTestObjectStore(t)

	_, err := objectStore.GetObject(context.Background(), "models/model.bin")
	assert.ErrorIs(t, err, ErrObjectNotFound)
	assert.Contains(t, err.Error(), filepath.Join("models", "model.bin"))

	exists, err := objectStore.Exists(context.Background(), "models/model.bin")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLocalObjectStore_ListAndDeleteObjects(t *testing.T) {
	objectStore, baseDir := setupTestObjectStore(t)

	files := []string{"test-dir/file1.txt", "test-dir/file2.txt", "other-dir/file3.txt"}
	for _, file := range files {
		filePath := filepath.Join(baseDir, file)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), os.ModePerm))
		require.NoError(t, os.WriteFile(filePath, []byte("content"), os.ModePerm))
	}

	objects, err := objectStore.ListObjects(context.Background(), "test-dir/")
	require.NoError(t, err)
	assert.Equal(t, []Object{{Name: "test-dir/file1.txt", Size: 7}, {Name: "test-dir/file2.txt", Size: 7}}, objects)

	require.NoError(t, objectStore.DeleteObjects(context.Background(), "test-dir"))

	_, err = os.Stat(filepath.Join(baseDir, "test-dir"))
	assert.True(t, os.IsNotExist(err))

	_, err = os.Stat(filepath.Join(baseDir, "other-dir", "file3.txt"))
	assert.NoError(t, err)
}

func TestFrameRoundTrip(t *testing.T) {
	objectStore, _ := setupTestObjectStore(t)

	frame, err := dataset.NewFrame([]string{"a", "result"}, [][]string{{"1", "-1"}, {"0", "1"}})
	require.NoError(t, err)

	require.NoError(t, SaveFrame(context.Background(), objectStore, "feature_store/train.csv", frame))

	loaded, err := LoadFrame(context.Background(), objectStore, "feature_store/train.csv")
	require.NoError(t, err)
	assert.Equal(t, frame.Columns(), loaded.Columns())
	assert.Equal(t, frame.Row(1), loaded.Row(1))
}

func TestYAMLRoundTrip(t *testing.T) {
	objectStore, _ := setupTestObjectStore(t)

	type doc struct {
		Name  string  `yaml:"name"`
		Score float64 `yaml:"score"`
	}
	require.NoError(t, SaveYAML(context.Background(), objectStore, "report.yaml", doc{Name: "svc", Score: 0.5}))

	var out doc
	require.NoError(t, LoadYAML(context.Background(), objectStore, "report.yaml", &out))
	assert.Equal(t, doc{Name: "svc", Score: 0.5}, out)
}
