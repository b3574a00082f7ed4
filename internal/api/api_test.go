package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	backend "phishdetector/internal/api"
	"phishdetector/internal/database"
	"phishdetector/internal/estimator"
	"phishdetector/internal/inference"
	"phishdetector/internal/messaging"
	"phishdetector/internal/schema"
	"phishdetector/pkg/api"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gorm.io/gorm"
)

const testSchema = `
columns:
  having_ip_address:
    data_type: int64
    allowed_unique_values: [-1, 1]
  sfh:
    data_type: int64
    allowed_unique_values: [-1, 0, 1]
  result:
    data_type: int64
    allowed_unique_values: [-1, 1]
`

func createDB(t *testing.T) *gorm.DB {
	db, err := database.NewDatabase(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	return db
}

func createHandle(t *testing.T) *inference.Handle {
	s, err := schema.Parse([]byte(testSchema))
	require.NoError(t, err)

	p, err := estimator.NewPipeline(estimator.NoScaler, estimator.KNeighbors, estimator.Params{{Name: "n_neighbors", Value: 1}})
	require.NoError(t, err)
	X := mat.NewDense(4, 2, []float64{-1, 0, -1, 1, 1, 0, 1, -1})
	require.NoError(t, p.Fit(X, []int{-1, -1, 1, 1}))

	return inference.NewHandle(&estimator.Bundle{
		FormatVersion: estimator.BundleFormatVersion,
		FeatureNames:  []string{"having_ip_address", "sfh"},
		Label:         "result",
		Classes:       []int{-1, 1},
		Pipeline:      p,
	}, s, "result")
}

func newRouter(service *backend.BackendService) chi.Router {
	router := chi.NewRouter()
	service.AddRoutes(router)
	return router
}

func uploadRequest(t *testing.T, contentType string, body string) *http.Request {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="data"; filename="input.csv"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/predict", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestHealth(t *testing.T) {
	router := newRouter(backend.NewBackendService(createDB(t), messaging.NewInMemoryQueue(), nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestGetSchemaKeepsColumnOrder(t *testing.T) {
	router := newRouter(backend.NewBackendService(createDB(t), messaging.NewInMemoryQueue(), createHandle(t)))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/schema", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var res api.SchemaResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Columns, 3)
	assert.Equal(t, "having_ip_address", res.Columns[0].Name)
	assert.Equal(t, "sfh", res.Columns[1].Name)
	assert.Equal(t, "int64", res.Columns[1].DataType)
	assert.Equal(t, []any{-1.0, 0.0, 1.0}, res.Columns[1].AllowedUniqueValues)
}

func TestPredict(t *testing.T) {
	service := backend.NewBackendService(createDB(t), messaging.NewInMemoryQueue(), createHandle(t))
	router := newRouter(service)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "text/csv", "SFH,Having IP Address,Result\n0,1,1\n1,-1,-1\n-1,1,1\n"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res api.PredictResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, []int{1, -1, 1}, res.Predictions)
}

func TestPredictErrors(t *testing.T) {
	router := newRouter(backend.NewBackendService(createDB(t), messaging.NewInMemoryQueue(), createHandle(t)))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "application/json", `{"sfh": 1}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "text/csv", "having_ip_address,sfh\n"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "text/csv", "having_ip_address\n1\n"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	unloaded := newRouter(backend.NewBackendService(createDB(t), messaging.NewInMemoryQueue(), nil))
	rec = httptest.NewRecorder()
	unloaded.ServeHTTP(rec, uploadRequest(t, "text/csv", "having_ip_address,sfh\n1,1\n"))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSetHandle(t *testing.T) {
	service := backend.NewBackendService(createDB(t), messaging.NewInMemoryQueue(), nil)
	router := newRouter(service)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/schema", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	service.SetHandle(createHandle(t))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/schema", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSubmitRun(t *testing.T) {
	db := createDB(t)
	queue := messaging.NewInMemoryQueue()
	router := newRouter(backend.NewBackendService(db, queue, nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/runs", bytes.NewReader([]byte(`{"kind":"training"}`))))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res api.SubmitRunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))

	run, err := database.GetRun(context.Background(), db, res.RunId)
	require.NoError(t, err)
	assert.Equal(t, database.RunTraining, run.Kind)
	assert.Equal(t, database.JobQueued, run.Status)

	task := <-queue.Tasks()
	assert.Equal(t, messaging.TrainingQueue, task.Type())
	var payload messaging.RunTaskPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, res.RunId, payload.RunId)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/runs", bytes.NewReader([]byte(`{"kind":"inference"}`))))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/runs", bytes.NewReader([]byte(`{`))))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListAndGetRuns(t *testing.T) {
	db := createDB(t)
	ctx := context.Background()

	prep, err := database.CreateRun(ctx, db, database.RunPreprocessing)
	require.NoError(t, err)
	train, err := database.CreateRun(ctx, db, database.RunTraining)
	require.NoError(t, err)
	require.NoError(t, database.UpdateRunStatus(ctx, db, train.Id, database.JobCompleted, ""))
	require.NoError(t, database.SaveLeaderboard(ctx, db, train.Id, []database.LeaderboardEntry{
		{ClfName: "RandomForest", MeanTestScore: 0.95, ParamClf: "RandomForestClassifier(n_estimators=100)"},
		{ClfName: "Logistic", MeanTestScore: 0.9, ParamClf: "LogisticRegression(C=1.0)"},
	}))

	router := newRouter(backend.NewBackendService(db, messaging.NewInMemoryQueue(), nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs?kind=preprocessing", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var runs []api.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, prep.Id, runs[0].Id)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs?status=COMPLETED&limit=5", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, train.Id, runs[0].Id)
	assert.NotNil(t, runs[0].CompletionTime)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/"+train.Id.String()+"/leaderboard", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var leaderboard []api.LeaderboardEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &leaderboard))
	require.Len(t, leaderboard, 2)
	assert.Equal(t, api.LeaderboardEntry{Rank: 1, ClfName: "RandomForest", MeanTestScore: 0.95, ParamClf: "RandomForestClassifier(n_estimators=100)"}, leaderboard[0])

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/"+prep.Id.String()+"/leaderboard", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
