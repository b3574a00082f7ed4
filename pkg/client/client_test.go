package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"phishdetector/pkg/api"
	"phishdetector/pkg/client"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredictUploadsCSV(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/predict", r.URL.Path)

		file, header, err := r.FormFile("data")
		require.NoError(t, err)
		defer file.Close()

		mediaType, _, err := mime.ParseMediaType(header.Header.Get("Content-Type"))
		require.NoError(t, err)
		assert.Equal(t, "text/csv", mediaType)
		assert.Equal(t, "input.csv", header.Filename)

		body, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, "a,b\n1,2\n", string(body))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(api.PredictResponse{Predictions: []int{-1}})
	}))
	defer server.Close()

	c := client.New(server.URL + "/api/v1/")
	preds, err := c.Predict(context.Background(), "input.csv", strings.NewReader("a,b\n1,2\n"))
	require.NoError(t, err)
	assert.Equal(t, []int{-1}, preds)
}

func TestErrorStatusIsReported(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no trained model is loaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := client.New(server.URL).Schema(context.Background())

	var statusErr *client.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.Code)
	assert.Equal(t, "no trained model is loaded", statusErr.Message)
}

func TestSubmitAndGetRun(t *testing.T) {
	runId := uuid.New()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/runs":
			var req api.SubmitRunRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "training", req.Kind)
			_ = json.NewEncoder(w).Encode(api.SubmitRunResponse{RunId: runId})
		case r.Method == http.MethodGet && r.URL.Path == "/runs/"+runId.String():
			_ = json.NewEncoder(w).Encode(api.Run{Id: runId, Kind: "training", Status: "QUEUED"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	c := client.New(server.URL)
	id, err := c.SubmitRun(context.Background(), "training")
	require.NoError(t, err)
	assert.Equal(t, runId, id)

	run, err := c.GetRun(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "QUEUED", run.Status)

	_, err = c.Leaderboard(context.Background(), id)
	assert.Error(t, err)
}
