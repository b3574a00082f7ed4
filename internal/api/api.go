package api

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"phishdetector/internal/database"
	"phishdetector/internal/dataset"
	"phishdetector/internal/inference"
	"phishdetector/internal/messaging"
	"phishdetector/pkg/api"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

const maxUploadBytes = 32 << 20

type BackendService struct {
	db        *gorm.DB
	publisher messaging.Publisher
	handle    atomic.Pointer[inference.Handle]
}

// NewBackendService serves predictions from handle, which may be nil until a
// model has been trained.
func NewBackendService(db *gorm.DB, publisher messaging.Publisher, handle *inference.Handle) *BackendService {
	s := &BackendService{db: db, publisher: publisher}
	if handle != nil {
		s.handle.Store(handle)
	}
	return s
}

// SetHandle replaces the serving handle. Requests already holding the old
// handle finish with it.
func (s *BackendService) SetHandle(handle *inference.Handle) {
	s.handle.Store(handle)
}

func HealthCheck(r *http.Request) (any, error) {
	return api.HealthResponse{Status: "healthy"}, nil
}

func (s *BackendService) AddRoutes(r chi.Router) {
	r.Get("/health", RestHandler(HealthCheck))
	r.Get("/schema", RestHandler(s.GetSchema))
	r.Post("/predict", RestHandler(s.Predict))

	r.Route("/runs", func(r chi.Router) {
		r.Post("/", RestHandler(s.SubmitRun))
		r.Get("/", RestHandler(s.ListRuns))
		r.Get("/{run_id}", RestHandler(s.GetRun))
		r.Get("/{run_id}/leaderboard", RestHandler(s.GetLeaderboard))
	})
}

func (s *BackendService) loadedHandle() (*inference.Handle, error) {
	handle := s.handle.Load()
	if handle == nil {
		return nil, CodedErrorf(http.StatusServiceUnavailable, "no trained model is loaded")
	}
	return handle, nil
}

func (s *BackendService) GetSchema(r *http.Request) (any, error) {
	handle, err := s.loadedHandle()
	if err != nil {
		return nil, err
	}
	return convertSchema(handle.Schema()), nil
}

func (s *BackendService) Predict(r *http.Request) (any, error) {
	handle, err := s.loadedHandle()
	if err != nil {
		return nil, err
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, CodedErrorf(http.StatusBadRequest, "unable to parse multipart form: %v", err)
	}
	file, header, err := r.FormFile("data")
	if err != nil {
		return nil, CodedErrorf(http.StatusBadRequest, "missing 'data' file in request")
	}
	defer file.Close()

	mediaType, _, err := mime.ParseMediaType(header.Header.Get("Content-Type"))
	if err != nil || mediaType != "text/csv" {
		return nil, CodedErrorf(http.StatusBadRequest, "uploaded file must be a CSV file")
	}

	frame, err := dataset.ReadCSV(file)
	if err != nil {
		return nil, CodedErrorf(http.StatusBadRequest, "unable to read uploaded CSV: %v", err)
	}

	predictions, err := handle.Predict(frame)
	if err != nil {
		switch {
		case errors.Is(err, inference.ErrNoRows), errors.Is(err, dataset.ErrEmptyDataset):
			return nil, CodedError(http.StatusBadRequest, err)
		case errors.Is(err, dataset.ErrMissingColumn):
			return nil, CodedError(http.StatusUnprocessableEntity, err)
		default:
			slog.Error("error running prediction", "file", header.Filename, "error", err)
			return nil, CodedErrorf(http.StatusInternalServerError, "error running prediction")
		}
	}

	slog.Info("served predictions", "file", header.Filename, "rows", len(predictions))
	return api.PredictResponse{Predictions: predictions}, nil
}

func (s *BackendService) SubmitRun(r *http.Request) (any, error) {
	req, err := ParseRequest[api.SubmitRunRequest](r)
	if err != nil {
		return nil, err
	}

	if req.Kind != database.RunPreprocessing && req.Kind != database.RunTraining {
		return nil, CodedErrorf(http.StatusUnprocessableEntity, "invalid run kind '%s': must be '%s' or '%s'", req.Kind, database.RunPreprocessing, database.RunTraining)
	}

	ctx := r.Context()
	run, err := database.CreateRun(ctx, s.db, req.Kind)
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to create pipeline run")
	}

	payload := messaging.RunTaskPayload{RunId: run.Id}
	if run.Kind == database.RunTraining {
		err = s.publisher.PublishTrainingTask(ctx, payload)
	} else {
		err = s.publisher.PublishPreprocessingTask(ctx, payload)
	}
	if err != nil {
		slog.Error("error publishing run task", "run_id", run.Id, "kind", run.Kind, "error", err)
		_ = database.UpdateRunStatus(ctx, s.db, run.Id, database.JobFailed, "failed to queue run")
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to queue pipeline run")
	}

	slog.Info("submitted pipeline run", "run_id", run.Id, "kind", run.Kind)
	return api.SubmitRunResponse{RunId: run.Id}, nil
}

func (s *BackendService) ListRuns(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[api.ListRunsParams](r)
	if err != nil {
		return nil, err
	}
	if params.Limit < 0 {
		return nil, CodedErrorf(http.StatusBadRequest, "limit must not be negative")
	}

	runs, err := database.ListRuns(r.Context(), s.db, database.RunFilter{
		Kind:   params.Kind,
		Status: params.Status,
		Limit:  params.Limit,
	})
	if err != nil {
		slog.Error("error listing runs", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving pipeline runs")
	}
	return convertRuns(runs), nil
}

func (s *BackendService) getRun(r *http.Request) (database.PipelineRun, error) {
	runId, err := URLParamUUID(r, "run_id")
	if err != nil {
		return database.PipelineRun{}, err
	}

	run, err := database.GetRun(r.Context(), s.db, runId)
	if err != nil {
		if errors.Is(err, database.ErrRunNotFound) {
			return database.PipelineRun{}, CodedErrorf(http.StatusNotFound, "pipeline run %v not found", runId)
		}
		slog.Error("error getting run", "run_id", runId, "error", err)
		return database.PipelineRun{}, CodedErrorf(http.StatusInternalServerError, "error retrieving pipeline run")
	}
	return run, nil
}

func (s *BackendService) GetRun(r *http.Request) (any, error) {
	run, err := s.getRun(r)
	if err != nil {
		return nil, err
	}
	return convertRun(run), nil
}

func (s *BackendService) GetLeaderboard(r *http.Request) (any, error) {
	run, err := s.getRun(r)
	if err != nil {
		return nil, err
	}
	if run.Kind != database.RunTraining {
		return nil, CodedErrorf(http.StatusUnprocessableEntity, "pipeline run %v is a %s run and has no leaderboard", run.Id, run.Kind)
	}
	return convertLeaderboard(run.Leaderboard), nil
}
