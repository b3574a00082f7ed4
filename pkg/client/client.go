package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"phishdetector/pkg/api"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// StatusError is returned for any non 200 response. Message is the body
// written by the server.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.Code, e.Message)
}

type Client struct {
	client *resty.Client
}

// New returns a client for the API mounted at baseURL, for example
// http://localhost:8001/api/v1.
func New(baseURL string) *Client {
	return &Client{client: resty.New().SetBaseURL(strings.TrimSuffix(baseURL, "/"))}
}

func checkResponse(res *resty.Response) error {
	if res.StatusCode() != http.StatusOK {
		return &StatusError{Code: res.StatusCode(), Message: strings.TrimSpace(string(res.Body()))}
	}
	return nil
}

func (c *Client) Health(ctx context.Context) (api.HealthResponse, error) {
	var out api.HealthResponse
	res, err := c.client.R().SetContext(ctx).SetResult(&out).Get("/health")
	if err != nil {
		return out, fmt.Errorf("error sending health request: %w", err)
	}
	return out, checkResponse(res)
}

func (c *Client) Schema(ctx context.Context) (api.SchemaResponse, error) {
	var out api.SchemaResponse
	res, err := c.client.R().SetContext(ctx).SetResult(&out).Get("/schema")
	if err != nil {
		return out, fmt.Errorf("error sending schema request: %w", err)
	}
	return out, checkResponse(res)
}

// Predict uploads a CSV document and returns one class per data row.
func (c *Client) Predict(ctx context.Context, filename string, data io.Reader) ([]int, error) {
	var out api.PredictResponse
	res, err := c.client.R().
		SetContext(ctx).
		SetMultipartField("data", filename, "text/csv", data).
		SetResult(&out).
		Post("/predict")
	if err != nil {
		return nil, fmt.Errorf("error sending predict request: %w", err)
	}
	if err := checkResponse(res); err != nil {
		return nil, err
	}
	return out.Predictions, nil
}

func (c *Client) SubmitRun(ctx context.Context, kind string) (uuid.UUID, error) {
	var out api.SubmitRunResponse
	res, err := c.client.R().
		SetContext(ctx).
		SetBody(api.SubmitRunRequest{Kind: kind}).
		SetResult(&out).
		Post("/runs")
	if err != nil {
		return uuid.Nil, fmt.Errorf("error sending submit run request: %w", err)
	}
	if err := checkResponse(res); err != nil {
		return uuid.Nil, err
	}
	return out.RunId, nil
}

func (c *Client) GetRun(ctx context.Context, runId uuid.UUID) (api.Run, error) {
	var out api.Run
	res, err := c.client.R().SetContext(ctx).SetResult(&out).Get("/runs/" + runId.String())
	if err != nil {
		return out, fmt.Errorf("error sending get run request: %w", err)
	}
	return out, checkResponse(res)
}

func (c *Client) Leaderboard(ctx context.Context, runId uuid.UUID) ([]api.LeaderboardEntry, error) {
	var out []api.LeaderboardEntry
	res, err := c.client.R().SetContext(ctx).SetResult(&out).Get("/runs/" + runId.String() + "/leaderboard")
	if err != nil {
		return nil, fmt.Errorf("error sending leaderboard request: %w", err)
	}
	if err := checkResponse(res); err != nil {
		return nil, err
	}
	return out, nil
}
