// Package assistant is the HTTP client for the ViajeIA planning backend.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	defaultBaseURL = "http://localhost:8000"

	// EnvBaseURL overrides the backend base URL.
	EnvBaseURL = "VIAJEIA_API_URL"
)

// ErrBackendUnavailable is returned for any backend failure. The caller
// shows a generic retry message; the wrapped detail is for logs only.
var ErrBackendUnavailable = errors.New("the travel assistant is temporarily unavailable")

// TripContext is the optional structured context sent along with a question.
type TripContext struct {
	Destination string `json:"destino,omitempty"`
	Date        string `json:"fecha,omitempty"`
	Budget      string `json:"presupuesto,omitempty"`
	Preference  string `json:"preferencia,omitempty"`
}

// PlanRequest is the body of POST /api/planificar.
type PlanRequest struct {
	Question  string       `json:"pregunta"`
	Context   *TripContext `json:"contexto,omitempty"`
	SessionID string       `json:"session_id,omitempty"`
}

// Exchange is one earlier question/answer pair echoed back by the backend.
type Exchange struct {
	Question string `json:"pregunta"`
	Answer   string `json:"respuesta"`
}

// PlanResponse is the backend's answer. Photos, destination info and the
// conversation history are optional enrichments.
type PlanResponse struct {
	Answer          string                 `json:"respuesta"`
	Photos          []string               `json:"fotos,omitempty"`
	DestinationInfo map[string]interface{} `json:"info_destino,omitempty"`
	History         []Exchange             `json:"historial,omitempty"`
}

// Stats mirrors GET /api/estadisticas.
type Stats struct {
	TotalConsults    int64            `json:"total_consultas"`
	ConsultsPerDay   map[string]int64 `json:"consultas_por_dia"`
	TopDestinations  map[string]int64 `json:"destinos_consultados"`
	UniqueUserCount  int64            `json:"usuarios_unicos_total"`
}

// Config holds assistant client configuration.
type Config struct {
	// BaseURL of the backend. Empty falls back to the VIAJEIA_API_URL
	// environment variable, then to http://localhost:8000.
	BaseURL string

	// HTTPClient defaults to a client with a 60s timeout; answers can
	// take a while to generate.
	HTTPClient *http.Client
}

// Client talks to the planning backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an assistant client.
func NewClient(config Config) *Client {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = os.Getenv(EnvBaseURL)
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Plan submits a question and returns the generated answer. Any transport
// or backend failure comes back as ErrBackendUnavailable; the question has
// no quota side effect here.
func (c *Client) Plan(ctx context.Context, req PlanRequest) (*PlanResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal plan request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/planificar", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build plan request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: backend returned status %d", ErrBackendUnavailable, resp.StatusCode)
	}

	var out PlanResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: invalid response: %v", ErrBackendUnavailable, err)
	}
	return &out, nil
}

// GetStats fetches the aggregated usage statistics.
func (c *Client) GetStats(ctx context.Context) (*Stats, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/estadisticas", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build stats request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: backend returned status %d", ErrBackendUnavailable, resp.StatusCode)
	}

	var out Stats
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: invalid response: %v", ErrBackendUnavailable, err)
	}
	return &out, nil
}
