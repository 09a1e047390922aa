package httpengine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bnema/colony-cli/internal/domain"
)

const maxResponseBytes = 1 << 20

const invalidGameAck = "Invalid game ID."

// Client talks to a remote simulation engine over its JSON HTTP surface.
type Client struct {
	BaseURL        string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
}

type configRequest struct {
	Columns         int    `json:"columns"`
	Rows            int    `json:"rows"`
	Seed            int64  `json:"seed"`
	Gatherers       int    `json:"gatherers"`
	Scouts          int    `json:"scouts"`
	Resources       int    `json:"resources"`
	EmptyDisplay    string `json:"empty_display"`
	ObstacleDisplay string `json:"obstacle_display"`
	BaseDisplay     string `json:"base_display"`
	ScoutDisplay    string `json:"scout_display"`
	GathererDisplay string `json:"gatherer_display"`
	CrystalDisplay  string `json:"crystal_display"`
	EnergyDisplay   string `json:"energy_display"`
}

type stateResponse struct {
	Map          [][]string `json:"map"`
	CrystalCount int        `json:"crystal_count"`
	EnergyCount  int        `json:"energy_count"`
}

func newConfigRequest(cfg domain.SessionConfig) configRequest {
	return configRequest{
		Columns:         cfg.Columns,
		Rows:            cfg.Rows,
		Seed:            cfg.Seed,
		Gatherers:       cfg.GathererCount,
		Scouts:          cfg.ScoutCount,
		Resources:       cfg.ResourceCount,
		EmptyDisplay:    cfg.CellSymbols.Empty,
		ObstacleDisplay: cfg.CellSymbols.Obstacle,
		BaseDisplay:     cfg.CellSymbols.Base,
		ScoutDisplay:    cfg.CellSymbols.Scout,
		GathererDisplay: cfg.CellSymbols.Gatherer,
		CrystalDisplay:  cfg.CellSymbols.Crystal,
		EnergyDisplay:   cfg.CellSymbols.Energy,
	}
}

func (c Client) Start(ctx context.Context, cfg domain.SessionConfig) (domain.RemoteID, error) {
	var id string
	status, err := c.do(ctx, http.MethodPost, "start", newConfigRequest(cfg), &id)
	if err != nil {
		return "", fmt.Errorf("start session: %w", err)
	}
	if !isSuccess(status) {
		return "", fmt.Errorf("start session: %w: status %d", domain.ErrEngineRejected, status)
	}
	if strings.TrimSpace(id) == "" {
		return "", fmt.Errorf("start session: %w: empty session id", domain.ErrEngineRejected)
	}
	return domain.RemoteID(id), nil
}

// FetchState reads the current world. The engine answers an unknown id with
// an empty map rather than an error status, so both mean the session is gone.
func (c Client) FetchState(ctx context.Context, id domain.RemoteID) (domain.GameState, error) {
	var payload stateResponse
	status, err := c.do(ctx, http.MethodGet, "state/"+url.PathEscape(string(id)), nil, &payload)
	if err != nil {
		return domain.GameState{}, fmt.Errorf("fetch state: %w", err)
	}
	if err := statusError(status); err != nil {
		return domain.GameState{}, fmt.Errorf("fetch state: %w", err)
	}
	if len(payload.Map) == 0 {
		return domain.GameState{}, fmt.Errorf("fetch state: %w: %s", domain.ErrSessionNotFound, id)
	}

	return domain.GameState{
		Grid:         payload.Map,
		CrystalCount: payload.CrystalCount,
		EnergyCount:  payload.EnergyCount,
	}, nil
}

func (c Client) Reset(ctx context.Context, id domain.RemoteID, cfg domain.SessionConfig) error {
	var ack string
	status, err := c.do(ctx, http.MethodPost, "reset/"+url.PathEscape(string(id)), newConfigRequest(cfg), &ack)
	if err != nil {
		return fmt.Errorf("reset session: %w", err)
	}
	if err := statusError(status); err != nil {
		return fmt.Errorf("reset session: %w", err)
	}
	if ack == invalidGameAck {
		return fmt.Errorf("reset session: %w: %s", domain.ErrSessionNotFound, id)
	}
	return nil
}

func (c Client) Stop(ctx context.Context, id domain.RemoteID) error {
	var ack string
	status, err := c.do(ctx, http.MethodPost, "stop/"+url.PathEscape(string(id)), nil, &ack)
	if err != nil {
		return fmt.Errorf("stop session: %w", err)
	}
	if err := statusError(status); err != nil {
		return fmt.Errorf("stop session: %w", err)
	}
	if ack == invalidGameAck {
		return fmt.Errorf("stop session: %w: %s", domain.ErrSessionNotFound, id)
	}
	return nil
}

// do sends one request and decodes a 2xx body into out. Transport failures
// come back wrapped in ErrTransientNetwork; the status code is returned for
// the caller to classify.
func (c Client) do(ctx context.Context, method string, path string, body any, out any) (int, error) {
	endpoint, err := buildAPIURL(c.BaseURL, path)
	if err != nil {
		return 0, err
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	req, err := http.NewRequestWithContext(requestCtx, method, endpoint, reader)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, fmt.Errorf("%w: %v", domain.ErrTransientNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if !isSuccess(resp.StatusCode) {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return resp.StatusCode, nil
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("%w: decode response: %v", domain.ErrEngineRejected, err)
	}
	return resp.StatusCode, nil
}

func (c Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}

	requestTimeout := c.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 10 * time.Second
	}

	return context.WithTimeout(ctx, requestTimeout)
}

func isSuccess(status int) bool {
	return status >= http.StatusOK && status < http.StatusMultipleChoices
}

func statusError(status int) error {
	switch {
	case isSuccess(status):
		return nil
	case status == http.StatusNotFound:
		return domain.ErrSessionNotFound
	case status >= http.StatusInternalServerError:
		return fmt.Errorf("%w: status %d", domain.ErrTransientNetwork, status)
	default:
		return fmt.Errorf("%w: status %d", domain.ErrEngineRejected, status)
	}
}

func buildAPIURL(baseURL string, path string) (string, error) {
	if baseURL == "" {
		return "", errors.New("engine base url is required")
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse engine base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.New("engine base url must use http or https")
	}
	if parsed.Host == "" {
		return "", errors.New("engine base url host is required")
	}
	if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}

	endpoint, err := parsed.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parse engine path: %w", err)
	}
	return endpoint.String(), nil
}
