package mockengine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bnema/colony-cli/internal/adapters/engine/httpengine"
	"github.com/bnema/colony-cli/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) (*Server, httpengine.Client) {
	t.Helper()

	srv := New(zerolog.Nop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, httpengine.Client{BaseURL: ts.URL, HTTPClient: ts.Client()}
}

func defaultConfig(t *testing.T) domain.SessionConfig {
	t.Helper()

	cfg, err := domain.Validate(domain.DefaultRawConfig())
	require.NoError(t, err)
	return cfg
}

func TestSessionLifecycleThroughHTTPClient(t *testing.T) {
	t.Parallel()

	srv, client := newTestEngine(t)
	ctx := context.Background()
	cfg := defaultConfig(t)

	id, err := client.Start(ctx, cfg)
	require.NoError(t, err)
	_, err = uuid.Parse(string(id))
	require.NoError(t, err)
	assert.Equal(t, 1, srv.Len())

	state, err := client.FetchState(ctx, id)
	require.NoError(t, err)
	rows, columns := state.Dimensions()
	assert.Equal(t, 25, rows)
	assert.Equal(t, 25, columns)
	assert.Equal(t, "#", state.Grid[12][12])

	raw := cfg.Raw()
	raw.Columns = intPtr(30)
	next, err := domain.Validate(raw)
	require.NoError(t, err)
	require.NoError(t, client.Reset(ctx, id, next))

	state, err = client.FetchState(ctx, id)
	require.NoError(t, err)
	_, columns = state.Dimensions()
	assert.Equal(t, 30, columns)

	require.NoError(t, client.Stop(ctx, id))
	assert.Zero(t, srv.Len())

	_, err = client.FetchState(ctx, id)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.ErrorIs(t, client.Stop(ctx, id), domain.ErrSessionNotFound)
	assert.ErrorIs(t, client.Reset(ctx, id, cfg), domain.ErrSessionNotFound)
}

func TestStateUsesRequestedSymbols(t *testing.T) {
	t.Parallel()

	_, client := newTestEngine(t)
	raw := domain.DefaultRawConfig()
	raw.CellSymbols = map[string]string{"base": "@", "empty": "."}
	cfg, err := domain.Validate(raw)
	require.NoError(t, err)

	id, err := client.Start(context.Background(), cfg)
	require.NoError(t, err)

	state, err := client.FetchState(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "@", state.Grid[12][12])
	assert.Positive(t, state.Count(cfg.CellSymbols, domain.RoleEmpty))
	assert.Zero(t, state.Count(domain.DefaultCellSymbols(), domain.RoleBase))
}

func TestStartRejectsMalformedBody(t *testing.T) {
	t.Parallel()

	srv := New(zerolog.Nop())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/start", strings.NewReader("{"))

	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, srv.Len())
}

func TestHealth(t *testing.T) {
	t.Parallel()

	srv := New(zerolog.Nop())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
}

func intPtr(v int) *int { return &v }
