package httpengine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path"
	"testing"
	"time"

	"github.com/bnema/colony-cli/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) domain.SessionConfig {
	t.Helper()

	raw := domain.DefaultRawConfig()
	raw.CellSymbols = map[string]string{"scout": "🐜"}
	cfg, err := domain.Validate(raw)
	require.NoError(t, err)
	return cfg
}

func newTestClient(server *httptest.Server) Client {
	return Client{BaseURL: server.URL, HTTPClient: server.Client()}
}

func TestStartSendsConfigAndReturnsID(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/start", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.EqualValues(t, 25, body["columns"])
		assert.EqualValues(t, 25, body["rows"])
		assert.EqualValues(t, 40, body["seed"])
		assert.EqualValues(t, 3, body["gatherers"])
		assert.EqualValues(t, 7, body["scouts"])
		assert.EqualValues(t, 15, body["resources"])
		assert.Equal(t, "🐜", body["scout_display"])
		assert.Equal(t, "8", body["obstacle_display"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`"abc"`))
	}))
	t.Cleanup(server.Close)

	id, err := newTestClient(server).Start(context.Background(), testConfig(t))
	require.NoError(t, err)
	assert.Equal(t, domain.RemoteID("abc"), id)
}

func TestStartRejectedStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad config", http.StatusUnprocessableEntity)
	}))
	t.Cleanup(server.Close)

	_, err := newTestClient(server).Start(context.Background(), testConfig(t))
	require.ErrorIs(t, err, domain.ErrEngineRejected)
	assert.Contains(t, err.Error(), "status 422")
}

func TestStartUnreachableEngineIsTransient(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := Client{BaseURL: url}.Start(context.Background(), testConfig(t))
	assert.ErrorIs(t, err, domain.ErrTransientNetwork)
}

func TestFetchStateDecodesGrid(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/state/abc", r.URL.Path)
		_, _ = w.Write([]byte(`{"map":[["#"," "],["S","C"]],"crystal_count":2,"energy_count":5}`))
	}))
	t.Cleanup(server.Close)

	state, err := newTestClient(server).FetchState(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"#", " "}, {"S", "C"}}, state.Grid)
	assert.Equal(t, 2, state.CrystalCount)
	assert.Equal(t, 5, state.EnergyCount)
}

func TestFetchStateNotFound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "404",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.NotFound(w, nil)
			},
		},
		{
			name: "empty map",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"map":[],"crystal_count":0,"energy_count":0}`))
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(tt.handler)
			t.Cleanup(server.Close)

			_, err := newTestClient(server).FetchState(context.Background(), "gone")
			assert.ErrorIs(t, err, domain.ErrSessionNotFound)
		})
	}
}

func TestFetchStateServerErrorIsTransient(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	_, err := newTestClient(server).FetchState(context.Background(), "abc")
	require.ErrorIs(t, err, domain.ErrTransientNetwork)
	assert.Contains(t, err.Error(), "status 502")
}

func TestFetchStateTimesOutWithoutCallerDeadline(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	t.Cleanup(server.Close)
	t.Cleanup(func() { close(release) })

	client := Client{BaseURL: server.URL, HTTPClient: server.Client(), RequestTimeout: 20 * time.Millisecond}
	_, err := client.FetchState(context.Background(), "abc")
	assert.ErrorIs(t, err, domain.ErrTransientNetwork)
}

func TestFetchStateReturnsCallerCancellation(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	t.Cleanup(server.Close)
	t.Cleanup(func() { close(release) })

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)

	_, err := newTestClient(server).FetchState(ctx, "abc")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResetAndStopAcks(t *testing.T) {
	t.Parallel()

	known := map[string]bool{"abc": true}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		if !known[path.Base(r.URL.Path)] {
			_, _ = w.Write([]byte(`"Invalid game ID."`))
			return
		}
		_, _ = w.Write([]byte(`"ok"`))
	}))
	t.Cleanup(server.Close)

	client := newTestClient(server)
	ctx := context.Background()

	require.NoError(t, client.Reset(ctx, "abc", testConfig(t)))
	require.NoError(t, client.Stop(ctx, "abc"))
	assert.ErrorIs(t, client.Reset(ctx, "zzz", testConfig(t)), domain.ErrSessionNotFound)
	assert.ErrorIs(t, client.Stop(ctx, "zzz"), domain.ErrSessionNotFound)
}

func TestBuildAPIURL(t *testing.T) {
	t.Parallel()

	got, err := buildAPIURL("http://127.0.0.1:3001", "state/abc")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:3001/state/abc", got)

	got, err = buildAPIURL("https://engine.example/api", "start")
	require.NoError(t, err)
	assert.Equal(t, "https://engine.example/api/start", got)

	_, err = buildAPIURL("", "start")
	assert.Error(t, err)
	_, err = buildAPIURL("ftp://engine", "start")
	assert.Error(t, err)
}
