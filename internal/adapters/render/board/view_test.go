package board

import (
	"strings"
	"testing"
	"time"

	"github.com/bnema/colony-cli/internal/application"
	"github.com/bnema/colony-cli/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshotConfig(t *testing.T) *domain.SessionConfig {
	t.Helper()

	raw := domain.DefaultRawConfig()
	cfg, err := domain.Validate(raw)
	require.NoError(t, err)
	return &cfg
}

func runningSnapshot(t *testing.T, key application.SessionKey) application.SessionSnapshot {
	t.Helper()

	now := time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC)
	return application.SessionSnapshot{
		Key:      key,
		RemoteID: "0f8fad5b-d9cb-469f-a165-70867728950e",
		Status:   domain.StatusRunning,
		Config:   snapshotConfig(t),
		LastState: domain.GameState{
			Grid: [][]string{
				{"8", " ", "C"},
				{" ", "#", "S"},
				{"G", " ", "E"},
			},
			CrystalCount: 4,
			EnergyCount:  2,
		},
		PollInterval: 500 * time.Millisecond,
		UpdatedAt:    now.Add(-3 * time.Second),
	}
}

func TestRenderSingleSession(t *testing.T) {
	now := time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC)

	output, err := Render([]application.SessionSnapshot{runningSnapshot(t, 1)}, RenderOptions{Now: now, Plain: true})

	require.NoError(t, err)
	assert.Contains(t, output, "sessions: 1")
	assert.Contains(t, output, "Session 1 (0f8fad5b)")
	assert.Contains(t, output, "running")
	assert.Contains(t, output, "crystals: 4")
	assert.Contains(t, output, "energy: 2")
	assert.Contains(t, output, "every 500ms")
	assert.Contains(t, output, "25x25 seed 40")
	assert.Contains(t, output, "updated 3s ago")
	assert.Contains(t, output, "8 C")
	assert.Contains(t, output, " #S")
	assert.Contains(t, output, "G E")
}

func TestRenderMultipleSessionsInOrder(t *testing.T) {
	idle := application.SessionSnapshot{Key: 2, Status: domain.StatusIdle, PollInterval: time.Second}
	stopped := application.SessionSnapshot{Key: 3, Status: domain.StatusTerminated, PollInterval: time.Second, LastError: "session not found"}

	output, err := Render([]application.SessionSnapshot{runningSnapshot(t, 1), idle, stopped}, RenderOptions{Plain: true})

	require.NoError(t, err)
	assert.Contains(t, output, "sessions: 3")
	assert.Contains(t, output, "Not started.")
	assert.Contains(t, output, "Stopped.")
	assert.Contains(t, output, "error: session not found")
	assert.NotContains(t, output, "updated")

	first := strings.Index(output, "Session 1")
	second := strings.Index(output, "Session 2")
	third := strings.Index(output, "Session 3")
	assert.True(t, first < second && second < third)
}

func TestRenderNoSessions(t *testing.T) {
	output, err := Render(nil, RenderOptions{})

	require.NoError(t, err)
	assert.Contains(t, output, "sessions: 0")
	assert.Contains(t, output, "No sessions.")
}

func TestRenderGridUsesCustomSymbols(t *testing.T) {
	snap := runningSnapshot(t, 1)
	raw := domain.DefaultRawConfig()
	raw.CellSymbols = map[string]string{"scout": "🐜"}
	cfg, err := domain.Validate(raw)
	require.NoError(t, err)
	snap.Config = &cfg
	snap.LastState.Grid[1][2] = "🐜"

	output := renderGrid(snap, RenderOptions{}, newStyles())
	assert.Contains(t, output, "🐜")
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "abc", shortID("abc"))
	assert.Equal(t, "0f8fad5b", shortID("0f8fad5b-d9cb-469f-a165-70867728950e"))
}
