package application

import (
	"context"
	"sync"
	"testing"

	"github.com/bnema/colony-cli/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryPresetRepo struct {
	mu      sync.Mutex
	presets map[string]domain.Preset
}

func newMemoryPresetRepo() *memoryPresetRepo {
	return &memoryPresetRepo{presets: make(map[string]domain.Preset)}
}

func (r *memoryPresetRepo) GetByName(_ context.Context, name string) (domain.Preset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	preset, ok := r.presets[name]
	if !ok {
		return domain.Preset{}, domain.ErrPresetNotFound
	}
	return preset, nil
}

func (r *memoryPresetRepo) List(context.Context) ([]domain.Preset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Preset, 0, len(r.presets))
	for _, preset := range r.presets {
		out = append(out, preset)
	}
	return out, nil
}

func (r *memoryPresetRepo) Save(_ context.Context, preset domain.Preset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.presets[preset.Name] = preset
	return nil
}

func (r *memoryPresetRepo) Delete(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.presets[name]; !ok {
		return domain.ErrPresetNotFound
	}
	delete(r.presets, name)
	return nil
}

func TestPresetServiceSaveValidatesConfig(t *testing.T) {
	t.Parallel()

	repo := newMemoryPresetRepo()
	svc := NewPresetService(repo, newFakeClock())

	raw := domain.DefaultRawConfig()
	raw.ScoutCount = intPtr(0)

	_, err := svc.Save(context.Background(), "tiny", raw)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "scouts", verr.Field)
	assert.Empty(t, repo.presets)
}

func TestPresetServiceSaveRejectsBadName(t *testing.T) {
	t.Parallel()

	svc := NewPresetService(newMemoryPresetRepo(), newFakeClock())

	_, err := svc.Save(context.Background(), "  ", domain.DefaultRawConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")

	_, err = svc.Save(context.Background(), "big map", domain.DefaultRawConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not contain whitespace")
}

func TestPresetServiceSaveGetAndList(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	svc := NewPresetService(newMemoryPresetRepo(), clock)
	ctx := context.Background()

	raw := domain.DefaultRawConfig()
	raw.Columns = intPtr(60)
	saved, err := svc.Save(ctx, " wide ", raw)
	require.NoError(t, err)
	assert.Equal(t, "wide", saved.Name)
	assert.Equal(t, clock.Now(), saved.UpdatedAt)

	_, err = svc.Save(ctx, "alpha", domain.DefaultRawConfig())
	require.NoError(t, err)

	got, err := svc.Get(ctx, "wide")
	require.NoError(t, err)
	assert.Equal(t, 60, got.Config.Columns)

	presets, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, presets, 2)
	assert.Equal(t, "alpha", presets[0].Name)
	assert.Equal(t, "wide", presets[1].Name)
}

func TestPresetServiceGetAndDeleteMissing(t *testing.T) {
	t.Parallel()

	svc := NewPresetService(newMemoryPresetRepo(), newFakeClock())

	_, err := svc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrPresetNotFound)
	assert.ErrorIs(t, svc.Delete(context.Background(), "nope"), domain.ErrPresetNotFound)
}

func TestPresetServiceResolveRawAppliesOverrides(t *testing.T) {
	t.Parallel()

	svc := NewPresetService(newMemoryPresetRepo(), newFakeClock())
	ctx := context.Background()

	raw := domain.DefaultRawConfig()
	raw.Seed = int64Ptr(7)
	raw.CellSymbols = map[string]string{"scout": "s"}
	_, err := svc.Save(ctx, "base", raw)
	require.NoError(t, err)

	resolved, err := svc.ResolveRaw(ctx, "base", domain.RawConfig{
		Rows:        intPtr(30),
		CellSymbols: map[string]string{"gatherer": "g"},
	})
	require.NoError(t, err)

	cfg, err := domain.Validate(resolved)
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Rows)
	assert.Equal(t, 25, cfg.Columns)
	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, "s", cfg.CellSymbols.Scout)
	assert.Equal(t, "g", cfg.CellSymbols.Gatherer)
	assert.Equal(t, "C", cfg.CellSymbols.Crystal)
}
