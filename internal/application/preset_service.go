package application

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/bnema/colony-cli/internal/domain"
	"github.com/bnema/colony-cli/internal/ports"
)

type PresetService struct {
	presets ports.PresetRepository
	clock   ports.Clock
}

func NewPresetService(presets ports.PresetRepository, clock ports.Clock) *PresetService {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &PresetService{presets: presets, clock: clock}
}

// Save validates raw before persisting it, so a stored preset is always
// startable.
func (s *PresetService) Save(ctx context.Context, name string, raw domain.RawConfig) (domain.Preset, error) {
	cfg, err := domain.Validate(raw)
	if err != nil {
		return domain.Preset{}, err
	}

	preset := domain.Preset{
		Name:      strings.TrimSpace(name),
		Config:    cfg,
		UpdatedAt: s.clock.Now(),
	}
	if err := preset.Validate(); err != nil {
		return domain.Preset{}, err
	}

	if err := s.presets.Save(ctx, preset); err != nil {
		return domain.Preset{}, fmt.Errorf("save preset: %w", err)
	}

	return preset, nil
}

func (s *PresetService) Get(ctx context.Context, name string) (domain.Preset, error) {
	preset, err := s.presets.GetByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return domain.Preset{}, fmt.Errorf("get preset %q: %w", name, err)
	}
	return preset, nil
}

func (s *PresetService) List(ctx context.Context) ([]domain.Preset, error) {
	presets, err := s.presets.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list presets: %w", err)
	}

	sort.Slice(presets, func(i, j int) bool {
		return presets[i].Name < presets[j].Name
	})
	return presets, nil
}

func (s *PresetService) Delete(ctx context.Context, name string) error {
	if err := s.presets.Delete(ctx, strings.TrimSpace(name)); err != nil {
		return fmt.Errorf("delete preset %q: %w", name, err)
	}
	return nil
}

// ResolveRaw returns the preset's config as raw input with overrides applied
// on top, so flags can tweak a stored preset.
func (s *PresetService) ResolveRaw(ctx context.Context, name string, overrides domain.RawConfig) (domain.RawConfig, error) {
	preset, err := s.Get(ctx, name)
	if err != nil {
		return domain.RawConfig{}, err
	}

	return preset.Config.Raw().Merge(overrides), nil
}
