package toml

import (
	"fmt"
	"time"

	"github.com/bnema/colony-cli/internal/domain"
)

const currentSchemaVersion = 1

type fileSchema struct {
	Version int            `toml:"version"`
	Presets []presetSchema `toml:"presets"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported presets schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type presetSchema struct {
	Name      string       `toml:"name"`
	UpdatedAt string       `toml:"updated_at,omitempty"`
	Config    configSchema `toml:"config"`
}

type configSchema struct {
	Columns     int               `toml:"columns"`
	Rows        int               `toml:"rows"`
	Seed        int64             `toml:"seed"`
	Gatherers   int               `toml:"gatherers"`
	Scouts      int               `toml:"scouts"`
	Resources   int               `toml:"resources"`
	CellSymbols map[string]string `toml:"cell_symbols,omitempty"`
}

func toSchema(preset domain.Preset) presetSchema {
	raw := preset.Config.Raw()

	return presetSchema{
		Name:      preset.Name,
		UpdatedAt: formatTime(preset.UpdatedAt),
		Config: configSchema{
			Columns:     *raw.Columns,
			Rows:        *raw.Rows,
			Seed:        *raw.Seed,
			Gatherers:   *raw.GathererCount,
			Scouts:      *raw.ScoutCount,
			Resources:   *raw.ResourceCount,
			CellSymbols: raw.CellSymbols,
		},
	}
}

// fromSchema validates the stored config again so a hand-edited file cannot
// yield a preset that would fail to start.
func fromSchema(entry presetSchema) (domain.Preset, error) {
	cfg, err := domain.Validate(domain.RawConfig{
		Columns:       &entry.Config.Columns,
		Rows:          &entry.Config.Rows,
		Seed:          &entry.Config.Seed,
		GathererCount: &entry.Config.Gatherers,
		ScoutCount:    &entry.Config.Scouts,
		ResourceCount: &entry.Config.Resources,
		CellSymbols:   entry.Config.CellSymbols,
	})
	if err != nil {
		return domain.Preset{}, fmt.Errorf("decode preset %q: %w", entry.Name, err)
	}

	return domain.Preset{
		Name:      entry.Name,
		Config:    cfg,
		UpdatedAt: parseTime(entry.UpdatedAt),
	}, nil
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.Format(time.RFC3339)
}
