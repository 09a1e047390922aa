package domain

const (
	MinGridSize      = 15
	MaxGridSize      = 100
	MinGatherers     = 0
	MaxGatherers     = 15
	MinScouts        = 1
	MaxScouts        = 15
	MinResources     = 1
	MaxResources     = 50
	defaultGridSize  = 25
	defaultSeed      = 40
	defaultGatherers = 3
	defaultScouts    = 7
	defaultResources = 15
)

// SessionConfig is a validated set of parameters for one remote session.
type SessionConfig struct {
	Columns       int
	Rows          int
	Seed          int64
	GathererCount int
	ScoutCount    int
	ResourceCount int
	CellSymbols   CellSymbols
}

// RawConfig is caller input before validation. Nil numeric fields are
// reported as missing; nil symbols fall back to the defaults.
type RawConfig struct {
	Columns       *int              `json:"columns,omitempty" toml:"columns,omitempty"`
	Rows          *int              `json:"rows,omitempty" toml:"rows,omitempty"`
	Seed          *int64            `json:"seed,omitempty" toml:"seed,omitempty"`
	GathererCount *int              `json:"gatherers,omitempty" toml:"gatherers,omitempty"`
	ScoutCount    *int              `json:"scouts,omitempty" toml:"scouts,omitempty"`
	ResourceCount *int              `json:"resources,omitempty" toml:"resources,omitempty"`
	CellSymbols   map[string]string `json:"cell_symbols,omitempty" toml:"cell_symbols,omitempty"`
}

func DefaultRawConfig() RawConfig {
	return RawConfig{
		Columns:       intPtr(defaultGridSize),
		Rows:          intPtr(defaultGridSize),
		Seed:          int64Ptr(defaultSeed),
		GathererCount: intPtr(defaultGatherers),
		ScoutCount:    intPtr(defaultScouts),
		ResourceCount: intPtr(defaultResources),
	}
}

// Raw converts a validated config back into caller input, e.g. for
// persisting it as a preset.
func (c SessionConfig) Raw() RawConfig {
	symbols := make(map[string]string, len(Roles))
	for _, role := range Roles {
		symbols[string(role)] = c.CellSymbols.Symbol(role)
	}

	return RawConfig{
		Columns:       intPtr(c.Columns),
		Rows:          intPtr(c.Rows),
		Seed:          int64Ptr(c.Seed),
		GathererCount: intPtr(c.GathererCount),
		ScoutCount:    intPtr(c.ScoutCount),
		ResourceCount: intPtr(c.ResourceCount),
		CellSymbols:   symbols,
	}
}

// Merge returns r with every field set in overrides replacing its own.
// Symbol overrides are merged per role.
func (r RawConfig) Merge(overrides RawConfig) RawConfig {
	merged := r
	if overrides.Columns != nil {
		merged.Columns = overrides.Columns
	}
	if overrides.Rows != nil {
		merged.Rows = overrides.Rows
	}
	if overrides.Seed != nil {
		merged.Seed = overrides.Seed
	}
	if overrides.GathererCount != nil {
		merged.GathererCount = overrides.GathererCount
	}
	if overrides.ScoutCount != nil {
		merged.ScoutCount = overrides.ScoutCount
	}
	if overrides.ResourceCount != nil {
		merged.ResourceCount = overrides.ResourceCount
	}
	if len(overrides.CellSymbols) > 0 {
		symbols := make(map[string]string, len(r.CellSymbols)+len(overrides.CellSymbols))
		for role, symbol := range r.CellSymbols {
			symbols[role] = symbol
		}
		for role, symbol := range overrides.CellSymbols {
			symbols[role] = symbol
		}
		merged.CellSymbols = symbols
	}
	return merged
}

func intPtr(v int) *int { return &v }

func int64Ptr(v int64) *int64 { return &v }
