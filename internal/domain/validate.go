package domain

import "fmt"

// Validate turns raw caller input into a SessionConfig. Fields are checked in
// declaration order and the first failure is returned as a *ValidationError.
func Validate(raw RawConfig) (SessionConfig, error) {
	var (
		cfg SessionConfig
		err error
	)

	if cfg.Columns, err = checkRange("columns", raw.Columns, MinGridSize, MaxGridSize); err != nil {
		return SessionConfig{}, err
	}
	if cfg.Rows, err = checkRange("rows", raw.Rows, MinGridSize, MaxGridSize); err != nil {
		return SessionConfig{}, err
	}
	if raw.Seed == nil {
		return SessionConfig{}, &ValidationError{Field: "seed", Reason: "is required"}
	}
	cfg.Seed = *raw.Seed
	if cfg.GathererCount, err = checkRange("gatherers", raw.GathererCount, MinGatherers, MaxGatherers); err != nil {
		return SessionConfig{}, err
	}
	if cfg.ScoutCount, err = checkRange("scouts", raw.ScoutCount, MinScouts, MaxScouts); err != nil {
		return SessionConfig{}, err
	}
	if cfg.ResourceCount, err = checkRange("resources", raw.ResourceCount, MinResources, MaxResources); err != nil {
		return SessionConfig{}, err
	}
	if cfg.CellSymbols, err = normalizeSymbols(raw.CellSymbols); err != nil {
		return SessionConfig{}, err
	}

	return cfg, nil
}

func checkRange(field string, value *int, min, max int) (int, error) {
	if value == nil {
		return 0, &ValidationError{Field: field, Reason: "is required"}
	}
	if *value < min || *value > max {
		return 0, &ValidationError{Field: field, Reason: fmt.Sprintf("must be between %d and %d, got %d", min, max, *value)}
	}
	return *value, nil
}

func normalizeSymbols(raw map[string]string) (CellSymbols, error) {
	symbols := DefaultCellSymbols()
	for key, symbol := range raw {
		role, err := ParseRole(key)
		if err != nil {
			// unknown roles are ignored like any other unknown field
			continue
		}
		symbols.set(role, symbol)
	}

	if err := symbols.validate(); err != nil {
		return CellSymbols{}, err
	}
	return symbols, nil
}
