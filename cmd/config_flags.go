package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bnema/colony-cli/internal/domain"
	"github.com/spf13/cobra"
)

// configFlags are the session config flags shared by validate, run and
// preset save. Only flags the user sets override the base config.
type configFlags struct {
	columns   int
	rows      int
	seed      int64
	gatherers int
	scouts    int
	resources int
	symbols   []string
	preset    string
}

func (f *configFlags) register(cmd *cobra.Command, withPreset bool) {
	defaults := domain.DefaultRawConfig()

	flags := cmd.Flags()
	flags.IntVar(&f.columns, "columns", *defaults.Columns, "Grid columns")
	flags.IntVar(&f.rows, "rows", *defaults.Rows, "Grid rows")
	flags.Int64Var(&f.seed, "seed", *defaults.Seed, "World seed")
	flags.IntVar(&f.gatherers, "gatherers", *defaults.GathererCount, "Gatherer count")
	flags.IntVar(&f.scouts, "scouts", *defaults.ScoutCount, "Scout count")
	flags.IntVar(&f.resources, "resources", *defaults.ResourceCount, "Resource count")
	flags.StringSliceVar(&f.symbols, "symbols", nil, "Cell symbol overrides as role=token (roles: empty, obstacle, base, scout, gatherer, crystal, energy)")
	if withPreset {
		flags.StringVar(&f.preset, "preset", "", "Start from a saved preset")
	}
}

func (f *configFlags) overrides(cmd *cobra.Command) (domain.RawConfig, error) {
	var raw domain.RawConfig
	flags := cmd.Flags()

	if flags.Changed("columns") {
		raw.Columns = &f.columns
	}
	if flags.Changed("rows") {
		raw.Rows = &f.rows
	}
	if flags.Changed("seed") {
		raw.Seed = &f.seed
	}
	if flags.Changed("gatherers") {
		raw.GathererCount = &f.gatherers
	}
	if flags.Changed("scouts") {
		raw.ScoutCount = &f.scouts
	}
	if flags.Changed("resources") {
		raw.ResourceCount = &f.resources
	}

	symbols, err := parseSymbols(f.symbols)
	if err != nil {
		return domain.RawConfig{}, err
	}
	raw.CellSymbols = symbols

	return raw, nil
}

// raw resolves the unvalidated config: the preset (or defaults) with flag
// overrides on top.
func (f *configFlags) raw(cmd *cobra.Command, app *app) (domain.RawConfig, error) {
	overrides, err := f.overrides(cmd)
	if err != nil {
		return domain.RawConfig{}, err
	}

	if f.preset == "" {
		return domain.DefaultRawConfig().Merge(overrides), nil
	}

	raw, err := app.presets.ResolveRaw(cmd.Context(), f.preset, overrides)
	if err != nil {
		return domain.RawConfig{}, fmt.Errorf("load preset: %w", err)
	}
	return raw, nil
}

func (f *configFlags) resolve(cmd *cobra.Command, app *app) (domain.SessionConfig, error) {
	raw, err := f.raw(cmd, app)
	if err != nil {
		return domain.SessionConfig{}, err
	}
	return domain.Validate(raw)
}

func parseSymbols(entries []string) (map[string]string, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	symbols := make(map[string]string, len(entries))
	for _, entry := range entries {
		role, token, ok := strings.Cut(entry, "=")
		if !ok || strings.TrimSpace(role) == "" {
			return nil, fmt.Errorf("invalid --symbols entry %q: want role=token", entry)
		}
		symbols[strings.TrimSpace(role)] = token
	}
	return symbols, nil
}

func writeConfig(cmd *cobra.Command, cfg domain.SessionConfig, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg.Raw())
	}

	_, _ = fmt.Fprintf(out, "columns: %d\n", cfg.Columns)
	_, _ = fmt.Fprintf(out, "rows: %d\n", cfg.Rows)
	_, _ = fmt.Fprintf(out, "seed: %d\n", cfg.Seed)
	_, _ = fmt.Fprintf(out, "gatherers: %d\n", cfg.GathererCount)
	_, _ = fmt.Fprintf(out, "scouts: %d\n", cfg.ScoutCount)
	_, _ = fmt.Fprintf(out, "resources: %d\n", cfg.ResourceCount)

	symbols := make([]string, 0, len(domain.Roles))
	for _, role := range domain.Roles {
		symbols = append(symbols, fmt.Sprintf("%s=%q", role, cfg.CellSymbols.Symbol(role)))
	}
	_, err := fmt.Fprintf(out, "symbols: %s\n", strings.Join(symbols, " "))
	return err
}
