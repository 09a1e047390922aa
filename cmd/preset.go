package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bnema/colony-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newPresetCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preset",
		Short: "Manage named session configs",
	}

	cmd.AddCommand(
		newPresetSaveCmd(app),
		newPresetListCmd(app),
		newPresetShowCmd(app),
		newPresetDeleteCmd(app),
	)

	return cmd
}

func newPresetSaveCmd(app *app) *cobra.Command {
	var flags configFlags

	cmd := &cobra.Command{
		Use:   "save <name>",
		Short: "Validate a config and store it under a name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := flags.raw(cmd, app)
			if err != nil {
				return err
			}

			preset, err := app.presets.Save(cmd.Context(), args[0], raw)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Saved preset %s (%dx%d, seed %d)\n",
				preset.Name, preset.Config.Columns, preset.Config.Rows, preset.Config.Seed)
			return nil
		},
	}

	flags.register(cmd, true)

	return cmd
}

type presetView struct {
	Name      string           `json:"name"`
	UpdatedAt string           `json:"updated_at,omitempty"`
	Config    domain.RawConfig `json:"config"`
}

func toPresetView(preset domain.Preset) presetView {
	view := presetView{Name: preset.Name, Config: preset.Config.Raw()}
	if !preset.UpdatedAt.IsZero() {
		view.UpdatedAt = preset.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return view
}

func newPresetListCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			presets, err := app.presets.List(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				views := make([]presetView, 0, len(presets))
				for _, preset := range presets {
					views = append(views, toPresetView(preset))
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(views)
			}

			if len(presets) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No presets saved.")
				return nil
			}
			for _, preset := range presets {
				cfg := preset.Config
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%dx%d seed %d gatherers %d scouts %d resources %d\n",
					preset.Name, cfg.Columns, cfg.Rows, cfg.Seed, cfg.GathererCount, cfg.ScoutCount, cfg.ResourceCount)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")

	return cmd
}

func newPresetShowCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show a saved preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			preset, err := app.presets.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(toPresetView(preset))
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "name: %s\n", preset.Name)
			return writeConfig(cmd, preset.Config, false)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")

	return cmd
}

func newPresetDeleteCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.presets.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted preset %s\n", args[0])
			return nil
		},
	}
}
