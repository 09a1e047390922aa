package cmd

import (
	"github.com/spf13/cobra"
)

func newValidateCmd(app *app) *cobra.Command {
	var flags configFlags
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a session config and print it normalized",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.resolve(cmd, app)
			if err != nil {
				return err
			}
			return writeConfig(cmd, cfg, asJSON)
		},
	}

	flags.register(cmd, true)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")

	return cmd
}
