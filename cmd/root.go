package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "colony",
		Short:         "Colony: run and watch remote colony simulations",
		Long:          "colony starts simulation sessions on a remote engine, polls their state on a timer, and renders the boards in the terminal. Session configs can be validated up front and stored as named presets.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}
	rootCmd.PersistentPostRun = func(_ *cobra.Command, _ []string) {
		app.close()
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newValidateCmd(app),
		newRunCmd(app),
		newPresetCmd(app),
		newMockEngineCmd(app),
	)

	return rootCmd
}
