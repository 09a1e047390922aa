package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/bnema/colony-cli/internal/adapters/engine/mockengine"
	"github.com/spf13/cobra"
)

func newMockEngineCmd(app *app) *cobra.Command {
	var listenAddr string

	cmd := &cobra.Command{
		Use:   "mock-engine",
		Short: "Serve a local simulation engine for development",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			server := mockengine.New(app.logger.With().Str("component", "mock-engine").Logger())
			return server.ListenAndServe(ctx, listenAddr)
		},
	}

	cmd.Flags().StringVar(&listenAddr, "listen", "127.0.0.1:3001", "Listen address")

	return cmd
}
