package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bnema/colony-cli/internal/adapters/render/board"
	"github.com/bnema/colony-cli/internal/application"
	"github.com/bnema/colony-cli/internal/domain"
	"github.com/spf13/cobra"
)

const (
	updateBuffer = 64
	closeTimeout = 5 * time.Second
)

type runOptions struct {
	sessions int
	interval time.Duration
	plain    bool
	duration time.Duration
}

func newRunCmd(app *app) *cobra.Command {
	var flags configFlags
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start sessions on the engine and watch them",
		Long:  "run starts --sessions sessions with the given config and polls each one on its own timer. By default it opens an interactive board; --plain prints a board per update instead, until --duration elapses or every session has stopped.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.sessions < 0 {
				return fmt.Errorf("--sessions must not be negative")
			}
			if opts.plain && opts.sessions == 0 {
				return fmt.Errorf("--plain needs at least one session")
			}

			cfg, err := flags.resolve(cmd, app)
			if err != nil {
				return err
			}

			interval := app.pollInterval()
			if cmd.Flags().Changed("interval") {
				interval = opts.interval
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			manager := application.NewManager(app.engine, app.clock, app.sessionLogger(!opts.plain), interval)
			defer func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
				defer cancel()
				if err := manager.Close(closeCtx); err != nil {
					app.logger.Warn().Err(err).Msg("close sessions")
				}
			}()

			controls := application.NewControls(manager, cfg)
			sub := manager.Subscribe(updateBuffer)
			defer manager.Unsubscribe(sub)

			if opts.plain {
				return runPlain(ctx, cmd, app, controls, sub, opts)
			}

			for i := 0; i < opts.sessions; i++ {
				if _, err := controls.Launch(ctx); err != nil {
					app.logger.Warn().Err(err).Msg("launch session")
				}
			}
			return board.RunLive(ctx, controls, sub.C, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	flags.register(cmd, true)
	cmd.Flags().IntVar(&opts.sessions, "sessions", 1, "Number of sessions to start")
	cmd.Flags().DurationVar(&opts.interval, "interval", application.DefaultPollInterval, "Poll interval per session (clamped to 100ms..1s)")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "Print boards instead of the interactive view")
	cmd.Flags().DurationVar(&opts.duration, "duration", 0, "Stop after this long in --plain mode (0 runs until interrupted)")

	return cmd
}

func runPlain(ctx context.Context, cmd *cobra.Command, app *app, controls *application.Controls, sub *application.Subscription, opts runOptions) error {
	if opts.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.duration)
		defer cancel()
	}

	if err := launchSessions(ctx, cmd.ErrOrStderr(), controls, opts.sessions); err != nil {
		if !anyActive(controls.ListSessions()) {
			return err
		}
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "some sessions failed to start: %v\n", err)
	}

	for {
		snapshots := controls.ListSessions()
		if err := writeBoard(cmd, app, snapshots); err != nil {
			return err
		}
		if allStopped(snapshots) {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-sub.C:
			if !ok {
				return nil
			}
			app.logger.Debug().Uint64("session", uint64(update.Key)).Str("kind", string(update.Kind)).Msg("update")
		}
	}
}

func writeBoard(cmd *cobra.Command, app *app, snapshots []application.SessionSnapshot) error {
	rendered, err := app.renderer(snapshots, board.RenderOptions{Now: app.now(), Plain: true})
	if err != nil {
		return fmt.Errorf("render board: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}

func anyActive(snapshots []application.SessionSnapshot) bool {
	for _, snap := range snapshots {
		if snap.Status.Active() {
			return true
		}
	}
	return false
}

// allStopped reports whether no session can produce further updates.
func allStopped(snapshots []application.SessionSnapshot) bool {
	for _, snap := range snapshots {
		if snap.Status != domain.StatusTerminated && snap.Status != domain.StatusIdle {
			return false
		}
	}
	return true
}
