package cli

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tOgg1/autostamp/internal/activity"
	"github.com/tOgg1/autostamp/internal/daemon"
	"github.com/tOgg1/autostamp/internal/logging"
)

func newRunCmd(opts *RootOptions) *cobra.Command {
	var noDatabase bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the attendance agent until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, secrets, err := opts.loadConfig()
			if err != nil {
				return err
			}

			logger := logging.Component("daemon")
			if err := cfg.EnsureDirectories(); err != nil {
				logger.Warn().Err(err).Msg("failed to create directories")
			}

			d, err := daemon.New(cfg, secrets, logger, daemon.Options{DisableDatabase: noDatabase})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return d.Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&noDatabase, "no-db", false, "keep the holiday cache in memory only")

	return cmd
}

func newTickCmd(opts *RootOptions) *cobra.Command {
	var working bool

	cmd := &cobra.Command{
		Use:   "tick",
		Short: "Run a single decision tick and print the result",
		Long: "Run one tick against a fresh state. No activity has been sampled yet, " +
			"so the tick stops at the activity step unless --working is given, " +
			"in which case it continues through the holiday check and may stamp.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, secrets, err := opts.loadConfig()
			if err != nil {
				return err
			}

			logger := logging.Component("daemon")
			d, err := daemon.New(cfg, secrets, logger, daemon.Options{})
			if err != nil {
				return err
			}
			defer d.Close()

			if working {
				recordSyntheticActivity(d.Monitor(), cfg.WorkingState.MinEventCount)
			}

			result, err := d.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			return writeTickResult(cmd.OutOrStdout(), opts.JSON, result)
		},
	}
	cmd.Flags().BoolVar(&working, "working", false, "treat the user as active for this tick")

	return cmd
}

// recordSyntheticActivity records count events just inside the window.
func recordSyntheticActivity(monitor *activity.Monitor, count int) {
	now := time.Now()
	for i := count; i > 0; i-- {
		monitor.Record(now.Add(-time.Duration(i) * 2 * activity.DefaultDedupWindow))
	}
}
