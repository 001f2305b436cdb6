// Package cli implements the autostamp command line.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tOgg1/autostamp/internal/config"
	"github.com/tOgg1/autostamp/internal/logging"
)

// dotenvFiles are loaded for secrets, in order, when present.
var dotenvFiles = []string{".env"}

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigFile string
	LogLevel   string
	LogFormat  string
	JSON       bool

	// logFile is the open logging.file, closed after the command runs.
	logFile io.Closer
}

// BuildInfo is stamped into the binary at release time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// Execute runs the root command with os.Args.
func Execute(info BuildInfo) error {
	return newRootCmd(info).Execute()
}

func newRootCmd(info BuildInfo) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "autostamp",
		Short:         "Automatic attendance clock-in and clock-out",
		Long:          "autostamp watches keyboard and mouse activity and stamps the attendance portal when you start and stop working.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       info.Version,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.logFile != nil {
				return opts.logFile.Close()
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (default is $HOME/.config/autostamp/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "override logging level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "", "override logging format (json, console)")
	cmd.PersistentFlags().BoolVar(&opts.JSON, "json", false, "machine-readable output")

	cmd.AddCommand(
		newRunCmd(opts),
		newTickCmd(opts),
		newHolidayCmd(opts),
		newConfigCmd(opts),
		newVersionCmd(info),
	)

	return cmd
}

// loadConfig loads the configuration and the secrets, applies flag
// overrides and initializes logging.
func (o *RootOptions) loadConfig() (*config.Config, config.Secrets, error) {
	loader := config.NewLoader()
	if o.ConfigFile != "" {
		loader.SetConfigFile(o.ConfigFile)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, config.Secrets{}, err
	}

	secrets, err := config.LoadSecrets(dotenvFiles...)
	if err != nil {
		return nil, config.Secrets{}, fmt.Errorf("failed to load secrets: %w", err)
	}
	secrets.Apply(cfg)

	if o.LogLevel != "" {
		cfg.Logging.Level = o.LogLevel
	}
	if o.LogFormat != "" {
		cfg.Logging.Format = o.LogFormat
	}
	if err := o.initLogging(cfg); err != nil {
		return nil, config.Secrets{}, err
	}

	if used := loader.ConfigFileUsed(); used != "" {
		logging.Logger.Debug().Str("config_file", used).Msg("loaded config file")
	}
	return cfg, secrets, nil
}

func (o *RootOptions) initLogging(cfg *config.Config) error {
	var output io.Writer = os.Stderr
	if cfg.Logging.File != "" {
		file, err := logging.OpenFile(cfg.Logging.File)
		if err != nil {
			return err
		}
		o.logFile = file
		output = zerolog.MultiLevelWriter(os.Stderr, file)
	}

	logging.Init(logging.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		Output:       output,
		EnableCaller: cfg.Logging.EnableCaller,
	})
	return nil
}
