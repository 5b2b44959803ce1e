package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/comigor/helpdesk-go/internal/config"
	"github.com/comigor/helpdesk-go/internal/logger"
)

// RootFlags are shared by every subcommand.
type RootFlags struct {
	ConfigPath string
	LogLevel   string
}

func (f *RootFlags) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&f.ConfigPath, "config", f.ConfigPath, "Path to a config.yaml (overrides CONFIG_PATH)")
	fs.StringVar(&f.LogLevel, "log-level", f.LogLevel, "Log level (debug,info,warn,error); defaults to log.level from the config")
}

// load reads the configuration and points the logger at log.file, or at fallback when unset.
// The returned closer releases the log file.
func (f *RootFlags) load(fallback io.Writer) (*config.Config, io.Closer, error) {
	path := f.ConfigPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return nil, nil, err
	}
	level := cfg.Log.Level
	if f.LogLevel != "" {
		level = f.LogLevel
	}
	closer, err := logger.Configure(level, cfg.Log.File, fallback)
	if err != nil {
		return nil, nil, err
	}
	logger.L.Debug("configuration loaded", "base_url", cfg.Backend.BaseURL, "timeout", cfg.Backend.Timeout, "theme", cfg.UI.Theme)
	return cfg, closer, nil
}

// NewRootCommand wires the assistant subcommands.
func NewRootCommand() *cobra.Command {
	f := &RootFlags{}

	cmd := &cobra.Command{
		Use:   "assistant",
		Short: "GLPI help-desk assistant client",
		Long: `assistant talks to the GLPI help-desk assistant backend. Run "assistant chat" for the
interactive terminal client, or use the one-shot subcommands from scripts.`,
		SilenceUsage: true,
	}
	f.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		NewChatCommand(f),
		NewAskCommand(f),
		NewFeedbackCommand(f),
		NewStatsCommand(f),
		NewPreviewCommand(f),
		NewHistoryCommand(f),
	)
	return cmd
}
