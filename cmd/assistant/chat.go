package main

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/comigor/helpdesk-go/internal/controller"
	"github.com/comigor/helpdesk-go/internal/history"
	"github.com/comigor/helpdesk-go/internal/logger"
	"github.com/comigor/helpdesk-go/internal/transport"
	"github.com/comigor/helpdesk-go/internal/tui"
)

type ChatFlags struct {
	User      string
	AltScreen bool
}

func (f *ChatFlags) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&f.User, "user", f.User, "User AD ID to log in with; prompts when empty")
	fs.BoolVar(&f.AltScreen, "alt-screen", f.AltScreen, "Run in the terminal's alternate screen")
}

func NewChatCommand(root *RootFlags) *cobra.Command {
	f := &ChatFlags{AltScreen: true}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start the interactive assistant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// the terminal belongs to the UI, so logs only go to log.file
			cfg, closer, err := root.load(io.Discard)
			if err != nil {
				return err
			}
			defer closer.Close()

			transcript := history.Open(cfg.History.DBPath)
			defer transcript.Close()

			events := make(chan controller.Event, 256)
			ctrl := controller.New(
				transport.NewClient(cfg.Backend),
				controller.WithRecorder(transcript),
				controller.WithEventSink(tui.EventSink(events)),
			)
			if f.User != "" {
				if err := ctrl.Login(f.User); err != nil {
					return fmt.Errorf("login %q: %w", f.User, err)
				}
			}

			opts := []tea.ProgramOption{}
			if f.AltScreen {
				opts = append(opts, tea.WithAltScreen())
			}
			p := tea.NewProgram(tui.New(cmd.Context(), ctrl, events, cfg.UI), opts...)
			logger.L.Info("starting chat", "base_url", cfg.Backend.BaseURL, "persistent_history", transcript.Persistent())
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("run chat: %w", err)
			}
			if snap := ctrl.Snapshot(); snap.LoggedIn {
				logger.L.Info("chat ended", "session_id", snap.SessionID)
				fmt.Fprintf(cmd.OutOrStdout(), "session_id: %s\n", snap.SessionID)
			}
			return nil
		},
	}

	f.BindFlags(cmd.Flags())
	return cmd
}
