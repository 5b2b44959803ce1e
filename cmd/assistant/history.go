package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/comigor/helpdesk-go/internal/history"
)

type HistoryFlags struct {
	Session string
}

func (f *HistoryFlags) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&f.Session, "session", f.Session, "Session id printed by \"assistant ask\" or \"assistant chat\"; lists sessions when empty")
}

// NewHistoryCommand reads back the transcript kept at history.db_path.
func NewHistoryCommand(root *RootFlags) *cobra.Command {
	f := &HistoryFlags{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded sessions, or the messages and ratings of one session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, closer, err := root.load(os.Stderr)
			if err != nil {
				return err
			}
			defer closer.Close()

			if cfg.History.DBPath == "" {
				return fmt.Errorf("history.db_path is not set; without it the transcript only lives in memory for one run")
			}
			transcript := history.Open(cfg.History.DBPath)
			defer transcript.Close()
			if !transcript.Persistent() {
				return fmt.Errorf("cannot open transcript at %s", cfg.History.DBPath)
			}

			ctx, out := cmd.Context(), cmd.OutOrStdout()
			if f.Session == "" {
				sessions, err := transcript.Sessions(ctx)
				if err != nil {
					return err
				}
				if len(sessions) == 0 {
					fmt.Fprintln(out, "no recorded sessions")
				}
				for _, id := range sessions {
					fmt.Fprintln(out, id)
				}
				return nil
			}

			entries, err := transcript.List(ctx, f.Session)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				return fmt.Errorf("no messages recorded for session %s", f.Session)
			}
			for _, e := range entries {
				fmt.Fprintf(out, "%s  conv %d  #%d %-9s %s", e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Conversation, e.MessageID, e.Role, e.Content)
				if e.ResponseID != nil {
					fmt.Fprintf(out, "  (response_id %d)", *e.ResponseID)
				}
				fmt.Fprintln(out)
			}

			ratings, err := transcript.Ratings(ctx, f.Session)
			if err != nil {
				return err
			}
			if len(ratings) > 0 {
				fmt.Fprintln(out, "\nratings:")
			}
			for _, r := range ratings {
				fmt.Fprintf(out, "%s  conv %d  #%d %s helpful=%t\n", r.CreatedAt.Local().Format("2006-01-02 15:04"), r.Conversation, r.MessageID, r.State, r.Helpful)
			}
			return nil
		},
	}

	f.BindFlags(cmd.Flags())
	return cmd
}
