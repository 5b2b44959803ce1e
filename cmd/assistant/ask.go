package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/comigor/helpdesk-go/internal/controller"
	"github.com/comigor/helpdesk-go/internal/history"
	"github.com/comigor/helpdesk-go/internal/transport"
)

type AskFlags struct {
	User string
}

func (f *AskFlags) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&f.User, "user", f.User, "User AD ID asking the question")
}

// NewAskCommand sends one question and prints the answer, its sources and the response id
// to pass to "assistant feedback".
func NewAskCommand(root *RootFlags) *cobra.Command {
	f := &AskFlags{}

	cmd := &cobra.Command{
		Use:   "ask QUESTION...",
		Short: "Ask the assistant a single question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, closer, err := root.load(os.Stderr)
			if err != nil {
				return err
			}
			defer closer.Close()

			transcript := history.Open(cfg.History.DBPath)
			defer transcript.Close()

			ctrl := controller.New(transport.NewClient(cfg.Backend), controller.WithRecorder(transcript))
			if err := ctrl.Login(f.User); err != nil {
				return fmt.Errorf("login %q: %w", f.User, err)
			}

			question := strings.Join(args, " ")
			answer, err := ctrl.Send(cmd.Context(), question)
			if err != nil {
				return err
			}
			if answer == nil {
				return fmt.Errorf("empty question")
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, answer.Text)
			if len(answer.Sources) > 0 {
				fmt.Fprintln(out, "\nSources GLPI :")
				for _, s := range answer.Sources {
					fmt.Fprintf(out, "  • %s\n", s)
				}
			}
			if answer.ResponseID != nil {
				fmt.Fprintf(out, "\nresponse_id: %d\n", *answer.ResponseID)
			}
			fmt.Fprintf(out, "session_id: %s\n", ctrl.Snapshot().SessionID)
			return nil
		},
	}

	f.BindFlags(cmd.Flags())
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
