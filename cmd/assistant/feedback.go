package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/comigor/helpdesk-go/internal/logger"
	"github.com/comigor/helpdesk-go/internal/transport"
)

type FeedbackFlags struct {
	ResponseID int64
	Helpful    bool
}

func (f *FeedbackFlags) BindFlags(fs *pflag.FlagSet) {
	fs.Int64Var(&f.ResponseID, "response", f.ResponseID, "response_id printed by \"assistant ask\"")
	fs.BoolVar(&f.Helpful, "helpful", f.Helpful, "Whether the answer helped; --helpful=false for a thumbs down")
}

func NewFeedbackCommand(root *RootFlags) *cobra.Command {
	f := &FeedbackFlags{Helpful: true}

	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Rate an answer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.ResponseID <= 0 {
				return fmt.Errorf("--response must be a positive response id")
			}
			cfg, closer, err := root.load(os.Stderr)
			if err != nil {
				return err
			}
			defer closer.Close()

			client := transport.NewClient(cfg.Backend)
			if err := client.SubmitFeedback(cmd.Context(), f.ResponseID, f.Helpful); err != nil {
				return err
			}
			logger.L.Info("feedback recorded", "response_id", f.ResponseID, "helpful", f.Helpful)
			fmt.Fprintln(cmd.OutOrStdout(), "Merci pour votre retour !")
			return nil
		},
	}

	f.BindFlags(cmd.Flags())
	_ = cmd.MarkFlagRequired("response")
	return cmd
}
