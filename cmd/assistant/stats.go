package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/comigor/helpdesk-go/internal/transport"
)

func NewStatsCommand(root *RootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show how many GLPI entries the assistant knows about",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, closer, err := root.load(os.Stderr)
			if err != nil {
				return err
			}
			defer closer.Close()

			stats, err := transport.NewClient(cfg.Backend).Stats(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Tickets:           %d\n", stats.TicketsCount)
			fmt.Fprintf(out, "Articles KB:       %d\n", stats.KBArticlesCount)
			fmt.Fprintf(out, "FAQ:               %d\n", stats.FAQItemsCount)
			fmt.Fprintf(out, "Total:             %d\n", stats.TotalEntries)
			return nil
		},
	}
}

func NewPreviewCommand(root *RootFlags) *cobra.Command {
	return &cobra.Command{
		Use:       "preview {tickets|kb_articles|faq}",
		Short:     "Print a sample of the GLPI entries of one kind as JSON",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{transport.PreviewTickets, transport.PreviewKBArticles, transport.PreviewFAQ},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, closer, err := root.load(os.Stderr)
			if err != nil {
				return err
			}
			defer closer.Close()

			data, err := transport.NewClient(cfg.Backend).Preview(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(data)
		},
	}
}
