package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Trigger a sync pass on the server",
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			summary, err := c.TriggerSync(context.Background())
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(summary)
			}

			return printSyncSummary(summary)
		},
	}
}
