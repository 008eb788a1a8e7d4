package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

func quotaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quota",
		Short: "Show the upstream daily call budget",
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			q, err := c.Quota(context.Background())
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(q)
			}

			return printQuota(q)
		},
	}
}
