package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

func episodesCmd() *cobra.Command {
	episodesCmd := &cobra.Command{
		Use:   "episodes",
		Short: "Look up episodes",
	}

	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show details for one episode",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			ep, err := c.GetEpisode(context.Background(), args[0])
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(ep)
			}

			return printEpisodeDetail(ep)
		},
	}

	episodesCmd.AddCommand(getCmd)

	return episodesCmd
}
