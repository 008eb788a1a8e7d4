package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func searchCmd() *cobra.Command {
	var (
		searchLimit  int
		searchOffset int
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the podcast catalog",
		Long: "Sends a search request to the API server. With --user set, " +
			"results include whether that user follows each show.",
		Example: `  pmctl search "true crime"
  pmctl search "daily news" --limit 25 --user alice`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			resp, err := c.Search(context.Background(), args[0], searchLimit, searchOffset)
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(resp)
			}

			if len(resp.Shows) == 0 {
				fmt.Println("No shows found.")
				return nil
			}

			fmt.Printf("Showing %d of %d shows\n\n", len(resp.Shows), resp.Total)
			return printSearchTable(resp.Shows)
		},
	}
	cmd.Flags().IntVar(&searchLimit, "limit", 10, "maximum number of results")
	cmd.Flags().IntVar(&searchOffset, "offset", 0, "result offset")

	return cmd
}
