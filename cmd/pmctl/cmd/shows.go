package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func showsCmd() *cobra.Command {
	showsCmd := &cobra.Command{
		Use:   "shows",
		Short: "Manage tracked shows",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List tracked shows",
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			resp, err := c.ListTracked(context.Background())
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(resp)
			}

			if len(resp.Shows) == 0 {
				fmt.Println("No tracked shows.")
				return nil
			}

			return printShowsTable(resp.Shows)
		},
	}

	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show details for one show",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			show, err := c.GetShow(context.Background(), args[0])
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(show)
			}

			return printShowDetail(show)
		},
	}

	var (
		episodesLimit  int
		episodesCursor string
	)

	episodesCmd := &cobra.Command{
		Use:   "episodes <id>",
		Short: "List a show's episodes",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			resp, err := c.GetShowEpisodes(context.Background(), args[0], episodesLimit, episodesCursor)
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(resp)
			}

			if err := printEpisodesTable(resp.Episodes); err != nil {
				return err
			}
			if resp.NextCursor != "" {
				fmt.Printf("\nNext page: --cursor %s\n", resp.NextCursor)
			}
			return nil
		},
	}
	episodesCmd.Flags().IntVar(&episodesLimit, "limit", 20, "episodes per page")
	episodesCmd.Flags().StringVar(&episodesCursor, "cursor", "", "cursor from a previous page")

	trackCmd := &cobra.Command{
		Use:   "track <id>",
		Short: "Add a show to the sync set",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			show, err := c.TrackShow(context.Background(), args[0])
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(show)
			}

			fmt.Printf("Now tracking %q (%s).\n", show.Title, show.ID)
			return nil
		},
	}

	showsCmd.AddCommand(listCmd, getCmd, episodesCmd, trackCmd)

	return showsCmd
}
