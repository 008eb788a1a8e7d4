package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func progressCmd() *cobra.Command {
	progressCmd := &cobra.Command{
		Use:   "progress",
		Short: "Manage playback progress for a user",
	}

	var (
		setShowID   string
		setPosition int
	)

	setCmd := &cobra.Command{
		Use:   "set <episode-id>",
		Short: "Record a playback position",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			user, err := requireUser()
			if err != nil {
				return err
			}
			if setShowID == "" {
				return fmt.Errorf("--show is required")
			}

			c := newClient()
			status, err := c.SaveProgress(context.Background(), user, setShowID, args[0], setPosition)
			if err != nil {
				return err
			}

			switch status {
			case "saved":
				fmt.Printf("Saved position %ds in %s.\n", setPosition, args[0])
			case "skipped":
				fmt.Printf("Skipped: %s does not follow %s.\n", user, setShowID)
			default:
				fmt.Println(status)
			}
			return nil
		},
	}
	setCmd.Flags().StringVar(&setShowID, "show", "", "show the episode belongs to")
	setCmd.Flags().IntVar(&setPosition, "position", 0, "playback position in seconds")

	getCmd := &cobra.Command{
		Use:   "get <episode-id>",
		Short: "Show the stored playback position",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			user, err := requireUser()
			if err != nil {
				return err
			}

			c := newClient()
			p, err := c.GetProgress(context.Background(), user, args[0])
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(p)
			}

			fmt.Printf("%s: %ds (updated %s)\n",
				p.EpisodeID, p.PositionSec, p.UpdatedAt.Format("2006-01-02 15:04:05"))
			return nil
		},
	}

	progressCmd.AddCommand(setCmd, getCmd)

	return progressCmd
}
