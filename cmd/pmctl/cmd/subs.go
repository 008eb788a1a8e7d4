package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func subsCmd() *cobra.Command {
	subsCmd := &cobra.Command{
		Use:   "subs",
		Short: "Manage subscriptions for a user",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the user's subscriptions",
		RunE: func(_ *cobra.Command, _ []string) error {
			user, err := requireUser()
			if err != nil {
				return err
			}

			c := newClient()
			resp, err := c.ListSubscriptions(context.Background(), user)
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(resp)
			}

			if resp.Count == 0 {
				fmt.Println("No subscriptions.")
				return nil
			}

			for _, id := range resp.ShowIDs {
				fmt.Println(id)
			}
			return nil
		},
	}

	addCmd := &cobra.Command{
		Use:   "add <show-id>",
		Short: "Subscribe to a show",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			user, err := requireUser()
			if err != nil {
				return err
			}

			c := newClient()
			if err := c.Subscribe(context.Background(), user, args[0]); err != nil {
				return err
			}

			fmt.Printf("Subscribed %s to %s.\n", user, args[0])
			return nil
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove <show-id>",
		Short: "Unsubscribe from a show",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			user, err := requireUser()
			if err != nil {
				return err
			}

			c := newClient()
			if err := c.Unsubscribe(context.Background(), user, args[0]); err != nil {
				return err
			}

			fmt.Printf("Unsubscribed %s from %s.\n", user, args[0])
			return nil
		},
	}

	subsCmd.AddCommand(listCmd, addCmd, removeCmd)

	return subsCmd
}
