package main

import (
	"fmt"

	"github.com/sahil-darj/Rewear/internal/models"

	"github.com/spf13/cobra"
)

func (c *cli) requestCmd() *cobra.Command {
	var kind, message string
	cmd := &cobra.Command{
		Use:   "request [item-id]",
		Short: "Request an item as a swap or with points",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := c.currentUser(cmd.Context())
			if err != nil {
				return err
			}
			req, err := c.svc.RequestItem(cmd.Context(), u.ID, args[0], models.SwapKind(kind), message)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Requested %s (%s request %s)\n", req.ItemTitle, req.Type, req.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "type", string(models.SwapKindSwap), "Request type: swap or points")
	cmd.Flags().StringVar(&message, "message", "", "Message to the owner")
	return cmd
}

func (c *cli) requestsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "requests",
		Short: "Show requests you made or received",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := c.currentUser(cmd.Context())
			if err != nil {
				return err
			}
			return printRequests(cmd.OutOrStdout(), u.ID, c.svc.RequestsForUser(u.ID))
		},
	}
}

func (c *cli) acceptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "accept [request-id]",
		Short: "Accept a request for one of your items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := c.currentUser(cmd.Context())
			if err != nil {
				return err
			}
			res, err := c.svc.AcceptRequest(cmd.Context(), u.ID, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Request %s completed\n", res.Request.ID)
			if res.Credited > 0 {
				fmt.Fprintf(out, "You earned %d points\n", res.Credited)
			}
			return nil
		},
	}
}

func (c *cli) declineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decline [request-id]",
		Short: "Decline a request for one of your items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := c.currentUser(cmd.Context())
			if err != nil {
				return err
			}
			req, err := c.svc.DeclineRequest(cmd.Context(), u.ID, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Request %s declined\n", req.ID)
			return nil
		},
	}
}
