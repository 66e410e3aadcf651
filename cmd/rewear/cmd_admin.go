package main

import (
	"context"
	"fmt"

	"github.com/sahil-darj/Rewear/internal/market"
	"github.com/sahil-darj/Rewear/internal/models"

	"github.com/spf13/cobra"
)

func (c *cli) approveCmd() *cobra.Command {
	return c.moderationCmd("approve", "Approve a pending item", (*market.Service).Approve)
}

func (c *cli) rejectCmd() *cobra.Command {
	return c.moderationCmd("reject", "Reject an item and take it off the catalog", (*market.Service).Reject)
}

func (c *cli) moderationCmd(verb, short string, action func(s *market.Service, ctx context.Context, actorID, itemID string) error) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " [item-id]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := c.currentUser(cmd.Context())
			if err != nil {
				return err
			}
			if _, ok := c.svc.Item(args[0]); !ok {
				return fmt.Errorf("item %s: %w", args[0], market.ErrNotFound)
			}
			if err := action(c.svc, cmd.Context(), u.ID, args[0]); err != nil {
				return err
			}
			item, _ := c.svc.Item(args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", item.Title, item.Status)
			return nil
		},
	}
}

func (c *cli) queueCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "List items by moderation status",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := c.currentUser(cmd.Context())
			if err != nil {
				return err
			}
			if !u.IsAdmin {
				return market.ErrForbidden
			}
			return printItems(cmd.OutOrStdout(), c.svc.ModerationQueue(models.ItemStatus(status)))
		},
	}
	cmd.Flags().StringVar(&status, "status", string(models.ItemPending), "pending, approved, rejected or empty for all")
	return cmd
}

func (c *cli) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count items by moderation status",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := c.currentUser(cmd.Context())
			if err != nil {
				return err
			}
			if !u.IsAdmin {
				return market.ErrForbidden
			}
			s := c.svc.Stats()
			fmt.Fprintf(cmd.OutOrStdout(), "total %d, pending %d, approved %d, rejected %d\n", s.Total, s.Pending, s.Approved, s.Rejected)
			return nil
		},
	}
}
