package main

import (
	"fmt"

	"github.com/sahil-darj/Rewear/internal/market"
	"github.com/sahil-darj/Rewear/internal/models"

	"github.com/spf13/cobra"
)

func (c *cli) browseCmd() *cobra.Command {
	var f market.BrowseFilter
	var condition string
	cmd := &cobra.Command{
		Use:   "browse [query]",
		Short: "Search approved, available items",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				f.Query = args[0]
			}
			f.Condition = models.Condition(condition)
			return printItems(cmd.OutOrStdout(), c.svc.Browse(f))
		},
	}
	cmd.Flags().StringVar(&f.Category, "category", "", "Only this category")
	cmd.Flags().StringVar(&condition, "condition", "", "Only this condition (new, like-new, good, fair)")
	cmd.Flags().IntVar(&f.Limit, "limit", 0, "Show at most this many items")
	return cmd
}

func (c *cli) listCmd() *cobra.Command {
	var in market.ItemInput
	var condition string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List an item of clothing",
		Example: `  rewear list --title "Denim Jacket" --category Outerwear --size M \
    --condition like-new --tag vintage --tag denim --image https://example.com/a.jpg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := c.currentUser(cmd.Context())
			if err != nil {
				return err
			}
			in.Condition = models.Condition(condition)
			item, err := c.svc.ListItem(cmd.Context(), u.ID, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Listed %s (%s), worth %d points\n", item.Title, item.ID, item.PointValue)
			if item.Status == models.ItemPending {
				fmt.Fprintln(cmd.OutOrStdout(), "It will appear in the catalog once approved.")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Title, "title", "", "Title (required)")
	cmd.Flags().StringVar(&in.Description, "description", "", "Description")
	cmd.Flags().StringVar(&in.Category, "category", "", "Category")
	cmd.Flags().StringVar(&in.Type, "type", "", "Garment type")
	cmd.Flags().StringVar(&in.Size, "size", "", "Size")
	cmd.Flags().StringVar(&condition, "condition", string(models.ConditionGood), "Condition (new, like-new, good, fair)")
	cmd.Flags().StringArrayVar(&in.Tags, "tag", nil, "Tag (repeatable)")
	cmd.Flags().StringArrayVar(&in.Images, "image", nil, "Image URL (repeatable, first is primary)")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func (c *cli) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [item-id]",
		Short: "Show one item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, ok := c.svc.Item(args[0])
			if !ok {
				return fmt.Errorf("item %s: %w", args[0], market.ErrNotFound)
			}
			printItem(cmd.OutOrStdout(), item)
			return nil
		},
	}
}

func (c *cli) myItemsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "my-items",
		Short: "List the items you uploaded",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := c.currentUser(cmd.Context())
			if err != nil {
				return err
			}
			return printItems(cmd.OutOrStdout(), c.svc.ItemsByUploader(u.ID))
		},
	}
}
