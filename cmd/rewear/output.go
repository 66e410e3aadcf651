package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/sahil-darj/Rewear/internal/models"
)

func newTable(out io.Writer, headers ...string) *tabwriter.Writer {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(headers, "\t"))
	return w
}

func printItems(out io.Writer, items []models.Item) error {
	if len(items) == 0 {
		fmt.Fprintln(out, "No items found")
		return nil
	}
	w := newTable(out, "ID", "TITLE", "CATEGORY", "SIZE", "CONDITION", "POINTS", "STATUS")
	for _, it := range items {
		status := string(it.Status)
		if !it.IsAvailable {
			status += " (unavailable)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n", it.ID, it.Title, it.Category, it.Size, it.Condition, it.PointValue, status)
	}
	return w.Flush()
}

func printItem(out io.Writer, it models.Item) {
	fmt.Fprintf(out, "%s\n", it.Title)
	fmt.Fprintf(out, "  id:        %s\n", it.ID)
	fmt.Fprintf(out, "  owner:     %s (%s)\n", it.UploaderName, it.UploaderID)
	fmt.Fprintf(out, "  category:  %s / %s, size %s\n", it.Category, it.Type, it.Size)
	fmt.Fprintf(out, "  condition: %s (%d points)\n", it.Condition, it.PointValue)
	fmt.Fprintf(out, "  status:    %s, available=%t\n", it.Status, it.IsAvailable)
	if len(it.Tags) > 0 {
		fmt.Fprintf(out, "  tags:      %s\n", strings.Join(it.Tags, ", "))
	}
	if img := it.PrimaryImage(); img != "" {
		fmt.Fprintf(out, "  image:     %s\n", img)
	}
	if it.Description != "" {
		fmt.Fprintf(out, "\n%s\n", it.Description)
	}
}

func printRequests(out io.Writer, me string, reqs []models.SwapRequest) error {
	if len(reqs) == 0 {
		fmt.Fprintln(out, "No requests")
		return nil
	}
	w := newTable(out, "ID", "DIRECTION", "ITEM", "TYPE", "STATUS", "FROM")
	for _, r := range reqs {
		dir := "incoming"
		if r.RequesterID == me {
			dir = "outgoing"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", r.ID, dir, r.ItemTitle, r.Type, r.Status, r.RequesterName)
	}
	return w.Flush()
}
