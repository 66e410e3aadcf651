package market

import (
	"slices"
	"strings"

	"github.com/sahil-darj/Rewear/internal/models"
)

// Categories and sizes offered by the listing form.
var (
	Categories = []string{"Tops", "Bottoms", "Dresses", "Outerwear", "Shoes", "Accessories"}
	Sizes      = []string{"XS", "S", "M", "L", "XL", "XXL", "6", "7", "8", "9", "10", "11", "12"}
)

// BrowseFilter narrows the public listing. Empty fields match everything and
// a zero Limit returns every match.
type BrowseFilter struct {
	Query     string
	Category  string
	Condition models.Condition
	Limit     int
}

func (f BrowseFilter) matches(item models.Item) bool {
	if item.Status != models.ItemApproved || !item.IsAvailable {
		return false
	}
	if f.Category != "" && item.Category != f.Category {
		return false
	}
	if f.Condition != "" && item.Condition != f.Condition {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(item.Title), q) || strings.Contains(strings.ToLower(item.Description), q) {
		return true
	}
	return slices.ContainsFunc(item.Tags, func(tag string) bool {
		return strings.Contains(strings.ToLower(tag), q)
	})
}

// Browse returns approved, available items matching f in catalog order.
func (c *Catalog) Browse(f BrowseFilter) []models.Item {
	out := []models.Item{}
	for _, item := range c.rows.rows {
		if !f.matches(item) {
			continue
		}
		out = append(out, c.rows.out(item))
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out
}

// ModerationStats counts catalog items by moderation status.
type ModerationStats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

func (c *Catalog) Stats() ModerationStats {
	stats := ModerationStats{Total: len(c.rows.rows)}
	for _, item := range c.rows.rows {
		switch item.Status {
		case models.ItemPending:
			stats.Pending++
		case models.ItemApproved:
			stats.Approved++
		case models.ItemRejected:
			stats.Rejected++
		}
	}
	return stats
}

// ByStatus returns items with the given moderation status; an empty status
// returns the whole catalog.
func (c *Catalog) ByStatus(status models.ItemStatus) []models.Item {
	out := []models.Item{}
	for _, item := range c.rows.rows {
		if status == "" || item.Status == status {
			out = append(out, c.rows.out(item))
		}
	}
	return out
}
