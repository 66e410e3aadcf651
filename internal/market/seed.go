package market

import (
	"context"
	"fmt"

	"github.com/sahil-darj/Rewear/internal/models"
)

type demoItem struct {
	owner int
	input ItemInput
}

var demoItems = []demoItem{
	{owner: 1, input: ItemInput{
		Title: "Vintage Denim Jacket", Description: "Classic 90s wash, barely worn.",
		Category: "Outerwear", Type: "Jacket", Size: "M", Condition: models.ConditionLikeNew,
		Tags:   []string{"vintage", "denim", "casual"},
		Images: []string{"https://images.pexels.com/photos/1598507/pexels-photo-1598507.jpeg"},
	}},
	{owner: 1, input: ItemInput{
		Title: "Floral Summer Dress", Description: "Light cotton dress with a floral print.",
		Category: "Dresses", Type: "Dress", Size: "S", Condition: models.ConditionGood,
		Tags:   []string{"summer", "floral"},
		Images: []string{"https://images.pexels.com/photos/1755428/pexels-photo-1755428.jpeg"},
	}},
	{owner: 2, input: ItemInput{
		Title: "Leather Ankle Boots", Description: "Brown leather, new with tags.",
		Category: "Shoes", Type: "Boots", Size: "9", Condition: models.ConditionNew,
		Tags:   []string{"leather", "boots"},
		Images: []string{"https://images.pexels.com/photos/1159670/pexels-photo-1159670.jpeg"},
	}},
	{owner: 2, input: ItemInput{
		Title: "Wool Knit Sweater", Description: "Cosy oversized knit, some pilling.",
		Category: "Tops", Type: "Sweater", Size: "L", Condition: models.ConditionFair,
		Tags:   []string{"wool", "winter"},
		Images: []string{"https://images.pexels.com/photos/45982/pexels-photo-45982.jpeg"},
	}},
}

// SeedDemo fills an empty store with an administrator, two members, a few
// approved listings and one pending points request. It does nothing when any
// user already exists.
func (s *Service) SeedDemo(ctx context.Context) error {
	if len(s.Users()) > 0 {
		return nil
	}

	accounts := []struct{ email, name string }{
		{s.opts.AdminEmail, "ReWear Admin"},
		{"alice@rewear.com", "Alice Green"},
		{"bob@rewear.com", "Bob Stone"},
	}
	users := make([]models.User, 0, len(accounts))
	for _, a := range accounts {
		u, err := s.Signup(ctx, a.email, MockPassword, a.name)
		if err != nil {
			return fmt.Errorf("seed user %s: %w", a.email, err)
		}
		users = append(users, u)
	}
	admin := users[0]

	var listed []models.Item
	for _, d := range demoItems {
		item, err := s.ListItem(ctx, users[d.owner].ID, d.input)
		if err != nil {
			return fmt.Errorf("seed item %q: %w", d.input.Title, err)
		}
		if item.Status != models.ItemApproved {
			if err := s.Approve(ctx, admin.ID, item.ID); err != nil {
				return fmt.Errorf("seed approve %q: %w", item.Title, err)
			}
		}
		listed = append(listed, item)
	}

	if _, err := s.RequestItem(ctx, users[2].ID, listed[0].ID, models.SwapKindPoints, "Would love this jacket!"); err != nil {
		return fmt.Errorf("seed request: %w", err)
	}
	s.log.Info("demo data seeded")
	return nil
}
