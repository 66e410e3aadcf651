package market

import (
	"context"
	"slices"
	"time"

	"github.com/sahil-darj/Rewear/internal/models"
	"github.com/sahil-darj/Rewear/internal/store"
)

// NewItem carries the caller-supplied fields of a listing. Identifier, upload
// date and point value are assigned by the catalog.
type NewItem struct {
	Title        string
	Description  string
	Category     string
	Type         string
	Size         string
	Condition    models.Condition
	Tags         []string
	Images       []string
	UploaderID   string
	UploaderName string
	Status       models.ItemStatus
}

// ItemPatch lists the item fields a partial update may set. Nil fields are
// left untouched. Point value is fixed at creation and has no field here.
type ItemPatch struct {
	Title       *string            `json:"title,omitempty"`
	Description *string            `json:"description,omitempty"`
	Category    *string            `json:"category,omitempty"`
	Type        *string            `json:"type,omitempty"`
	Size        *string            `json:"size,omitempty"`
	Condition   *models.Condition  `json:"condition,omitempty"`
	Tags        *[]string          `json:"tags,omitempty"`
	Images      *[]string          `json:"images,omitempty"`
	IsAvailable *bool              `json:"isAvailable,omitempty"`
	Status      *models.ItemStatus `json:"status,omitempty"`
}

func (p ItemPatch) apply(item models.Item) models.Item {
	if p.Title != nil {
		item.Title = *p.Title
	}
	if p.Description != nil {
		item.Description = *p.Description
	}
	if p.Category != nil {
		item.Category = *p.Category
	}
	if p.Type != nil {
		item.Type = *p.Type
	}
	if p.Size != nil {
		item.Size = *p.Size
	}
	if p.Condition != nil {
		item.Condition = *p.Condition
	}
	if p.Tags != nil {
		item.Tags = slices.Clone(*p.Tags)
	}
	if p.Images != nil {
		item.Images = slices.Clone(*p.Images)
	}
	if p.IsAvailable != nil {
		item.IsAvailable = *p.IsAvailable
	}
	if p.Status != nil {
		item.Status = *p.Status
	}
	return item
}

// Catalog is the in-memory item list mirrored to the rewear_items record.
// It is not safe for concurrent use; Service serializes access.
type Catalog struct {
	rec   store.Records
	rows  mirror[models.Item]
	now   func() time.Time
	newID func() string
}

func NewCatalog(rec store.Records, now func() time.Time, newID func() string) *Catalog {
	return &Catalog{
		rec:   rec,
		rows:  mirror[models.Item]{key: store.KeyItems, id: func(i models.Item) string { return i.ID }, clone: cloneItem},
		now:   now,
		newID: newID,
	}
}

func (c *Catalog) Load(ctx context.Context) error { return c.rows.load(ctx, c.rec) }

// Add assigns an identifier and upload date, appends the item and persists
// the whole catalog.
func (c *Catalog) Add(ctx context.Context, data NewItem) (models.Item, error) {
	status := data.Status
	if status == "" {
		status = models.ItemPending
	}
	item := models.Item{
		ID:           c.newID(),
		Title:        data.Title,
		Description:  data.Description,
		Category:     data.Category,
		Type:         data.Type,
		Size:         data.Size,
		Condition:    data.Condition,
		Tags:         slices.Clone(data.Tags),
		Images:       slices.Clone(data.Images),
		UploaderID:   data.UploaderID,
		UploaderName: data.UploaderName,
		PointValue:   data.Condition.PointValue(),
		IsAvailable:  true,
		Status:       status,
		UploadDate:   c.now().UTC(),
	}
	if err := c.rows.persist(ctx, c.rec, c.rows.appended(item)); err != nil {
		return models.Item{}, err
	}
	return item, nil
}

// Update merges patch into the item with the given id. A missing id is not an
// error; the catalog is left as it was.
func (c *Catalog) Update(ctx context.Context, id string, patch ItemPatch) error {
	next, ok := c.rows.replaced(id, patch.apply)
	if !ok {
		return nil
	}
	return c.rows.persist(ctx, c.rec, next)
}

func (c *Catalog) Find(id string) (models.Item, bool) { return c.rows.find(id) }

func (c *Catalog) All() []models.Item { return c.rows.all() }

// ListByUploader returns the uploader's items in catalog order.
func (c *Catalog) ListByUploader(userID string) []models.Item {
	out := []models.Item{}
	for _, item := range c.rows.rows {
		if item.UploaderID == userID {
			out = append(out, c.rows.out(item))
		}
	}
	return out
}

func cloneItem(item models.Item) models.Item {
	item.Tags = slices.Clone(item.Tags)
	item.Images = slices.Clone(item.Images)
	return item
}

func (c *Catalog) owner(itemID string) (string, bool) {
	item, ok := c.rows.find(itemID)
	if !ok {
		return "", false
	}
	return item.UploaderID, true
}
