package market

import (
	"context"
	"strings"

	"github.com/sahil-darj/Rewear/internal/models"
	"github.com/sahil-darj/Rewear/internal/store"
)

type UserPatch struct {
	Name   *string `json:"name,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
}

func (p UserPatch) apply(u models.User) models.User {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Avatar != nil {
		u.Avatar = *p.Avatar
	}
	return u
}

// Directory is the in-memory user list mirrored to the rewear_users record.
type Directory struct {
	rec  store.Records
	rows mirror[models.User]
}

func NewDirectory(rec store.Records) *Directory {
	return &Directory{
		rec:  rec,
		rows: mirror[models.User]{key: store.KeyUsers, id: func(u models.User) string { return u.ID }},
	}
}

func (d *Directory) Load(ctx context.Context) error { return d.rows.load(ctx, d.rec) }

func (d *Directory) Find(id string) (models.User, bool) { return d.rows.find(id) }

// FindByEmail matches emails case-insensitively.
func (d *Directory) FindByEmail(email string) (models.User, bool) {
	email = normalizeEmail(email)
	for _, u := range d.rows.rows {
		if normalizeEmail(u.Email) == email {
			return u, true
		}
	}
	return models.User{}, false
}

func (d *Directory) All() []models.User { return d.rows.all() }

// Update merges patch into the user with the given id; a missing id is
// silently ignored.
func (d *Directory) Update(ctx context.Context, id string, patch UserPatch) error {
	next, ok := d.rows.replaced(id, patch.apply)
	if !ok {
		return nil
	}
	return d.rows.persist(ctx, d.rec, next)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
