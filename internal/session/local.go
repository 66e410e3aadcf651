package session

import (
	"context"
	"fmt"

	"github.com/sahil-darj/Rewear/internal/models"
	"github.com/sahil-darj/Rewear/internal/store"
)

// Current is the signed-in user of a client together with its session token.
// It is stored under store.KeyCurrentUser.
type Current struct {
	models.User
	Token string `json:"token,omitempty"`
}

// Local persists the current user of a single client.
type Local struct {
	rec store.Records
}

func NewLocal(rec store.Records) *Local {
	return &Local{rec: rec}
}

func (l *Local) Save(ctx context.Context, cur Current) error {
	if err := l.rec.Put(ctx, store.KeyCurrentUser, cur); err != nil {
		return fmt.Errorf("save current user: %w", err)
	}
	return nil
}

// Load returns the stored current user; ok is false when nobody is signed in.
func (l *Local) Load(ctx context.Context) (cur Current, ok bool, err error) {
	ok, err = l.rec.Get(ctx, store.KeyCurrentUser, &cur)
	if err != nil {
		return Current{}, false, fmt.Errorf("load current user: %w", err)
	}
	return cur, ok, nil
}

func (l *Local) Clear(ctx context.Context) error {
	if err := l.rec.Delete(ctx, store.KeyCurrentUser); err != nil {
		return fmt.Errorf("clear current user: %w", err)
	}
	return nil
}
