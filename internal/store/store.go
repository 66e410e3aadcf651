package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/sahil-darj/Rewear/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Record keys. Values are JSON.
const (
	KeyCurrentUser  = "rewear_user"
	KeyUsers        = "rewear_users"
	KeyItems        = "rewear_items"
	KeySwapRequests = "rewear_swap_requests"
)

// ErrNotConfigured is returned by a nil or closed store.
var ErrNotConfigured = errors.New("storage is not configured")

// Records is a flat key-value record store. Values are JSON-encoded.
type Records interface {
	// Get decodes the value at key into dst. It reports false when the key
	// is absent, leaving dst untouched.
	Get(ctx context.Context, key string, dst any) (bool, error)
	Put(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
	// Update runs fn in one transaction. Nothing fn writes is visible unless
	// fn returns nil and the commit succeeds.
	Update(ctx context.Context, fn func(Tx) error) error
	// Ledger returns the point ledger entries for userID, oldest first.
	Ledger(ctx context.Context, userID string) ([]models.PointLedger, error)
	Close() error
}

// Tx is the write side of Records.Update.
type Tx interface {
	Get(key string, dst any) (bool, error)
	Put(key string, value any) error
	Delete(key string) error
	AppendLedger(entries ...models.PointLedger) error
}

// Open opens the records backend named by driver ("sqlite" or "bolt").
func Open(driver, path string) (Records, error) {
	switch driver {
	case "", "sqlite":
		db, err := InitDB(path)
		if err != nil {
			return nil, err
		}
		return NewGormRecords(db), nil
	case "bolt", "bbolt":
		b, err := OpenBolt(path)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}
}

func InitDB(path string) (*gorm.DB, error) {
	d, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, err
	}
	if err := d.AutoMigrate(&models.Record{}, &models.PointLedger{}); err != nil {
		return nil, err
	}
	return d, nil
}
