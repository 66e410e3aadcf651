package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sahil-darj/Rewear/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRecords keeps records and the point ledger in SQL tables through GORM.
type GormRecords struct {
	db *gorm.DB
}

func NewGormRecords(db *gorm.DB) *GormRecords {
	return &GormRecords{db: db}
}

func (s *GormRecords) Get(ctx context.Context, key string, dst any) (bool, error) {
	if s == nil || s.db == nil {
		return false, ErrNotConfigured
	}
	return getRecord(s.db.WithContext(ctx), key, dst)
}

func (s *GormRecords) Put(ctx context.Context, key string, value any) error {
	if s == nil || s.db == nil {
		return ErrNotConfigured
	}
	return putRecord(s.db.WithContext(ctx), key, value)
}

func (s *GormRecords) Delete(ctx context.Context, key string) error {
	if s == nil || s.db == nil {
		return ErrNotConfigured
	}
	if err := s.db.WithContext(ctx).Delete(&models.Record{}, "record_key = ?", key).Error; err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *GormRecords) Update(ctx context.Context, fn func(Tx) error) error {
	if s == nil || s.db == nil {
		return ErrNotConfigured
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx})
	})
}

func (s *GormRecords) Ledger(ctx context.Context, userID string) ([]models.PointLedger, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotConfigured
	}
	var entries []models.PointLedger
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id asc").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	return entries, nil
}

func (s *GormRecords) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) Get(key string, dst any) (bool, error) { return getRecord(t.db, key, dst) }

func (t *gormTx) Put(key string, value any) error { return putRecord(t.db, key, value) }

func (t *gormTx) Delete(key string) error {
	if err := t.db.Delete(&models.Record{}, "record_key = ?", key).Error; err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (t *gormTx) AppendLedger(entries ...models.PointLedger) error {
	if len(entries) == 0 {
		return nil
	}
	if err := t.db.Create(&entries).Error; err != nil {
		return fmt.Errorf("append ledger: %w", err)
	}
	return nil
}

func getRecord(db *gorm.DB, key string, dst any) (bool, error) {
	var rec models.Record
	if err := db.Where("record_key = ?", key).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(rec.Value), dst); err != nil {
		return false, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return true, nil
}

func putRecord(db *gorm.DB, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	rec := models.Record{Key: key, Value: string(payload), UpdatedAt: time.Now().UTC()}
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "record_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}
