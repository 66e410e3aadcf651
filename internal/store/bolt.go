package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sahil-darj/Rewear/internal/models"

	"go.etcd.io/bbolt"
)

const (
	recordBucket = "records"
	ledgerBucket = "ledger"
)

// BoltRecords provides a BoltDB-backed record store. Ledger entries are kept
// in their own bucket keyed by the bucket sequence.
type BoltRecords struct {
	db *bbolt.DB
}

// OpenBolt opens a BoltDB-backed store at the provided path.
func OpenBolt(path string) (*BoltRecords, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	db, err := bbolt.Open(cleanPath, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open storage db: %w", err)
	}

	s := &BoltRecords{db: db}
	if err := s.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *BoltRecords) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *BoltRecords) Get(ctx context.Context, key string, dst any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if s == nil || s.db == nil {
		return false, ErrNotConfigured
	}
	var found bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		found, err = (&boltTx{tx: tx}).Get(key, dst)
		return err
	})
	return found, err
}

func (s *BoltRecords) Put(ctx context.Context, key string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return ErrNotConfigured
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return (&boltTx{tx: tx}).Put(key, value)
	})
}

func (s *BoltRecords) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return ErrNotConfigured
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return (&boltTx{tx: tx}).Delete(key)
	})
}

func (s *BoltRecords) Update(ctx context.Context, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return ErrNotConfigured
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return fn(&boltTx{tx: tx})
	})
}

func (s *BoltRecords) Ledger(ctx context.Context, userID string) ([]models.PointLedger, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.db == nil {
		return nil, ErrNotConfigured
	}
	var entries []models.PointLedger
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(ledgerBucket))
		if bucket == nil {
			return fmt.Errorf("ledger bucket is missing")
		}
		return bucket.ForEach(func(_, payload []byte) error {
			var entry models.PointLedger
			if err := json.Unmarshal(payload, &entry); err != nil {
				return fmt.Errorf("unmarshal ledger entry: %w", err)
			}
			if entry.UserID == userID {
				entries = append(entries, entry)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *BoltRecords) ensureBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{recordBucket, ledgerBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create %s bucket: %w", name, err)
			}
		}
		return nil
	})
}

type boltTx struct {
	tx *bbolt.Tx
}

func (t *boltTx) records() (*bbolt.Bucket, error) {
	bucket := t.tx.Bucket([]byte(recordBucket))
	if bucket == nil {
		return nil, fmt.Errorf("records bucket is missing")
	}
	return bucket, nil
}

func (t *boltTx) Get(key string, dst any) (bool, error) {
	bucket, err := t.records()
	if err != nil {
		return false, err
	}
	payload := bucket.Get([]byte(key))
	if payload == nil {
		return false, nil
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return false, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return true, nil
}

func (t *boltTx) Put(key string, value any) error {
	bucket, err := t.records()
	if err != nil {
		return err
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return bucket.Put([]byte(key), payload)
}

func (t *boltTx) Delete(key string) error {
	bucket, err := t.records()
	if err != nil {
		return err
	}
	return bucket.Delete([]byte(key))
}

func (t *boltTx) AppendLedger(entries ...models.PointLedger) error {
	bucket := t.tx.Bucket([]byte(ledgerBucket))
	if bucket == nil {
		return fmt.Errorf("ledger bucket is missing")
	}
	for _, entry := range entries {
		seq, err := bucket.NextSequence()
		if err != nil {
			return fmt.Errorf("next ledger sequence: %w", err)
		}
		entry.ID = uint(seq)
		payload, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("marshal ledger entry: %w", err)
		}
		if err := bucket.Put(sequenceKey(seq), payload); err != nil {
			return err
		}
	}
	return nil
}

// sequenceKey encodes seq big-endian so ForEach walks entries in append order.
func sequenceKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}
