package buffer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/planwise/backend/domain"
)

// Store wraps BoltDB to persist snapshot saves while Postgres is unavailable.
// Keys are enqueue-ordered so the flusher drains oldest-first, preserving the
// version order of buffered saves for a user.
type Store struct {
	db     *bolt.DB
	bucket []byte
}

// Open initializes the BoltDB file and ensures the bucket exists.
func Open(path string, bucket string) (*Store, error) {
	if bucket == "" {
		bucket = "snapshots"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:     db,
		bucket: []byte(bucket),
	}, nil
}

// Enqueue stores a buffer item under an enqueue-ordered key.
func (s *Store) Enqueue(item Item) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.EnqueuedAt.IsZero() {
		item.EnqueuedAt = time.Now()
	}

	payload, err := json.Marshal(item)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put(s.key(item), payload)
	})
}

// GetBatch returns up to limit items in enqueue order.
func (s *Store) GetBatch(limit int) ([]Item, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	if limit <= 0 {
		limit = 50
	}

	var items []Item
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(s.bucket).Cursor()
		for k, v := c.First(); k != nil && len(items) < limit; k, v = c.Next() {
			var item Item
			if err := json.Unmarshal(v, &item); err != nil {
				return fmt.Errorf("corrupt buffer item %s: %w", string(k), err)
			}
			items = append(items, item)
		}
		return nil
	})
	return items, err
}

// Remove deletes an item, typically after it was flushed or dropped.
func (s *Store) Remove(item Item) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Delete(s.key(item))
	})
}

// Requeue re-inserts an item (with its updated retry count) under its
// original key so ordering is preserved.
func (s *Store) Requeue(item Item) error {
	return s.Enqueue(item)
}

// Size returns the number of buffered items.
func (s *Store) Size() (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var size int
	err := s.db.View(func(tx *bolt.Tx) error {
		size = tx.Bucket(s.bucket).Stats().KeyN
		return nil
	})
	return size, err
}

// Close releases the underlying BoltDB handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) key(item Item) []byte {
	return []byte(fmt.Sprintf("%020d:%s", item.EnqueuedAt.UnixNano(), item.ID))
}

// BufferPlan serializes a plan snapshot into the write-behind queue.
func (s *Store) BufferPlan(ctx context.Context, plan *domain.Plan) error {
	if plan == nil {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(plan)
	if err != nil {
		return err
	}
	return s.Enqueue(Item{
		UserID:  plan.UserID,
		Kind:    KindPlan,
		Version: plan.Version.String(),
		Data:    payload,
	})
}

// BufferSchedule serializes a schedule snapshot into the write-behind queue.
func (s *Store) BufferSchedule(ctx context.Context, schedule *domain.Schedule) error {
	if schedule == nil {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(schedule)
	if err != nil {
		return err
	}
	return s.Enqueue(Item{
		UserID:  schedule.UserID,
		Kind:    KindSchedule,
		Version: schedule.Version.String(),
		Data:    payload,
	})
}
