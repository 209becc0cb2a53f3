package dedup

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/Adda-Baaj/taja-digest/internal/domain"
	"github.com/Adda-Baaj/taja-digest/internal/logger"
)

var urlBucket = []byte("urls")

// BoltStore is a single-file dedup store for local runs. bbolt serializes
// read-write transactions, which makes each insert-if-absent atomic across
// goroutines sharing the handle. The file lock keeps other processes out.
type BoltStore struct {
	db   *bolt.DB
	log  logger.Logger
	opts options
}

// OpenBolt opens (or creates) the database at path and drops expired records.
func OpenBolt(path string, log logger.Logger, opts ...Option) (*BoltStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create dedup directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt dedup store: %w", err)
	}

	s := &BoltStore{db: db, log: logger.Ensure(log), opts: buildOptions(opts)}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(urlBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create dedup bucket: %w", err)
	}

	removed, err := s.sweep()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if removed > 0 {
		s.log.DebugObj("expired dedup records swept", "dedup_sweep", map[string]any{
			"removed": removed,
		})
	}
	return s, nil
}

// RegisterIfAbsent stores the record unless a live one exists for its key.
// An expired record counts as absent and is overwritten.
func (s *BoltStore) RegisterIfAbsent(ctx context.Context, normalizedURL string) (domain.Registration, error) {
	if err := ctx.Err(); err != nil {
		return domain.AlreadyRegistered, err
	}

	now := s.opts.now()
	rec := NewRecord(normalizedURL, now, s.opts.retention)
	result := domain.NewlyRegistered

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(urlBucket)
		if raw := b.Get([]byte(rec.Key)); raw != nil {
			var existing Record
			if err := json.Unmarshal(raw, &existing); err != nil {
				return fmt.Errorf("decode record %s: %w", rec.Key, err)
			}
			if existing.ExpiresAt.After(now) {
				result = domain.AlreadyRegistered
				return nil
			}
		}

		payload, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode record %s: %w", rec.Key, err)
		}
		return b.Put([]byte(rec.Key), payload)
	})
	if err != nil {
		s.log.ErrorObj("bolt dedup update failed", "dedup_store_error", map[string]any{
			"url":   rec.URL,
			"error": err.Error(),
		})
		return domain.AlreadyRegistered, fmt.Errorf("register %s in bolt: %w", rec.Key, err)
	}

	if result == domain.AlreadyRegistered {
		s.log.InfoObj("duplicate url found", "dedup_duplicate", map[string]any{
			"url": rec.URL,
			"key": rec.Key,
		})
	}
	return result, nil
}

// Lookup returns the live record for normalizedURL, if any.
func (s *BoltStore) Lookup(normalizedURL string) (Record, bool, error) {
	key := Key(normalizedURL)
	var (
		rec   Record
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(urlBucket).Get([]byte(key))
		if raw == nil {
			return nil
		}
		if err := json.Unmarshal(raw, &rec); err != nil {
			return fmt.Errorf("decode record %s: %w", key, err)
		}
		found = rec.ExpiresAt.After(s.opts.now())
		return nil
	})
	if err != nil {
		return Record{}, false, err
	}
	return rec, found, nil
}

// sweep is the store's own expiry mechanism; it removes records past expires_at.
func (s *BoltStore) sweep() (int, error) {
	now := s.opts.now()
	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(urlBucket)
		var expired [][]byte
		if err := b.ForEach(func(k, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return nil
			}
			if !rec.ExpiresAt.After(now) {
				expired = append(expired, append([]byte(nil), k...))
			}
			return nil
		}); err != nil {
			return err
		}
		for _, k := range expired {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(expired)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("sweep expired dedup records: %w", err)
	}
	return removed, nil
}

// Close releases the database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
