// Package dedup records which normalized URLs were already reported, using an
// insert-if-absent against a store with per-record expiry.
package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Adda-Baaj/taja-digest/internal/domain"
	"github.com/Adda-Baaj/taja-digest/internal/logger"
	"github.com/Adda-Baaj/taja-digest/pkg/awsconf"
)

const (
	// KeyPrefix namespaces URL records from other record kinds in the same table.
	KeyPrefix = "URL#"
	// DefaultRetention is how long a URL stays registered.
	DefaultRetention = 72 * time.Hour

	BackendDynamoDB = "dynamodb"
	BackendBolt     = "bolt"
)

// Store is the dedup store contract. RegisterIfAbsent must be atomic per key
// across concurrent callers and must return store failures as errors.
type Store interface {
	RegisterIfAbsent(ctx context.Context, normalizedURL string) (domain.Registration, error)
	Close() error
}

// Record is what gets persisted for a registered URL.
type Record struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Key derives the content-addressed store key for a normalized URL.
func Key(normalizedURL string) string {
	sum := sha256.Sum256([]byte(normalizedURL))
	return KeyPrefix + hex.EncodeToString(sum[:])
}

// NewRecord builds the record for normalizedURL first seen at now.
func NewRecord(normalizedURL string, now time.Time, retention time.Duration) Record {
	now = now.UTC()
	return Record{
		Key:       Key(normalizedURL),
		URL:       normalizedURL,
		CreatedAt: now,
		ExpiresAt: now.Add(retention),
	}
}

// Config selects and configures a backend.
type Config struct {
	Backend   string           `mapstructure:"backend"`
	Retention time.Duration    `mapstructure:"retention"`
	Table     string           `mapstructure:"table"`
	BoltPath  string           `mapstructure:"bolt_path"`
	AWS       awsconf.Settings `mapstructure:"aws"`
}

// Validate checks the fields required by the selected backend.
func (c Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Backend)) {
	case BackendDynamoDB:
		if strings.TrimSpace(c.Table) == "" {
			return errors.New("dedup.table is required for the dynamodb backend")
		}
	case BackendBolt:
		if strings.TrimSpace(c.BoltPath) == "" {
			return errors.New("dedup.bolt_path is required for the bolt backend")
		}
	default:
		return fmt.Errorf("dedup backend %q not supported", c.Backend)
	}
	if c.Retention < 0 {
		return errors.New("dedup.retention must not be negative")
	}
	return nil
}

// Option customizes a store.
type Option func(*options)

type options struct {
	now       func() time.Time
	retention time.Duration
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithRetention overrides the retention window.
func WithRetention(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.retention = d
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, retention: DefaultRetention}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Open builds the backend named in cfg.
func Open(ctx context.Context, cfg Config, log logger.Logger, opts ...Option) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts = append([]Option{WithRetention(cfg.Retention)}, opts...)

	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case BackendDynamoDB:
		awsCfg, err := awsconf.Load(ctx, cfg.AWS)
		if err != nil {
			return nil, err
		}
		return NewDynamoStoreFromConfig(awsCfg, cfg.Table, log, opts...), nil
	default:
		return OpenBolt(cfg.BoltPath, log, opts...)
	}
}
