// Package store provides optional write-through caches for fetched markup.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	urlutil "github.com/law-makers/seocrawl/internal/utils/url"
)

// Handle identifies a saved page
type Handle string

// Store is a markup cache the crawler may consult before fetching.
// A store never affects crawl results, only how often pages are fetched.
type Store interface {
	// Save stores html for url and returns the handle to load it with.
	Save(ctx context.Context, url, html string) (Handle, error)

	// Load returns the markup for a handle. A missing entry is not an error.
	Load(ctx context.Context, h Handle) (string, bool, error)

	// Close releases resources held by the store.
	Close() error
}

// Store types accepted by NewFromConfig
const (
	TypeNone   = "none"
	TypeMemory = "memory"
	TypeDisk   = "disk"
	TypeRedis  = "redis"
)

const (
	DefaultTTL      = 30 * time.Minute
	DefaultMaxBytes = 100 * 1024 * 1024
)

// Config selects and configures a store implementation
type Config struct {
	Type      string
	Dir       string
	RedisAddr string
	TTL       time.Duration
	MaxBytes  int64
}

// KeyFor returns the handle a url is saved under
func KeyFor(url string) Handle {
	return Handle(urlutil.Normalize(url))
}

// NewFromConfig builds the configured store. A nil Store with a nil error
// means caching is disabled.
func NewFromConfig(cfg Config) (Store, error) {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	switch strings.ToLower(cfg.Type) {
	case "", TypeNone:
		return nil, nil
	case TypeMemory:
		return NewMemoryStore(cfg.MaxBytes, ttl), nil
	case TypeDisk:
		if cfg.Dir == "" {
			return nil, fmt.Errorf("disk store requires a directory")
		}
		ds, err := NewDiskStore(cfg.Dir, ttl)
		if err != nil {
			return nil, err
		}
		return ds, nil
	case TypeRedis:
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("redis store requires an address")
		}
		return NewRedisStore(cfg.RedisAddr, ttl), nil
	default:
		return nil, fmt.Errorf("unknown store type %q (expected none, memory, disk or redis)", cfg.Type)
	}
}
