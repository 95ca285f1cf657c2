package config

import (
	"fmt"

	"github.com/law-makers/seocrawl/internal/proxy"
	"github.com/law-makers/seocrawl/internal/store"
	"github.com/law-makers/seocrawl/internal/utils/headers"
	"github.com/law-makers/seocrawl/pkg/models"
)

func validate(c *Config) error {
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be > 0")
	}
	if c.Retries < 0 {
		return fmt.Errorf("retries must be >= 0")
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("max body size must be > 0")
	}
	if c.MaxRedirects < 0 {
		return fmt.Errorf("max redirects must be >= 0")
	}
	if _, err := proxy.Parse(c.Proxies); err != nil {
		return err
	}
	if _, err := headers.Parse(c.Headers); err != nil {
		return err
	}
	if c.StaticRateLimitRPS <= 0 || c.DynamicRateLimitRPS <= 0 {
		return fmt.Errorf("rate limits must be > 0")
	}
	if _, ok := models.ParseMode(c.Mode); !ok {
		return fmt.Errorf("mode must be one of static, spa, auto (got %q)", c.Mode)
	}
	if c.MaxPages < 1 {
		return fmt.Errorf("max pages must be >= 1")
	}
	if c.MaxLinksPerPage < 1 {
		return fmt.Errorf("max links per page must be >= 1")
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must be >= 0")
	}
	if c.ServerMaxPages < 1 {
		return fmt.Errorf("server max pages must be >= 1")
	}
	if c.CrawlTimeout <= 0 {
		return fmt.Errorf("crawl timeout must be > 0")
	}

	switch c.StoreType {
	case store.TypeNone, store.TypeMemory:
	case store.TypeDisk:
		if c.StoreDir == "" {
			return fmt.Errorf("disk store requires store_dir")
		}
	case store.TypeRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("redis store requires redis_addr")
		}
	default:
		return fmt.Errorf("store must be one of none, memory, disk, redis (got %q)", c.StoreType)
	}
	if c.StoreMaxSizeBytes <= 0 {
		return fmt.Errorf("store max size must be > 0")
	}

	if c.Weights.High < 0 || c.Weights.Medium < 0 || c.Weights.Low < 0 {
		return fmt.Errorf("scoring weights must be >= 0")
	}
	return nil
}

// StoreConfig returns the store settings
func (c *Config) StoreConfig() store.Config {
	return store.Config{
		Type:      c.StoreType,
		Dir:       c.StoreDir,
		RedisAddr: c.RedisAddr,
		TTL:       c.StoreTTL,
		MaxBytes:  c.StoreMaxSizeBytes,
	}
}
