// Package container wires the advance workflow components and owns their
// lifecycle.
package container

import (
	"fmt"
	"time"

	"github.com/vitingo/advance-workflow/internal/auth"
	"github.com/vitingo/advance-workflow/internal/infrastructure/backend"
	"github.com/vitingo/advance-workflow/internal/infrastructure/cache"
	"github.com/vitingo/advance-workflow/internal/infrastructure/external/lark"
	"github.com/vitingo/advance-workflow/internal/infrastructure/external/openai"
	"github.com/vitingo/advance-workflow/internal/infrastructure/storage"
	httpif "github.com/vitingo/advance-workflow/internal/interfaces/http"
	"github.com/vitingo/advance-workflow/pkg/database"
)

// Cache drivers
const (
	CacheDriverMemory = "memory"
	CacheDriverRedis  = "redis"
)

// Config holds all configuration for the Container.
type Config struct {
	Database database.Config
	Backend  backend.Config

	// ReloadDelay is how long Save waits before re-reading lines
	ReloadDelay time.Duration

	Auth    auth.Config
	Cache   CacheConfig
	Storage storage.Config
	Lark    LarkConfig
	OpenAI  openai.Config
	Server  httpif.ServerConfig
}

// CacheConfig selects the reference data cache.
type CacheConfig struct {
	Driver string
	TTL    time.Duration
	Redis  cache.RedisConfig
}

// LarkConfig holds Lark messaging settings. When disabled, notifications
// are only logged.
type LarkConfig struct {
	Enabled bool
	Client  lark.Config
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: database.Config{
			Path:         "data/advance-workflow.db",
			MaxOpenConns: 1,
			MaxIdleConns: 1,
		},
		Backend: backend.Config{
			Timeout: 30 * time.Second,
		},
		ReloadDelay: 500 * time.Millisecond,
		Cache: CacheConfig{
			Driver: CacheDriverMemory,
			TTL:    10 * time.Minute,
		},
		Storage: storage.Config{
			PresignExpiry: storage.DefaultPresignExpiry,
		},
		Lark: LarkConfig{
			Client: lark.Config{ReceiveIDType: lark.DefaultReceiveIDType},
		},
		Server: httpif.DefaultServerConfig(),
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	if c.Auth.Secret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}

	switch c.Cache.Driver {
	case CacheDriverMemory, "":
	case CacheDriverRedis:
		if c.Cache.Redis.Addr == "" {
			return fmt.Errorf("cache.redis.addr is required")
		}
	default:
		return fmt.Errorf("unknown cache driver %q", c.Cache.Driver)
	}

	if c.Lark.Enabled && (c.Lark.Client.AppID == "" || c.Lark.Client.AppSecret == "") {
		return fmt.Errorf("lark.app_id and lark.app_secret are required")
	}
	if c.Storage.Endpoint != "" && c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required when storage.endpoint is set")
	}

	return nil
}
