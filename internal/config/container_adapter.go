package config

import (
	"github.com/vitingo/advance-workflow/internal/auth"
	"github.com/vitingo/advance-workflow/internal/container"
	"github.com/vitingo/advance-workflow/internal/infrastructure/backend"
	"github.com/vitingo/advance-workflow/internal/infrastructure/cache"
	"github.com/vitingo/advance-workflow/internal/infrastructure/external/lark"
	"github.com/vitingo/advance-workflow/internal/infrastructure/external/openai"
	"github.com/vitingo/advance-workflow/internal/infrastructure/storage"
	httpif "github.com/vitingo/advance-workflow/internal/interfaces/http"
	"github.com/vitingo/advance-workflow/pkg/database"
)

// ToContainerConfig converts the file-based Config into the container's
// per-component settings.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: database.Config{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
		},
		Backend: backend.Config{
			BaseURL: c.Backend.BaseURL,
			Timeout: c.Backend.Timeout,
		},
		ReloadDelay: c.Backend.ReloadDelay,
		Auth: auth.Config{
			Secret: c.Auth.JWTSecret,
			Issuer: c.Auth.Issuer,
		},
		Cache: container.CacheConfig{
			Driver: c.Cache.Driver,
			TTL:    c.Cache.TTL,
			Redis: cache.RedisConfig{
				Addr:     c.Cache.Redis.Addr,
				Password: c.Cache.Redis.Password,
				DB:       c.Cache.Redis.DB,
				PoolSize: c.Cache.Redis.PoolSize,
				Prefix:   c.Cache.Redis.Prefix,
			},
		},
		Storage: storage.Config{
			Endpoint:      c.Storage.Endpoint,
			AccessKey:     c.Storage.AccessKey,
			SecretKey:     c.Storage.SecretKey,
			Bucket:        c.Storage.Bucket,
			UseSSL:        c.Storage.UseSSL,
			PresignExpiry: c.Storage.PresignExpiry,
		},
		Lark: container.LarkConfig{
			Enabled: c.Lark.Enabled,
			Client: lark.Config{
				AppID:         c.Lark.AppID,
				AppSecret:     c.Lark.AppSecret,
				ReceiveIDType: c.Lark.ReceiveIDType,
			},
		},
		OpenAI: openai.Config{
			APIKey:      c.OpenAI.APIKey,
			BaseURL:     c.OpenAI.BaseURL,
			Model:       c.OpenAI.Model,
			PromptsPath: c.OpenAI.PromptsPath,
		},
		Server: httpif.ServerConfig{
			Host:           c.Server.Host,
			Port:           c.Server.Port,
			ReadTimeout:    c.Server.ReadTimeout,
			WriteTimeout:   c.Server.WriteTimeout,
			SessionIdleTTL: c.Session.IdleTTL,
			SweepInterval:  c.Session.SweepInterval,
			MaxUploadBytes: c.Upload.MaxBytes,
		},
	}
}
