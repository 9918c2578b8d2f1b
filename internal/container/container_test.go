package container

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vitingo/advance-workflow/internal/auth"
)

func testConfig(t *testing.T) *Config {
	cfg := DefaultConfig()
	cfg.Database.Path = filepath.Join(t.TempDir(), "test.db")
	cfg.Backend.BaseURL = "http://backend.invalid"
	cfg.Auth = auth.Config{Secret: "test-secret"}
	return cfg
}

func TestNewContainer_RejectsInvalidConfig(t *testing.T) {
	_, err := NewContainer(nil, zap.NewNop())
	assert.Error(t, err)

	cfg := testConfig(t)
	_, err = NewContainer(cfg, nil)
	assert.Error(t, err)

	cfg.Auth.Secret = ""
	_, err = NewContainer(cfg, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret")
}

func TestConfigValidate(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, cfg.Validate())

	cfg.Cache.Driver = CacheDriverRedis
	assert.Error(t, cfg.Validate())
	cfg.Cache.Redis.Addr = "localhost:6379"
	assert.NoError(t, cfg.Validate())

	cfg.Storage.Endpoint = "minio:9000"
	assert.Error(t, cfg.Validate())
	cfg.Storage.Bucket = "expenses"
	assert.NoError(t, cfg.Validate())

	cfg.Lark.Enabled = true
	assert.Error(t, cfg.Validate())
}

func TestContainer_Lifecycle(t *testing.T) {
	c, err := NewContainer(testConfig(t), zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, c.Start(context.Background()))
	assert.True(t, c.Ready())
	assert.Error(t, c.Start(context.Background()), "second start")

	services := c.Services()
	require.NotNil(t, services)
	assert.NotNil(t, services.Closing)
	assert.NotNil(t, services.Finance)
	assert.NotNil(t, services.References)
	assert.NotNil(t, services.Verifier)
	assert.NotNil(t, c.Server())

	health := c.Health(context.Background())
	assert.True(t, health.Overall)
	assert.True(t, health.Components["database"].Healthy)
	assert.True(t, health.Components["cache"].Healthy)

	require.NoError(t, c.Close())
	assert.False(t, c.Ready())
	assert.Error(t, c.Close(), "second close")
	assert.Error(t, c.Start(context.Background()), "start after close")
}

func TestProvideCache_UnknownDriver(t *testing.T) {
	_, err := ProvideCache(&CacheConfig{Driver: "memcached"}, zap.NewNop())
	assert.Error(t, err)
}
