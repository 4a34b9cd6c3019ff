package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "STORE_DRIVER", "STORE_PATH", "SHUTDOWN_TIMEOUT", "STORE_TIMEOUT", "IDEMPOTENCY_TTL", "ETCD_ENDPOINTS", "STORE_KEY"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverFile, cfg.StoreDriver)
	assert.Equal(t, "data/tasks.json", cfg.StorePath)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 5*time.Second, cfg.StoreTimeout)
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	assert.Equal(t, []string{"localhost:2379"}, cfg.EtcdEndpoints)
	assert.Empty(t, cfg.StoreKey)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_DRIVER", "redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("STORE_TIMEOUT", "2s")
	t.Setenv("ETCD_ENDPOINTS", "a:2379, b:2379,,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, DriverRedis, cfg.StoreDriver)
	assert.Equal(t, 2*time.Second, cfg.StoreTimeout)
	assert.Equal(t, []string{"a:2379", "b:2379"}, cfg.EtcdEndpoints)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("STORE_TIMEOUT", "soon")

	_, err := Load()
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "memory", cfg: Config{StoreDriver: DriverMemory}},
		{name: "file", cfg: Config{StoreDriver: DriverFile, StorePath: "x.json"}},
		{name: "file without path", cfg: Config{StoreDriver: DriverFile}, wantErr: true},
		{name: "redis without url", cfg: Config{StoreDriver: DriverRedis}, wantErr: true},
		{name: "postgres", cfg: Config{StoreDriver: DriverPostgres, DatabaseURL: "postgres://x"}},
		{name: "etcd without endpoints", cfg: Config{StoreDriver: DriverEtcd}, wantErr: true},
		{name: "unknown", cfg: Config{StoreDriver: "sqlite"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFromEnv_DoesNotValidate(t *testing.T) {
	t.Setenv("STORE_DRIVER", "redis")
	t.Setenv("REDIS_URL", "")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Error(t, cfg.Validate())

	cfg.StoreDriver = DriverMemory
	assert.NoError(t, cfg.Validate())
}
