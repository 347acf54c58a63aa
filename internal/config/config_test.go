package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("SESSION_STORE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreDriverMemory, cfg.Store.Driver)
	assert.Equal(t, SessionStoreMemory, cfg.Session.Store)
	assert.Equal(t, 5, cfg.Dashboard.RecentWindow)
	assert.Equal(t, time.Hour, cfg.Session.RoleCacheTTL())
	assert.Equal(t, "helpdesk.events", cfg.Broker.Queue)
	assert.True(t, cfg.Redis.Required)
	assert.Equal(t, 2*time.Second, cfg.Redis.PingTimeout())
}

func TestRedisDegradedMode(t *testing.T) {
	t.Setenv("REDIS_REQUIRED", "false")
	t.Setenv("REDIS_PING_TIMEOUT_MS", "250")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Redis.Required)
	assert.Equal(t, 250*time.Millisecond, cfg.Redis.PingTimeout())
}

func TestLoadPicksPostgresWhenDSNSet(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "postgres://u:p@localhost:5432/helpdesk")
	t.Setenv("STORE_DRIVER", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreDriverPostgres, cfg.Store.Driver)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")

	t.Setenv("STORE_DRIVER", "postgres")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("STORE_DRIVER", "cassandra")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("SESSION_STORE", "etcd")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("SESSION_STORE", "memory")
	t.Setenv("REDIS_DB", "zero")
	_, err = Load()
	assert.Error(t, err)
}

func TestAppConfigHelpers(t *testing.T) {
	app := AppConfig{Host: "127.0.0.1", Port: "9000", RequestTimeoutSeconds: 3}
	assert.Equal(t, "127.0.0.1:9000", app.Addr())
	assert.Equal(t, 3*time.Second, app.RequestTimeout())

	app.RequestTimeoutSeconds = 0
	assert.Zero(t, app.RequestTimeout())
}

func TestBootstrapRequiresBothFields(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("BOOTSTRAP_ADMIN_USERNAME", "ops")
	t.Setenv("BOOTSTRAP_ADMIN_PASSWORD", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Bootstrap.Enabled())

	t.Setenv("BOOTSTRAP_ADMIN_PASSWORD", "change-me-now")
	cfg, err = Load()
	require.NoError(t, err)
	assert.True(t, cfg.Bootstrap.Enabled())
}
