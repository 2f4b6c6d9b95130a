package config_test

import (
	"testing"
	"time"

	"github.com/Craig-Turley/listsync/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("NODE_ID", "")
	t.Setenv("MAILCHIMP_TIMEOUT", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite3", cfg.DBDriver)
	assert.Equal(t, int64(1), cfg.NodeId)
	assert.Equal(t, 10*time.Second, cfg.MailChimpTimeout)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("NODE_ID", "7")
	t.Setenv("CORS_ORIGINS", "https://a.test, https://b.test ,")
	t.Setenv("LOCK_TTL", "5s")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, int64(7), cfg.NodeId)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, 5*time.Second, cfg.LockTTL)
}

func TestLoadRejectsBadNode(t *testing.T) {
	t.Setenv("NODE_ID", "one")

	_, err := config.Load()
	assert.Error(t, err)
}
