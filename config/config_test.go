package configs_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	configs "task_service/config"
)

const configYAML = `
http:
  address: ":9000"
db:
  host: localhost
  port: 5432
  user: taskbot
  password: secret
  dbname: tasks
  sslmode: disable
kafka:
  brokers:
    - localhost:9092
redis:
  address: localhost:6379
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("defaults applied", func(t *testing.T) {
		t.Setenv("CONFIG_PATH", writeConfig(t, configYAML))

		cfg, err := configs.Load()
		require.NoError(t, err)
		assert.Equal(t, ":9000", cfg.HTTP.Address)
		assert.Equal(t, "task-notifications", cfg.Kafka.Topic)
		assert.Equal(t, 5*time.Minute, cfg.Reminder.Interval)
		assert.Equal(t, time.Hour, cfg.Reminder.Lookahead)
		assert.Equal(t, 30*time.Second, cfg.Redis.LockTTL)
	})

	t.Run("env overrides file", func(t *testing.T) {
		t.Setenv("CONFIG_PATH", writeConfig(t, configYAML))
		t.Setenv("HTTP_ADDRESS", ":7777")
		t.Setenv("REMINDER_INTERVAL", "60")

		cfg, err := configs.Load()
		require.NoError(t, err)
		assert.Equal(t, ":7777", cfg.HTTP.Address)
		assert.Equal(t, time.Minute, cfg.Reminder.Interval)
	})

	t.Run("missing brokers rejected", func(t *testing.T) {
		incomplete := `
db:
  host: localhost
  user: taskbot
  dbname: tasks
redis:
  address: localhost:6379
`
		t.Setenv("CONFIG_PATH", writeConfig(t, incomplete))

		_, err := configs.Load()
		require.Error(t, err)
	})
}
