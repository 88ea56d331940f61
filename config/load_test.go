package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsAndEnv(t *testing.T) {
	t.Setenv("MOIR_SERVER_ADDR", ":9999")
	t.Setenv("MOIR_SERVER_REQUESTTIMEOUT", "2s")
	t.Setenv("MOIR_GREETING_ENDPOINT", "http://greeting.local/v1")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, 2*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "http://greeting.local/v1", cfg.Greeting.Endpoint)

	// 未覆盖的字段保持默认值
	def := DefaultAppConfig()
	assert.Equal(t, def.Server.ConnectAddr, cfg.Server.ConnectAddr)
	assert.Equal(t, def.Kafka.Brokers, cfg.Kafka.Brokers)
	assert.Equal(t, def.Kafka.ConsumerConfig, cfg.Kafka.ConsumerConfig)
	assert.Equal(t, def.Redis, cfg.Redis)
	assert.Equal(t, def.Greeting.Fallback, cfg.Greeting.Fallback)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
mysql:
  host: db.internal
  replicas:
    - "ro:ro@tcp(replica:3306)/moir"
rateLimit:
  sendRate: 1
  sendBurst: 3
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.MySQL.Host)
	assert.Equal(t, []string{"ro:ro@tcp(replica:3306)/moir"}, cfg.MySQL.Replicas)
	assert.Equal(t, float64(1), cfg.RateLimit.SendRate)
	assert.Equal(t, 3, cfg.RateLimit.SendBurst)
	assert.Equal(t, DefaultMySQLConfig().Port, cfg.MySQL.Port)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestMySQLConfigDSN(t *testing.T) {
	cfg := MySQLConfig{User: "root", Password: "pw", Host: "127.0.0.1", Port: 3306, Database: "moir"}
	assert.Equal(t, "root:pw@tcp(127.0.0.1:3306)/moir?charset=utf8mb4&parseTime=True&loc=Local", cfg.DSN())
}
