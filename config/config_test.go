package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `
http:
  address: ":9090"
database:
  host: "db"
  port: 5433
  user: "u"
  password: "p"
  name: "drivebook"
  ssl_mode: "disable"
kafka:
  brokers:
    - "broker:9092"
  lesson_events_topic: "lesson_events"
booking:
  slot_hold_ttl_minutes: 5
  platform_fee_percent: 10
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTP.Address)
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=drivebook sslmode=disable", cfg.Database.DSN())
	assert.Equal(t, []string{"broker:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 10, cfg.Booking.PlatformFeePercent)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig("nonexistent.yaml")
	assert.Error(t, err)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http: [broken"), 0o600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
