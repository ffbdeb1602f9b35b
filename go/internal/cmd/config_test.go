package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
movies:
  - id: bbb
    title: Big Buck Bunny
    youtube_id: aqz-KE-bpKQ
    duration_sec: 596
hub:
  allowed_origins: ["http://localhost:3000"]
  send_buffer: 32
  ping_interval: 15s
activity:
  stream_name: TEST_ACTIVITY
  max_age: 1h
`

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchparty.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o600))
	t.Setenv("NATS_URL", "nats://nats:4222")
	t.Setenv("NATS_RECONNECT_WAIT", "5s")

	config, err := loadConfig(path)
	require.NoError(t, err)

	require.Len(t, config.Movies, 1)
	assert.Equal(t, "aqz-KE-bpKQ", config.Movies[0].YoutubeID)
	assert.Equal(t, 596, config.Movies[0].DurationSec)
	assert.Equal(t, []string{"http://localhost:3000"}, config.allowedOrigins())

	hubCfg := config.hubConfig()
	assert.Equal(t, 32, hubCfg.ConnectionConfig.SendBuffer)
	assert.Equal(t, 15*time.Second, hubCfg.ConnectionConfig.PingInterval)
	assert.Equal(t, 60*time.Second, hubCfg.ConnectionConfig.ReadTimeout)
	assert.Equal(t, "TEST_ACTIVITY", hubCfg.JetStreamConfig.StreamName)
	assert.Equal(t, "rooms.activity", hubCfg.JetStreamConfig.SubjectPrefix)
	assert.Equal(t, time.Hour, hubCfg.JetStreamConfig.MaxAge)
	assert.Equal(t, "nats://nats:4222", hubCfg.JetStreamConfig.URL)
	assert.Equal(t, 5*time.Second, hubCfg.JetStreamConfig.ReconnectWait)
}

func TestLoadConfigMissingFile(t *testing.T) {
	config, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Empty(t, config.Movies)
	assert.Equal(t, []string{"*"}, config.allowedOrigins())
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("movies: {"), 0o600))

	_, err := loadConfig(path)
	assert.Error(t, err)
}
