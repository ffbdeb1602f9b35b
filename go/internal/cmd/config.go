package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mcdev12/watchparty/go/internal/hub"
	"github.com/mcdev12/watchparty/go/internal/models"
)

type Config struct {
	Movies []models.Movie `yaml:"movies"`
	Hub    struct {
		AllowedOrigins []string      `yaml:"allowed_origins"`
		SendBuffer     int           `yaml:"send_buffer"`
		MaxMessageSize int64         `yaml:"max_message_size"`
		PingInterval   time.Duration `yaml:"ping_interval"`
		ReadTimeout    time.Duration `yaml:"read_timeout"`
	} `yaml:"hub"`
	Activity struct {
		StreamName    string        `yaml:"stream_name"`
		SubjectPrefix string        `yaml:"subject_prefix"`
		MaxAge        time.Duration `yaml:"max_age"`
	} `yaml:"activity"`
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// loadConfig reads the yaml config at path. A missing file yields an empty config.
func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// hubConfig overlays the yaml and environment settings on the hub defaults
func (c *Config) hubConfig() hub.Config {
	cfg := hub.DefaultConfig()

	if c.Hub.SendBuffer > 0 {
		cfg.ConnectionConfig.SendBuffer = c.Hub.SendBuffer
	}
	if c.Hub.MaxMessageSize > 0 {
		cfg.ConnectionConfig.MaxMessageSize = c.Hub.MaxMessageSize
	}
	if c.Hub.PingInterval > 0 {
		cfg.ConnectionConfig.PingInterval = c.Hub.PingInterval
	}
	if c.Hub.ReadTimeout > 0 {
		cfg.ConnectionConfig.ReadTimeout = c.Hub.ReadTimeout
	}

	js := &cfg.JetStreamConfig
	js.URL = getEnv("NATS_URL", js.URL)
	if c.Activity.StreamName != "" {
		js.StreamName = c.Activity.StreamName
	}
	if c.Activity.SubjectPrefix != "" {
		js.SubjectPrefix = c.Activity.SubjectPrefix
	}
	if c.Activity.MaxAge > 0 {
		js.MaxAge = c.Activity.MaxAge
	}
	js.MaxReconnects = getEnvAsInt("NATS_MAX_RECONNECTS", js.MaxReconnects)
	js.ReconnectWait = getEnvAsDuration("NATS_RECONNECT_WAIT", js.ReconnectWait)

	return cfg
}

func (c *Config) allowedOrigins() []string {
	if len(c.Hub.AllowedOrigins) == 0 {
		return []string{"*"}
	}
	return c.Hub.AllowedOrigins
}
