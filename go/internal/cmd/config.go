package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Config is the server configuration. Defaults work for local development;
// a YAML file at CONFIG_PATH overlays them and a few environment variables
// override both.
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	// Standalone runs the engine, RPC API, and WebSocket gateway without
	// Postgres or NATS. Rooms live only in memory.
	Standalone bool `yaml:"standalone"`

	Engine struct {
		SubscriberBuffer int `yaml:"subscriber_buffer"`
	} `yaml:"engine"`

	Gateway struct {
		SendBufferSize  int `yaml:"send_buffer_size"`
		PingIntervalSec int `yaml:"ping_interval_sec"`
	} `yaml:"gateway"`

	Outbox struct {
		PollIntervalSec int   `yaml:"poll_interval_sec"`
		BatchSize       int32 `yaml:"batch_size"`
	} `yaml:"outbox"`

	NATS struct {
		URL           string `yaml:"url"`
		Stream        string `yaml:"stream"`
		SubjectPrefix string `yaml:"subject_prefix"`
	} `yaml:"nats"`
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.Server.Port = "8080"
	cfg.Engine.SubscriberBuffer = 64
	cfg.Gateway.SendBufferSize = 256
	cfg.Gateway.PingIntervalSec = 30
	cfg.Outbox.PollIntervalSec = 5
	cfg.Outbox.BatchSize = 100
	cfg.NATS.URL = "nats://localhost:4222"
	cfg.NATS.Stream = "ROOM_EVENTS"
	cfg.NATS.SubjectPrefix = "room.events"
	return cfg
}

func loadConfig() (*Config, error) {
	cfg := defaultConfig()

	path := getEnv("CONFIG_PATH", "draftroom.yaml")
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Debug().Str("path", path).Msg("no config file, using defaults")
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		log.Info().Str("path", path).Msg("loaded config file")
	}

	// Environment overrides
	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.NATS.URL = getEnv("NATS_URL", cfg.NATS.URL)
	if v := os.Getenv("STANDALONE"); v != "" {
		standalone, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid STANDALONE value %q: %w", v, err)
		}
		cfg.Standalone = standalone
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
