// Package config provides configuration for the assistant service.
// Source priority (highest to lowest):
// 1. Environment variables (OPSDESK_*)
// 2. Config file at $OPSDESK_CONFIG (YAML)
// 3. Built-in defaults
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the assistant service configuration.
type Config struct {
	// Server settings
	HTTPPort int `yaml:"http_port"`

	// Snapshot database
	SnapshotDSN string `yaml:"snapshot_dsn"`

	// Remote chat backend
	AssistantURL     string        `yaml:"assistant_url"`
	AssistantAPIKey  string        `yaml:"assistant_api_key"`
	AssistantTimeout time.Duration `yaml:"-"`

	// Operations collaborator service (notifications, stats, records, health)
	CollabURL     string `yaml:"collab_url"`
	CollabToken   string `yaml:"collab_token"`
	NotifyChannel string `yaml:"notify_channel"`

	// Conversation limits. Product constants, not derived from anything;
	// kept overridable rather than inlined.
	HistoryLimit    int `yaml:"history_limit"`
	TitleMaxLen     int `yaml:"title_max_len"`
	ContextMessages int `yaml:"context_messages"`

	// Logging
	LogLevel string `yaml:"log_level"`
}

// Load loads configuration from the optional YAML file and environment.
func Load() *Config {
	cfg := &Config{
		HTTPPort:         8080,
		SnapshotDSN:      "file:opsdesk.db?cache=shared&mode=rwc",
		AssistantURL:     "http://localhost:8100",
		NotifyChannel:    "#ops",
		HistoryLimit:     25,
		TitleMaxLen:      40,
		ContextMessages:  6,
		AssistantTimeout: 30 * time.Second,
		LogLevel:         "info",
	}

	if path := os.Getenv("OPSDESK_CONFIG"); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				log.Printf("WARN: failed to parse config file %s: %v", path, err)
			}
		} else {
			log.Printf("WARN: failed to read config file %s: %v", path, err)
		}
	}

	cfg.HTTPPort = getEnvInt("OPSDESK_HTTP_PORT", cfg.HTTPPort)
	cfg.SnapshotDSN = getEnv("OPSDESK_SNAPSHOT_DSN", cfg.SnapshotDSN)
	cfg.AssistantURL = getEnv("OPSDESK_ASSISTANT_URL", cfg.AssistantURL)
	cfg.AssistantAPIKey = getEnv("OPSDESK_ASSISTANT_API_KEY", cfg.AssistantAPIKey)
	cfg.AssistantTimeout = time.Duration(getEnvInt("OPSDESK_ASSISTANT_TIMEOUT_MS", int(cfg.AssistantTimeout/time.Millisecond))) * time.Millisecond
	cfg.CollabURL = getEnv("OPSDESK_COLLAB_URL", cfg.CollabURL)
	cfg.CollabToken = getEnv("OPSDESK_COLLAB_TOKEN", cfg.CollabToken)
	cfg.NotifyChannel = getEnv("OPSDESK_NOTIFY_CHANNEL", cfg.NotifyChannel)
	cfg.HistoryLimit = getEnvInt("OPSDESK_HISTORY_LIMIT", cfg.HistoryLimit)
	cfg.TitleMaxLen = getEnvInt("OPSDESK_TITLE_MAX_LEN", cfg.TitleMaxLen)
	cfg.ContextMessages = getEnvInt("OPSDESK_CONTEXT_MESSAGES", cfg.ContextMessages)
	cfg.LogLevel = getEnv("OPSDESK_LOG_LEVEL", cfg.LogLevel)

	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}
