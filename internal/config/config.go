package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the connector settings. YAML first, environment second; every
// field has a usable default so the zero-config path works against a local
// server.
type Config struct {
	// BaseURL is the server root, e.g. http://localhost:5000.
	BaseURL string `yaml:"baseURL" json:"baseURL"`
	// SocketPath is the websocket endpoint path on BaseURL.
	SocketPath string `yaml:"socketPath" json:"socketPath"`

	// DebounceWindowMs coalesces refresh triggers arriving close together.
	DebounceWindowMs int `yaml:"debounceWindowMs" json:"debounceWindowMs"`
	// ReplyTimeoutMs bounds the wait for a socket reply before a refresh
	// cycle settles anyway.
	ReplyTimeoutMs int `yaml:"replyTimeoutMs" json:"replyTimeoutMs"`
	// RESTTimeoutMs bounds each REST fallback call.
	RESTTimeoutMs int `yaml:"restTimeoutMs" json:"restTimeoutMs"`

	LogLevel string `yaml:"logLevel" json:"logLevel"`
	LogFile  string `yaml:"logFile" json:"logFile"`
}

// Default returns the reference settings: 300ms debounce, 3s reply wait, 10s
// REST timeout.
func Default() Config {
	return Config{
		BaseURL:          "http://localhost:5000",
		SocketPath:       "/ws",
		DebounceWindowMs: 300,
		ReplyTimeoutMs:   3000,
		RESTTimeoutMs:    10000,
		LogLevel:         "INFO",
	}
}

// Load reads an optional YAML file and applies environment overrides on top
// of the defaults. A missing file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("ADMIN_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("ADMIN_SOCKET_PATH"); v != "" {
		c.SocketPath = v
	}
	if v := os.Getenv("ADMIN_DEBOUNCE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			c.DebounceWindowMs = ms
		}
	}
	if v := os.Getenv("ADMIN_REPLY_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			c.ReplyTimeoutMs = ms
		}
	}
	if v := os.Getenv("ADMIN_REST_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			c.RESTTimeoutMs = ms
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		c.LogFile = v
	}
}

// Validate rejects settings the runtime cannot work with.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("baseURL is required")
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("baseURL must be http(s), got %q", c.BaseURL)
	}
	if c.DebounceWindowMs <= 0 {
		return fmt.Errorf("debounceWindowMs must be positive, got %d", c.DebounceWindowMs)
	}
	if c.ReplyTimeoutMs <= 0 {
		return fmt.Errorf("replyTimeoutMs must be positive, got %d", c.ReplyTimeoutMs)
	}
	if c.RESTTimeoutMs <= 0 {
		return fmt.Errorf("restTimeoutMs must be positive, got %d", c.RESTTimeoutMs)
	}
	return nil
}

// SocketURL returns the ws(s) endpoint derived from BaseURL and SocketPath.
func (c Config) SocketURL() string {
	url := c.BaseURL
	if strings.HasPrefix(url, "https://") {
		url = "wss://" + strings.TrimPrefix(url, "https://")
	} else {
		url = "ws://" + strings.TrimPrefix(url, "http://")
	}
	return strings.TrimSuffix(url, "/") + c.SocketPath
}

// DebounceWindow converts the configured window to a duration.
func (c Config) DebounceWindow() time.Duration {
	return time.Duration(c.DebounceWindowMs) * time.Millisecond
}

// ReplyTimeout converts the configured reply wait to a duration.
func (c Config) ReplyTimeout() time.Duration {
	return time.Duration(c.ReplyTimeoutMs) * time.Millisecond
}

// RESTTimeout converts the configured REST bound to a duration.
func (c Config) RESTTimeout() time.Duration {
	return time.Duration(c.RESTTimeoutMs) * time.Millisecond
}
