// Package config loads the runtime's YAML configuration with environment
// expansion, schema validation, and defaults.
//
// Documents are validated with the same schema machinery tools use, so a bad
// config reports the same violation strings an agent would see: "invalid
// config: channel.dedup_capacity must be >= 1" instead of a YAML type error.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/skosovsky/botsy"
	"github.com/skosovsky/botsy/bus"
	"github.com/skosovsky/botsy/channel"
)

// Config is the full runtime configuration.
type Config struct {
	Channel ChannelConfig `yaml:"channel"`
	Tools   ToolsConfig   `yaml:"tools"`
	Log     LogConfig     `yaml:"log"`
}

// ChannelConfig configures the connection supervisor and its queues.
type ChannelConfig struct {
	AppID          string `yaml:"app_id"`
	Secret         string `yaml:"secret"`
	DedupCapacity  int    `yaml:"dedup_capacity"`
	BackoffSeconds int    `yaml:"backoff_seconds"`
	QueueSize      int    `yaml:"queue_size"`
}

// Backoff returns the reconnect delay as a duration.
func (c ChannelConfig) Backoff() time.Duration {
	return time.Duration(c.BackoffSeconds) * time.Second
}

// ToolsConfig configures the bundled toolkits.
type ToolsConfig struct {
	Web WebConfig `yaml:"web"`
}

// WebConfig configures the web toolkit.
type WebConfig struct {
	SearchAPIKey   string `yaml:"search_api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxChars       int    `yaml:"max_chars"`
}

// Timeout returns the web tool timeout as a duration.
func (c WebConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// ParseLevel maps a configured level name onto slog's levels. Unknown values
// fall back to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Default returns the configuration used when the document leaves a field
// unset.
func Default() Config {
	return Config{
		Channel: ChannelConfig{
			DedupCapacity:  channel.DefaultDedupCapacity,
			BackoffSeconds: 5,
			QueueSize:      bus.DefaultBuffer,
		},
		Tools: ToolsConfig{
			Web: WebConfig{TimeoutSeconds: 30, MaxChars: 50000},
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads, expands, validates and decodes the YAML document at path.
// Fields absent from the document keep their Default values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse is Load for an in-memory document.
func Parse(data []byte) (Config, error) {
	data = expandEnv(data)

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	// An empty document is a valid config: everything defaults.
	if doc != nil {
		if violations := botsy.Validate(schema(), doc); len(violations) > 0 {
			return Config{}, fmt.Errorf("invalid config: %s", strings.Join(violations, "; "))
		}
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// schema declares the document shape. Everything is optional; constraints
// only bound what is present.
func schema() *botsy.Schema {
	return botsy.Object(
		botsy.Prop("channel", botsy.Object(
			botsy.Prop("app_id", botsy.String()),
			botsy.Prop("secret", botsy.String()),
			botsy.Prop("dedup_capacity", botsy.Integer(botsy.Minimum(1))),
			botsy.Prop("backoff_seconds", botsy.Integer(botsy.Minimum(1))),
			botsy.Prop("queue_size", botsy.Integer(botsy.Minimum(1))),
		)),
		botsy.Prop("tools", botsy.Object(
			botsy.Prop("web", botsy.Object(
				botsy.Prop("search_api_key", botsy.String()),
				botsy.Prop("timeout_seconds", botsy.Integer(botsy.Minimum(1))),
				botsy.Prop("max_chars", botsy.Integer(botsy.Minimum(100))),
			)),
		)),
		botsy.Prop("log", botsy.Object(
			botsy.Prop("level", botsy.String(botsy.Enum("debug", "info", "warn", "error"))),
		)),
	)
}

var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv substitutes ${VAR} references with environment values. Only the
// braced form is recognized; an unset variable expands to the empty string.
func expandEnv(data []byte) []byte {
	return envPattern.ReplaceAllFunc(data, func(m []byte) []byte {
		name := string(m[2 : len(m)-1])
		return []byte(os.Getenv(name))
	})
}
