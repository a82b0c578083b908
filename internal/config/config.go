package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"github.com/mmuslimabdulj/meet-signal/internal/domain"
)

// Config holds all application configuration
type Config struct {
	// Server
	Port            string
	ShutdownTimeout time.Duration

	// Security
	AllowedOrigins []string

	// Rate Limiting
	RateLimitAPI rate.Limit
	RateLimitWS  rate.Limit
	EventRate    rate.Limit
	EventBurst   int

	// Logging
	LogLevel  string
	LogFormat string

	// WebSocket
	MaxMessageSize int
	SendBufferSize int

	// User directory
	DirectoryURL     string
	DirectoryTimeout time.Duration

	// ConfigFile is the yaml file the values were read from, if any
	ConfigFile string
}

// DefaultConfig returns configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Port:             "8080",
		ShutdownTimeout:  domain.ShutdownTimeout,
		AllowedOrigins:   []string{"http://localhost:8080", "http://localhost:3000"},
		RateLimitAPI:     domain.DefaultRateLimitAPI,
		RateLimitWS:      domain.DefaultRateLimitWS,
		EventRate:        domain.DefaultEventRate,
		EventBurst:       domain.DefaultEventBurst,
		LogLevel:         "info", // Options: debug, info, warn, error, silent
		LogFormat:        "console",
		MaxMessageSize:   domain.MaxMessageSize,
		SendBufferSize:   domain.SendBufferSize,
		DirectoryTimeout: domain.DirectoryTimeout,
	}
}

// Load reads configuration from the environment and, when CONFIG_FILE is
// set, from that yaml file. Environment variables win over the file.
// Missing, malformed or non-positive values fall back to the defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()

	if file := v.GetString("config_file"); file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
		cfg.ConfigFile = file
	}

	// Server
	if port := strings.TrimSpace(v.GetString("port")); port != "" {
		cfg.Port = port
	}
	if d := v.GetDuration("shutdown_timeout"); d > 0 {
		cfg.ShutdownTimeout = d
	}

	// Security
	if origins := parseOrigins(strings.Join(v.GetStringSlice("allowed_origins"), ",")); len(origins) > 0 {
		cfg.AllowedOrigins = origins
	}

	// Rate Limiting
	if val := v.GetInt("rate_limit_api"); val > 0 {
		cfg.RateLimitAPI = rate.Limit(val)
	}
	if val := v.GetInt("rate_limit_ws"); val > 0 {
		cfg.RateLimitWS = rate.Limit(val)
	}
	if val := v.GetInt("event_rate"); val > 0 {
		cfg.EventRate = rate.Limit(val)
	}
	if val := v.GetInt("event_burst"); val > 0 {
		cfg.EventBurst = val
	}

	// Logging
	if level := v.GetString("log_level"); level != "" {
		cfg.LogLevel = strings.ToLower(level)
	}
	if format := v.GetString("log_format"); format != "" {
		cfg.LogFormat = strings.ToLower(format)
	}

	// WebSocket
	if val := v.GetInt("max_message_size"); val > 0 {
		cfg.MaxMessageSize = val
	}
	if val := v.GetInt("send_buffer_size"); val > 0 {
		cfg.SendBufferSize = val
	}

	// User directory
	cfg.DirectoryURL = strings.TrimRight(strings.TrimSpace(v.GetString("directory_url")), "/")
	if d := v.GetDuration("directory_timeout"); d > 0 {
		cfg.DirectoryTimeout = d
	}

	return cfg, nil
}

// Silent reports whether logging is switched off entirely
func (c *Config) Silent() bool {
	return c.LogLevel == "silent" || c.LogLevel == "off"
}

// parseOrigins parses comma-separated origins
func parseOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
