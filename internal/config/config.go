package config

import "time"

// Config holds client and web surface configuration values.
type Config struct {
	Addr              string          `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration   `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration   `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string          `mapstructure:"log_level" yaml:"log_level"`
	DatabasePath      string          `mapstructure:"database_path" yaml:"database_path"`
	MaxSendsPerMinute int             `mapstructure:"max_sends_per_minute" yaml:"max_sends_per_minute"`
	Assistant         AssistantConfig `mapstructure:"assistant" yaml:"assistant"`
	Services          []ServiceConfig `mapstructure:"services" yaml:"services"`
}

// AssistantConfig points at the remote assistant service.
type AssistantConfig struct {
	BaseURL        string        `mapstructure:"base_url" yaml:"base_url"`
	ChatPath       string        `mapstructure:"chat_path" yaml:"chat_path"`
	HealthPath     string        `mapstructure:"health_path" yaml:"health_path"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
}

// ServiceConfig is one entry of the admin services page.
type ServiceConfig struct {
	Name string `mapstructure:"name" yaml:"name"`
	URL  string `mapstructure:"url" yaml:"url"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		DatabasePath:      ":memory:",
		MaxSendsPerMinute: 30,
		Assistant: AssistantConfig{
			BaseURL:        "http://localhost:8082",
			ChatPath:       "/api/python/ml/chat",
			HealthPath:     "/api/python/health",
			RequestTimeout: 30 * time.Second,
		},
		Services: []ServiceConfig{
			{Name: "python-service", URL: "http://localhost:8082/api/python/health"},
		},
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.MaxSendsPerMinute != 0 {
		c.MaxSendsPerMinute = other.MaxSendsPerMinute
	}
	if other.Assistant.BaseURL != "" {
		c.Assistant.BaseURL = other.Assistant.BaseURL
	}
	if other.Assistant.ChatPath != "" {
		c.Assistant.ChatPath = other.Assistant.ChatPath
	}
	if other.Assistant.HealthPath != "" {
		c.Assistant.HealthPath = other.Assistant.HealthPath
	}
	if other.Assistant.RequestTimeout != 0 {
		c.Assistant.RequestTimeout = other.Assistant.RequestTimeout
	}
	if len(other.Services) > 0 {
		c.Services = other.Services
	}
}
