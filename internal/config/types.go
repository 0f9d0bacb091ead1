package config

import "time"

// Config represents the main configuration structure
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Logging   LoggingConfig   `yaml:"logging" mapstructure:"logging"`
	Scanner   ScannerConfig   `yaml:"scanner" mapstructure:"scanner"`
	Database  DatabaseConfig  `yaml:"database" mapstructure:"database"`
	RateLimit RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
	WebSocket WebSocketConfig `yaml:"websocket" mapstructure:"websocket"`
	Metrics   MetricsConfig   `yaml:"metrics" mapstructure:"metrics"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port         int           `yaml:"port" mapstructure:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json or console
	File   struct {
		Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
		Path    string `yaml:"path" mapstructure:"path"`
	} `yaml:"file" mapstructure:"file"`
}

// ScannerConfig tunes scan execution
type ScannerConfig struct {
	// AllowedTypesDefault applies when a request names no PII types; empty
	// means every registered type
	AllowedTypesDefault []string `yaml:"allowed_types_default" mapstructure:"allowed_types_default"`
	Concurrency         int      `yaml:"concurrency" mapstructure:"concurrency"`
	ResolveOwners       bool     `yaml:"resolve_owners" mapstructure:"resolve_owners"`
}

// DatabaseConfig contains pool settings for scanned databases
type DatabaseConfig struct {
	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" mapstructure:"conn_max_idle_time"`
	PingTimeout     time.Duration `yaml:"ping_timeout" mapstructure:"ping_timeout"`
	QueryTimeout    time.Duration `yaml:"query_timeout" mapstructure:"query_timeout"` // 0 disables
}

// RateLimitConfig limits scan requests per client
type RateLimitConfig struct {
	Enabled        bool `yaml:"enabled" mapstructure:"enabled"`
	RequestsPerMin int  `yaml:"requests_per_min" mapstructure:"requests_per_min"`
	Burst          int  `yaml:"burst" mapstructure:"burst"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	Enabled              bool     `yaml:"enabled" mapstructure:"enabled"`
	Path                 string   `yaml:"path" mapstructure:"path"`
	AllowedOrigins       []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	BroadcastProgress    bool     `yaml:"broadcast_progress" mapstructure:"broadcast_progress"`
	BroadcastConnections bool     `yaml:"broadcast_connections" mapstructure:"broadcast_connections"`
	Username             string   `yaml:"username" mapstructure:"username"`
	Password             string   `yaml:"password" mapstructure:"password"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// GetDefaults returns a configuration with sensible defaults
func GetDefaults() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port:         5000,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 5 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Scanner: ScannerConfig{
			AllowedTypesDefault: []string{},
			Concurrency:         1,
			ResolveOwners:       false,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    4,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
			ConnMaxIdleTime: time.Minute,
			PingTimeout:     5 * time.Second,
			QueryTimeout:    0,
		},
		RateLimit: RateLimitConfig{
			Enabled:        true,
			RequestsPerMin: 30,
			Burst:          5,
		},
		WebSocket: WebSocketConfig{
			Enabled:              true,
			Path:                 "/ws",
			AllowedOrigins:       []string{"*"},
			BroadcastProgress:    false,
			BroadcastConnections: false,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
	cfg.Logging.File.Path = "logs/piiscan.log"
	return cfg
}
