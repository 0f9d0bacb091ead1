package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/raaihank/pii-scanner/internal/privacy"
)

// EnvPrefix prefixes every environment override, e.g. PIISCAN_SERVER_PORT
const EnvPrefix = "PIISCAN"

// Loader reads configuration from a file and the environment and can
// watch the file for changes
type Loader struct {
	v  *viper.Viper
	mu sync.Mutex
}

// NewLoader creates a loader with defaults and environment bindings set up
func NewLoader() *Loader {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/piiscan/")
	v.AddConfigPath("$HOME/.piiscan/")

	// Environment variable overrides
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, GetDefaults())

	return &Loader{v: v}
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	return NewLoader().Load(configPath)
}

// Load reads the configuration. A missing config file is not an error when
// no explicit path is given.
func (l *Loader) Load(configPath string) (*Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if configPath != "" {
		l.v.SetConfigFile(configPath)
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return l.decode()
}

// ConfigFile returns the file in use, if any
func (l *Loader) ConfigFile() string {
	return l.v.ConfigFileUsed()
}

func (l *Loader) decode() (*Config, error) {
	config := GetDefaults()
	if err := l.v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// Watch calls callback with every valid configuration written to the file.
// Invalid edits are reported to onError and otherwise ignored.
func (l *Loader) Watch(callback func(*Config), onError func(error)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		l.mu.Lock()
		config, err := l.decode()
		l.mu.Unlock()

		if err != nil {
			if onError != nil {
				onError(fmt.Errorf("reload %s: %w", e.Name, err))
			}
			return
		}
		callback(config)
	})
	l.v.WatchConfig()
}

// setDefaults registers every key so environment overrides apply even
// when the config file does not mention them
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.idle_timeout", d.Server.IdleTimeout)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.file.enabled", d.Logging.File.Enabled)
	v.SetDefault("logging.file.path", d.Logging.File.Path)

	v.SetDefault("scanner.allowed_types_default", d.Scanner.AllowedTypesDefault)
	v.SetDefault("scanner.concurrency", d.Scanner.Concurrency)
	v.SetDefault("scanner.resolve_owners", d.Scanner.ResolveOwners)

	v.SetDefault("database.max_open_conns", d.Database.MaxOpenConns)
	v.SetDefault("database.max_idle_conns", d.Database.MaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", d.Database.ConnMaxLifetime)
	v.SetDefault("database.conn_max_idle_time", d.Database.ConnMaxIdleTime)
	v.SetDefault("database.ping_timeout", d.Database.PingTimeout)
	v.SetDefault("database.query_timeout", d.Database.QueryTimeout)

	v.SetDefault("rate_limit.enabled", d.RateLimit.Enabled)
	v.SetDefault("rate_limit.requests_per_min", d.RateLimit.RequestsPerMin)
	v.SetDefault("rate_limit.burst", d.RateLimit.Burst)

	v.SetDefault("websocket.enabled", d.WebSocket.Enabled)
	v.SetDefault("websocket.path", d.WebSocket.Path)
	v.SetDefault("websocket.allowed_origins", d.WebSocket.AllowedOrigins)
	v.SetDefault("websocket.broadcast_progress", d.WebSocket.BroadcastProgress)
	v.SetDefault("websocket.broadcast_connections", d.WebSocket.BroadcastConnections)
	v.SetDefault("websocket.username", d.WebSocket.Username)
	v.SetDefault("websocket.password", d.WebSocket.Password)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.path", d.Metrics.Path)
}

// validateConfig validates the loaded configuration
func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	switch config.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.Logging.Level)
	}

	if config.Logging.Format != "json" && config.Logging.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", config.Logging.Format)
	}

	if config.Scanner.Concurrency < 1 || config.Scanner.Concurrency > 64 {
		return fmt.Errorf("invalid scanner concurrency: %d (must be between 1 and 64)", config.Scanner.Concurrency)
	}

	registry := privacy.DefaultRegistry()
	for _, name := range config.Scanner.AllowedTypesDefault {
		if _, ok := registry.Get(name); !ok {
			return fmt.Errorf("unknown PII type in scanner.allowed_types_default: %s", name)
		}
	}

	if config.Database.MaxOpenConns < 0 || config.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database pool sizes must not be negative")
	}
	if config.Database.PingTimeout <= 0 {
		return fmt.Errorf("database.ping_timeout must be positive")
	}
	if config.Database.QueryTimeout < 0 {
		return fmt.Errorf("database.query_timeout must not be negative")
	}

	if config.RateLimit.Enabled && (config.RateLimit.RequestsPerMin <= 0 || config.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate_limit.requests_per_min and rate_limit.burst must be positive when enabled")
	}

	if config.WebSocket.Enabled && !strings.HasPrefix(config.WebSocket.Path, "/") {
		return fmt.Errorf("invalid websocket path: %q", config.WebSocket.Path)
	}
	if config.Metrics.Enabled && !strings.HasPrefix(config.Metrics.Path, "/") {
		return fmt.Errorf("invalid metrics path: %q", config.Metrics.Path)
	}

	return nil
}
