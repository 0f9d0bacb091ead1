// Package app assembles the scanner components from configuration
package app

import (
	"github.com/raaihank/pii-scanner/internal/config"
	"github.com/raaihank/pii-scanner/internal/connector"
	"github.com/raaihank/pii-scanner/internal/discovery"
	"github.com/raaihank/pii-scanner/internal/logger"
	"github.com/raaihank/pii-scanner/internal/websocket"
)

// LoggerConfig maps the logging section onto logger options
func LoggerConfig(cfg *config.Config) logger.Config {
	lc := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}
	if cfg.Logging.File.Enabled {
		lc.File = &logger.FileConfig{
			Enabled: true,
			Path:    cfg.Logging.File.Path,
		}
	}
	return lc
}

// ResolverOptions maps the database section onto pool options
func ResolverOptions(cfg *config.Config) connector.Options {
	return connector.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		PingTimeout:     cfg.Database.PingTimeout,
		QueryTimeout:    cfg.Database.QueryTimeout,
	}
}

// EngineConfig maps the scanner section onto engine tunables
func EngineConfig(cfg *config.Config) discovery.EngineConfig {
	return discovery.EngineConfig{
		Concurrency:         cfg.Scanner.Concurrency,
		ResolveOwners:       cfg.Scanner.ResolveOwners,
		AllowedTypesDefault: append([]string(nil), cfg.Scanner.AllowedTypesDefault...),
	}
}

// HubConfig maps the websocket section onto hub options
func HubConfig(cfg *config.Config) *websocket.HubConfig {
	return &websocket.HubConfig{
		BroadcastProgress:    cfg.WebSocket.BroadcastProgress,
		BroadcastConnections: cfg.WebSocket.BroadcastConnections,
		AllowedOrigins:       cfg.WebSocket.AllowedOrigins,
		Username:             cfg.WebSocket.Username,
		Password:             cfg.WebSocket.Password,
	}
}

// NewEngine builds a scan engine with a connector resolver
func NewEngine(cfg *config.Config, log *logger.Logger) *discovery.Engine {
	resolver := connector.NewResolver(ResolverOptions(cfg), log.WithComponent("connector").Logger)
	return discovery.NewEngine(nil, resolver, EngineConfig(cfg), log)
}
