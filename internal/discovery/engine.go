package discovery

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/raaihank/pii-scanner/internal/connector"
	"github.com/raaihank/pii-scanner/internal/logger"
	"github.com/raaihank/pii-scanner/internal/privacy"
	"github.com/raaihank/pii-scanner/internal/scanerr"
)

// Resolver opens a verified connection for a request
type Resolver interface {
	Resolve(ctx context.Context, p connector.Params) (*connector.Connection, error)
}

// EngineConfig holds the tunables of the engine
type EngineConfig struct {
	// Concurrency is the number of tables scanned in parallel per request
	Concurrency int
	// ResolveOwners enables catalog lookups for table owners
	ResolveOwners bool
	// AllowedTypesDefault applies when a request names no types
	AllowedTypesDefault []string
}

// Engine runs scan requests end to end
type Engine struct {
	registry *privacy.Registry
	resolver Resolver
	logger   *logger.Logger

	mu        sync.RWMutex
	cfg       EngineConfig
	notifiers []Notifier
}

// NewEngine creates a scan engine
func NewEngine(registry *privacy.Registry, resolver Resolver, cfg EngineConfig, log *logger.Logger) *Engine {
	if registry == nil {
		registry = privacy.DefaultRegistry()
	}
	return &Engine{
		registry: registry,
		resolver: resolver,
		cfg:      cfg,
		logger:   log.WithComponent("discovery"),
	}
}

// Registry returns the pattern registry used by the engine
func (e *Engine) Registry() *privacy.Registry {
	return e.registry
}

// AddNotifier registers a receiver for scan events
func (e *Engine) AddNotifier(n Notifier) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notifiers = append(e.notifiers, n)
}

// UpdateConfig swaps the engine tunables; scans already running keep the
// values they started with
func (e *Engine) UpdateConfig(cfg EngineConfig) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg = cfg
}

// Config returns the current tunables
func (e *Engine) Config() EngineConfig {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg
}

// RunScan validates the request, connects, samples every requested table
// (or every table when none are named) and returns the aggregated result.
// Any failure aborts the whole request.
func (e *Engine) RunScan(ctx context.Context, req ScanRequest) (*ScanResult, error) {
	cfg := e.Config()
	scanID := uuid.New().String()
	log := e.logger.WithScanID(scanID)
	started := time.Now()

	base := Event{ScanID: scanID, ClientID: req.ClientID}

	fail := func(err error) (*ScanResult, error) {
		log.Error("Scan failed",
			zap.String("kind", scanerr.KindOf(err).String()),
			zap.Error(err))

		ev := base
		ev.Type = EventScanFailed
		ev.ErrorKind = scanerr.KindOf(err).String()
		ev.Error = err.Error()
		ev.Duration = time.Since(started)
		e.notify(ev)
		return nil, err
	}

	if err := req.Connection.Validate(); err != nil {
		return fail(err)
	}

	log.Info("Starting scan",
		zap.String("target", req.Connection.String()),
		zap.Int("requested_tables", len(req.Tables)))

	conn, err := e.resolver.Resolve(ctx, req.Connection)
	if err != nil {
		return fail(err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Warn("Failed to close connection", zap.Error(err))
		}
	}()

	ctx, cancel := conn.Bound(ctx)
	defer cancel()

	tables := normalizeTables(req.Tables)
	if len(tables) == 0 {
		tables, err = conn.ListTables(ctx)
		if err != nil {
			return fail(err)
		}
		log.Debug("Introspected tables", zap.Strings("tables", tables))
	}

	allowed := req.AllowedTypes
	if len(allowed) == 0 {
		allowed = cfg.AllowedTypesDefault
	}
	active := e.registry.Lookup(allowed)

	// failures from here on are reported with the dialect
	base.Dialect = conn.Kind.String()

	ev := base
	ev.Type = EventScanStarted
	ev.Total = len(tables)
	e.notify(ev)

	opts := AggregateOptions{
		Concurrency: cfg.Concurrency,
		Progress: func(p TableProgress) {
			log.Debug("Table scanned",
				zap.String("table", p.Table),
				zap.Int("matches", p.Matches))

			ev := base
			ev.Type = EventTableScanned
			ev.Table = p.Table
			ev.Index = p.Index
			ev.Total = p.Total
			ev.Matches = p.Matches
			e.notify(ev)
		},
	}
	if cfg.ResolveOwners {
		opts.Owners = conn
	}

	result, err := Aggregate(ctx, Source{
		Querier:    conn.DB,
		Kind:       conn.Kind,
		Descriptor: conn.Descriptor(),
	}, tables, active, opts)
	if err != nil {
		return fail(err)
	}

	total := result.TotalMatches()
	log.Info("Scan completed",
		zap.String("database", result.Metadata.DBName),
		zap.Int("tables", len(tables)),
		zap.Int("patterns", len(active)),
		zap.Int("matches", total),
		zap.Duration("duration", time.Since(started)))

	ev = base
	ev.Type = EventScanCompleted
	ev.Total = len(tables)
	ev.Matches = total
	ev.Duration = time.Since(started)
	e.notify(ev)

	return result, nil
}

func (e *Engine) notify(ev Event) {
	ev.Timestamp = time.Now()

	e.mu.RLock()
	notifiers := e.notifiers
	e.mu.RUnlock()

	for _, n := range notifiers {
		n.Notify(ev)
	}
}

// normalizeTables trims names and drops blanks
func normalizeTables(tables []string) []string {
	out := make([]string, 0, len(tables))
	for _, t := range tables {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
