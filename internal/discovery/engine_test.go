package discovery

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/raaihank/pii-scanner/internal/connector"
	"github.com/raaihank/pii-scanner/internal/logger"
	"github.com/raaihank/pii-scanner/internal/privacy"
	"github.com/raaihank/pii-scanner/internal/scanerr"
)

// countingResolver records how often a connection was requested
type countingResolver struct {
	inner Resolver
	mu    sync.Mutex
	calls int
}

func (r *countingResolver) Resolve(ctx context.Context, p connector.Params) (*connector.Connection, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	return r.inner.Resolve(ctx, p)
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Notify(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

func sqliteDatabase(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "crm.db")
	db, err := sqlx.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	for _, stmt := range fixture {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}
	return "sqlite:///" + path
}

func newTestEngine(cfg EngineConfig) (*Engine, *countingResolver) {
	resolver := &countingResolver{inner: connector.NewResolver(connector.DefaultOptions(), zap.NewNop())}
	return NewEngine(privacy.DefaultRegistry(), resolver, cfg, logger.NewNop()), resolver
}

func TestRunScanFullDatabase(t *testing.T) {
	conn := sqliteDatabase(t)
	engine, _ := newTestEngine(EngineConfig{})

	result, err := engine.RunScan(context.Background(), ScanRequest{
		Connection: connector.Params{ConnString: conn},
	})
	require.NoError(t, err)

	assert.Equal(t, "crm.db", result.Metadata.DBName)
	require.Len(t, result.Metadata.Tables, 2)
	assert.Equal(t, "customers", result.Metadata.Tables[0].Name)
	assert.Equal(t, "notes", result.Metadata.Tables[1].Name)
	assert.Equal(t, UnknownOwner, result.Metadata.Tables[0].Owner)
}

func TestRunScanSingleTableWithAllowList(t *testing.T) {
	conn := sqliteDatabase(t)
	engine, _ := newTestEngine(EngineConfig{})

	result, err := engine.RunScan(context.Background(), ScanRequest{
		Tables:       []string{"customers"},
		AllowedTypes: []string{"email"},
		Connection:   connector.Params{ConnString: conn},
	})
	require.NoError(t, err)

	require.Len(t, result.Metadata.Tables, 1)
	stat := result.Metadata.Tables[0]
	assert.Equal(t, "2", stat.RowCount)
	assert.Equal(t, 2, stat.Classifications[privacy.CategoryPII])
	assert.Equal(t, 0, stat.Classifications[privacy.CategoryBehavioral])

	require.Len(t, result.TableScans[0].Columns, 1)
	col := result.TableScans[0].Columns[0]
	assert.Equal(t, "email", col.Name)
	assert.Equal(t, 2, col.Scanned)
	assert.Equal(t, 2, col.Matched)
	assert.Equal(t, "100.00", col.Accuracy)
}

func TestRunScanDefaultAllowList(t *testing.T) {
	conn := sqliteDatabase(t)
	engine, _ := newTestEngine(EngineConfig{AllowedTypesDefault: []string{"ip_address"}})

	result, err := engine.RunScan(context.Background(), ScanRequest{
		Tables:     []string{"customers"},
		Connection: connector.Params{ConnString: conn},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Metadata.Tables[0].Classifications[privacy.CategoryBehavioral])
	assert.Equal(t, 2, result.TotalMatches())
}

func TestRunScanIsIdempotent(t *testing.T) {
	conn := sqliteDatabase(t)
	engine, _ := newTestEngine(EngineConfig{Concurrency: 2})
	req := ScanRequest{Connection: connector.Params{ConnString: conn}}

	first, err := engine.RunScan(context.Background(), req)
	require.NoError(t, err)
	second, err := engine.RunScan(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRunScanConfigurationErrorBeforeConnecting(t *testing.T) {
	engine, resolver := newTestEngine(EngineConfig{})
	events := &recorder{}
	engine.AddNotifier(events)

	tests := []struct {
		name   string
		params connector.Params
	}{
		{"empty connection string", connector.Params{ConnString: ""}},
		{"empty params", connector.Params{}},
		{"partial params", connector.Params{Host: "db", DBKind: "postgresql"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := engine.RunScan(context.Background(), ScanRequest{Connection: tt.params})
			require.Error(t, err)
			assert.Nil(t, result)
			assert.Equal(t, scanerr.KindConfiguration, scanerr.KindOf(err))
		})
	}

	assert.Equal(t, 0, resolver.calls)
	assert.Equal(t, []EventType{EventScanFailed, EventScanFailed, EventScanFailed}, events.types())
}

func TestRunScanUnsupportedDialect(t *testing.T) {
	engine, _ := newTestEngine(EngineConfig{})

	_, err := engine.RunScan(context.Background(), ScanRequest{
		Connection: connector.Params{Host: "db", Port: "50000", Username: "u", Password: "p", Database: "d", DBKind: "db2"},
	})
	assert.Equal(t, scanerr.KindConfiguration, scanerr.KindOf(err))
}

func TestRunScanMissingTable(t *testing.T) {
	conn := sqliteDatabase(t)
	engine, _ := newTestEngine(EngineConfig{})
	events := &recorder{}
	engine.AddNotifier(events)

	result, err := engine.RunScan(context.Background(), ScanRequest{
		Tables:     []string{"customers", "ghost"},
		Connection: connector.Params{ConnString: conn},
		ClientID:   "client-1",
	})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, scanerr.KindQuery, scanerr.KindOf(err))
	assert.Contains(t, err.Error(), "ghost")

	types := events.types()
	require.NotEmpty(t, types)
	assert.Equal(t, EventScanFailed, types[len(types)-1])
	last := events.events[len(events.events)-1]
	assert.Equal(t, "query", last.ErrorKind)
	assert.Equal(t, "client-1", last.ClientID)
}

func TestRunScanEvents(t *testing.T) {
	conn := sqliteDatabase(t)
	engine, _ := newTestEngine(EngineConfig{})
	events := &recorder{}
	engine.AddNotifier(events)

	_, err := engine.RunScan(context.Background(), ScanRequest{
		Connection: connector.Params{ConnString: conn},
		ClientID:   "client-7",
	})
	require.NoError(t, err)

	assert.Equal(t, []EventType{EventScanStarted, EventTableScanned, EventTableScanned, EventScanCompleted}, events.types())

	scanID := events.events[0].ScanID
	assert.NotEmpty(t, scanID)
	for _, ev := range events.events {
		assert.Equal(t, scanID, ev.ScanID)
		assert.Equal(t, "client-7", ev.ClientID)
		assert.Equal(t, "sqlite", ev.Dialect)
		assert.False(t, ev.Timestamp.IsZero())
	}
	assert.Equal(t, 2, events.events[0].Total)
	assert.Equal(t, "customers", events.events[1].Table)
}

func TestEngineUpdateConfig(t *testing.T) {
	engine, _ := newTestEngine(EngineConfig{Concurrency: 1})
	engine.UpdateConfig(EngineConfig{Concurrency: 8, ResolveOwners: true})

	assert.Equal(t, 8, engine.Config().Concurrency)
	assert.True(t, engine.Config().ResolveOwners)
	assert.Same(t, privacy.DefaultRegistry(), engine.Registry())
}

func TestNormalizeTables(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, normalizeTables([]string{" a ", "", "b", "  "}))
	assert.Empty(t, normalizeTables(nil))
}
