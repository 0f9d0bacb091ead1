package connector

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/raaihank/pii-scanner/internal/dialect"
	"github.com/raaihank/pii-scanner/internal/logger"
	"github.com/raaihank/pii-scanner/internal/scanerr"
)

// Connection is an open, verified database handle bound to a dialect
type Connection struct {
	DB   *sqlx.DB
	Kind dialect.Kind

	descriptor   string
	queryTimeout time.Duration
	logger       *zap.Logger
}

// NewConnection wraps an already opened handle
func NewConnection(db *sqlx.DB, kind dialect.Kind, descriptor string, logger *zap.Logger) *Connection {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Connection{
		DB:         db,
		Kind:       kind,
		descriptor: descriptor,
		logger:     logger,
	}
}

// Descriptor returns the connection URL the handle was opened from. It may
// contain credentials and must not be logged; use Redacted for that.
func (c *Connection) Descriptor() string {
	return c.descriptor
}

// Redacted returns the descriptor with the password masked
func (c *Connection) Redacted() string {
	return logger.MaskDSN(c.descriptor)
}

// Bound derives a context carrying the configured query deadline, if any
func (c *Connection) Bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.queryTimeout > 0 {
		return context.WithTimeout(ctx, c.queryTimeout)
	}
	return context.WithCancel(ctx)
}

// ListTables returns the user tables visible to the connection, by name
func (c *Connection) ListTables(ctx context.Context) ([]string, error) {
	query := dialect.ListTablesQuery(c.Kind)
	if query == "" {
		return nil, scanerr.Configurationf("table listing is not supported for %s", c.Kind)
	}

	var tables []string
	if err := c.DB.SelectContext(ctx, &tables, query); err != nil {
		return nil, scanerr.Query("list tables", "", err)
	}

	c.logger.Debug("Listed tables", zap.Int("count", len(tables)))
	return tables, nil
}

// Column describes one column of a user table as reported by the catalog
type Column struct {
	Table    string
	Name     string
	DataType string
}

// ListColumns returns every column of every user table visible to the
// connection, grouped by table in catalog order
func (c *Connection) ListColumns(ctx context.Context) ([]Column, error) {
	query := dialect.ListColumnsQuery(c.Kind)
	if query == "" {
		return nil, scanerr.Configurationf("column listing is not supported for %s", c.Kind)
	}

	rows, err := c.DB.QueryxContext(ctx, query)
	if err != nil {
		return nil, scanerr.Query("list columns", "", err)
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var (
			col      Column
			dataType sql.NullString
		)
		if err := rows.Scan(&col.Table, &col.Name, &dataType); err != nil {
			return nil, scanerr.Query("list columns", "", err)
		}
		col.DataType = dataType.String
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, scanerr.Query("list columns", "", err)
	}

	c.logger.Debug("Listed columns", zap.Int("count", len(columns)))
	return columns, nil
}

// TableOwner returns the owning role of table, or "" when the dialect has
// no ownership concept or the catalog has no entry
func (c *Connection) TableOwner(ctx context.Context, table string) (string, error) {
	query := dialect.TableOwnerQuery(c.Kind)
	if query == "" {
		return "", nil
	}

	var owner string
	err := c.DB.GetContext(ctx, &owner, query, table)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return owner, nil
}

// Close closes the database handle
func (c *Connection) Close() error {
	stats := c.DB.Stats()
	c.logger.Debug("Closing database connection",
		zap.String("dialect", c.Kind.String()),
		zap.Int("open_connections", stats.OpenConnections),
		zap.Int("in_use", stats.InUse),
		zap.Int("idle", stats.Idle))
	return c.DB.Close()
}
