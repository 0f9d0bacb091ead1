package discovery

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/raaihank/pii-scanner/internal/connector"
	"github.com/raaihank/pii-scanner/internal/dialect"
	"github.com/raaihank/pii-scanner/internal/privacy"
	"github.com/raaihank/pii-scanner/internal/scanerr"
)

// groupColumns buckets catalog columns by table. With no requested tables
// every table is kept in catalog order; otherwise the requested order is
// kept and names are compared case-insensitively. A requested table the
// catalog does not know fails with a query error.
func groupColumns(columns []connector.Column, requested []string) ([]string, map[string][]connector.Column, error) {
	byTable := make(map[string][]connector.Column)
	var order []string
	for _, col := range columns {
		if _, ok := byTable[col.Table]; !ok {
			order = append(order, col.Table)
		}
		byTable[col.Table] = append(byTable[col.Table], col)
	}

	if len(requested) == 0 {
		return order, byTable, nil
	}

	tables := make([]string, 0, len(requested))
	for _, want := range requested {
		name := ""
		for _, have := range order {
			if strings.EqualFold(have, want) {
				name = have
				break
			}
		}
		if name == "" {
			return nil, nil, scanerr.Query("classify metadata", want, fmt.Errorf("table not found in catalog"))
		}
		tables = append(tables, name)
	}
	return tables, byTable, nil
}

// ClassifyColumns classifies each table by its column names alone. A
// column whose name matches an active rule counts once toward its table;
// no rows are read, so scanned and matched stay zero. RowCount is the
// number of classified columns.
func ClassifyColumns(dbName string, tables []string, byTable map[string][]connector.Column, active []privacy.PatternRule) *ScanResult {
	out := &ScanResult{
		Metadata: Metadata{
			DBName: dbName,
			Tables: make([]TableStat, 0, len(tables)),
		},
		TableScans: make([]TableScan, 0, len(tables)),
	}

	for _, table := range tables {
		counts := newClassificationCounts()
		scan := TableScan{Name: table, Columns: []ColumnStat{}}

		for _, col := range byTable[table] {
			rule, ok := privacy.MatchColumn(col.Name, active)
			if !ok {
				continue
			}
			category := privacy.Classify(rule.Name)
			counts[category]++

			dataType := col.DataType
			if dataType == "" {
				dataType = ColumnDataType
			}
			scan.Columns = append(scan.Columns, ColumnStat{
				Name:           col.Name,
				Type:           rule.Name,
				DataType:       dataType,
				Classification: category,
			})
		}

		out.Metadata.Tables = append(out.Metadata.Tables, TableStat{
			Name:            table,
			Owner:           UnknownOwner,
			RowCount:        strconv.Itoa(len(scan.Columns)),
			Classifications: counts,
		})
		out.TableScans = append(out.TableScans, scan)
	}
	return out
}

// ClassifyMetadata connects, reads the column catalog and classifies the
// requested tables (or every table) by column name. Table contents are
// never read.
func (e *Engine) ClassifyMetadata(ctx context.Context, req ScanRequest) (*ScanResult, error) {
	cfg := e.Config()
	scanID := uuid.New().String()
	log := e.logger.WithScanID(scanID)
	started := time.Now()

	base := Event{ScanID: scanID, ClientID: req.ClientID}

	fail := func(err error) (*ScanResult, error) {
		log.Error("Metadata classification failed",
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

	log.Info("Starting metadata classification",
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

	base.Dialect = conn.Kind.String()

	columns, err := conn.ListColumns(ctx)
	if err != nil {
		return fail(err)
	}

	tables, byTable, err := groupColumns(columns, normalizeTables(req.Tables))
	if err != nil {
		return fail(err)
	}

	allowed := req.AllowedTypes
	if len(allowed) == 0 {
		allowed = cfg.AllowedTypesDefault
	}
	active := e.registry.Lookup(allowed)

	ev := base
	ev.Type = EventScanStarted
	ev.Total = len(tables)
	e.notify(ev)

	result := ClassifyColumns(dialect.ExtractDBName(conn.Descriptor()), tables, byTable, active)

	if cfg.ResolveOwners {
		for i := range result.Metadata.Tables {
			stat := &result.Metadata.Tables[i]
			owner, err := conn.TableOwner(ctx, stat.Name)
			if err != nil {
				return fail(scanerr.Query("owner lookup", stat.Name, err))
			}
			if owner != "" {
				stat.Owner = owner
			}
		}
	}

	total := result.TotalMatches()
	log.Info("Metadata classification completed",
		zap.String("database", result.Metadata.DBName),
		zap.Int("tables", len(tables)),
		zap.Int("columns", len(columns)),
		zap.Int("classified", total),
		zap.Duration("duration", time.Since(started)))

	ev = base
	ev.Type = EventScanCompleted
	ev.Total = len(tables)
	ev.Matches = total
	ev.Duration = time.Since(started)
	e.notify(ev)

	return result, nil
}
