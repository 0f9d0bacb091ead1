package discovery

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/raaihank/pii-scanner/internal/dialect"
	"github.com/raaihank/pii-scanner/internal/privacy"
	"github.com/raaihank/pii-scanner/internal/scanerr"
	"github.com/raaihank/pii-scanner/internal/scanner"
)

// Source is an open database handle together with its dialect and the
// descriptor the database name is derived from
type Source struct {
	Querier    scanner.Querier
	Kind       dialect.Kind
	Descriptor string
}

// AggregateOptions tunes how tables are processed
type AggregateOptions struct {
	// Concurrency is the number of tables scanned at once; values below 2
	// scan sequentially
	Concurrency int
	// Owners resolves table owners; nil reports every owner as unknown
	Owners OwnerLookup
	// Progress is called after each table is folded. It may be called
	// from several goroutines when Concurrency > 1.
	Progress func(TableProgress)
}

// tableResult is the isolated outcome of scanning one table
type tableResult struct {
	stat TableStat
	scan TableScan
}

// Aggregate scans every table and folds the matches into per-table and
// per-column statistics. Results keep the order of tables. The first
// failing table fails the whole aggregation.
func Aggregate(ctx context.Context, src Source, tables []string, active []privacy.PatternRule, opts AggregateOptions) (*ScanResult, error) {
	results := make([]tableResult, len(tables))

	scanOne := func(ctx context.Context, i int) error {
		table := tables[i]

		matches, err := scanner.Scan(ctx, src.Querier, src.Kind, table, active)
		if err != nil {
			return err
		}

		stat, scan := foldTable(table, matches)

		stat.Owner = UnknownOwner
		if opts.Owners != nil {
			owner, err := opts.Owners.TableOwner(ctx, table)
			if err != nil {
				return scanerr.Query("owner lookup", table, err)
			}
			if owner != "" {
				stat.Owner = owner
			}
		}

		results[i] = tableResult{stat: stat, scan: scan}

		if opts.Progress != nil {
			opts.Progress(TableProgress{
				Table:   table,
				Index:   i,
				Total:   len(tables),
				Matches: len(matches),
			})
		}
		return nil
	}

	if opts.Concurrency < 2 {
		for i := range tables {
			if err := ctx.Err(); err != nil {
				return nil, scanerr.Unexpected("aggregate", err)
			}
			if err := scanOne(ctx, i); err != nil {
				return nil, err
			}
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(opts.Concurrency)
		for i := range tables {
			g.Go(func() error {
				return scanOne(gctx, i)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	out := &ScanResult{
		Metadata: Metadata{
			DBName: dialect.ExtractDBName(src.Descriptor),
			Tables: make([]TableStat, 0, len(results)),
		},
		TableScans: make([]TableScan, 0, len(results)),
	}
	for _, r := range results {
		out.Metadata.Tables = append(out.Metadata.Tables, r.stat)
		out.TableScans = append(out.TableScans, r.scan)
	}
	return out, nil
}

// foldTable rolls the matches of one table into its statistics. Every
// match counts as both scanned and matched for its column, so accuracy is
// always 100%; a column's type is the type of its latest match.
func foldTable(table string, matches []scanner.MatchRecord) (TableStat, TableScan) {
	counts := newClassificationCounts()
	columns := make(map[string]*ColumnStat)
	var order []string

	for _, m := range matches {
		category := privacy.Classify(m.PIIType)
		counts[category]++

		col, ok := columns[m.Column]
		if !ok {
			col = &ColumnStat{
				Name:           m.Column,
				DataType:       ColumnDataType,
				Classification: category,
			}
			columns[m.Column] = col
			order = append(order, m.Column)
		}
		col.Type = m.PIIType
		col.Scanned++
		col.Matched++
	}

	scan := TableScan{Name: table, Columns: make([]ColumnStat, 0, len(order))}
	for _, name := range order {
		col := columns[name]
		col.Accuracy = accuracy(col.Matched, col.Scanned)
		scan.Columns = append(scan.Columns, *col)
	}

	stat := TableStat{
		Name:            table,
		RowCount:        strconv.Itoa(len(matches)),
		Classifications: counts,
	}
	return stat, scan
}

// accuracy formats matched/scanned as a percentage with two decimals
func accuracy(matched, scanned int) string {
	if scanned <= 0 {
		return ""
	}
	return fmt.Sprintf("%.2f", float64(matched)/float64(scanned)*100)
}
