package scanner

import (
	"context"
	"time"

	"github.com/spf13/cast"

	"github.com/raaihank/pii-scanner/internal/dialect"
	"github.com/raaihank/pii-scanner/internal/privacy"
	"github.com/raaihank/pii-scanner/internal/scanerr"
)

// Scan samples up to dialect.SampleLimit rows of table and tests every
// non-empty cell against each active rule. It returns one record per
// (row, column, rule) hit. A failed query fails the whole table; rows
// already read are discarded.
func Scan(ctx context.Context, q Querier, kind dialect.Kind, table string, active []privacy.PatternRule) ([]MatchRecord, error) {
	query := dialect.BuildSampleQuery(table, kind)

	rows, err := q.QueryxContext(ctx, query)
	if err != nil {
		return nil, scanerr.Query("sample query", table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, scanerr.Query("read columns", table, err)
	}

	var results []MatchRecord
	sampled := 0

	for rows.Next() {
		if sampled >= dialect.SampleLimit {
			break
		}
		sampled++

		values, err := rows.SliceScan()
		if err != nil {
			return nil, scanerr.Query("read row", table, err)
		}

		for idx, raw := range values {
			value, ok := stringify(raw)
			if !ok {
				continue
			}

			for _, rule := range active {
				if rule.Matches(value) {
					results = append(results, MatchRecord{
						Table:   table,
						Column:  columns[idx],
						Value:   value,
						PIIType: rule.Name,
					})
				}
			}
		}
	}

	if err := rows.Err(); err != nil {
		return nil, scanerr.Query("iterate rows", table, err)
	}

	return results, nil
}

// stringify converts a driver value to text. Nulls, empty values and
// values with no string form are reported as not ok. Booleans render as
// True/False and timestamps at midnight as a bare date.
func stringify(raw interface{}) (string, bool) {
	switch v := raw.(type) {
	case nil:
		return "", false
	case bool:
		if v {
			return "True", true
		}
		return "False", true
	case time.Time:
		return formatTime(v), true
	}

	value, err := cast.ToStringE(raw)
	if err != nil || value == "" {
		return "", false
	}
	return value, true
}

func formatTime(t time.Time) string {
	h, m, s := t.Clock()
	switch {
	case h == 0 && m == 0 && s == 0 && t.Nanosecond() == 0:
		return t.Format(time.DateOnly)
	case t.Nanosecond() != 0:
		return t.Format("2006-01-02 15:04:05.000000")
	default:
		return t.Format(time.DateTime)
	}
}
