// Package report renders scan results for the command line
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/segmentio/parquet-go"

	"github.com/raaihank/pii-scanner/internal/discovery"
	"github.com/raaihank/pii-scanner/internal/privacy"
)

// Format selects an output encoding
type Format string

const (
	FormatJSON    Format = "json"
	FormatTable   Format = "table"
	FormatParquet Format = "parquet"
)

// Formats lists the supported encodings
func Formats() []Format {
	return []Format{FormatJSON, FormatTable, FormatParquet}
}

// ParseFormat accepts a format name in any case
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported output format %q", s)
}

// Binary reports whether the format should not be written to a terminal
func (f Format) Binary() bool {
	return f == FormatParquet
}

// ColumnRow is one flattened column summary. It is the row type of
// parquet exports.
type ColumnRow struct {
	Database       string `parquet:"database"`
	Table          string `parquet:"table"`
	Owner          string `parquet:"owner"`
	Column         string `parquet:"column"`
	PIIType        string `parquet:"pii_type"`
	Classification string `parquet:"classification"`
	Scanned        int64  `parquet:"scanned"`
	Matched        int64  `parquet:"matched"`
	Accuracy       string `parquet:"accuracy"`
}

// Rows flattens a result into one row per matched column, in result order
func Rows(result *discovery.ScanResult) []ColumnRow {
	owners := make(map[string]string, len(result.Metadata.Tables))
	for _, t := range result.Metadata.Tables {
		owners[t.Name] = t.Owner
	}

	var rows []ColumnRow
	for _, ts := range result.TableScans {
		for _, c := range ts.Columns {
			rows = append(rows, ColumnRow{
				Database:       result.Metadata.DBName,
				Table:          ts.Name,
				Owner:          owners[ts.Name],
				Column:         c.Name,
				PIIType:        c.Type,
				Classification: string(c.Classification),
				Scanned:        int64(c.Scanned),
				Matched:        int64(c.Matched),
				Accuracy:       c.Accuracy,
			})
		}
	}
	return rows
}

// Write renders result to w in the requested format
func Write(w io.Writer, format Format, result *discovery.ScanResult) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatTable:
		return writeTable(w, result)
	case FormatParquet:
		return writeParquet(w, result)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

func writeJSON(w io.Writer, result *discovery.ScanResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]interface{}{"results": result})
}

// writeTable prints a table summary followed by the matched columns
func writeTable(w io.Writer, result *discovery.ScanResult) error {
	fmt.Fprintf(w, "Database: %s\n\n", result.Metadata.DBName)

	tables := tablewriter.NewWriter(w)
	tables.Header("Table", "Owner", "Matches", "PII", "Identifiers", "Behavioral")
	for _, t := range result.Metadata.Tables {
		err := tables.Append([]string{
			t.Name,
			t.Owner,
			t.RowCount,
			strconv.Itoa(t.Classifications[privacy.CategoryPII]),
			strconv.Itoa(t.Classifications[privacy.CategoryIdentifiers]),
			strconv.Itoa(t.Classifications[privacy.CategoryBehavioral]),
		})
		if err != nil {
			return fmt.Errorf("failed to append table row: %w", err)
		}
	}
	if err := tables.Render(); err != nil {
		return fmt.Errorf("failed to render tables: %w", err)
	}

	rows := Rows(result)
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "\nNo PII found.")
		return err
	}

	fmt.Fprintln(w)
	columns := tablewriter.NewWriter(w)
	columns.Header("Table", "Column", "Type", "Classification", "Matched", "Accuracy")
	for _, r := range rows {
		err := columns.Append([]string{
			r.Table,
			r.Column,
			r.PIIType,
			r.Classification,
			strconv.FormatInt(r.Matched, 10),
			r.Accuracy,
		})
		if err != nil {
			return fmt.Errorf("failed to append column row: %w", err)
		}
	}
	if err := columns.Render(); err != nil {
		return fmt.Errorf("failed to render columns: %w", err)
	}
	return nil
}

func writeParquet(w io.Writer, result *discovery.ScanResult) error {
	writer := parquet.NewGenericWriter[ColumnRow](w)

	if rows := Rows(result); len(rows) > 0 {
		if _, err := writer.Write(rows); err != nil {
			return fmt.Errorf("failed to write parquet rows: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}
