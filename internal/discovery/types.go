package discovery

import (
	"context"

	"github.com/raaihank/pii-scanner/internal/connector"
	"github.com/raaihank/pii-scanner/internal/privacy"
)

// UnknownOwner is reported when no owner lookup is available
const UnknownOwner = "Unknown"

// ColumnDataType is the data type label reported for every column
const ColumnDataType = "string"

// ScanRequest describes one bounded scan. An empty Tables list scans every
// table the connection can see.
type ScanRequest struct {
	Tables       []string
	AllowedTypes []string
	Connection   connector.Params
	// ClientID routes progress notifications to a subscriber, if any
	ClientID string
}

// ColumnStat summarizes matches for one column of a table
type ColumnStat struct {
	Name           string           `json:"name"`
	Type           string           `json:"type"`
	DataType       string           `json:"DataType"`
	Classification privacy.Category `json:"classifications"`
	Scanned        int              `json:"scaned"`
	Matched        int              `json:"matched"`
	Accuracy       string           `json:"accuracy"`
}

// ClassificationCounts holds per-bucket match counts for a table
type ClassificationCounts map[privacy.Category]int

func newClassificationCounts() ClassificationCounts {
	counts := make(ClassificationCounts, len(privacy.Categories()))
	for _, c := range privacy.Categories() {
		counts[c] = 0
	}
	return counts
}

// Total returns the sum over all buckets
func (c ClassificationCounts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// TableStat summarizes one scanned table. RowCount is the number of
// matches found, not the number of rows sampled.
type TableStat struct {
	Name            string               `json:"name"`
	Owner           string               `json:"owner"`
	RowCount        string               `json:"rowCount"`
	Classifications ClassificationCounts `json:"classifications"`
}

// TableScan lists the column statistics of one table
type TableScan struct {
	Name    string       `json:"name"`
	Columns []ColumnStat `json:"columns"`
}

// Metadata carries the database name and per-table summaries
type Metadata struct {
	DBName string      `json:"db_Name"`
	Tables []TableStat `json:"table_metadata"`
}

// ScanResult is the complete output of one scan request
type ScanResult struct {
	Metadata   Metadata    `json:"metadata"`
	TableScans []TableScan `json:"table_scans"`
}

// TotalMatches returns the number of matches across all tables
func (r *ScanResult) TotalMatches() int {
	total := 0
	for _, t := range r.Metadata.Tables {
		total += t.Classifications.Total()
	}
	return total
}

// OwnerLookup resolves the owner of a table. An empty owner means unknown.
type OwnerLookup interface {
	TableOwner(ctx context.Context, table string) (string, error)
}

// TableProgress is reported after each table finishes
type TableProgress struct {
	Table   string
	Index   int
	Total   int
	Matches int
}
