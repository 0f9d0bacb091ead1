package scanner

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// MatchRecord is a single pattern hit in a sampled cell
type MatchRecord struct {
	Table   string `json:"table"`
	Column  string `json:"column"`
	Value   string `json:"value"`
	PIIType string `json:"pii_type"`
}

// Querier runs read-only queries. *sqlx.DB, *sqlx.Conn and *sqlx.Tx all
// satisfy it.
type Querier interface {
	QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error)
}
