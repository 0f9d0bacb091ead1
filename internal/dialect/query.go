package dialect

import (
	"fmt"
	"net/url"
	"strings"
)

// BuildSampleQuery returns a read-only query selecting every column of
// table, capped at SampleLimit rows with the dialect's own limit syntax.
// No ordering is imposed.
func BuildSampleQuery(table string, kind Kind) string {
	quoted := kind.QuoteIdentifier(table)

	switch kind {
	case Oracle:
		return fmt.Sprintf("SELECT * FROM %s WHERE ROWNUM <= %d", quoted, SampleLimit)
	case MySQL, PostgreSQL, SQLite:
		return fmt.Sprintf("SELECT * FROM %s LIMIT %d", quoted, SampleLimit)
	default:
		return fmt.Sprintf("SELECT * FROM %s LIMIT %d", quoted, SampleLimit)
	}
}

// ListTablesQuery returns the query listing user tables in the connected
// database or schema
func ListTablesQuery(kind Kind) string {
	switch kind {
	case MySQL:
		return "SELECT table_name FROM information_schema.tables " +
			"WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE' ORDER BY table_name"
	case PostgreSQL:
		return "SELECT table_name FROM information_schema.tables " +
			"WHERE table_schema = current_schema() AND table_type = 'BASE TABLE' ORDER BY table_name"
	case Oracle:
		return "SELECT table_name FROM user_tables ORDER BY table_name"
	case SQLite:
		return "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name"
	default:
		return ""
	}
}

// ListColumnsQuery returns the query listing (table, column, data type)
// for every column of every user table, ordered by table then column
// position
func ListColumnsQuery(kind Kind) string {
	switch kind {
	case MySQL:
		return "SELECT c.table_name, c.column_name, c.data_type FROM information_schema.columns c " +
			"JOIN information_schema.tables t ON t.table_schema = c.table_schema AND t.table_name = c.table_name " +
			"WHERE c.table_schema = DATABASE() AND t.table_type = 'BASE TABLE' " +
			"ORDER BY c.table_name, c.ordinal_position"
	case PostgreSQL:
		return "SELECT c.table_name, c.column_name, c.data_type FROM information_schema.columns c " +
			"JOIN information_schema.tables t ON t.table_schema = c.table_schema AND t.table_name = c.table_name " +
			"WHERE c.table_schema = current_schema() AND t.table_type = 'BASE TABLE' " +
			"ORDER BY c.table_name, c.ordinal_position"
	case Oracle:
		return "SELECT c.table_name, c.column_name, c.data_type FROM user_tab_columns c " +
			"JOIN user_tables t ON t.table_name = c.table_name " +
			"ORDER BY c.table_name, c.column_id"
	case SQLite:
		return "SELECT m.name, p.name, p.type FROM sqlite_master m JOIN pragma_table_info(m.name) p " +
			"WHERE m.type = 'table' AND m.name NOT LIKE 'sqlite_%' ORDER BY m.name, p.cid"
	default:
		return ""
	}
}

// TableOwnerQuery returns a single-parameter query resolving a table's
// owner, or "" when the dialect has no ownership concept
func TableOwnerQuery(kind Kind) string {
	switch kind {
	case PostgreSQL:
		return "SELECT tableowner FROM pg_tables WHERE schemaname = current_schema() AND tablename = " + kind.Placeholder(1)
	case Oracle:
		return "SELECT owner FROM all_tables WHERE table_name = " + kind.Placeholder(1)
	case MySQL, SQLite:
		return ""
	default:
		return ""
	}
}

// UnknownDB is reported when no database name can be derived
const UnknownDB = "Unknown_DB"

// ExtractDBName returns the trailing path segment of a connection URL with
// any query string removed. Percent-escapes are decoded when valid.
func ExtractDBName(descriptor string) string {
	descriptor = strings.TrimSpace(descriptor)
	if descriptor == "" {
		return UnknownDB
	}

	parts := strings.Split(descriptor, "/")
	if len(parts) < 2 {
		return UnknownDB
	}

	name, _, _ := strings.Cut(parts[len(parts)-1], "?")
	if name == "" {
		return UnknownDB
	}
	if decoded, err := url.PathUnescape(name); err == nil && decoded != "" {
		return decoded
	}
	return name
}
