package dialect

import (
	"fmt"
	"strings"

	"github.com/raaihank/pii-scanner/internal/scanerr"
)

// SampleLimit is the maximum number of rows sampled from any table
const SampleLimit = 1000

// Kind identifies a supported SQL backend family
type Kind int

const (
	MySQL Kind = iota + 1
	PostgreSQL
	Oracle
	SQLite
)

// Kinds returns every supported dialect
func Kinds() []Kind {
	return []Kind{MySQL, PostgreSQL, Oracle, SQLite}
}

// String returns the canonical dialect name
func (k Kind) String() string {
	switch k {
	case MySQL:
		return "mysql"
	case PostgreSQL:
		return "postgresql"
	case Oracle:
		return "oracle"
	case SQLite:
		return "sqlite"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Valid reports whether k is one of the supported dialects
func (k Kind) Valid() bool {
	switch k {
	case MySQL, PostgreSQL, Oracle, SQLite:
		return true
	default:
		return false
	}
}

// aliases maps accepted spellings (including SQLAlchemy driver-qualified
// names) to a dialect
var aliases = map[string]Kind{
	"mysql":               MySQL,
	"mysql+pymysql":       MySQL,
	"mysql+mysqldb":       MySQL,
	"mariadb":             MySQL,
	"postgresql":          PostgreSQL,
	"postgres":            PostgreSQL,
	"postgresql+psycopg2": PostgreSQL,
	"postgresql+psycopg":  PostgreSQL,
	"oracle":              Oracle,
	"oracle+cx_oracle":    Oracle,
	"oracle+oracledb":     Oracle,
	"sqlite":              SQLite,
	"sqlite3":             SQLite,
}

// ParseKind resolves a dialect name case-insensitively. Unknown names are
// configuration errors.
func ParseKind(name string) (Kind, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return 0, scanerr.Configurationf("db_type is required")
	}
	if k, ok := aliases[key]; ok {
		return k, nil
	}
	return 0, scanerr.Configurationf("unsupported db_type: %s", name)
}

// KindFromURL derives the dialect from a connection URL scheme
func KindFromURL(conn string) (Kind, error) {
	scheme, _, found := strings.Cut(strings.TrimSpace(conn), "://")
	if !found || scheme == "" {
		return 0, scanerr.Configurationf("connection string has no scheme")
	}
	return ParseKind(scheme)
}

// QuoteIdentifier returns name ready to embed in SQL. Names made of
// lowercase letters, digits, '_' and '$' that start with a letter or '_'
// and are not reserved words are left bare, so Oracle and PostgreSQL fold
// them to their stored case. Anything else is quoted.
func (k Kind) QuoteIdentifier(name string) string {
	if !k.requiresQuotes(name) {
		return name
	}

	switch k {
	case MySQL:
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	case PostgreSQL, Oracle, SQLite:
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	default:
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
}

func (k Kind) requiresQuotes(name string) bool {
	if name == "" || strings.ToLower(name) != name {
		return true
	}
	if c := name[0]; !(c == '_' || (c >= 'a' && c <= 'z')) {
		return true
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if !(c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')) {
			return true
		}
	}
	return k.reserved(name)
}

// Placeholder returns the bind parameter for position n (1-based)
func (k Kind) Placeholder(n int) string {
	switch k {
	case PostgreSQL:
		return fmt.Sprintf("$%d", n)
	case Oracle:
		return fmt.Sprintf(":%d", n)
	case MySQL, SQLite:
		return "?"
	default:
		return "?"
	}
}
