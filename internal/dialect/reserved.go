package dialect

// commonReserved holds words every supported backend refuses as a bare
// identifier
var commonReserved = wordSet(
	"all", "alter", "and", "any", "as", "asc", "between", "by", "case",
	"check", "column", "constraint", "create", "cross", "current_date",
	"current_time", "current_timestamp", "current_user", "default",
	"delete", "desc", "distinct", "drop", "else", "exists", "false",
	"for", "foreign", "from", "grant", "group", "having", "in", "index",
	"inner", "insert", "intersect", "into", "is", "join", "left", "like",
	"limit", "not", "null", "on", "or", "order", "outer", "primary",
	"references", "right", "select", "set", "table", "then", "to", "true",
	"union", "unique", "update", "using", "values", "when", "where", "with",
)

var dialectReserved = map[Kind]map[string]bool{
	MySQL: wordSet(
		"accessible", "add", "analyze", "before", "both", "call", "cascade",
		"change", "condition", "continue", "convert", "database", "databases",
		"dec", "decimal", "declare", "delayed", "describe", "div", "double",
		"dual", "each", "escaped", "exit", "explain", "fetch", "float",
		"force", "fulltext", "generated", "groups", "ignore", "int",
		"integer", "interval", "key", "keys", "kill", "lead", "leading",
		"leave", "lines", "load", "lock", "long", "loop", "match", "mod",
		"natural", "numeric", "option", "out", "partition", "precision",
		"procedure", "range", "rank", "read", "real", "regexp", "release",
		"rename", "repeat", "replace", "require", "return", "revoke",
		"rlike", "row", "rows", "schema", "schemas", "show", "signal",
		"spatial", "sql", "ssl", "starting", "stored", "system", "terminated",
		"trigger", "undo", "unlock", "unsigned", "usage", "use", "varchar",
		"virtual", "while", "window", "write", "xor", "zerofill",
	),
	PostgreSQL: wordSet(
		"analyse", "analyze", "array", "asymmetric", "authorization",
		"binary", "both", "cast", "collate", "collation", "concurrently",
		"current_catalog", "current_role", "current_schema", "deferrable",
		"do", "end", "except", "fetch", "freeze", "full", "ilike",
		"initially", "isnull", "lateral", "leading", "localtime",
		"localtimestamp", "natural", "notnull", "offset", "only", "overlaps",
		"placing", "returning", "session_user", "similar", "some",
		"symmetric", "tablesample", "trailing", "user", "variadic",
		"verbose", "window",
	),
	Oracle: wordSet(
		"access", "add", "audit", "char", "cluster", "comment", "compress",
		"connect", "date", "decimal", "exclusive", "file", "float",
		"identified", "immediate", "increment", "initial", "integer",
		"level", "lock", "long", "maxextents", "minus", "mlslabel", "mode",
		"modify", "noaudit", "nocompress", "nowait", "number", "of",
		"offline", "online", "option", "pctfree", "prior", "public", "raw",
		"rename", "resource", "revoke", "row", "rowid", "rownum", "rows",
		"session", "share", "size", "smallint", "start", "successful",
		"synonym", "sysdate", "trigger", "uid", "user", "validate",
		"varchar", "varchar2", "view", "whenever",
	),
	SQLite: wordSet(
		"abort", "action", "add", "after", "analyze", "attach", "autoincrement",
		"before", "begin", "cascade", "cast", "collate", "commit", "conflict",
		"database", "deferrable", "deferred", "detach", "each", "end",
		"escape", "except", "exclusive", "explain", "fail", "full", "glob",
		"if", "ignore", "immediate", "initially", "instead", "isnull", "key",
		"match", "natural", "no", "notnull", "of", "offset", "plan", "pragma",
		"query", "raise", "recursive", "regexp", "reindex", "release",
		"rename", "replace", "restrict", "rollback", "row", "savepoint",
		"temp", "temporary", "transaction", "trigger", "vacuum", "view",
		"virtual",
	),
}

func wordSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// reserved reports whether a lowercase word cannot be used bare
func (k Kind) reserved(word string) bool {
	return commonReserved[word] || dialectReserved[k][word]
}
