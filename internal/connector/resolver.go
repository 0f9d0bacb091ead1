package connector

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	go_ora "github.com/sijms/go-ora/v2"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/raaihank/pii-scanner/internal/dialect"
	"github.com/raaihank/pii-scanner/internal/logger"
	"github.com/raaihank/pii-scanner/internal/scanerr"
)

// Options controls the pool and timeouts of resolved connections
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
	QueryTimeout    time.Duration
}

// DefaultOptions returns conservative pool settings
func DefaultOptions() Options {
	return Options{
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: time.Minute,
		PingTimeout:     5 * time.Second,
	}
}

// target is a driver-ready form of Params
type target struct {
	kind       dialect.Kind
	driver     string
	dsn        string
	descriptor string
	secret     string
}

// Resolver opens database handles for scan requests
type Resolver struct {
	opts   Options
	logger *zap.Logger
}

// NewResolver creates a resolver
func NewResolver(opts Options, logger *zap.Logger) *Resolver {
	if opts.PingTimeout <= 0 {
		opts.PingTimeout = DefaultOptions().PingTimeout
	}
	return &Resolver{opts: opts, logger: logger}
}

// Resolve validates p, opens a pool for it and checks that the database
// answers. The caller owns the returned connection.
func (r *Resolver) Resolve(ctx context.Context, p Params) (*Connection, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	t, err := buildTarget(p)
	if err != nil {
		return nil, err
	}

	r.logger.Info("Connecting to database",
		zap.String("dialect", t.kind.String()),
		zap.String("target", logger.MaskDSN(t.descriptor)))

	db, err := sqlx.Open(t.driver, t.dsn)
	if err != nil {
		return nil, scanerr.Configuration("open "+t.kind.String(), err)
	}

	ApplyConnectionSettings(db, r.opts.MaxOpenConns, r.opts.MaxIdleConns, r.opts.ConnMaxLifetime, r.opts.ConnMaxIdleTime)

	if err := PingWithTimeout(ctx, db, r.opts.PingTimeout); err != nil {
		db.Close()
		return nil, scanerr.Connectivity("connect to "+t.kind.String(), sanitize(err, t.secret))
	}

	conn := NewConnection(db, t.kind, t.descriptor, r.logger)
	conn.queryTimeout = r.opts.QueryTimeout
	return conn, nil
}

// PingWithTimeout attempts to ping a database with a timeout
func PingWithTimeout(ctx context.Context, db *sqlx.DB, timeout time.Duration) error {
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- db.PingContext(pingCtx)
	}()

	select {
	case err := <-errCh:
		return err
	case <-pingCtx.Done():
		return fmt.Errorf("ping timed out after %v: %w", timeout, pingCtx.Err())
	}
}

// ApplyConnectionSettings configures database connection pool settings
func ApplyConnectionSettings(db *sqlx.DB, maxOpen, maxIdle int, maxLifetime, maxIdleTime time.Duration) {
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		db.SetMaxIdleConns(maxIdle)
	}
	if maxLifetime > 0 {
		db.SetConnMaxLifetime(maxLifetime)
	}
	if maxIdleTime > 0 {
		db.SetConnMaxIdleTime(maxIdleTime)
	}
}

// buildTarget translates request parameters into a driver name and DSN
func buildTarget(p Params) (target, error) {
	if p.HasConnString() {
		return targetFromURL(strings.TrimSpace(p.ConnString))
	}
	return targetFromFields(p)
}

func targetFromURL(conn string) (target, error) {
	kind, err := dialect.KindFromURL(conn)
	if err != nil {
		return target{}, err
	}

	t := target{kind: kind, descriptor: conn}

	if kind == dialect.SQLite {
		t.driver = "sqlite3"
		t.dsn = sqliteDSN(conn)
		return t, nil
	}

	u, err := url.Parse(conn)
	if err != nil {
		return target{}, scanerr.Configurationf("invalid connection string %s", logger.MaskDSN(conn))
	}
	if u.Hostname() == "" {
		return target{}, scanerr.Configurationf("connection string has no host")
	}

	password, _ := u.User.Password()
	t.secret = password
	database := strings.TrimPrefix(u.Path, "/")

	query := make(map[string]string)
	for k, v := range u.Query() {
		if len(v) > 0 {
			query[k] = v[0]
		}
	}

	switch kind {
	case dialect.PostgreSQL:
		t.driver = "postgres"
		pg := *u
		pg.Scheme = "postgres"
		t.dsn = pg.String()
	case dialect.MySQL:
		t.driver = "mysql"
		t.dsn = mysqlDSN(u.Hostname(), portOr(u.Port(), "3306"), u.User.Username(), password, database, query)
	case dialect.Oracle:
		port, err := cast.ToIntE(portOr(u.Port(), "1521"))
		if err != nil {
			return target{}, scanerr.Configurationf("invalid port %q", u.Port())
		}
		t.driver = "oracle"
		t.dsn = go_ora.BuildUrl(u.Hostname(), port, database, u.User.Username(), password, query)
	}
	return t, nil
}

func targetFromFields(p Params) (target, error) {
	kind, err := dialect.ParseKind(p.DBKind)
	if err != nil {
		return target{}, err
	}

	port, err := cast.ToIntE(strings.TrimSpace(p.Port))
	if err != nil || port <= 0 || port > 65535 {
		return target{}, scanerr.Configurationf("invalid port %q", p.Port)
	}

	host := strings.TrimSpace(p.Host)
	database := strings.TrimSpace(p.Database)

	descriptor := url.URL{
		Scheme: kind.String(),
		User:   url.UserPassword(p.Username, p.Password),
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
		Path:   "/" + database,
	}
	t := target{kind: kind, descriptor: descriptor.String(), secret: p.Password}

	switch kind {
	case dialect.PostgreSQL:
		t.driver = "postgres"
		pg := descriptor
		pg.Scheme = "postgres"
		t.dsn = pg.String()
	case dialect.MySQL:
		t.driver = "mysql"
		t.dsn = mysqlDSN(host, strconv.Itoa(port), p.Username, p.Password, database, nil)
	case dialect.Oracle:
		t.driver = "oracle"
		t.dsn = go_ora.BuildUrl(host, port, database, p.Username, p.Password, nil)
	case dialect.SQLite:
		t.driver = "sqlite3"
		t.dsn = readOnlyFile(database)
	}
	return t, nil
}

func mysqlDSN(host, port, user, password, database string, params map[string]string) string {
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(host, port)
	cfg.User = user
	cfg.Passwd = password
	cfg.DBName = database
	if len(params) > 0 {
		cfg.Params = params
	}
	return cfg.FormatDSN()
}

// sqliteDSN maps sqlite:///relative.db and sqlite:////abs/path.db to a
// read-only file URI. A bare sqlite:// opens an in-memory database.
func sqliteDSN(conn string) string {
	_, rest, _ := strings.Cut(conn, "://")
	path, query, _ := strings.Cut(rest, "?")
	path = strings.TrimPrefix(path, "/")
	if path == "" || path == ":memory:" {
		return ":memory:"
	}

	dsn := readOnlyFile(path)
	if query != "" {
		dsn += "&" + query
	}
	return dsn
}

func readOnlyFile(path string) string {
	return "file:" + path + "?mode=ro"
}

func portOr(port, fallback string) string {
	if port == "" {
		return fallback
	}
	return port
}

// sanitize strips the password from driver errors that echo the DSN
func sanitize(err error, secret string) error {
	if err == nil || secret == "" {
		return err
	}
	msg := err.Error()
	if !strings.Contains(msg, secret) {
		return err
	}
	return errors.New(strings.ReplaceAll(msg, secret, "xxxxx"))
}
