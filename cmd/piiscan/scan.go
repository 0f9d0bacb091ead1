package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/raaihank/pii-scanner/internal/app"
	"github.com/raaihank/pii-scanner/internal/connector"
	"github.com/raaihank/pii-scanner/internal/discovery"
	"github.com/raaihank/pii-scanner/internal/logger"
	"github.com/raaihank/pii-scanner/internal/report"
	"github.com/raaihank/pii-scanner/internal/scanerr"
)

type scanOptions struct {
	params      connector.Params
	tables      []string
	types       []string
	format      string
	output      string
	concurrency int
	owners      bool
}

func newScanCmd() *cobra.Command {
	opts := &scanOptions{}

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a database for PII",
		Example: `  piiscan scan --conn "postgres://scanner:secret@db:5432/crm" --format table
  piiscan scan --db-type mysql --host db --port 3306 --user scanner --password secret --database crm --table users
  piiscan scan --conn sqlite:///data/app.db --types email,ssn --format parquet --output pii.parquet`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, opts)
		},
	}

	f := cmd.Flags()
	bindConnectionFlags(cmd, opts)
	f.StringSliceVarP(&opts.tables, "table", "t", nil, "table to scan; repeatable, default is every table")
	f.IntVar(&opts.concurrency, "concurrency", 0, "tables scanned in parallel (0 = configured value)")

	return cmd
}

// bindConnectionFlags registers the flags shared by commands that open a
// database and write a report
func bindConnectionFlags(cmd *cobra.Command, opts *scanOptions) {
	f := cmd.Flags()
	f.StringVar(&opts.params.ConnString, "conn", "", "connection URL (mysql://, postgres://, oracle://, sqlite://)")
	f.StringVar(&opts.params.DBKind, "db-type", "", "database type when using structured parameters")
	f.StringVar(&opts.params.Host, "host", "", "database host")
	f.StringVar(&opts.params.Port, "port", "", "database port")
	f.StringVar(&opts.params.Username, "user", "", "database user")
	f.StringVar(&opts.params.Password, "password", "", "database password (or PIISCAN_DB_PASSWORD)")
	f.StringVar(&opts.params.Database, "database", "", "database name, service name or file path")
	f.StringSliceVar(&opts.types, "types", nil, "PII types to look for, default is every type")
	f.StringVarP(&opts.format, "format", "f", string(report.FormatJSON), "output format: json, table or parquet")
	f.StringVarP(&opts.output, "output", "o", "", "write the report to a file instead of stdout")
	f.BoolVar(&opts.owners, "owners", false, "look up table owners in the catalog")
}

// prepare validates output options and builds an engine from the loaded
// configuration with the command line overrides applied
func prepare(opts *scanOptions) (report.Format, *discovery.Engine, *logger.Logger, error) {
	format, err := report.ParseFormat(opts.format)
	if err != nil {
		return "", nil, nil, scanerr.Configuration("parse format", err)
	}
	if format.Binary() && opts.output == "" {
		return "", nil, nil, scanerr.Configurationf("%s output requires --output", format)
	}

	if opts.params.Password == "" {
		opts.params.Password = os.Getenv("PIISCAN_DB_PASSWORD")
	}

	cfg, err := loadConfig()
	if err != nil {
		return "", nil, nil, err
	}
	if opts.concurrency > 0 {
		cfg.Scanner.Concurrency = opts.concurrency
	}
	if opts.owners {
		cfg.Scanner.ResolveOwners = true
	}

	log, err := newLogger(cfg)
	if err != nil {
		return "", nil, nil, scanerr.Configuration("init logger", err)
	}

	return format, app.NewEngine(cfg, log), log, nil
}

func runScan(cmd *cobra.Command, opts *scanOptions) error {
	format, engine, log, err := prepare(opts)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	engine.AddNotifier(discovery.NotifierFunc(func(ev discovery.Event) {
		if ev.Type == discovery.EventTableScanned {
			log.Info("Table scanned",
				zap.String("table", ev.Table),
				zap.Int("index", ev.Index),
				zap.Int("total", ev.Total),
				zap.Int("matches", ev.Matches))
		}
	}))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := engine.RunScan(ctx, discovery.ScanRequest{
		Tables:       opts.tables,
		AllowedTypes: opts.types,
		Connection:   opts.params,
	})
	if err != nil {
		return err
	}

	return writeReport(cmd.OutOrStdout(), opts.output, format, result)
}

func writeReport(stdout io.Writer, path string, format report.Format, result *discovery.ScanResult) error {
	if path == "" {
		return report.Write(stdout, format, result)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := report.Write(file, format, result); err != nil {
		file.Close()
		return fmt.Errorf("write report: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close report: %w", err)
	}
	fmt.Fprintf(stdout, "Wrote %d matches in %d tables to %s\n",
		result.TotalMatches(), len(result.Metadata.Tables), path)
	return nil
}

