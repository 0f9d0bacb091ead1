package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/raaihank/pii-scanner/internal/app"
	"github.com/raaihank/pii-scanner/internal/config"
	"github.com/raaihank/pii-scanner/internal/logger"
	"github.com/raaihank/pii-scanner/internal/scanerr"
)

var (
	flagConfig  string
	flagEnvFile string
	flagVerbose bool

	version = "0.1.0"
)

// newRootCmd builds the base command of the piiscan CLI
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "piiscan",
		Short:         "Find PII in relational databases",
		Long:          "piiscan samples tables in MySQL, PostgreSQL, Oracle or SQLite databases and reports which columns hold personal data.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flagEnvFile == "" {
				return nil
			}
			if err := godotenv.Load(flagEnvFile); err != nil && cmd.Flags().Changed("env-file") {
				return scanerr.Configuration("load env file", err)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", "", "path to configuration file")
	root.PersistentFlags().StringVar(&flagEnvFile, "env-file", ".env", "dotenv file loaded before configuration")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log progress to stderr")

	root.AddCommand(newScanCmd(), newMetaCmd(), newTypesCmd(), newVersionCmd())
	return root
}

// Execute runs the CLI and exits with a code derived from the error kind
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch scanerr.KindOf(err) {
	case scanerr.KindConfiguration:
		return 2
	case scanerr.KindConnectivity:
		return 3
	case scanerr.KindQuery:
		return 4
	default:
		return 1
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, scanerr.Configuration("load config", err)
	}
	return cfg, nil
}

// newLogger keeps stdout free for reports; logs go to stderr only with -v
func newLogger(cfg *config.Config) (*logger.Logger, error) {
	if !flagVerbose {
		return logger.NewNop(), nil
	}

	level, err := zapcore.ParseLevel(app.LoggerConfig(cfg).Level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zl, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return logger.Wrap(zl), nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "piiscan %s\n", version)
		},
	}
}
