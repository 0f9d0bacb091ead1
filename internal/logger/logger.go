package logger

import (
	"net/url"
	"os"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger with additional functionality
type Logger struct {
	*zap.Logger
	level zap.AtomicLevel
}

// Config contains logger configuration
type Config struct {
	Level  string
	Format string // json or console
	File   *FileConfig
}

// FileConfig contains file logging configuration
type FileConfig struct {
	Enabled bool
	Path    string
}

// New creates a new logger instance
func New(config Config) (*Logger, error) {
	// Parse log level
	parsed, err := zapcore.ParseLevel(config.Level)
	if err != nil {
		return nil, err
	}
	level := zap.NewAtomicLevelAt(parsed)

	// Create encoder config
	var encoderConfig zapcore.EncoderConfig
	if config.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	var encoder zapcore.Encoder
	if config.Format == "console" {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level),
	}

	// File output (if enabled)
	if config.File != nil && config.File.Enabled {
		file, err := os.OpenFile(config.File.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}

		fileEncoder := zap.NewProductionEncoderConfig()
		fileEncoder.TimeKey = "timestamp"
		fileEncoder.EncodeTime = zapcore.ISO8601TimeEncoder

		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(fileEncoder),
			zapcore.AddSync(file),
			level,
		))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))

	return &Logger{Logger: logger, level: level}, nil
}

// Wrap adapts an existing zap logger, mostly for tests
func Wrap(l *zap.Logger) *Logger {
	return &Logger{Logger: l, level: zap.NewAtomicLevel()}
}

// NewNop returns a logger that discards everything
func NewNop() *Logger {
	return Wrap(zap.NewNop())
}

// SetLevel changes verbosity at runtime. Derived loggers share the level.
func (l *Logger) SetLevel(level string) error {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return err
	}
	l.level.SetLevel(parsed)
	return nil
}

// Level returns the current level name
func (l *Logger) Level() string {
	return l.level.Level().String()
}

// WithRequestID adds a request ID to the logger context
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{Logger: l.Logger.With(zap.String("request_id", requestID)), level: l.level}
}

// WithScanID adds a scan ID to the logger context
func (l *Logger) WithScanID(scanID string) *Logger {
	return &Logger{Logger: l.Logger.With(zap.String("scan_id", scanID)), level: l.level}
}

// WithComponent adds a component name to the logger context
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{Logger: l.Logger.With(zap.String("component", component)), level: l.level}
}

// userinfoPattern catches credentials in strings url.Parse rejects
var userinfoPattern = regexp.MustCompile(`(://[^:/@\s]*:)[^@\s]*@`)

// MaskDSN hides the password of a connection string so it can be logged
func MaskDSN(dsn string) string {
	if dsn == "" {
		return ""
	}

	if u, err := url.Parse(dsn); err == nil && u.User != nil {
		if _, hasPassword := u.User.Password(); hasPassword {
			return u.Redacted()
		}
		return dsn
	}

	return userinfoPattern.ReplaceAllString(dsn, "${1}xxxxx@")
}

// MaskFields redacts values whose keys look like credentials
func MaskFields(fields map[string]string) map[string]string {
	safe := make(map[string]string, len(fields))
	for k, v := range fields {
		if isSensitiveKey(k) {
			safe[k] = "[REDACTED]"
		} else {
			safe[k] = v
		}
	}
	return safe
}

// isSensitiveKey checks if a field name refers to a secret
func isSensitiveKey(key string) bool {
	sensitiveKeys := []string{
		"password",
		"passwd",
		"secret",
		"token",
		"conn_string",
		"authorization",
	}

	keyLower := strings.ToLower(key)
	for _, sensitive := range sensitiveKeys {
		if strings.Contains(keyLower, sensitive) {
			return true
		}
	}
	return false
}
