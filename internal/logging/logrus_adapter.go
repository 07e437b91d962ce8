package logging

import (
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// LogrusAdapter implements Logger on top of logrus.
type LogrusAdapter struct {
	logger *logrus.Logger
	entry  *logrus.Entry
}

// NewLogrus builds the logrus logger shared by the CLI and the services.
// level is one of debug, info, warn or error (any case); anything else
// logs at info. format "json" selects the JSON formatter, anything else
// full-timestamp text.
func NewLogrus(level, format string) *logrus.Logger {
	logger := logrus.New()

	logLevel, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		logger.Warnf("Invalid log level '%s', using 'info'", level)
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if strings.EqualFold(strings.TrimSpace(format), "json") {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

// NewLogrusAdapter creates a Logger with the given level and format; see
// NewLogrus.
func NewLogrusAdapter(level, format string) Logger {
	return NewLogrusAdapterFromLogger(NewLogrus(level, format))
}

// NewLogrusAdapterFromLogger wraps an existing logrus.Logger.
func NewLogrusAdapterFromLogger(logger *logrus.Logger) Logger {
	if logger == nil {
		logger = logrus.New()
	}
	return &LogrusAdapter{logger: logger, entry: logrus.NewEntry(logger)}
}

// SetOutput redirects the underlying logrus output.
func (l *LogrusAdapter) SetOutput(w io.Writer) {
	l.logger.SetOutput(w)
}

func (l *LogrusAdapter) Debug(msg string, fields ...Field) {
	l.with(fields).Debug(msg)
}

func (l *LogrusAdapter) Info(msg string, fields ...Field) {
	l.with(fields).Info(msg)
}

func (l *LogrusAdapter) Warn(msg string, fields ...Field) {
	l.with(fields).Warn(msg)
}

func (l *LogrusAdapter) Error(msg string, fields ...Field) {
	l.with(fields).Error(msg)
}

// Fatal logs and exits the process.
func (l *LogrusAdapter) Fatal(msg string, fields ...Field) {
	l.with(fields).Fatal(msg)
}

// Fatalf logs a formatted message and exits the process.
func (l *LogrusAdapter) Fatalf(msg string, args ...interface{}) {
	l.entry.Fatalf(msg, args...)
}

func (l *LogrusAdapter) WithError(err error) Logger {
	return l.derive(l.entry.WithError(err))
}

func (l *LogrusAdapter) WithField(key string, value interface{}) Logger {
	return l.derive(l.entry.WithField(key, logValue(value)))
}

func (l *LogrusAdapter) WithFields(fields ...Field) Logger {
	return l.derive(l.with(fields))
}

func (l *LogrusAdapter) derive(entry *logrus.Entry) Logger {
	return &LogrusAdapter{logger: l.logger, entry: entry}
}

func (l *LogrusAdapter) with(fields []Field) *logrus.Entry {
	if len(fields) == 0 {
		return l.entry
	}
	return l.entry.WithFields(convertFields(fields))
}

func convertFields(fields []Field) logrus.Fields {
	logrusFields := make(logrus.Fields, len(fields))
	for _, field := range fields {
		logrusFields[field.Key] = logValue(field.Value)
	}
	return logrusFields
}

// logValue renders amounts as exact decimal strings, so JSON logs never
// carry money as floats, and date-only times as YYYY-MM-DD.
func logValue(v interface{}) interface{} {
	switch val := v.(type) {
	case decimal.Decimal:
		return val.String()
	case *decimal.Decimal:
		if val == nil {
			return ""
		}
		return val.String()
	case time.Time:
		if val.Equal(val.Truncate(24 * time.Hour)) {
			return val.Format("2006-01-02")
		}
		return val.Format(time.RFC3339)
	default:
		return v
	}
}
