package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	golog "github.com/fclairamb/go-log"
)

const (
	defaultMaxLogSize     = 10 * 1024 * 1024
	defaultVerifyInterval = 30 * time.Second
)

// AppLogger implements the go-log.Logger interface
type AppLogger struct {
	level   LogLevel
	logger  *log.Logger
	writer  *RotatingWriter // nil if not logging to a file
	context []interface{}
}

var _ golog.Logger = (*AppLogger)(nil)

// NewAppLogger creates a new application logger. An empty logPath logs to
// stderr, keeping stdout free for command output.
func NewAppLogger(logPath string, level LogLevel) (*AppLogger, error) {
	if logPath == "" {
		return NewAppLoggerWriter(os.Stderr, level), nil
	}

	rw, err := NewRotatingWriter(logPath, defaultMaxLogSize, defaultVerifyInterval)
	if err != nil {
		return nil, fmt.Errorf("creating rotating writer: %w", err)
	}
	l := NewAppLoggerWriter(rw, level)
	l.writer = rw
	return l, nil
}

// NewAppLoggerWriter creates an application logger writing to w
func NewAppLoggerWriter(w io.Writer, level LogLevel) *AppLogger {
	return &AppLogger{
		level:  level,
		logger: log.New(w, "", 0),
	}
}

func (l *AppLogger) shouldLog(level LogLevel) bool {
	return levelRank[level] >= levelRank[l.level]
}

func (l *AppLogger) log(level LogLevel, message string, keyvals ...interface{}) {
	if !l.shouldLog(level) {
		return
	}

	parts := appendKeyvals(nil, l.context)
	parts = appendKeyvals(parts, keyvals)

	timestamp := time.Now().UTC().Format("2006-01-02 15:04:05 -0700")
	l.logger.Printf("%s %s: %s %s", timestamp, strings.ToUpper(string(level)), message, strings.Join(parts, " "))
}

func toString(v interface{}) string {
	if v == nil {
		return ""
	}
	str := fmt.Sprintf("%v", v)
	str = strings.NewReplacer("\n", " ", "\r", " ", "\t", " ").Replace(str)
	return strings.Join(strings.Fields(str), " ")
}

// Debug implements go-log.Logger
func (l *AppLogger) Debug(message string, keyvals ...interface{}) {
	l.log(LogLevelDebug, message, keyvals...)
}

// Info implements go-log.Logger
func (l *AppLogger) Info(message string, keyvals ...interface{}) {
	l.log(LogLevelInfo, message, keyvals...)
}

// Warn implements go-log.Logger
func (l *AppLogger) Warn(message string, keyvals ...interface{}) {
	l.log(LogLevelWarn, message, keyvals...)
}

// Error implements go-log.Logger
func (l *AppLogger) Error(message string, keyvals ...interface{}) {
	l.log(LogLevelError, message, keyvals...)
}

// Panic implements go-log.Logger
func (l *AppLogger) Panic(message string, keyvals ...interface{}) {
	l.log(LogLevelPanic, message, keyvals...)
}

// With returns a logger that prefixes every line with keyvals.
// The returned logger shares the underlying writer.
func (l *AppLogger) With(keyvals ...interface{}) golog.Logger {
	ctx := make([]interface{}, 0, len(l.context)+len(keyvals))
	ctx = append(ctx, l.context...)
	ctx = append(ctx, keyvals...)
	return &AppLogger{
		level:   l.level,
		logger:  l.logger,
		context: ctx,
	}
}

// IsDebug returns true if the logger is at debug level
func (l *AppLogger) IsDebug() bool {
	return l.level == LogLevelDebug
}

// Close closes the logger and stops background rotation
func (l *AppLogger) Close() error {
	if l.writer != nil {
		return l.writer.Close()
	}
	return nil
}
