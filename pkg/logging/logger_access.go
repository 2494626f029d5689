package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// AccessLogger records authorization decisions, one logfmt line each
type AccessLogger interface {
	// LogDecision logs the outcome of an operation performed for user
	LogDecision(operation string, user string, status string, details ...interface{})
}

type accessLogger struct {
	logger *log.Logger
}

// NewAccessLogger creates a new access logger. An empty logPath discards output.
func NewAccessLogger(logPath string) (AccessLogger, error) {
	if logPath == "" {
		return NewAccessLoggerWriter(io.Discard), nil
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, fmt.Errorf("creating access log directory: %w", err)
	}
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening access log file: %w", err)
	}
	return NewAccessLoggerWriter(f), nil
}

// NewAccessLoggerWriter creates an access logger writing to w
func NewAccessLoggerWriter(w io.Writer) AccessLogger {
	return &accessLogger{logger: log.New(w, "", 0)}
}

func (l *accessLogger) LogDecision(operation string, user string, status string, details ...interface{}) {
	parts := []string{fmt.Sprintf("op=%s", formatValue(operation))}
	if user != "" {
		parts = append(parts, fmt.Sprintf("user=%s", formatValue(user)))
	}
	parts = append(parts, fmt.Sprintf("status=%s", formatValue(status)))
	parts = appendKeyvals(parts, details)

	timestamp := time.Now().UTC().Format("2006-01-02 15:04:05 -0700")
	l.logger.Printf("%s %s", timestamp, strings.Join(parts, " "))
}
