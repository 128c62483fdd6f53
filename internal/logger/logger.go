// Package logger is the process-wide logrus logger. The terminal belongs to
// the TUI, so output goes to a file; until Init is called everything is
// discarded.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	mu     sync.Mutex
	logger = newDiscard()
	file   *os.File
)

func newDiscard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func textFormatter() *logrus.TextFormatter {
	return &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		DisableColors:   true,
	}
}

// Init opens (appending) the log file at path and sets the level. An unknown
// level falls back to info. An empty path keeps logging disabled.
func Init(level, path string) error {
	mu.Lock()
	defer mu.Unlock()

	l := logrus.New()
	l.SetFormatter(textFormatter())

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	if path == "" {
		l.SetOutput(io.Discard)
		logger = l
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file %s: %w", path, err)
	}

	if file != nil {
		file.Close()
	}
	file = f
	l.SetOutput(f)
	logger = l

	return nil
}

// SetOutput redirects logging to w at debug level. Tests use it to capture
// log lines.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	l := logrus.New()
	l.SetFormatter(textFormatter())
	l.SetLevel(logrus.DebugLevel)
	l.SetOutput(w)
	logger = l
}

// Close flushes and closes the log file, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	logger = newDiscard()
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	return err
}

// Get returns the current logger.
func Get() *logrus.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// WithFields starts an entry carrying structured context.
func WithFields(fields logrus.Fields) *logrus.Entry {
	return Get().WithFields(fields)
}

func Debugf(format string, args ...interface{}) {
	Get().Debugf(format, args...)
}

func Infof(format string, args ...interface{}) {
	Get().Infof(format, args...)
}

func Warnf(format string, args ...interface{}) {
	Get().Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	Get().Errorf(format, args...)
}
