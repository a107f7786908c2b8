// Package logger owns the process-wide hclog root logger.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
)

// Options configures the root logger.
type Options struct {
	Name   string
	Level  string
	Format string // "text" or "json"
	Output io.Writer
}

var (
	root   hclog.Logger = hclog.New(&hclog.LoggerOptions{Name: "catalog", Level: hclog.Info})
	rootMu sync.RWMutex
)

// Init replaces the root logger.
func Init(opts Options) hclog.Logger {
	if opts.Name == "" {
		opts.Name = "catalog"
	}
	if opts.Output == nil {
		opts.Output = os.Stderr
	}

	l := hclog.New(&hclog.LoggerOptions{
		Name:       opts.Name,
		Level:      ParseLevel(opts.Level),
		Output:     opts.Output,
		JSONFormat: strings.EqualFold(opts.Format, "json"),
	})

	rootMu.Lock()
	root = l
	rootMu.Unlock()
	return l
}

// ParseLevel maps a config string to an hclog level, defaulting to info.
func ParseLevel(level string) hclog.Level {
	lvl := hclog.LevelFromString(level)
	if lvl == hclog.NoLevel {
		return hclog.Info
	}
	return lvl
}

// SetLevel changes the root logger level in place.
func SetLevel(level string) {
	Get().SetLevel(ParseLevel(level))
}

// Get returns the root logger.
func Get() hclog.Logger {
	rootMu.RLock()
	defer rootMu.RUnlock()
	return root
}

// Named returns a sub-logger of the root logger.
func Named(name string) hclog.Logger {
	return Get().Named(name)
}

// Info logs informational messages with key/value pairs
func Info(msg string, args ...interface{}) {
	Get().Info(msg, args...)
}

// Warn logs warning messages
func Warn(msg string, args ...interface{}) {
	Get().Warn(msg, args...)
}

// Error logs error messages
func Error(msg string, args ...interface{}) {
	Get().Error(msg, args...)
}

// Debug logs debug messages
func Debug(msg string, args ...interface{}) {
	Get().Debug(msg, args...)
}
