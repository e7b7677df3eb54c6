// Package log provides a global logger with a configurable level, used by
// the provisioning CLIs. Protocol packages log nothing; they return errors.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	LevelNone    Level = iota // Disables logging.
	LevelError                // Anomalies that are not expected during normal use.
	LevelWarning              // Anomalies that are expected to occur occasionally.
	LevelInfo                 // Major events, one line per exchange.
	LevelDebug                // Message dumps and transport detail.
)

var labels = map[Level]string{
	LevelDebug:   "[debug]",
	LevelInfo:    "[info ]",
	LevelWarning: "[warn ]",
	LevelError:   "[error]",
}

// ParseLevel maps a command-line flag value to a Level.
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(name) {
	case "none", "off":
		return LevelNone, nil
	case "error":
		return LevelError, nil
	case "warning", "warn":
		return LevelWarning, nil
	case "info":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	}
	return LevelNone, fmt.Errorf("unrecognized log level %q", name)
}

var (
	mu     sync.Mutex
	level  Level
	output io.Writer = os.Stderr
)

func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	level = l
}

// SetOutput redirects log lines, primarily for tests. The default is stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

func emit(l Level, format string, a ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if l > level {
		return
	}
	fmt.Fprintf(output, "%s %s %s\n", time.Now().Format(time.RFC3339), labels[l], fmt.Sprintf(format, a...))
}

func Debug(format string, a ...interface{}) {
	emit(LevelDebug, format, a...)
}
func Info(format string, a ...interface{}) {
	emit(LevelInfo, format, a...)
}
func Warning(format string, a ...interface{}) {
	emit(LevelWarning, format, a...)
}
func Error(format string, a ...interface{}) {
	emit(LevelError, format, a...)
}
