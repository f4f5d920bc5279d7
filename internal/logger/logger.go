// Package logger provides leveled logging with support for debug, info, warn, and error levels.
// It wraps logrus to provide level-based filtering and either JSON or text output.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	// Global logger instance
	defaultLogger *logrus.Logger
)

// Init initializes the default logger with the specified level and format
func Init(level string, format string) {
	InitWithOutput(os.Stderr, level, format)
}

// InitWithOutput is Init with an explicit destination
func InitWithOutput(out io.Writer, level string, format string) {
	l := logrus.New()
	l.SetOutput(out)

	switch strings.ToLower(level) {
	case "debug":
		l.SetLevel(logrus.DebugLevel)
	case "warn":
		l.SetLevel(logrus.WarnLevel)
	case "error":
		l.SetLevel(logrus.ErrorLevel)
	default:
		l.SetLevel(logrus.InfoLevel)
	}

	if strings.ToLower(format) == "text" {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05.000"})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
	}

	defaultLogger = l
}

// With returns an entry carrying the given field, for correlating one invocation's lines
func With(key string, value interface{}) *logrus.Entry {
	if defaultLogger == nil {
		Init("info", "json")
	}
	return defaultLogger.WithField(key, value)
}

// Debug logs a message at DebugLevel
func Debug(format string, args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.Debugf(format, args...)
	}
}

// Info logs a message at InfoLevel
func Info(format string, args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.Infof(format, args...)
	}
}

// Warn logs a message at WarnLevel
func Warn(format string, args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.Warnf(format, args...)
	}
}

// Error logs a message at ErrorLevel
func Error(format string, args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.Errorf(format, args...)
	}
}

// Fatal logs a message at ErrorLevel and exits
func Fatal(format string, args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.Errorf("[FATAL] "+format, args...)
	} else {
		fmt.Fprintf(os.Stderr, "[FATAL] "+format+"\n", args...)
	}
	os.Exit(1)
}
