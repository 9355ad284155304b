package logger

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/zfogg/sidechain/reels/pkg/config"
)

var logger *log.Logger

// Init initializes the logger. Output goes to log.file so it never
// interleaves with the terminal UI.
func Init(verbose bool) {
	logLevel := log.InfoLevel
	if lvl, err := log.ParseLevel(config.GetString("log.level")); err == nil {
		logLevel = lvl
	}
	if verbose {
		logLevel = log.DebugLevel
	}

	var w io.Writer
	f, err := os.OpenFile(config.GetString("log.file"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		w = os.Stderr
	} else {
		w = f
	}

	logger = log.NewWithOptions(w, log.Options{
		Level:           logLevel,
		ReportTimestamp: true,
		Prefix:          "reels",
	})
}

// SetOutput replaces the logger with one writing to w. Used by tests and
// the dev server, which logs to stdout.
func SetOutput(w io.Writer, level log.Level) {
	logger = log.NewWithOptions(w, log.Options{Level: level, ReportTimestamp: true})
}

// Debug logs a debug message
func Debug(msg string, args ...interface{}) {
	if logger != nil {
		logger.Debug(msg, args...)
	}
}

// Info logs an info message
func Info(msg string, args ...interface{}) {
	if logger != nil {
		logger.Info(msg, args...)
	}
}

// Warn logs a warning message
func Warn(msg string, args ...interface{}) {
	if logger != nil {
		logger.Warn(msg, args...)
	}
}

// Error logs an error message
func Error(msg string, args ...interface{}) {
	if logger != nil {
		logger.Error(msg, args...)
	}
}

// Fatal logs a fatal message and exits
func Fatal(msg string, args ...interface{}) {
	if logger != nil {
		logger.Fatal(msg, args...)
	} else {
		os.Exit(1)
	}
}

// GetLogger returns the logger instance
func GetLogger() *log.Logger {
	return logger
}
