package logger

import (
	"io"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Init initializes the global logger from the environment. LOG_LEVEL selects
// the level; LOG_FILE, when set, adds a size-rotated file sink alongside
// stderr.
func Init() {
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		SetLogLevelFromString(logLevel)
	} else {
		SetLogLevel(INFO)
	}
	if logFile := os.Getenv("LOG_FILE"); logFile != "" {
		InitWithFile(logFile)
	}
}

// InitWithFile routes log output to a rotated file in addition to stderr.
func InitWithFile(path string) {
	rotated := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    50, // megabytes
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, rotated))
}

// InitWithLevel initializes the global logger with a specific level
func InitWithLevel(level LogLevel) {
	SetLogLevel(level)
}

// InitWithString initializes the global logger with a string level
func InitWithString(levelStr string) {
	SetLogLevelFromString(levelStr)
}

// IsDebugEnabled returns true if debug logging is enabled
func IsDebugEnabled() bool {
	return GetLogLevel() <= DEBUG
}
