package logger

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// LogLevel represents the logging level
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	log.SetLevel(logrus.InfoLevel)
}

func toLogrus(level LogLevel) logrus.Level {
	switch level {
	case DEBUG:
		return logrus.DebugLevel
	case WARN:
		return logrus.WarnLevel
	case ERROR:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// SetLogLevel sets the global log level
func SetLogLevel(level LogLevel) {
	log.SetLevel(toLogrus(level))
}

// SetLogLevelFromString sets the global log level from a string
func SetLogLevelFromString(levelStr string) {
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		SetLogLevel(DEBUG)
	case "WARN":
		SetLogLevel(WARN)
	case "ERROR":
		SetLogLevel(ERROR)
	default:
		SetLogLevel(INFO)
	}
}

// GetLogLevel returns the current log level
func GetLogLevel() LogLevel {
	switch log.GetLevel() {
	case logrus.DebugLevel, logrus.TraceLevel:
		return DEBUG
	case logrus.WarnLevel:
		return WARN
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		return ERROR
	default:
		return INFO
	}
}

// WithField returns an entry carrying a structured field.
func WithField(key string, value interface{}) *logrus.Entry {
	return log.WithField(key, value)
}

// Debug logs a debug message if debug level is enabled
func Debug(format string, v ...interface{}) {
	log.Debugf(format, v...)
}

// Info logs an info message if info level is enabled
func Info(format string, v ...interface{}) {
	log.Infof(format, v...)
}

// Warn logs a warning message if warn level is enabled
func Warn(format string, v ...interface{}) {
	log.Warnf(format, v...)
}

// Error logs an error message if error level is enabled
func Error(format string, v ...interface{}) {
	log.Errorf(format, v...)
}

// Debugf is an alias for Debug for consistency
func Debugf(format string, v ...interface{}) {
	Debug(format, v...)
}

// Infof is an alias for Info for consistency
func Infof(format string, v ...interface{}) {
	Info(format, v...)
}

// Warnf is an alias for Warn for consistency
func Warnf(format string, v ...interface{}) {
	Warn(format, v...)
}

// Errorf is an alias for Error for consistency
func Errorf(format string, v ...interface{}) {
	Error(format, v...)
}
