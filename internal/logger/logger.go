package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"sensuapi/internal/jsoncodec"
)

// Level is the logging level.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

// Fields carries structured context appended to a log line as a JSON object.
type Fields map[string]any

// Logger is a basic logger wrapper.
type Logger struct {
	level   Level
	logger  *log.Logger
	enabled bool
}

var (
	globalMu     sync.RWMutex
	globalLogger *Logger
)

// Init initializes the logger.
func Init(enabled bool, levelStr, logFile string, console bool) error {
	if !enabled {
		setGlobal(&Logger{enabled: false})
		return nil
	}

	var writers []io.Writer

	if logFile != "" {
		dir := filepath.Dir(logFile)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create log directory: %w", err)
			}
		}
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		writers = append(writers, f)
	}

	if console || len(writers) == 0 {
		writers = append(writers, os.Stdout)
	}

	InitWriter(levelStr, io.MultiWriter(writers...))
	return nil
}

// InitWriter points the logger at w. Tests use it to capture output.
func InitWriter(levelStr string, w io.Writer) {
	setGlobal(&Logger{
		level:   parseLevel(levelStr),
		logger:  log.New(w, "", 0),
		enabled: true,
	})
}

func setGlobal(l *Logger) {
	globalMu.Lock()
	globalLogger = l
	globalMu.Unlock()
}

func current(level Level) *Logger {
	globalMu.RLock()
	l := globalLogger
	globalMu.RUnlock()
	if l == nil || !l.enabled || l.level > level {
		return nil
	}
	return l
}

// Enabled reports whether a message at level would be written.
func Enabled(level Level) bool {
	return current(level) != nil
}

func parseLevel(levelStr string) Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return Debug
	case "info":
		return Info
	case "warn", "warning":
		return Warn
	case "error", "fatal":
		return Error
	default:
		return Info
	}
}

func formatMessage(level Level, msg string, fields Fields) string {
	levelStr := "INFO"
	switch level {
	case Debug:
		levelStr = "DEBUG"
	case Info:
		levelStr = "INFO"
	case Warn:
		levelStr = "WARN"
	case Error:
		levelStr = "ERROR"
	}
	ts := time.Now().Format("2006-01-02 15:04:05")
	line := fmt.Sprintf("[%s] [%s] %s", ts, levelStr, msg)
	if len(fields) == 0 {
		return line
	}
	data, err := jsoncodec.Marshal(fields)
	if err != nil {
		return fmt.Sprintf("%s %v", line, map[string]any(fields))
	}
	return line + " " + string(data)
}

func write(level Level, msg string, fields Fields) {
	l := current(level)
	if l == nil {
		return
	}
	l.logger.Println(formatMessage(level, msg, fields))
}

// Debugf logs a debug message.
func Debugf(format string, args ...interface{}) {
	write(Debug, fmt.Sprintf(format, args...), nil)
}

// Infof logs an info message.
func Infof(format string, args ...interface{}) {
	write(Info, fmt.Sprintf(format, args...), nil)
}

// Warnf logs a warning.
func Warnf(format string, args ...interface{}) {
	write(Warn, fmt.Sprintf(format, args...), nil)
}

// Errorf logs an error message.
func Errorf(format string, args ...interface{}) {
	write(Error, fmt.Sprintf(format, args...), nil)
}

// DebugFields logs msg with structured context at debug level.
func DebugFields(msg string, fields Fields) {
	write(Debug, msg, fields)
}

// InfoFields logs msg with structured context at info level.
func InfoFields(msg string, fields Fields) {
	write(Info, msg, fields)
}

// WarnFields logs msg with structured context at warn level.
func WarnFields(msg string, fields Fields) {
	write(Warn, msg, fields)
}

// ErrorFields logs msg with structured context at error level.
func ErrorFields(msg string, fields Fields) {
	write(Error, msg, fields)
}
