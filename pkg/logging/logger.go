// Package logging writes component logs for a miru session to
// ~/.miru/logs/<session-id>-miru.log.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Level is a log severity.
type Level = log.Level

// Levels accepted by SetLevel.
const (
	DebugLevel = log.DebugLevel
	InfoLevel  = log.InfoLevel
	WarnLevel  = log.WarnLevel
	ErrorLevel = log.ErrorLevel
)

const timeFormat = "2006-01-02 15:04:05.000"

// Logger is a component logger. Every component of a session writes to the
// same file, tagged with its component name.
type Logger struct {
	sessionID string
	component string
	file      *os.File
	logger    *log.Logger
	logPath   string
	closeOnce sync.Once
}

var (
	// Global session ID for the current execution
	sessionID     string
	sessionIDOnce sync.Once

	// logDir is the directory where log files are stored
	logDir string

	initOnce sync.Once
	initErr  error

	levelMu sync.Mutex
	level   = InfoLevel
	loggers []*Logger
)

func getSessionID() string {
	sessionIDOnce.Do(func() {
		sessionID = uuid.New().String()
	})
	return sessionID
}

func initLogDirectory() error {
	initOnce.Do(func() {
		if logDir != "" {
			initErr = os.MkdirAll(logDir, 0o750)
			return
		}
		homeDir, err := os.UserHomeDir()
		if err != nil {
			initErr = fmt.Errorf("failed to get home directory: %w", err)
			return
		}

		logDir = filepath.Join(homeDir, ".miru", "logs")
		if err := os.MkdirAll(logDir, 0o750); err != nil {
			initErr = fmt.Errorf("failed to create log directory: %w", err)
		}
	})
	return initErr
}

// NewLogger creates a logger for component.
//
// If the log file cannot be opened the returned logger writes to stderr and
// the error is returned alongside it, so callers can keep logging.
func NewLogger(component string) (*Logger, error) {
	if err := initLogDirectory(); err != nil {
		return newFallbackLogger(component, err), err
	}

	sessID := getSessionID()
	logPath := filepath.Join(logDir, fmt.Sprintf("%s-miru.log", sessID))

	// Several components append to the same file.
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		err = fmt.Errorf("failed to open log file: %w", err)
		return newFallbackLogger(component, err), err
	}

	return register(&Logger{
		sessionID: sessID,
		component: component,
		file:      file,
		logger:    newCharmLogger(file, component),
		logPath:   logPath,
	}), nil
}

func newFallbackLogger(component string, err error) *Logger {
	l := register(&Logger{
		sessionID: getSessionID(),
		component: component,
		logger:    newCharmLogger(os.Stderr, component),
	})
	l.logger.Warn("file logging unavailable, using stderr", "err", err)
	return l
}

func newCharmLogger(w io.Writer, component string) *log.Logger {
	levelMu.Lock()
	current := level
	levelMu.Unlock()

	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      timeFormat,
		Prefix:          "[" + component + "]",
		Formatter:       log.TextFormatter,
		Level:           current,
	})
}

func register(l *Logger) *Logger {
	levelMu.Lock()
	defer levelMu.Unlock()
	loggers = append(loggers, l)
	return l
}

// SetLevel changes the minimum level for every logger, including ones
// created before the call.
func SetLevel(lvl Level) {
	levelMu.Lock()
	defer levelMu.Unlock()
	level = lvl
	for _, l := range loggers {
		l.logger.SetLevel(lvl)
	}
}

// ParseLevel parses "debug", "info", "warn" or "error".
func ParseLevel(s string) (Level, error) {
	return log.ParseLevel(s)
}

// Printf logs a formatted message at info level.
func (l *Logger) Printf(format string, v ...any) {
	l.logger.Infof(format, v...)
}

// Debugf logs a debug-level message
func (l *Logger) Debugf(format string, v ...any) {
	l.logger.Debugf(format, v...)
}

// Infof logs an info-level message
func (l *Logger) Infof(format string, v ...any) {
	l.logger.Infof(format, v...)
}

// Warnf logs a warning-level message
func (l *Logger) Warnf(format string, v ...any) {
	l.logger.Warnf(format, v...)
}

// Errorf logs an error-level message
func (l *Logger) Errorf(format string, v ...any) {
	l.logger.Errorf(format, v...)
}

// Writer returns the logger's destination.
func (l *Logger) Writer() io.Writer {
	if l.file != nil {
		return l.file
	}
	return os.Stderr
}

// SessionID returns the current session ID
func (l *Logger) SessionID() string {
	return l.sessionID
}

// LogPath returns the path to the log file, empty for a stderr logger.
func (l *Logger) LogPath() string {
	return l.logPath
}

// Close closes the log file. Safe to call multiple times.
func (l *Logger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		if l.file != nil {
			err = l.file.Close()
		}
	})
	return err
}

// GetSessionID returns the current global session ID
func GetSessionID() string {
	return getSessionID()
}

// GetLogDirectory returns the directory where logs are stored
func GetLogDirectory() (string, error) {
	if err := initLogDirectory(); err != nil {
		return "", err
	}
	return logDir, nil
}
