package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// EnvLogDir overrides the default log directory. It is read when the
// first logger is created, which happens during package initialization,
// so a value in ./.env is honoured even though the CLI loads that file
// later.
const EnvLogDir = "WEBEVAL_LOG_DIR"

// DotEnvFile is the file consulted for EnvLogDir when it is not set in the
// process environment.
const DotEnvFile = ".env"

// Level is the minimum severity a Logger writes.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the tag written into each entry.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

// ParseLevel maps a config value (debug, info, warn, error) to a Level.
// An empty string means debug.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelDebug, fmt.Errorf("invalid log level %q (must be debug, info, warn or error)", s)
}

// Logger writes component-tagged entries for one webeval process.
// Every logger created in the same process shares a run id and a log file
// under the log directory (~/.webeval/logs by default).
type Logger struct {
	runID     string
	component string
	file      *os.File
	logger    *log.Logger
	mu        sync.Mutex
	logPath   string
	closeOnce sync.Once
}

var (
	runID     string
	runIDOnce sync.Once

	dirMu  sync.Mutex
	logDir string

	// minLevel is shared by all loggers so the CLI can apply the configured
	// level after package init has already created them.
	levelMu  sync.RWMutex
	minLevel = LevelDebug
)

func getRunID() string {
	runIDOnce.Do(func() {
		runID = uuid.New().String()
	})
	return runID
}

// SetLogDirectory overrides where log files are created. Loggers that are
// already open keep writing to their current file.
func SetLogDirectory(dir string) {
	dirMu.Lock()
	defer dirMu.Unlock()
	logDir = dir
}

// SetLevel sets the minimum level written by every logger.
func SetLevel(level Level) {
	levelMu.Lock()
	defer levelMu.Unlock()
	minLevel = level
}

func enabled(level Level) bool {
	levelMu.RLock()
	defer levelMu.RUnlock()
	return level >= minLevel
}

// envLogDir returns EnvLogDir from the environment, falling back to
// DotEnvFile. The process environment is not modified.
func envLogDir() string {
	if dir := os.Getenv(EnvLogDir); dir != "" {
		return dir
	}
	values, err := godotenv.Read(DotEnvFile)
	if err != nil {
		return ""
	}
	return values[EnvLogDir]
}

// ensureLogDirectory resolves the log directory and creates it.
func ensureLogDirectory() (string, error) {
	dirMu.Lock()
	defer dirMu.Unlock()

	if logDir == "" {
		logDir = envLogDir()
	}
	if logDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		logDir = filepath.Join(homeDir, ".webeval", "logs")
	}
	if err := os.MkdirAll(logDir, 0750); err != nil {
		return "", fmt.Errorf("failed to create log directory: %w", err)
	}
	return logDir, nil
}

// NewLogger creates a logger for a component writing to
// <log-dir>/<run-id>-webeval.log.
//
// When the file cannot be opened a logger writing to stderr is returned
// together with the error, so callers always get a usable logger.
func NewLogger(component string) (*Logger, error) {
	dir, err := ensureLogDirectory()
	if err != nil {
		return newFallbackLogger(component, err), err
	}

	id := getRunID()
	logPath := filepath.Join(dir, fmt.Sprintf("%s-webeval.log", id))

	// Append mode: components of one run share the file.
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		err = fmt.Errorf("failed to open log file: %w", err)
		return newFallbackLogger(component, err), err
	}

	return &Logger{
		runID:     id,
		component: component,
		file:      file,
		logger:    log.New(file, "", 0),
		logPath:   logPath,
	}, nil
}

func newFallbackLogger(component string, err error) *Logger {
	logger := log.New(os.Stderr, "", 0)
	l := &Logger{
		runID:     getRunID(),
		component: component,
		logger:    logger,
	}
	l.write(LevelWarn, fmt.Sprintf("file logging unavailable, writing to stderr: %v", err))
	return l
}

func (l *Logger) write(level Level, message string) {
	if !enabled(level) {
		return
	}
	timestamp := time.Now().Format("2006-01-02 15:04:05.000")

	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.Printf("[%s] [%s] [%s] %s", timestamp, l.component, level, message)
}

// Debugf logs a debug-level message.
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.write(LevelDebug, fmt.Sprintf(format, v...))
}

// Infof logs an info-level message.
func (l *Logger) Infof(format string, v ...interface{}) {
	l.write(LevelInfo, fmt.Sprintf(format, v...))
}

// Warnf logs a warning.
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.write(LevelWarn, fmt.Sprintf(format, v...))
}

// Errorf logs an error-level message.
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.write(LevelError, fmt.Sprintf(format, v...))
}

// Writer returns the underlying destination, for handing to libraries that
// want an io.Writer.
func (l *Logger) Writer() io.Writer {
	if l.file != nil {
		return l.file
	}
	return os.Stderr
}

// RunID returns the id shared by all loggers of this process.
func (l *Logger) RunID() string {
	return l.runID
}

// LogPath returns the log file path, or "" for a stderr logger.
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

// GetRunID returns the run id of the current process.
func GetRunID() string {
	return getRunID()
}
