package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/Wisaacj/Supervisor/internal/config"
	"github.com/rs/zerolog"
)

// Log file names, one per level.
const (
	InfoFile    = "info.log"
	WarningFile = "warning.log"
	ErrorFile   = "error.log"
)

// Logger provides leveled logging (debug/info/warning/error) to the console
// and to per-level files.
type Logger struct {
	zl     zerolog.Logger
	logDir string
	files  []*os.File
}

// levelFile receives only the records of one level.
type levelFile struct {
	level zerolog.Level
	w     io.Writer
}

func (f levelFile) Write(p []byte) (int, error) {
	return len(p), nil
}

func (f levelFile) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level != f.level {
		return len(p), nil
	}
	return f.w.Write(p)
}

// NewLogger creates a Logger writing to stdout and to info/warning/error files
// under the configured log directory, creating the directory if needed.
func NewLogger(cfg *config.Config) (*Logger, error) {
	if err := os.MkdirAll(cfg.LogDirectory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	l := &Logger{logDir: cfg.LogDirectory}

	writers := []io.Writer{
		zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.DateTime},
	}
	for _, lf := range []struct {
		name  string
		level zerolog.Level
	}{
		{InfoFile, zerolog.InfoLevel},
		{WarningFile, zerolog.WarnLevel},
		{ErrorFile, zerolog.ErrorLevel},
	} {
		file, err := l.openLogFile(lf.name)
		if err != nil {
			l.Close()
			return nil, err
		}
		l.files = append(l.files, file)
		writers = append(writers, levelFile{level: lf.level, w: file})
	}

	l.zl = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()
	return l, nil
}

// New returns a console-less logger writing JSON records to w.
func New(w io.Writer) *Logger {
	return &Logger{zl: zerolog.New(w).With().Timestamp().Logger()}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// openLogFile opens or creates a log file for appending.
func (l *Logger) openLogFile(name string) (*os.File, error) {
	path := filepath.Join(l.logDir, name)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	return file, nil
}

func (l *Logger) Debug(format string, v ...interface{}) {
	l.zl.Debug().Msgf(format, v...)
}

func (l *Logger) Info(format string, v ...interface{}) {
	l.zl.Info().Msgf(format, v...)
}

func (l *Logger) Warning(format string, v ...interface{}) {
	l.zl.Warn().Msgf(format, v...)
}

func (l *Logger) Error(format string, v ...interface{}) {
	l.zl.Error().Msgf(format, v...)
}

// Dir returns the directory holding the log files, empty for console loggers.
func (l *Logger) Dir() string {
	return l.logDir
}

// CleanLogs truncates the named log file.
func (l *Logger) CleanLogs(fileName string) error {
	if l.logDir == "" {
		return fmt.Errorf("logger has no log directory")
	}
	path := filepath.Join(l.logDir, filepath.Base(fileName))
	if err := os.Truncate(path, 0); err != nil {
		l.Error("Error truncating %s: %v", fileName, err)
		return err
	}
	l.Info("Log file %s has been cleared", fileName)
	return nil
}

// Close releases the log files.
func (l *Logger) Close() error {
	var firstErr error
	for _, f := range l.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	l.files = nil
	return firstErr
}
