// Package logging provides Fetcharr's leveled logging helpers on top of zerolog.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"fetcharr/internal/domain/consts"
	"fetcharr/internal/domain/regex"

	"github.com/rs/zerolog"
)

var (
	// Level is the debug verbosity (0-5). D(l, ...) prints only when l <= Level.
	Level = 0

	mu     sync.RWMutex
	logger = newLogger(os.Stderr, nil)
)

// fileWriter strips terminal colors before JSON lines reach the log file.
type fileWriter struct {
	w io.Writer
}

func (f fileWriter) Write(p []byte) (int, error) {
	clean := regex.AnsiEscape.ReplaceAll(p, nil)
	if _, err := f.w.Write(clean); err != nil {
		return 0, err
	}
	return len(p), nil
}

func newLogger(console io.Writer, file io.Writer) zerolog.Logger {
	writers := []io.Writer{zerolog.ConsoleWriter{Out: console, TimeFormat: time.TimeOnly}}
	if file != nil {
		writers = append(writers, fileWriter{w: file})
	}
	return zerolog.New(zerolog.MultiLevelWriter(writers...)).
		With().
		Timestamp().
		Str("program", consts.ProgramName).
		Logger()
}

// SetupLogging points the logger at the console and the given log file.
//
// The file is rotated once it grows past maxLogBytes. The returned closer closes the log file.
func SetupLogging(logFilePath string, console io.Writer) (io.Closer, error) {
	if console == nil {
		console = os.Stderr
	}
	if err := rotate(logFilePath); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, consts.PermsLogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %q: %w", logFilePath, err)
	}

	mu.Lock()
	logger = newLogger(console, f)
	mu.Unlock()

	I("=========== %v ===========", time.Now().Format(time.RFC1123Z))
	return f, nil
}

// SetOutput replaces the logger sink (used by tests and the JSON log mode).
func SetOutput(w io.Writer, jsonOnly bool) {
	mu.Lock()
	defer mu.Unlock()
	if jsonOnly {
		logger = zerolog.New(w).With().Timestamp().Str("program", consts.ProgramName).Logger()
		return
	}
	logger = newLogger(w, nil)
}

// Logger returns the underlying zerolog logger for structured fields.
func Logger() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := logger
	return &l
}

// E logs an error.
func E(format string, args ...any) {
	emit(zerolog.ErrorLevel, format, args...)
}

// W logs a warning.
func W(format string, args ...any) {
	emit(zerolog.WarnLevel, format, args...)
}

// I logs general information.
func I(format string, args ...any) {
	emit(zerolog.InfoLevel, format, args...)
}

// S logs a success message.
func S(format string, args ...any) {
	mu.RLock()
	l := logger
	mu.RUnlock()
	l.Info().Bool("success", true).Msgf(format, args...)
}

// D logs debug output when the debug level is at least l.
func D(l int, format string, args ...any) {
	if l > Level {
		return
	}
	mu.RLock()
	lg := logger
	mu.RUnlock()
	lg.Debug().Int("lvl", l).Msgf(format, args...)
}

// P prints to stdout without logging, for command results.
func P(format string, args ...any) {
	fmt.Printf(format, args...)
}

func emit(level zerolog.Level, format string, args ...any) {
	mu.RLock()
	l := logger
	mu.RUnlock()
	l.WithLevel(level).Msgf(format, args...)
}
