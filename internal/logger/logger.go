// Package logger holds the process-wide structured logger.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// swapWriter lets the destination change while other goroutines keep logging through L.
type swapWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *swapWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func (s *swapWriter) set(w io.Writer) {
	s.mu.Lock()
	s.w = w
	s.mu.Unlock()
}

var (
	levelVar = new(slog.LevelVar)
	out      = &swapWriter{w: os.Stderr}
)

// L is the shared logger. It writes JSON to stderr until Configure or SetOutput redirects it.
var L = slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: levelVar}))

// SetLevel configures the global log level (debug, info, warn, error).
func SetLevel(lvl string) {
	switch strings.ToLower(lvl) {
	case "debug":
		levelVar.Set(slog.LevelDebug)
	case "warn":
		levelVar.Set(slog.LevelWarn)
	case "error":
		levelVar.Set(slog.LevelError)
	default:
		levelVar.Set(slog.LevelInfo)
	}
}

// SetOutput points the global logger at w, keeping the current level. Safe to call while
// other goroutines log.
func SetOutput(w io.Writer) {
	out.set(w)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Configure applies level and destination in one go.
// An empty file keeps fallback as the destination; otherwise the file is opened in append mode
// and the returned Closer must be closed by the caller.
func Configure(level, file string, fallback io.Writer) (io.Closer, error) {
	SetLevel(level)
	if file == "" {
		SetOutput(fallback)
		return nopCloser{}, nil
	}
	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	SetOutput(f)
	return f, nil
}
