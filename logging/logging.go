// Package logging configures slog for the two ways golight runs: behind the
// terminal UI, where records are held back until the log pane exists, and
// on the device, where they go straight to stderr and an optional file.
package logging

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Options selects level, format and an optional log file.
type Options struct {
	Level  string
	Format string
	File   string
	// Buffer holds records back until Attach is called.
	Buffer bool
}

// teeWriter buffers records or forwards them to a target, and always copies
// them to the log file if there is one.
type teeWriter struct {
	mu        sync.Mutex
	buffer    bytes.Buffer
	target    io.Writer
	file      *os.File
	buffering bool
}

func (w *teeWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var firstErr error
	switch {
	case w.buffering:
		w.buffer.Write(p)
	case w.target != nil:
		if _, err := w.target.Write(p); err != nil {
			firstErr = err
		}
	}
	if w.file != nil {
		if _, err := w.file.Write(p); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return len(p), firstErr
}

var (
	mu     sync.Mutex
	writer *teeWriter
)

// ParseLevel maps DEBUG, INFO, WARN and ERROR, anything else is INFO.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Setup installs the default slog logger. Without buffering the records go
// to stderr. Calling Setup again closes the previous log file.
func Setup(opts Options) error {
	w := &teeWriter{buffering: opts.Buffer}
	if !opts.Buffer {
		w.target = os.Stderr
	}
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		w.file = f
	}

	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}
	var handler slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}

	mu.Lock()
	old := writer
	writer = w
	mu.Unlock()
	if old != nil {
		old.mu.Lock()
		if old.file != nil {
			old.file.Close()
		}
		old.mu.Unlock()
	}

	slog.SetDefault(slog.New(handler))
	return nil
}

func current() *teeWriter {
	mu.Lock()
	defer mu.Unlock()
	if writer == nil {
		writer = &teeWriter{target: os.Stderr}
	}
	return writer
}

// Attach flushes the held back records to target and sends all further ones
// there, too.
func Attach(target io.Writer) error {
	w := current()
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.buffer.Len() > 0 {
		if _, err := target.Write(w.buffer.Bytes()); err != nil {
			return err
		}
		w.buffer.Reset()
	}
	w.target = target
	w.buffering = false
	return nil
}

// Detach starts holding records back again, e.g. while the UI is torn down.
func Detach() {
	w := current()
	w.mu.Lock()
	defer w.mu.Unlock()

	w.target = nil
	w.buffering = true
}

// Close closes the log file. Records that were held back and never reached
// a target or the file end up on stderr.
func Close() error {
	w := current()
	w.mu.Lock()
	defer w.mu.Unlock()

	var firstErr error
	// the file already holds a copy of every record
	if w.buffer.Len() > 0 && w.file == nil {
		if _, err := os.Stderr.Write(w.buffer.Bytes()); err != nil {
			firstErr = err
		}
	}
	w.buffer.Reset()
	if w.file != nil {
		if err := w.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		w.file = nil
	}
	return firstErr
}
