// Package logging builds the structured logger of a wrs process and wires it
// to a server's event bus.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New.
type Options struct {
	// Level is one of debug, info, warn or error. Defaults to info.
	Level string
	// File, when set, receives a copy of every record. The file is rotated
	// once it reaches MaxSizeMB.
	File       string
	MaxSizeMB  int
	MaxBackups int
	// Output defaults to stderr.
	Output io.Writer
}

// New creates a text logger writing to the output and, when configured, to a
// rotated log file. The returned closer releases the file.
func New(opts Options) (*slog.Logger, io.Closer) {
	output := opts.Output
	if output == nil {
		output = os.Stderr
	}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		file := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
		}
		output = io.MultiWriter(output, file)
		closer = file
	}

	handler := slog.NewTextHandler(output, &slog.HandlerOptions{Level: ParseLevel(opts.Level)})
	return slog.New(handler), closer
}

// ParseLevel converts a level name to a slog level. Unknown names are info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
