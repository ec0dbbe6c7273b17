package wasm

import (
	"io"
	"log/slog"
)

// Option defines a functional option for configuring the Transfer.
type Option func(*Transfer)

// WithEntry sets the exported function called once per iteration.
func WithEntry(name string) Option {
	return func(t *Transfer) {
		if name != "" {
			t.entry = name
		}
	}
}

// WithDir mounts dir as the module's root directory, so the images named in
// the parameters resolve inside the working directory.
func WithDir(dir string) Option {
	return func(t *Transfer) {
		t.dir = dir
	}
}

// WithLogger sets the logger receiving the module's log messages.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transfer) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithOutput connects the module's stdout and stderr.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(t *Transfer) {
		t.stdout = stdout
		t.stderr = stderr
	}
}
