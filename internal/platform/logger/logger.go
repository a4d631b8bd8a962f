// Package logger constructs the process logger.
package logger

import (
	"log/slog"
	"os"
)

// New returns a structured text logger writing to stdout. Services receive it
// through their WithLogger options.
func New() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
