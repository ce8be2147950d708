package commands

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
)

// LogLevelFlag is the persistent flag selecting the log level.
const LogLevelFlag = "log-level"

// ParseLevel maps a level name to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (use debug, info, warn or error)", name)
	}
}

// newLogger builds a text logger on the command's stderr. Commands run
// without the root command (as in tests) log at warn level.
func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	name := "warn"
	if f := cmd.Flags().Lookup(LogLevelFlag); f != nil {
		name = f.Value.String()
	}

	level, err := ParseLevel(name)
	if err != nil {
		return nil, err
	}

	h := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})
	return slog.New(h), nil
}
