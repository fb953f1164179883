// Command acsextract extracts American Community Survey summary-file
// variables into one tidy table per geography level.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/acsextract/internal/acs"
	"github.com/JonMunkholm/acsextract/internal/config"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env if present; variables already set in the environment win.
	if err := godotenv.Load(); err == nil {
		slog.Debug("loaded .env file")
	}

	// Validation waits until flags are parsed; see newRootCmd.
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, acs.FormatUserError(err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(cfg).ExecuteContext(ctx); err != nil {
		slog.Error("acsextract failed", "error", err, "code", acs.MapError(err).Code)
		fmt.Fprintln(os.Stderr, acs.FormatUserError(err))
		stop()
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 for configuration and usage errors, 1 otherwise.
func exitCode(err error) int {
	if errors.Is(err, acs.ErrConfig) {
		return 2
	}
	return 1
}
