package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/acsextract/internal/config"
	"github.com/JonMunkholm/acsextract/internal/lookup"
	"github.com/JonMunkholm/acsextract/internal/web"
	"github.com/spf13/cobra"
)

func newServeCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a data dictionary for the lookup table over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			table, err := lookup.LoadTable(ctx, cfg.Summary.Index)
			if err != nil {
				return err
			}

			srv := web.NewServer(table, cfg.Server)

			go func() {
				<-ctx.Done()
				slog.Info("shutting down...")

				shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					slog.Error("shutdown error", "error", err)
				}
			}()

			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			slog.Info("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&cfg.Summary.Index, "index", cfg.Summary.Index, "Lookup table path or URL (ACS_SUMMARY_INDEX)")
	cmd.Flags().StringVar(&cfg.Server.Host, "host", cfg.Server.Host, "Interface to bind (ACS_SERVER_HOST)")
	cmd.Flags().IntVar(&cfg.Server.Port, "port", cfg.Server.Port, "Port to listen on (ACS_SERVER_PORT)")
	return cmd
}
