package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/arbor/internal/cli"
	httpadapter "github.com/aretw0/arbor/pkg/adapters/http"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Exposes flowcharts, node editing and play sessions as a JSON API, with live session events over SSE.`,
	RunE: withApp(func(cmd *cobra.Command, app *cli.App, args []string) error {
		port := app.Config.Server.Port
		if cmd.Flags().Changed("port") {
			port, _ = cmd.Flags().GetInt("port")
		}

		opts := []httpadapter.Option{
			httpadapter.WithLogger(app.Logger),
			httpadapter.WithLayout(app.Layout),
			httpadapter.WithStreams(app.Streams),
			httpadapter.WithMetrics(app.Metrics.Handler()),
			httpadapter.WithCORS(app.Config.Server.AllowAllOrigins, app.Config.Server.AllowedOrigins...),
		}
		if app.Watcher != nil {
			opts = append(opts, httpadapter.WithWatcher(app.Watcher))
		}
		handler, err := httpadapter.NewHandler(cmd.Context(), app.Player, app.Editor, opts...)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			app.Logger.Info("starting arbor server", "addr", srv.Addr, "backend", app.Config.Storage.Backend)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-cmd.Context().Done():
			app.Logger.Info("shutting down server")

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				app.Logger.Error("graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
				return srv.Close()
			}
			app.Logger.Info("server stopped gracefully")
			return nil
		}
	}),
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
}
