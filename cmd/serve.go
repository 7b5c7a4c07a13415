package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/forestshield/internal/details"
	"github.com/sells-group/forestshield/internal/mapctl"
	"github.com/sells-group/forestshield/internal/notify"
	"github.com/sells-group/forestshield/internal/panel"
	"github.com/sells-group/forestshield/internal/region"
	"github.com/sells-group/forestshield/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local console server (map, region form and live panels)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		client, err := newAPIClient("serve")
		if err != nil {
			return err
		}

		banner := notify.NewBanner(cfg.Notify.BannerTTL())
		defer banner.Close()

		store := region.NewStore(client)
		if err := store.Load(ctx); err != nil {
			// The console still starts; the operator can reload once the backend is up.
			zap.L().Warn("initial region load failed", zap.Error(err))
			banner.Error("Failed to load regions")
		}

		mapCtl := mapctl.New(ctx, store, client,
			mapctl.WithBanner(banner),
			mapctl.WithDefaultCloudCover(cfg.Regions.DefaultCloudCover),
		)
		defer mapCtl.Close()

		form := details.New(ctx, store, client,
			details.WithBanner(banner),
			details.WithSelector(mapCtl),
		)
		defer form.Close()

		panels := panel.NewSet(ctx, client, panelIntervals(cfg.Panels), banner)
		defer panels.Close()
		go runPanels(ctx, panels)

		h := server.New(server.Deps{
			Store:   store,
			Map:     mapCtl,
			Details: form,
			Panels:  panels,
			Banner:  banner,
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           h.Router(cfg.Server.AllowedOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server",
			zap.Int("port", port),
			zap.String("backend", cfg.API.BaseURL),
			zap.Int("regions", store.Len()),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
