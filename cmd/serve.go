package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/skillpath/internal/api"
	"github.com/abhisek/skillpath/internal/metrics"
	"github.com/abhisek/skillpath/internal/ratelimit"
	"github.com/abhisek/skillpath/internal/reviewscan"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the tutor over JSON HTTP",
	Long: `Serve the tutor over JSON HTTP, expose Prometheus metrics on /metrics, and
count due reviews every review_scan_interval.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			e.cfg.Addr = addr
		}
		e.metrics = metrics.New()

		svc, err := e.newTutor(ctx, ratelimit.New(e.cfg.RateLimit), true)
		if err != nil {
			return err
		}

		scanner := reviewscan.New(e.store.MasteryRepo(), e.metrics, e.cfg.ReviewScanInterval, e.logger)
		if err := scanner.Start(ctx); err != nil {
			return fmt.Errorf("start review scan: %w", err)
		}
		defer scanner.Stop()

		srv := &http.Server{
			Addr:              e.cfg.Addr,
			Handler:           api.NewServer(svc, e.metrics, e.logger).Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errc := make(chan error, 1)
		go func() {
			e.logger.Info("listening", zap.String("addr", srv.Addr))
			errc <- srv.ListenAndServe()
		}()

		select {
		case err := <-errc:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("serve: %w", err)
		case <-ctx.Done():
		}

		e.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides addr from config)")
}
