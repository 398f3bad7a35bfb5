package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fentz26/labtrack/internal/metrics"
	"github.com/fentz26/labtrack/internal/models"
	"github.com/fentz26/labtrack/internal/reconcile"
	"github.com/fentz26/labtrack/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll the API and announce newly available results",
	Long: `Poll the sample API in the foreground. Each cycle that brings results
to Results Available rings the terminal bell once and prints the samples.
With --addr (or metrics.addr in config) a status server exposes /health,
/samples, /audit and Prometheus /metrics.`,
	RunE: runWatch,
}

var (
	watchRole string
	watchAddr string
)

func init() {
	watchCmd.Flags().StringVar(&watchRole, "role", "lab", "Role whose tables the status server shows (ed or lab)")
	watchCmd.Flags().StringVar(&watchAddr, "addr", "", "Status server address, e.g. 127.0.0.1:9464 (overrides config)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	role, err := models.ParseRole(watchRole)
	if err != nil {
		return err
	}

	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.Close()

	addr := rt.cfg.Metrics.Addr
	if watchAddr != "" {
		addr = watchAddr
	}

	collector := metrics.New()
	bell := reconcile.NewBell(os.Stdout)
	announce := reconcile.NotifierFunc(func(completed []models.SampleRecord) {
		bell.Notify(completed)
		ids := make([]string, 0, len(completed))
		for _, r := range completed {
			ids = append(ids, r.SampleID)
		}
		fmt.Printf("%s  Results available: %s\n", time.Now().Format("15:04:05"), strings.Join(ids, ", "))
	})
	rec := rt.reconciler(role, nil, reconcile.WithNotifier(announce), reconcile.WithObserver(collector))
	poller := reconcile.NewPoller(rec, rt.cfg.Poll.Interval, rt.logger.Named("poller"))

	// Set up signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	poller.Start(ctx)
	defer poller.Stop()

	var srv *server.Server
	serverErr := make(chan error, 1)
	if addr != "" {
		srv = server.New(role, rec, rt.store, collector.Handler(), addr, rt.logger.Named("server"))
		go func() {
			err := srv.Start()
			if err != nil && err != http.ErrServerClosed {
				serverErr <- err
			}
			close(serverErr)
		}()
		fmt.Printf("Status server on http://%s (health, samples, audit, metrics)\n", addr)
	}

	fmt.Printf("Watching %s every %s as %s. Press Ctrl+C to stop.\n",
		rt.client.BaseURL(), rt.cfg.Poll.Interval, role.Label())

	select {
	case sig := <-sigCh:
		rt.logger.Info("shutting down", zap.String("signal", sig.String()))
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("status server: %w", err)
		}
	}

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			rt.logger.Warn("status server shutdown error", zap.Error(err))
		}
	}
	return nil
}
