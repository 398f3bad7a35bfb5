package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fentz26/labtrack/internal/models"
	"github.com/fentz26/labtrack/internal/reconcile"
	"github.com/fentz26/labtrack/internal/tui"
	"github.com/spf13/cobra"
)

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"tui"},
	Short:   "Open the interactive dashboard",
	Long: `Open the live dashboard for a signed-in role. The sample list refreshes
in the background; type / for commands or @ to jump to a sample.`,
	RunE: runDashboard,
}

var dashboardRole string

func init() {
	dashboardCmd.Flags().StringVar(&dashboardRole, "role", "", "Dashboard role (ed or lab)")
	dashboardCmd.MarkFlagRequired("role")
}

func runDashboard(cmd *cobra.Command, args []string) error {
	role, err := models.ParseRole(dashboardRole)
	if err != nil {
		return err
	}

	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.requireRole(role); err != nil {
		return err
	}

	rec := rt.reconciler(role, os.Stdout)
	poller := reconcile.NewPoller(rec, rt.cfg.Poll.Interval, rt.logger.Named("poller"))
	svc := rt.service(rec, func(context.Context) { poller.Trigger() })

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := tui.New(tui.Options{
		Role:      role,
		Samples:   rec,
		Mutations: svc,
		Poller:    poller,
		User:      rt.cfg.Credentials[role].Username,
		Window:    rt.cfg.Window(),
	})
	return app.Run(ctx)
}
