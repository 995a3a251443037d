package main

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/zulandar/ribbonlog/internal/dashboard"
	"github.com/zulandar/ribbonlog/internal/digest"
)

func newDashboardCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Start the web dashboard",
		Long:  "Serves the lot log on a local web dashboard with a JSON API. Runs the digest schedule too when one is configured.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd, configPath, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Ribbonlog config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (default dashboard.port)")
	return cmd
}

func runDashboard(cmd *cobra.Command, configPath string, port int) error {
	a, err := openApp(cmd.Context(), configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	if port == 0 {
		port = a.cfg.Dashboard.Port
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	if a.cfg.Digest.Schedule != "" {
		sched, err := digest.New(digest.Opts{
			Schedule: a.cfg.Digest.Schedule,
			Limit:    a.cfg.Digest.Limit,
			Source:   a.store,
			Notifier: a.notifier,
		})
		if err != nil {
			return err
		}
		go sched.Run(ctx)
		log.Printf("dashboard: digest scheduled %q", a.cfg.Digest.Schedule)
	}

	return dashboard.Start(ctx, dashboard.StartOpts{
		Store:          a.store,
		Port:           port,
		Out:            cmd.OutOrStdout(),
		Site:           a.cfg.Site,
		MaxUploadBytes: a.cfg.Dashboard.MaxUploadBytes,
	})
}
