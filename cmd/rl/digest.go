package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zulandar/ribbonlog/internal/digest"
	"github.com/zulandar/ribbonlog/internal/notify"
)

func newDigestCmd() *cobra.Command {
	var (
		configPath string
		watch      bool
	)

	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Post a status summary to the configured chat channels",
		Long:  "Sends one summary now, or with --watch keeps running and sends on digest.schedule.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDigest(cmd, configPath, watch)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Ribbonlog config file")
	cmd.Flags().BoolVar(&watch, "watch", false, "run on digest.schedule until interrupted")
	return cmd
}

func runDigest(cmd *cobra.Command, configPath string, watch bool) error {
	a, err := openApp(cmd.Context(), configPath)
	if err != nil {
		return err
	}
	defer a.Close()
	out := cmd.OutOrStdout()

	if !watch {
		// Send through the chain directly so chat failures set the exit code.
		return sendDigestOnce(cmd.Context(), out, a.store, a.notifier.Next, a.cfg.Digest.Limit)
	}

	if a.cfg.Digest.Schedule == "" {
		return fmt.Errorf("digest.schedule is not set in %s", configPath)
	}
	sched, err := digest.New(digest.Opts{
		Schedule: a.cfg.Digest.Schedule,
		Limit:    a.cfg.Digest.Limit,
		Source:   a.store,
		Notifier: a.notifier,
	})
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()
	fmt.Fprintf(out, "Sending digest on %q; Ctrl-C to stop\n", a.cfg.Digest.Schedule)
	sched.Run(ctx)
	return nil
}

// sendDigestOnce posts one digest through n and reports the outcome.
func sendDigestOnce(ctx context.Context, out io.Writer, src digest.Source, n notify.Notifier, limit int) error {
	sent, err := digest.Send(ctx, src, n, limit)
	if err != nil {
		return err
	}
	if !sent {
		fmt.Fprintln(out, "Nothing to report: the log is empty.")
		return nil
	}
	fmt.Fprintln(out, "Digest sent.")
	return nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(cmd.Context())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}
