package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"transfer-status-backend/core"
	"transfer-status-backend/internal/format"
	"transfer-status-backend/internal/models"
	"transfer-status-backend/internal/poller"
)

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <ref>",
		Short: "Poll a transfer and print every status change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if interval, _ := cmd.Flags().GetDuration("interval"); interval > 0 {
				cfg.Poller.Interval = interval
			}
			untilDone, _ := cmd.Flags().GetBool("until-done")

			app := core.NewApp(cfg)
			defer app.Stop()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			ctrl := app.NewController()
			if _, err := ctrl.Mount(ctx, models.AuthoritativeRef(args[0])); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "initial fetch failed: %v (still polling)\n", err)
			}
			defer ctrl.Unmount()

			return watch(ctx, cmd, ctrl, untilDone)
		},
	}
	cmd.Flags().DurationP("interval", "i", 0, "poll interval (defaults to poller.interval)")
	cmd.Flags().Bool("until-done", true, "exit once the transfer completes or is rejected")
	return cmd
}

func watch(ctx context.Context, cmd *cobra.Command, ctrl *poller.Controller, untilDone bool) error {
	out := cmd.OutOrStdout()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-ctrl.Updates():
			if !ok {
				return nil
			}
			if ev.Type == poller.EventNotice {
				if ev.Unreachable {
					fmt.Fprintf(out, "! %s\n", ev.Notice)
				} else {
					fmt.Fprintln(out, "! server reachable again")
				}
				continue
			}
			d := format.DisplayOf(*ev.Summary)
			fmt.Fprintf(out, "%s  %-22s %s  %s\n", ev.Summary.ReferenceID, d.StatusLabel, d.Amount, d.ETA)
			if untilDone && ev.Summary.Status.IsTerminal() {
				return nil
			}
		}
	}
}
