package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"hound/internal/daemon"
	"hound/internal/logging"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run or inspect the pipeline daemon",
	}
	cmd.AddCommand(newDaemonRunCommand(ctx))
	cmd.AddCommand(newDaemonStatusCommand(ctx))
	return cmd
}

func newDaemonRunCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return daemon.New(cfg, logger).Run(ctx)
		},
	}
}

func newDaemonStatusCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report whether a daemon instance holds the lock",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}

			data, err := os.ReadFile(cfg.LockPath())
			if os.IsNotExist(err) {
				fmt.Fprintln(cmd.OutOrStdout(), "daemon: not running")
				return nil
			}
			if err != nil {
				return fmt.Errorf("read lock file: %w", err)
			}

			pid, convErr := strconv.Atoi(strings.TrimSpace(string(data)))
			if convErr != nil || !processAlive(pid) {
				fmt.Fprintln(cmd.OutOrStdout(), "daemon: not running (stale lock file)")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "daemon: running (pid %d)\n", pid)
			return nil
		},
	}
}

// processAlive sends signal 0, which probes for existence without touching
// the process.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
