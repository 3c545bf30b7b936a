package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"hound/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the job queue",
	}
	cmd.AddCommand(newQueueListCommand(ctx))
	cmd.AddCommand(newQueueStatsCommand(ctx))
	cmd.AddCommand(newQueueRemoveCommand(ctx))
	cmd.AddCommand(newQueueClearCommand(ctx))
	return cmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var statusFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queue entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openQueue()
			if err != nil {
				return err
			}

			var entries []queue.Entry
			if statusFlag != "" {
				entries, err = store.ListByStatus(queue.Status(statusFlag))
			} else {
				entries, err = store.List()
			}
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "queue is empty")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{
					string(entry.Status),
					formatAge(entry.UpdatedAt),
					entry.SourcePath,
					entry.Details,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"STATUS", "UPDATED", "PATH", "DETAILS"}, rows))
			return nil
		},
	}
	cmd.Flags().StringVar(&statusFlag, "status", "", "Only show entries with this status")
	return cmd
}

func newQueueStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show entry counts per status",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openQueue()
			if err != nil {
				return err
			}
			stats, err := store.Stats()
			if err != nil {
				return err
			}

			statuses := append(queue.ActiveStatuses(), queue.TerminalStatuses()...)
			rows := make([][]string, 0, len(statuses)+1)
			for _, status := range statuses {
				rows = append(rows, []string{string(status), strconv.Itoa(stats.ByStatus[status])})
			}
			rows = append(rows, []string{"total", strconv.Itoa(stats.Total)})
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"STATUS", "COUNT"}, rows, 2))
			return nil
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var (
		completedOnly bool
		failedOnly    bool
	)

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear finished entries (both completed and failed by default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openQueue()
			if err != nil {
				return err
			}

			var statuses []queue.Status
			if completedOnly {
				statuses = append(statuses, queue.StatusCompleted)
			}
			if failedOnly {
				statuses = append(statuses, queue.StatusFailed)
			}

			removed, err := store.Clear(statuses...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %d entries\n", removed)
			return nil
		},
	}
	cmd.Flags().BoolVar(&completedOnly, "completed", false, "Only clear completed entries")
	cmd.Flags().BoolVar(&failedOnly, "failed", false, "Only clear failed entries")
	return cmd
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <path>",
		Short: "Remove the entry for a source path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openQueue()
			if err != nil {
				return err
			}
			if err := store.Remove(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return nil
		},
	}
}
