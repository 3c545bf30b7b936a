package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"hound/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limitFlag int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List finished work, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.List(cmd.Context(), limitFlag)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "history is empty")
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, record := range records {
				rows = append(rows, []string{
					record.FinishedAt.Local().Format(time.DateTime),
					string(record.Outcome),
					formatBytes(record.InputBytes),
					formatBytes(record.OutputBytes),
					record.SourcePath,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"FINISHED", "OUTCOME", "IN", "OUT", "PATH"}, rows, 3, 4))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limitFlag, "limit", "n", 20, "Maximum records to show (0 for all)")

	cmd.AddCommand(newHistoryStatsCommand(ctx))
	return cmd
}

func newHistoryStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize outcomes and space savings",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}

			rows := [][]string{
				{"completed", strconv.Itoa(stats.Completed)},
				{"failed", strconv.Itoa(stats.Failed)},
				{"skipped", strconv.Itoa(stats.Skipped)},
				{"bytes in", formatBytes(stats.BytesIn)},
				{"bytes out", formatBytes(stats.BytesOut)},
				{"saved", formatBytes(stats.BytesSaved)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"METRIC", "VALUE"}, rows, 2))
			return nil
		},
	}
}

func openHistory(ctx *commandContext) (*history.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	return history.Open(cfg.HistoryPath())
}
