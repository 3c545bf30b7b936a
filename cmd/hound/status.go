package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strconv"

	"github.com/spf13/cobra"

	"hound/internal/progress"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the pipeline progress snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			snapshot, err := progress.Load(cfg.ProgressPath())
			if errors.Is(err, fs.ErrNotExist) {
				fmt.Fprintln(cmd.OutOrStdout(), "no progress snapshot yet; is the daemon running?")
				return nil
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			rows := [][]string{
				{"queued", strconv.Itoa(snapshot.Queued)},
				{"downloading", strconv.Itoa(snapshot.Downloading)},
				{"encoding", strconv.Itoa(snapshot.Encoding)},
				{"uploading", strconv.Itoa(snapshot.Uploading)},
				{"completed", strconv.Itoa(snapshot.Completed)},
				{"failed", strconv.Itoa(snapshot.Failed)},
				{"skipped", strconv.Itoa(snapshot.Skipped)},
			}
			fmt.Fprintln(out, renderTable([]string{"STAGE", "COUNT"}, rows, 2))

			printPointer(out, "last completed", snapshot.LastCompleted)
			printPointer(out, "last failed", snapshot.LastFailed)
			printPointer(out, "last skipped", snapshot.LastSkipped)
			fmt.Fprintf(out, "updated %s ago\n", formatAge(snapshot.UpdatedAt))
			return nil
		},
	}
}

func printPointer(out io.Writer, label string, pointer *progress.Pointer) {
	if pointer == nil {
		return
	}
	line := fmt.Sprintf("%s: %s", label, pointer.Path)
	if pointer.Details != "" {
		line += " (" + pointer.Details + ")"
	}
	fmt.Fprintln(out, line)
}
