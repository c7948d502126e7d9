package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"subburn/internal/ipc"
	"subburn/internal/logs"
)

const logFollowInterval = 500 * time.Millisecond

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		lines     int
		follow    bool
		sessionID string
		match     string
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show bot log output",
		Long: "Show the tail of the current bot log. When the bot is running the log is read\n" +
			"through its control socket; otherwise the last run's subburn.log is read directly.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			filter := strings.TrimSpace(match)
			if id := strings.TrimSpace(sessionID); id != "" {
				filter = id
			}

			client, err := ctx.dialClient()
			if err == nil {
				defer client.Close()
				return tailRemote(cmd.Context(), client, out, lines, follow, filter)
			}

			cfg, cfgErr := ctx.ensureConfig()
			if cfgErr != nil {
				return cfgErr
			}
			return tailLocal(cmd.Context(), filepath.Join(cfg.Paths.LogDir, "subburn.log"), out, lines, follow, filter)
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	cmd.Flags().StringVar(&sessionID, "session", "", "Only show lines for this session ID (or prefix)")
	cmd.Flags().StringVar(&match, "match", "", "Only show lines containing this text")
	return cmd
}

func tailRemote(ctx context.Context, client *ipc.Client, out io.Writer, lines int, follow bool, filter string) error {
	resp, err := client.LogTail(ipc.LogTailRequest{Offset: -1, Limit: lines, Match: filter})
	if err != nil {
		return fmt.Errorf("read log: %w", err)
	}
	printLines(out, resp.Lines)
	if !follow {
		return nil
	}

	offset := resp.Offset
	ticker := time.NewTicker(logFollowInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		resp, err := client.LogTail(ipc.LogTailRequest{Offset: offset, Match: filter})
		if err != nil {
			return fmt.Errorf("read log: %w", err)
		}
		printLines(out, resp.Lines)
		offset = resp.Offset
	}
}

func tailLocal(ctx context.Context, path string, out io.Writer, lines int, follow bool, filter string) error {
	page, err := logs.Last(path, lines, filter)
	if err != nil {
		return err
	}
	printLines(out, page.Lines)
	if !follow {
		return nil
	}
	return logs.Follow(ctx, path, page.Offset, func(line string) {
		fmt.Fprintln(out, line)
	}, filter)
}

func printLines(out io.Writer, lines []string) {
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
}
