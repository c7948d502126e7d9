package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"subburn/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect concluded sessions",
	}
	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryPruneCommand(ctx))
	return historyCmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var (
		userID     int64
		failedOnly bool
		limit      int
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List recently concluded sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			store, err := openExistingHistory(cfg)
			if err != nil {
				return err
			}
			if store == nil {
				fmt.Fprintln(out, "No sessions recorded")
				return nil
			}
			defer store.Close()

			filter := history.Filter{UserID: userID, Limit: limit}
			if failedOnly {
				filter.Outcome = history.OutcomeFailed
			}
			entries, err := store.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "No sessions recorded")
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Finished", "Session", "User", "Outcome", "Video", "Delivery", "Duration", "Detail"},
				historyRows(entries),
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "Only show sessions for this Telegram user ID")
	cmd.Flags().BoolVar(&failedOnly, "failed", false, "Only show failed sessions")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of sessions to show (0 for all)")
	return cmd
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete ledger rows older than a cutoff",
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			store, err := openExistingHistory(cfg)
			if err != nil {
				return err
			}
			if store == nil {
				fmt.Fprintln(out, "No sessions recorded")
				return nil
			}
			defer store.Close()

			removed, err := store.Prune(cmd.Context(), time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Removed %d session(s)\n", removed)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Remove sessions that finished before now minus this duration")
	return cmd
}

func historyRows(entries []history.Entry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		detail := e.Link
		if e.Outcome == history.OutcomeFailed {
			detail = e.ErrorKind
		}
		rows = append(rows, []string{
			e.FinishedAt.Local().Format(time.DateTime),
			shortSessionID(e.SessionID),
			strconv.FormatInt(e.UserID, 10),
			string(e.Outcome),
			orDash(e.VideoName),
			orDash(e.DeliveryMode),
			e.Duration().Truncate(time.Second).String(),
			orDash(detail),
		})
	}
	return rows
}
