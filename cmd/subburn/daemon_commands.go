package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"subburn/internal/daemonctl"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	var startLogLevel string
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the bot in the background",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.ValidateStartup(); err != nil {
				return err
			}
			exe, err := botExecutable()
			if err != nil {
				return err
			}
			launched, err := daemonctl.Start(ctx.socketPath(), exe, ctx.configPath(), startLogLevel, 15*time.Second)
			if err != nil {
				return err
			}
			if !launched {
				fmt.Fprintln(stdout, "Bot already running")
				return nil
			}
			fmt.Fprintln(stdout, "Bot started")
			return nil
		},
	}
	startCmd.Flags().StringVar(&startLogLevel, "log-level", "", "Override logging.level for the launched bot")

	var stopGrace time.Duration
	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the background bot (in-flight renders are cancelled)",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.Stop(ctx.socketPath(), stopGrace)
			if errors.Is(err, daemonctl.ErrNotRunning) {
				fmt.Fprintln(stdout, "Bot is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if result.Forced {
				fmt.Fprintf(stdout, "Bot did not exit in %s; killed pid %d\n", stopGrace, result.PID)
			}
			fmt.Fprintln(stdout, "Bot stopped")
			return nil
		},
	}
	stopCmd.Flags().DurationVar(&stopGrace, "grace", 10*time.Second, "How long to wait before killing the bot")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show bot, session, and system status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			resp, err := daemonctl.Status(ctx.socketPath())
			if err != nil && !errors.Is(err, daemonctl.ErrNotRunning) {
				return err
			}
			running := err == nil && resp != nil && resp.Running

			for _, line := range renderSectionHeader("Bot", colorize) {
				fmt.Fprintln(stdout, line)
			}
			if running {
				for _, line := range runningLines(resp, colorize) {
					fmt.Fprintln(stdout, line)
				}
				fmt.Fprintln(stdout)
				for _, line := range renderSectionHeader("Sessions", colorize) {
					fmt.Fprintln(stdout, line)
				}
				if len(resp.Sessions) == 0 {
					fmt.Fprintln(stdout, "No active sessions")
					return nil
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"Session", "User", "State", "Video", "Subtitle", "Age"},
					sessionRows(resp.Sessions, time.Now()),
					[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignLeft, alignRight},
				))
				return nil
			}

			fmt.Fprintln(stdout, renderStatusLine("Bot", statusError, "Not running", colorize))
			fmt.Fprintln(stdout)
			for _, line := range renderSectionHeader("System Checks", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, line := range systemCheckLines(cmd.Context(), cfg, colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout)
			for _, line := range renderSectionHeader("Dependencies", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, line := range dependencyLines(cfg, colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout)
			for _, line := range renderSectionHeader("History", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, line := range historyLines(cmd.Context(), cfg, colorize) {
				fmt.Fprintln(stdout, line)
			}
			return nil
		},
	}

	return []*cobra.Command{startCmd, stopCmd, statusCmd}
}

func botExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	if strings.TrimSpace(exe) == "" {
		return "", errors.New("resolve executable: empty path")
	}
	return exe, nil
}
