package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"subburn/internal/ipc"
	"subburn/internal/notifications"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification to the operator topic",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			client, err := ctx.dialClient()
			if err != nil {
				// No bot running; publish from this process instead.
				cfg, cfgErr := ctx.ensureConfig()
				if cfgErr != nil {
					return cfgErr
				}
				if cfg.Notifications.NtfyTopic == "" {
					fmt.Fprintln(out, "Notifications are not configured (set notifications.ntfy_topic)")
					return nil
				}
				service := notifications.NewService(cfg)
				if err := service.Publish(cmd.Context(), notifications.EventTestNotification, nil); err != nil {
					return fmt.Errorf("send test notification: %w", err)
				}
				fmt.Fprintln(out, "Test notification sent")
				return nil
			}
			defer client.Close()
			return printNotifyResponse(cmd, client)
		},
	}
}

func printNotifyResponse(cmd *cobra.Command, client *ipc.Client) error {
	resp, err := client.TestNotification()
	if err != nil {
		if resp != nil && resp.Message != "" {
			fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
		}
		return err
	}
	if resp == nil {
		return errors.New("missing notification response")
	}
	switch {
	case resp.Message != "":
		fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
	case resp.Sent:
		fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
	default:
		fmt.Fprintln(cmd.OutOrStdout(), "Notification not sent")
	}
	return nil
}
