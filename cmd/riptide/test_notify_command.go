package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"riptide/internal/ipc"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification through the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.TestNotification()
				if err != nil {
					return err
				}
				message := strings.TrimSpace(resp.Message)
				if message == "" {
					if resp.Sent {
						message = "Test notification sent"
					} else {
						message = "Notification not sent"
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), message)
				return nil
			})
		},
	}
}
