package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"riptide/internal/disc"
)

func newEjectCommand(ctx *commandContext) *cobra.Command {
	var device string

	cmd := &cobra.Command{
		Use:   "eject",
		Short: "Open the optical drive tray",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			target := strings.TrimSpace(device)
			if target == "" {
				target = cfg.Drive.Device
			}

			ejector := disc.NewEjectorWithBinary(cfg.EjectBinary())
			if err := ejector.Eject(cmd.Context(), target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Ejected %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVar(&device, "device", "", "Optical device to eject (defaults to configured drive)")
	return cmd
}
