package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"riptide/internal/api"
	"riptide/internal/ipc"
	"riptide/internal/logging"
)

func newDiscCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "disc",
		Short: "Disc detection and identification",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newDiscPauseCommand(ctx), newDiscResumeCommand(ctx), newDiscIDCommand(ctx))
	return cmd
}

func newDiscPauseCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "pause",
		Short: "Pause detection of new disc insertions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return discRPC(ctx, cmd, func(client *ipc.Client) (string, error) {
				resp, err := client.DiscPause()
				if err != nil {
					return "", err
				}
				if resp.Paused {
					return "Disc detection paused", nil
				}
				return "Disc detection already active", nil
			})
		},
	}
}

func newDiscResumeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Resume detection of new disc insertions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return discRPC(ctx, cmd, func(client *ipc.Client) (string, error) {
				resp, err := client.DiscResume()
				if err != nil {
					return "", err
				}
				if resp.Paused {
					return "Disc detection still paused", nil
				}
				return "Disc detection resumed", nil
			})
		},
	}
}

func newDiscIDCommand(ctx *commandContext) *cobra.Command {
	var device string
	var lookupMetadata bool
	var lookupRegistry bool

	cmd := &cobra.Command{
		Use:   "id",
		Short: "Identify the disc in the drive without queuing it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			result, err := api.ProbeDisc(cmd.Context(), api.ProbeDiscRequest{
				Config:         cfg,
				Logger:         logging.NewNop(),
				Device:         device,
				LookupMetadata: lookupMetadata,
				LookupRegistry: lookupRegistry,
			})
			if err != nil {
				return err
			}

			if ctx.JSONMode() {
				return writeJSON(cmd, result)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Device:       %s\n", result.Device)
			fmt.Fprintf(out, "Tracks:       %d\n", result.TrackCount)
			fmt.Fprintf(out, "Disc ID:      %s\n", result.DiscID)
			fmt.Fprintf(out, "Fingerprint:  %s\n", result.Fingerprint)
			fmt.Fprintf(out, "Record path:  %s\n", result.RecordPath)
			fmt.Fprintf(out, "Lead-out:     sector %d (%d total)\n", result.LeadOutSector, result.TotalSectors)
			if result.HiddenTrack {
				fmt.Fprintln(out, "Hidden track: audio detected before track 1")
			}
			if result.Artist != "" || result.Album != "" {
				line := result.Album
				if result.Artist != "" {
					line = result.Artist + " - " + line
				}
				if result.Year != "" {
					line = fmt.Sprintf("%s (%s)", line, result.Year)
				}
				fmt.Fprintf(out, "Album:        %s\n", line)
			}
			if result.Genre != "" {
				fmt.Fprintf(out, "Genre:        %s\n", result.Genre)
			}
			if result.RegistryState != "" {
				detail := result.RegistryState
				if result.RegistryCount > 0 {
					detail = fmt.Sprintf("%s (%d submissions)", detail, result.RegistryCount)
				}
				fmt.Fprintf(out, "Registry:     %s\n", detail)
			}
			for _, warning := range result.Warnings {
				fmt.Fprintf(out, "Warning:      %s\n", warning)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&device, "device", "", "Optical device to probe (defaults to configured drive)")
	cmd.Flags().BoolVar(&lookupMetadata, "metadata", false, "Look up the album release for the disc")
	cmd.Flags().BoolVar(&lookupRegistry, "registry", false, "Query the verification registry for stored checksums")
	return cmd
}

// newDiscIDAliasCommand exposes `disc id` at the top level for muscle memory
// from the standalone discid utility.
func newDiscIDAliasCommand(ctx *commandContext) *cobra.Command {
	cmd := newDiscIDCommand(ctx)
	cmd.Use = "discid"
	cmd.Short = "Identify the disc in the drive (alias for `disc id`)"
	return cmd
}

func discRPC(ctx *commandContext, cmd *cobra.Command, fn func(*ipc.Client) (string, error)) error {
	client, err := ctx.dialClient()
	if err != nil {
		return fmt.Errorf("daemon not running: %w", err)
	}
	defer client.Close()

	message, err := fn(client)
	if err != nil {
		return err
	}
	if strings.TrimSpace(message) == "" {
		message = "OK"
	}
	fmt.Fprintln(cmd.OutOrStdout(), message)
	return nil
}
