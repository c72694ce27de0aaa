package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"riptide/internal/identification"
	"riptide/internal/logging"
	"riptide/internal/notifications"
	"riptide/internal/organizing"
	"riptide/internal/queue"
	"riptide/internal/ripping"
	"riptide/internal/stage"
	"riptide/internal/stageexec"
)

func newRipCommand(ctx *commandContext) *cobra.Command {
	var device string

	cmd := &cobra.Command{
		Use:   "rip",
		Short: "Rip the disc in the drive without starting the daemon",
		Long: `Rip runs the identification, extraction, and finalization stages in the
foreground for a single disc. The item is recorded in the queue database, so a
failed run can be retried later with the daemon. The daemon must not be
running while a foreground rip is in progress.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			target := strings.TrimSpace(device)
			if target == "" {
				target = cfg.Drive.Device
			}

			daemonLock := flock.New(filepath.Join(cfg.Paths.LogDir, "riptide.lock"))
			locked, err := daemonLock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire daemon lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("a riptide daemon is already running; stop it with `riptide stop` or let it rip the disc")
			}
			defer func() { _ = daemonLock.Unlock() }()

			logger, err := logging.New(logging.Options{
				Level:            ctx.resolvedLogLevel(cfg),
				Format:           cfg.Logging.Format,
				OutputPaths:      []string{"stdout"},
				ErrorOutputPaths: []string{"stderr"},
				Development:      ctx.logDevelopment(cfg),
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			store, err := queue.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			runCtx := cmd.Context()
			item, err := store.NewDisc(runCtx, "Unknown Disc", target)
			if err != nil {
				return err
			}

			notifier := notifications.NewService(cfg)
			pipeline := []struct {
				name       string
				handler    stage.Handler
				processing queue.Status
				done       queue.Status
			}{
				{"identifier", identification.NewIdentifier(cfg, store, logger), queue.StatusIdentifying, queue.StatusIdentified},
				{"ripper", ripping.NewRipper(cfg, store, logger), queue.StatusRipping, queue.StatusRipped},
				{"finalizer", organizing.NewFinalizer(cfg, store, logger), queue.StatusFinalizing, queue.StatusCompleted},
			}
			for _, step := range pipeline {
				if err := stageexec.Run(runCtx, stageexec.Options{
					Logger:     logger,
					Store:      store,
					Notifier:   notifier,
					Handler:    step.handler,
					StageName:  step.name,
					Processing: step.processing,
					Done:       step.done,
					Item:       item,
				}); err != nil {
					return fmt.Errorf("%s stage: %w", step.name, err)
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Disc:   %s\n", item.DiscTitle)
			if result, err := ripping.ResultFromJSON(item.RipResultJSON); err == nil {
				fmt.Fprintf(out, "Rip:    %s\n", result.Summary())
			}
			fmt.Fprintf(out, "Output: %s\n", item.FinalPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&device, "device", "", "Optical device to rip (defaults to configured drive)")
	return cmd
}
