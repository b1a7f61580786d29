package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fernvale/notedex/internal/watcher"
)

// newWatchCmd creates the watch command.
func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the vault and keep the index current",
		Long: `Watch the vault for note changes and apply them to the index
incrementally. Rapid saves are debounced before indexing. Runs until
interrupted with Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			coord, root, cfg, err := openCoordinator(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = coord.Close() }()

			w, err := watcher.NewVaultWatcher(watcher.Options{
				DebounceWindow:  cfg.Watch.DebounceDuration(),
				Extensions:      cfg.Vault.Extensions,
				ExcludePatterns: cfg.Vault.Exclude,
			})
			if err != nil {
				return err
			}

			r := newRenderer(cmd)
			meta := coord.Meta()
			r.Printf("watching %s (%d files, %d tags)", root, meta.FileCount, meta.TagCount)

			watchErr := make(chan error, 1)
			go func() {
				watchErr <- w.Start(ctx, root)
			}()

			for {
				select {
				case <-ctx.Done():
					err := <-watchErr
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				case err := <-watchErr:
					return err
				case batch := <-w.Events():
					coord.ApplyEvents(ctx, batch)
					meta := coord.Meta()
					r.Printf("applied %d change(s): %d files, %d tags",
						len(batch), meta.FileCount, meta.TagCount)
				case err := <-w.Errors():
					slog.Warn("watch_error", slog.Any("error", err))
					r.Warningf("watch error: %v", err)
				}
			}
		},
	}

	return cmd
}
