package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// newIndexCmd creates the index command.
func newIndexCmd() *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Scan the vault and rebuild the tag index",
		Long: `Scan the vault for markdown notes, extract frontmatter tags, and
rebuild the tag index from scratch. The result is persisted under
.notedex/ inside the vault so later commands start instantly.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, cfg, err := resolveVault()
			if err != nil {
				return err
			}

			coord, err := newCoordinator(root, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = coord.Close() }()

			ctx := cmd.Context()
			if reset {
				coord.Reset(ctx)
			}

			start := time.Now()
			if err := coord.Rebuild(ctx); err != nil {
				return fmt.Errorf("rebuild failed: %w", err)
			}

			meta := coord.Meta()
			r := newRenderer(cmd)
			r.Printf("indexed %d files, %d tags in %s",
				meta.FileCount, meta.TagCount, time.Since(start).Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "Discard the persisted index and tag cache before rebuilding")

	return cmd
}
