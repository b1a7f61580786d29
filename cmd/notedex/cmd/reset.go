package cmd

import (
	"github.com/spf13/cobra"
)

// newResetCmd creates the reset command.
func newResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Discard the index and its persisted state",
		Long: `Discard the in-memory index, the tag extraction cache, and the
persisted record under .notedex/. The next index or search run starts
from a clean slate.`,
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

			coord.Reset(cmd.Context())
			newRenderer(cmd).Printf("index reset for %s", root)
			return nil
		},
	}

	return cmd
}
