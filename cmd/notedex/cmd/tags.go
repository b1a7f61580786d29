package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

// newTagsCmd creates the tags command.
func newTagsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List all indexed tags with their note counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			coord, _, _, err := openCoordinator(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = coord.Close() }()

			tags := coord.AllTags()

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(tags)
			}

			newRenderer(cmd).TagList(tags)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output tags as JSON")

	return cmd
}
