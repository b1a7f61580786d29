package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

// newSearchCmd creates the search command.
func newSearchCmd() *cobra.Command {
	var (
		jsonOutput bool
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Fuzzy search tag names",
		Long: `Fuzzy search across all tag names in the index. Characters of the
query must appear in order within a tag for it to match; results are
ranked by match quality, then by how many notes carry the tag.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			coord, _, cfg, err := openCoordinator(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = coord.Close() }()

			matches := coord.Search(args[0])
			if limit <= 0 {
				limit = cfg.Search.MaxResults
			}
			if limit > 0 && len(matches) > limit {
				matches = matches[:limit]
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(matches)
			}

			newRenderer(cmd).SearchResults(matches)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output matches as JSON")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of matches (default from config)")

	return cmd
}
