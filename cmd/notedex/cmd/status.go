package cmd

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"
)

// statusReport is the JSON shape of the status command output.
type statusReport struct {
	VaultRoot   string    `json:"vault_root"`
	StatePath   string    `json:"state_path"`
	Built       bool      `json:"built"`
	FileCount   int       `json:"file_count"`
	TagCount    int       `json:"tag_count"`
	LastIndexed time.Time `json:"last_indexed"`
	Stale       bool      `json:"stale"`
}

// newStatusCmd creates the status command.
func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show index bookkeeping for the current vault",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			coord, root, cfg, err := openCoordinator(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = coord.Close() }()

			meta := coord.Meta()
			statePath := cfg.StatePath(root)

			if jsonOutput {
				report := statusReport{
					VaultRoot:   root,
					StatePath:   statePath,
					Built:       coord.IsBuilt(),
					FileCount:   meta.FileCount,
					TagCount:    meta.TagCount,
					LastIndexed: meta.LastIndexed,
					Stale:       !meta.LastIndexed.IsZero() && time.Since(meta.LastIndexed) > cfg.Index.MaxAgeDuration(),
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			newRenderer(cmd).Status(meta, coord.IsBuilt(), statePath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output status as JSON")

	return cmd
}
