package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

// newFilesCmd creates the files command.
func newFilesCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "files <tag>",
		Short: "List the notes carrying a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			coord, _, _, err := openCoordinator(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = coord.Close() }()

			paths := coord.FilesForTag(args[0])

			if jsonOutput {
				if paths == nil {
					paths = []string{}
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(paths)
			}

			newRenderer(cmd).FileList(args[0], paths)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output paths as JSON")

	return cmd
}
