package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fernvale/notedex/configs"
)

// newInitCmd creates the init command.
func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Create a starter .notedex.yaml in a vault",
		Long: `Write a commented .notedex.yaml configuration template into the vault
root, which also marks the directory as a vault for auto-detection.
Defaults to the current directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			abs, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("cannot resolve directory: %w", err)
			}
			info, err := os.Stat(abs)
			if err != nil || !info.IsDir() {
				return fmt.Errorf("not a directory: %s", abs)
			}

			path := filepath.Join(abs, ".notedex.yaml")
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			if err := os.WriteFile(path, []byte(configs.VaultConfigTemplate), 0o644); err != nil {
				return fmt.Errorf("cannot write config: %w", err)
			}

			newRenderer(cmd).Printf("created %s", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing .notedex.yaml")

	return cmd
}
