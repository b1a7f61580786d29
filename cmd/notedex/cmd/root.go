// Package cmd provides the CLI commands for notedex.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/fernvale/notedex/internal/config"
	"github.com/fernvale/notedex/internal/index"
	"github.com/fernvale/notedex/internal/logging"
	"github.com/fernvale/notedex/internal/profiling"
	"github.com/fernvale/notedex/internal/scanner"
	"github.com/fernvale/notedex/internal/ui"
	"github.com/fernvale/notedex/pkg/version"
)

var (
	vaultFlag  string
	noColor    bool
	debugMode  bool
	cpuProfile string

	loggingCleanup   func()
	profilingCleanup func()
)

// NewRootCmd creates the root command for the notedex CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notedex",
		Short: "Tag index and fuzzy search for markdown note vaults",
		Long: `notedex indexes the frontmatter tags of a markdown vault and answers
tag queries instantly: which tags exist, which notes carry a tag, and
fuzzy search across all tag names.

Run 'notedex index' once, then 'notedex search <query>' from anywhere
inside the vault.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("notedex version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&vaultFlag, "vault", "", "Vault root directory (default: auto-detect upward from cwd)")
	cmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.notedex/logs/")
	cmd.PersistentFlags().StringVar(&cpuProfile, "cpu-profile", "", "Write a CPU profile to the given file")

	cmd.PersistentPreRunE = startDiagnostics
	cmd.PersistentPostRunE = stopDiagnostics

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newTagsCmd())
	cmd.AddCommand(newFilesCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newResetCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startDiagnostics sets up debug logging and CPU profiling if requested.
func startDiagnostics(_ *cobra.Command, _ []string) error {
	if debugMode {
		logger, cleanup, err := logging.Setup(logging.DebugConfig())
		if err != nil {
			return fmt.Errorf("failed to setup debug logging: %w", err)
		}
		loggingCleanup = cleanup
		slog.SetDefault(logger)
		slog.Info("debug logging enabled",
			slog.String("log_file", logging.DefaultLogPath()),
			slog.String("version", version.Version))
	}

	if cpuProfile != "" {
		stop, err := profiling.StartCPU(cpuProfile)
		if err != nil {
			return fmt.Errorf("failed to start CPU profile: %w", err)
		}
		profilingCleanup = stop
	}
	return nil
}

// stopDiagnostics flushes the CPU profile and closes the debug log.
func stopDiagnostics(_ *cobra.Command, _ []string) error {
	if profilingCleanup != nil {
		profilingCleanup()
		profilingCleanup = nil
	}
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	err := NewRootCmd().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

// resolveVault determines the vault root and loads its configuration.
func resolveVault() (string, *config.Config, error) {
	root := vaultFlag
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", nil, fmt.Errorf("cannot determine working directory: %w", err)
		}
		root, err = config.FindVaultRoot(cwd)
		if err != nil {
			return "", nil, err
		}
	}

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return "", nil, fmt.Errorf("vault root is not a directory: %s", root)
	}

	cfg, err := config.Load(root)
	if err != nil {
		return "", nil, err
	}
	if cfg.Vault.Root != "" && vaultFlag == "" {
		root = cfg.Vault.Root
	}
	return root, cfg, nil
}

// newCoordinator builds a coordinator for the resolved vault without
// loading or rebuilding anything yet.
func newCoordinator(root string, cfg *config.Config) (*index.Coordinator, error) {
	return index.New(index.Options{
		VaultRoot:  root,
		StatePath:  cfg.StatePath(root),
		MaxAge:     cfg.Index.MaxAgeDuration(),
		MaxResults: cfg.Search.MaxResults,
		Scan: scanner.ScanOptions{
			Extensions:      cfg.Vault.Extensions,
			ExcludePatterns: cfg.Vault.Exclude,
			Workers:         cfg.Index.Workers,
			MaxFileSize:     cfg.Vault.MaxFileSize,
		},
	})
}

// openCoordinator builds a coordinator for the resolved vault and loads the
// persisted index, rebuilding when it is stale or absent.
func openCoordinator(ctx context.Context) (*index.Coordinator, string, *config.Config, error) {
	root, cfg, err := resolveVault()
	if err != nil {
		return nil, "", nil, err
	}

	coord, err := newCoordinator(root, cfg)
	if err != nil {
		return nil, "", nil, err
	}

	if err := coord.Open(ctx); err != nil {
		_ = coord.Close()
		return nil, "", nil, err
	}
	return coord, root, cfg, nil
}

// newRenderer creates a renderer for the command's stdout. Color is used
// only on interactive terminals.
func newRenderer(cmd *cobra.Command) *ui.Renderer {
	plain := noColor || !ui.IsTerminal(os.Stdout)
	return ui.NewRenderer(cmd.OutOrStdout(), plain)
}
