package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"solsnap/config"
	"solsnap/constants/lipgloss"
	"solsnap/exporter"
	"solsnap/gitops"
	"solsnap/release"
	"solsnap/snapshot"
	"solsnap/version"
)

// rootCmd: solsnap
var rootCmd = &cobra.Command{
	Use:   "solsnap",
	Short: "Snapshot, version and release exported solutions",
	Long: `Solsnap pulls a fresh export of a named solution, compares it against the
last-committed working copy by content hash, decides whether the export
represents a real change (filtering export-tool noise), advances the version
in the solution manifest, and mirrors the accepted snapshot into the working
tree ready for git.`,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// RootDependencies holds everything the subcommands share.
type RootDependencies struct {
	Config   *config.Config
	Cwd      string
	Hasher   snapshot.Hasher
	Exporter release.Exporter
	GitOps   *gitops.GitOps
}

func handleRootCommand(cmd *cobra.Command) *RootDependencies {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error getting current directory: %v", err)))
		return nil
	}

	cfg := config.LoadConfigs(rootCmd, cwd)
	if cfg.WorkingDir == "" {
		cfg.WorkingDir = cwd
	}

	if cfg.Verbose {
		log.SetLevel(log.DebugLevel)
	}

	hasher, err := snapshot.HasherByName(cfg.Hasher)
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		return nil
	}

	return &RootDependencies{
		Config:   cfg,
		Cwd:      cwd,
		Hasher:   hasher,
		Exporter: exporter.New(cfg.Tool),
		GitOps:   gitops.New(cfg.WorkingDir),
	}
}

// runnerConfig translates the loaded configuration into the Runner's
// immutable per-run config.
func runnerConfig(deps *RootDependencies) (release.Config, error) {
	bumpKind, err := version.ParseKind(deps.Config.Bump)
	if err != nil {
		return release.Config{}, err
	}
	return release.Config{
		Solution:       deps.Config.Solution,
		Managed:        deps.Config.Managed,
		WorkingDir:     deps.Config.WorkingDir,
		ManifestFile:   deps.Config.ManifestFile,
		VersionElement: deps.Config.VersionElement,
		Bump:           bumpKind,
		Prerelease:     deps.Config.Prerelease,
		NoisePatterns:  deps.Config.NoisePatterns,
		Hasher:         deps.Hasher,
	}, nil
}

func printDiffSummary(diff snapshot.DiffResult) {
	for _, path := range diff.Added {
		fmt.Println(lipgloss.Green.Render("  + " + path))
	}
	for _, path := range diff.Removed {
		fmt.Println(lipgloss.Red.Render("  - " + path))
	}
	for _, path := range diff.Changed {
		fmt.Println(lipgloss.Yellow.Render("  ~ " + path))
	}
}

func init() {
	config.InitFlags(rootCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		os.Exit(1)
	}
}
