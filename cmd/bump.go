package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"solsnap/constants/lipgloss"
	"solsnap/manifest"
	"solsnap/version"
)

// bumpCmd: solsnap bump
var bumpCmd = &cobra.Command{
	Use:   "bump",
	Short: "Bump the manifest version in the working tree, without exporting.",
	Long: `The 'bump' subcommand locates the version manifest in the working tree,
advances its version under the requested policy, and rewrites only the
version element. Useful for correcting a version out of band; no export,
diff, or mirror is involved.`,
	Run: func(cmd *cobra.Command, args []string) {
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		rootDependencies := handleRootCommand(cmd)
		if rootDependencies == nil {
			return
		}
		handleBumpCommand(rootDependencies, dryRun)
	},
}

func init() {
	bumpCmd.Flags().Bool("dry-run", false, "Print the bumped version without writing the manifest")
	rootCmd.AddCommand(bumpCmd)
}

func handleBumpCommand(rootDependencies *RootDependencies, dryRun bool) {
	cfg := rootDependencies.Config

	kind, err := version.ParseKind(cfg.Bump)
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		return
	}
	if kind == version.None && cfg.Prerelease == "" {
		fmt.Println(lipgloss.Yellow.Render("Nothing to do: pass --bump patch|minor|major or --prerelease."))
		return
	}

	manifestPath, err := manifest.Locate(cfg.WorkingDir, cfg.ManifestFile)
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		return
	}

	versionText, err := manifest.ReadVersion(manifestPath, cfg.VersionElement)
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		return
	}

	current, err := version.Parse(versionText)
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		return
	}

	next := current.Bump(kind, cfg.Prerelease)

	if dryRun {
		fmt.Println(lipgloss.Info.Render(fmt.Sprintf("%s -> %s (dry run, manifest unchanged)", current, next)))
		return
	}

	if err := manifest.WriteVersion(manifestPath, cfg.VersionElement, next.String()); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		return
	}

	fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✔️ %s: %s -> %s", manifestPath, current, next)))
}
