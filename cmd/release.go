package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"solsnap/constants/lipgloss"
	"solsnap/release"
	"solsnap/utils"
)

// releaseCmd: solsnap release
var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Export the solution, advance the version, and mirror the snapshot into the working tree.",
	Long: `The 'release' subcommand runs the full release sequence: export and unpack
the named solution, snapshot both trees, diff them under the noise filter,
decide whether a release-worthy change occurred, bump the manifest version,
mirror the accepted snapshot into the working tree, and hand off to git.
A run with no real changes and no forced bump exits successfully without
touching anything.`,
	Run: func(cmd *cobra.Command, args []string) {
		assumeYes, _ := cmd.Flags().GetBool("yes")

		rootDependencies := handleRootCommand(cmd)
		if rootDependencies == nil {
			return
		}
		handleReleaseCommand(rootDependencies, assumeYes)
	},
}

func init() {
	releaseCmd.Flags().BoolP("yes", "y", false, "Commit and push without asking for confirmation")
	rootCmd.AddCommand(releaseCmd)
}

func handleReleaseCommand(rootDependencies *RootDependencies, assumeYes bool) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := runnerConfig(rootDependencies)
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		return
	}

	runner, err := release.NewRunner(cfg, rootDependencies.Exporter)
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		return
	}

	spinner := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgLightBlue)).WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").WithDelay(100).WithRemoveWhenDone(true)

	spinnerRun, _ := spinner.Start(fmt.Sprintf("Snapshotting %s...", cfg.Solution))
	result, err := runner.Run(ctx)
	spinnerRun.Stop()
	fmt.Print("\r")

	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		os.Exit(1)
	}

	if result.Decision == release.NoOp {
		fmt.Println(lipgloss.Green.Render("✔️ No release-worthy changes; working tree left untouched."))
		return
	}

	printDiffSummary(result.Diff)
	for _, failure := range result.Mirror.Failed {
		fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("⚠ mirror: %s", failure)))
	}
	fmt.Println(lipgloss.BoxStyle.Render(fmt.Sprintf("%s  %s -> %s  (%s bump)",
		cfg.Solution, result.OldVersion, result.NewVersion, result.Bumped)))

	if !rootDependencies.Config.Git.Commit {
		fmt.Println(lipgloss.Yellow.Render("Git commit disabled; working tree is ready for manual commit."))
		return
	}

	if err := rootDependencies.GitOps.CheckGitRepo(); err != nil {
		fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("%v; skipping commit", err)))
		return
	}

	changedPaths, err := rootDependencies.GitOps.ChangedPaths()
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		return
	}
	if len(changedPaths) == 0 {
		fmt.Println(lipgloss.Yellow.Render("Working tree already matches HEAD; nothing to commit."))
		return
	}
	fmt.Println(lipgloss.BlueSky.Render(fmt.Sprintf("git sees %d changed paths.", len(changedPaths))))

	if !assumeYes {
		accepted, err := utils.ConfirmPrompt("Commit and tag this release?", bufio.NewReader(os.Stdin))
		if err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error getting user prompt: %v", err)))
			return
		}
		if !accepted {
			fmt.Println(lipgloss.Yellow.Render("Release left uncommitted."))
			return
		}
	}

	message := fmt.Sprintf(rootDependencies.Config.Git.MessageTemplate, cfg.Solution, result.NewVersion)
	if err := commitRelease(rootDependencies, message, result.Tag()); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		os.Exit(1)
	}

	branch, err := rootDependencies.GitOps.GetBranchName()
	if err != nil {
		branch = "HEAD"
	}
	fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✔️ Release %s committed on %s.", result.Tag(), branch)))
}

func commitRelease(rootDependencies *RootDependencies, message, tag string) error {
	gitConfig := rootDependencies.Config.Git

	if err := rootDependencies.GitOps.AddAll(); err != nil {
		return err
	}
	if err := rootDependencies.GitOps.Commit(message); err != nil {
		return err
	}
	if gitConfig.Tag {
		if err := rootDependencies.GitOps.Tag(tag); err != nil {
			return err
		}
	}
	if gitConfig.Push {
		if err := rootDependencies.GitOps.Push(gitConfig.Tag); err != nil {
			return err
		}
	}
	return nil
}
