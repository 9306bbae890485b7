package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"solsnap/constants/lipgloss"
	"solsnap/release"
	"solsnap/report"
)

// diffCmd: solsnap diff
var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Preview what a release would change, without touching anything.",
	Long: `The 'diff' subcommand exports and unpacks the solution, diffs it against
the working tree under the noise filter, and prints the classified paths plus
unified diffs for changed text files. Nothing is bumped or mirrored; the
transient export is cleaned up as usual.`,
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		if rootDependencies == nil {
			return
		}
		handleDiffCommand(rootDependencies)
	},
}

func init() {
	rootCmd.AddCommand(diffCmd)
}

func handleDiffCommand(rootDependencies *RootDependencies) {
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

	spinnerRun, _ := spinner.Start(fmt.Sprintf("Exporting %s for preview...", cfg.Solution))

	theme := rootDependencies.Config.Theme
	result, err := runner.Preview(ctx, func(res *release.Result, newRoot string) error {
		spinnerRun.Stop()
		fmt.Print("\r")

		if res.Diff.IsEmpty() {
			return nil
		}
		printDiffSummary(res.Diff)
		fmt.Println()
		return report.Render(os.Stdout, cfg.WorkingDir, newRoot, res.Diff.Changed, report.DefaultMaxBytes, theme)
	})

	spinnerRun.Stop()

	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		os.Exit(1)
	}

	if result.Decision == release.NoOp {
		fmt.Println(lipgloss.Green.Render("✔️ Export matches the working tree; a release would be a no-op."))
		return
	}

	fmt.Println(lipgloss.Info.Render(fmt.Sprintf("A release would bump %s -> %s (%s).",
		result.OldVersion, result.NewVersion, result.Decision)))
}
