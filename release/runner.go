// Package release sequences a snapshot run: export, unpack, snapshot both
// trees, diff, decide, bump the version inside the fresh export, mirror it
// into the working tree. The transient archive and unpack directory are
// released on every exit path; cleanup errors are logged and never mask
// the run's own error.
package release

import (
	"context"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"solsnap/manifest"
	"solsnap/mirror"
	"solsnap/snapshot"
	"solsnap/version"
)

// Exporter is the export/unpack collaborator. Both calls block until the
// external tool exits.
type Exporter interface {
	Export(ctx context.Context, solution string, managed bool, archivePath string) error
	Unpack(ctx context.Context, archivePath, destDir string) error
}

// Config is the immutable per-run configuration handed to the Runner.
type Config struct {
	Solution       string
	Managed        bool
	WorkingDir     string
	ManifestFile   string
	VersionElement string
	Bump           version.Kind
	Prerelease     string
	NoisePatterns  []string
	Hasher         snapshot.Hasher
}

// Result carries everything the caller needs for the git hand-off.
type Result struct {
	Decision   Decision
	Bumped     version.Kind
	OldVersion version.Version
	NewVersion version.Version
	Diff       snapshot.DiffResult
	Mirror     mirror.Result
}

// Tag is the tag name derived from the resolved version.
func (r *Result) Tag() string {
	return "v" + r.NewVersion.String()
}

// PreviewFunc runs against a completed dry-run result while the unpacked
// tree is still on disk.
type PreviewFunc func(res *Result, newRoot string) error

// Runner owns one run against one working tree. Runs against the same
// working tree must not overlap: there is no locking protocol, concurrent
// invocations will race (single-writer model).
type Runner struct {
	cfg      Config
	exporter Exporter
}

// NewRunner validates the configuration and builds a Runner.
func NewRunner(cfg Config, exp Exporter) (*Runner, error) {
	if cfg.Solution == "" {
		return nil, fmt.Errorf("solution name is required")
	}
	if cfg.WorkingDir == "" {
		return nil, fmt.Errorf("working directory is required")
	}
	if cfg.Hasher == nil {
		cfg.Hasher = snapshot.SHA256Hasher{}
	}
	if cfg.ManifestFile == "" {
		cfg.ManifestFile = manifest.DefaultFileName
	}
	if cfg.VersionElement == "" {
		cfg.VersionElement = manifest.DefaultVersionElement
	}
	return &Runner{cfg: cfg, exporter: exp}, nil
}

// Run executes the full sequence. The mirror step is best-effort per file:
// the run succeeds even when some paths fail, and Result.Mirror.Failed
// lists them for the caller.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	return r.run(ctx, false, nil)
}

// Preview executes export through decide without mutating the manifest or
// the working tree, invoking fn (if non-nil) before the unpacked tree is
// cleaned up.
func (r *Runner) Preview(ctx context.Context, fn PreviewFunc) (*Result, error) {
	return r.run(ctx, true, fn)
}

func (r *Runner) run(ctx context.Context, dryRun bool, preview PreviewFunc) (*Result, error) {
	filter, err := snapshot.NewNoiseFilter(r.cfg.NoisePatterns)
	if err != nil {
		return nil, err
	}

	// Transient state is acquired up front and released unconditionally.
	archive, err := os.CreateTemp("", "solsnap-export-*.zip")
	if err != nil {
		return nil, fmt.Errorf("failed to create export archive: %w", err)
	}
	archivePath := archive.Name()
	archive.Close()
	defer func() {
		if err := os.Remove(archivePath); err != nil && !os.IsNotExist(err) {
			log.Warnf("cleanup: failed to remove export archive %s: %v", archivePath, err)
		}
	}()

	unpackDir, err := os.MkdirTemp("", "solsnap-unpack-")
	if err != nil {
		return nil, fmt.Errorf("failed to create unpack directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(unpackDir); err != nil {
			log.Warnf("cleanup: failed to remove unpack directory %s: %v", unpackDir, err)
		}
	}()

	// Exporting.
	log.Infof("exporting solution %s (managed=%t)", r.cfg.Solution, r.cfg.Managed)
	if err := r.exporter.Export(ctx, r.cfg.Solution, r.cfg.Managed, archivePath); err != nil {
		return nil, fmt.Errorf("export of %s failed: %w", r.cfg.Solution, err)
	}

	// Unpacking.
	if err := r.exporter.Unpack(ctx, archivePath, unpackDir); err != nil {
		return nil, fmt.Errorf("unpack of %s failed: %w", r.cfg.Solution, err)
	}

	// The version must parse before anything is mutated.
	manifestPath, err := manifest.Locate(unpackDir, r.cfg.ManifestFile)
	if err != nil {
		return nil, err
	}
	versionText, err := manifest.ReadVersion(manifestPath, r.cfg.VersionElement)
	if err != nil {
		return nil, err
	}
	current, err := version.Parse(versionText)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", manifestPath, err)
	}

	// Snapshotting old, then new, with one filter for both.
	builder := snapshot.NewBuilder(r.cfg.Hasher, filter)
	oldSnap, err := builder.Build(r.cfg.WorkingDir)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot working tree: %w", err)
	}
	newSnap, err := builder.Build(unpackDir)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot export: %w", err)
	}

	// Diffing and deciding.
	diff := snapshot.Diff(oldSnap, newSnap)
	decision, effective := Decide(diff, r.cfg.Bump)
	log.Infof("decision: %s (added=%d removed=%d changed=%d, bump=%s)",
		decision, len(diff.Added), len(diff.Removed), len(diff.Changed), effective)

	result := &Result{
		Decision:   decision,
		Bumped:     effective,
		OldVersion: current,
		NewVersion: current,
		Diff:       diff,
	}
	if decision != NoOp {
		result.NewVersion = current.Bump(effective, r.cfg.Prerelease)
	}

	if dryRun {
		if preview != nil {
			if err := preview(result, unpackDir); err != nil {
				return result, err
			}
		}
		return result, nil
	}

	if decision == NoOp {
		return result, nil
	}

	// Bumping: the version advances inside the fresh export, so the mirror
	// carries it into the working tree. Never mutated after this point.
	if err := manifest.WriteVersion(manifestPath, r.cfg.VersionElement, result.NewVersion.String()); err != nil {
		return nil, err
	}
	log.Infof("version %s -> %s", result.OldVersion, result.NewVersion)

	// Mirroring.
	mirrorResult, err := mirror.Mirror(unpackDir, r.cfg.WorkingDir, r.cfg.Hasher)
	if err != nil {
		return nil, err
	}
	result.Mirror = mirrorResult

	return result, nil
}
