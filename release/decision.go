package release

import (
	"solsnap/snapshot"
	"solsnap/version"
)

// Decision is the outcome of a run's policy check.
type Decision int

const (
	// NoOp: nothing changed and no bump was forced; successful
	// zero-mutation exit.
	NoOp Decision = iota
	// BumpOnly: the caller forced a bump with an empty diff; the version
	// advances and the mirror only carries the rewritten manifest.
	BumpOnly
	// BumpAndSync: real change detected; bump and mirror.
	BumpAndSync
)

func (d Decision) String() string {
	switch d {
	case BumpOnly:
		return "bump-only"
	case BumpAndSync:
		return "bump-and-sync"
	default:
		return "no-op"
	}
}

// Decide is the single policy chokepoint: it maps the differ's verdict and
// the caller's bump request to a decision and the effective bump to apply.
// An unspecified request escalates to Patch when the diff is non-empty.
// No other component may infer "should we act" on its own.
func Decide(diff snapshot.DiffResult, requested version.Kind) (Decision, version.Kind) {
	if diff.IsEmpty() {
		if requested == version.None {
			return NoOp, version.None
		}
		return BumpOnly, requested
	}
	if requested == version.None {
		requested = version.Patch
	}
	return BumpAndSync, requested
}
