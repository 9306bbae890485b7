// Package snapshot builds content-addressed maps of directory trees and
// compares them. Content hashing is the canonical change-detection
// mechanism here; version-control status output is deliberately not
// consulted, because it cannot tell export-tool churn from real change.
package snapshot

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Snapshot maps a root-relative, forward-slash path to the hex digest of
// the file's content. Immutable once built; discarded at the end of a run.
type Snapshot map[string]string

// Builder walks a directory tree and produces a Snapshot, applying a noise
// filter so both sides of a later diff see the same universe of paths.
type Builder struct {
	hasher Hasher
	filter *NoiseFilter
}

// NewBuilder creates a Builder. A nil filter snapshots every regular file,
// which is what the mirror step wants.
func NewBuilder(hasher Hasher, filter *NoiseFilter) *Builder {
	return &Builder{hasher: hasher, filter: filter}
}

// Build walks root recursively and returns a Snapshot of its regular files.
// A missing root yields an empty snapshot, not an error: on a first run
// there is no prior working tree to compare against.
func (b *Builder) Build(root string) (Snapshot, error) {
	snap := Snapshot{}

	if _, err := os.Stat(root); os.IsNotExist(err) {
		return snap, nil
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		relativePath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		relativePath = strings.ReplaceAll(relativePath, "\\", "/")

		if b.filter.Match(relativePath) {
			return nil
		}

		digest, err := b.hashWithRetry(path)
		if err != nil {
			return fmt.Errorf("failed to hash %s: %w", relativePath, err)
		}
		snap[relativePath] = digest
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// hashWithRetry retries a transiently unreadable file once (export tools
// occasionally hold short-lived locks) before failing the run.
func (b *Builder) hashWithRetry(path string) (string, error) {
	var digest string
	operation := func() error {
		d, err := b.hasher.HashFile(path)
		if err != nil {
			return err
		}
		digest = d
		return nil
	}

	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(50*time.Millisecond), 1)
	if err := backoff.Retry(operation, policy); err != nil {
		return "", err
	}
	return digest, nil
}
