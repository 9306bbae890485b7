// Package mirror makes a destination tree's file set and contents
// identical to a source tree, including deletions. It is a one-directional
// sync, not a merge.
//
// The guarantee is best-effort per file: a failure on one path does not
// roll back paths already applied, and the run as a whole is NOT
// all-or-nothing. Callers must inspect Result.Failed.
package mirror

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"

	"solsnap/snapshot"
)

// Failure records one path the mirror could not apply.
type Failure struct {
	Path string // destination-relative path
	Op   string // "copy" or "delete"
	Err  error
}

func (f Failure) String() string {
	return fmt.Sprintf("%s %s: %v", f.Op, f.Path, f.Err)
}

// Result reports what Mirror changed and what it could not.
type Result struct {
	Copied  []string
	Deleted []string
	Failed  []Failure
}

// Ops is the number of file operations performed. A second Mirror run over
// unchanged inputs reports zero.
func (r Result) Ops() int {
	return len(r.Copied) + len(r.Deleted)
}

// Mirror syncs dst to src by content hash: files absent or differing in dst
// are copied, files absent from src are deleted, unchanged files are left
// untouched. Directories emptied by deletions are pruned. Idempotent.
//
// No noise filter applies here: the working tree must carry everything the
// export produced, noise files included; noise only affects the decision
// whether to release at all.
func Mirror(src, dst string, hasher snapshot.Hasher) (Result, error) {
	var result Result

	builder := snapshot.NewBuilder(hasher, nil)
	srcSnap, err := builder.Build(src)
	if err != nil {
		return result, fmt.Errorf("failed to snapshot mirror source: %w", err)
	}
	dstSnap, err := builder.Build(dst)
	if err != nil {
		return result, fmt.Errorf("failed to snapshot mirror destination: %w", err)
	}

	for path, digest := range srcSnap {
		if dstSnap[path] == digest {
			continue
		}
		if err := copyFile(filepath.Join(src, filepath.FromSlash(path)), filepath.Join(dst, filepath.FromSlash(path))); err != nil {
			log.Warnf("mirror: copy %s failed: %v", path, err)
			result.Failed = append(result.Failed, Failure{Path: path, Op: "copy", Err: err})
			continue
		}
		result.Copied = append(result.Copied, path)
	}

	for path := range dstSnap {
		if _, ok := srcSnap[path]; ok {
			continue
		}
		if err := os.Remove(filepath.Join(dst, filepath.FromSlash(path))); err != nil {
			log.Warnf("mirror: delete %s failed: %v", path, err)
			result.Failed = append(result.Failed, Failure{Path: path, Op: "delete", Err: err})
			continue
		}
		result.Deleted = append(result.Deleted, path)
	}

	if len(result.Deleted) > 0 {
		pruneEmptyDirs(dst)
	}

	sort.Strings(result.Copied)
	sort.Strings(result.Deleted)
	sort.Slice(result.Failed, func(i, j int) bool { return result.Failed[i].Path < result.Failed[j].Path })

	log.Debugf("mirror: %d copied, %d deleted, %d failed", len(result.Copied), len(result.Deleted), len(result.Failed))
	return result, nil
}

func copyFile(srcPath, dstPath string) error {
	if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		return err
	}

	in, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dstPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// pruneEmptyDirs removes directories under root left empty by deletions,
// deepest first. The root itself is never removed.
func pruneEmptyDirs(root string) {
	var dirs []string
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && path != root {
			dirs = append(dirs, path)
		}
		return nil
	})

	// Deeper paths sort after their parents; walk the list backwards so
	// children go before parents.
	sort.Slice(dirs, func(i, j int) bool {
		return strings.Count(dirs[i], string(os.PathSeparator)) < strings.Count(dirs[j], string(os.PathSeparator))
	})
	for i := len(dirs) - 1; i >= 0; i-- {
		entries, err := os.ReadDir(dirs[i])
		if err != nil || len(entries) > 0 {
			continue
		}
		// Remove fails only if something raced a new entry in; harmless.
		_ = os.Remove(dirs[i])
	}
}
