// Package report renders human-readable previews of a snapshot diff:
// classic unified patches for changed text files, highlighted for the
// terminal.
package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/alecthomas/chroma/v2/quick"
	difflib "github.com/pmezard/go-difflib/difflib"
)

// DefaultMaxBytes is the size guardrail on old+new content; larger files
// get a placeholder instead of a patch.
const DefaultMaxBytes = 256 * 1024

const defaultContext = 3

// Unified produces a unified patch (---/+++ headers, @@ hunks) for one
// changed file.
func Unified(name string, oldContent, newContent []byte) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(oldContent)),
		B:        difflib.SplitLines(string(newContent)),
		FromFile: "a/" + name,
		ToFile:   "b/" + name,
		Context:  defaultContext,
	}
	return difflib.GetUnifiedDiffString(diff)
}

// Highlight writes patch to w with terminal colors using the diff lexer.
func Highlight(w io.Writer, patch string, theme string) error {
	return quick.Highlight(w, patch, "diff", "terminal256", theme)
}

// Render writes unified patches for every changed path, reading the old
// content from oldRoot and the new from newRoot. Binary files and files
// over maxBytes are summarized instead of diffed.
func Render(w io.Writer, oldRoot, newRoot string, changed []string, maxBytes int, theme string) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	for _, path := range changed {
		oldContent, err := os.ReadFile(filepath.Join(oldRoot, filepath.FromSlash(path)))
		if err != nil {
			return fmt.Errorf("failed to read old %s: %w", path, err)
		}
		newContent, err := os.ReadFile(filepath.Join(newRoot, filepath.FromSlash(path)))
		if err != nil {
			return fmt.Errorf("failed to read new %s: %w", path, err)
		}

		if isBinary(oldContent) || isBinary(newContent) {
			fmt.Fprintf(w, "--- a/%s\n+++ b/%s\n(binary file changed, %d -> %d bytes)\n\n", path, path, len(oldContent), len(newContent))
			continue
		}
		if len(oldContent)+len(newContent) > maxBytes {
			fmt.Fprintf(w, "--- a/%s\n+++ b/%s\n(diff omitted, oversize)\n\n", path, path)
			continue
		}

		patch, err := Unified(path, oldContent, newContent)
		if err != nil {
			return fmt.Errorf("failed to diff %s: %w", path, err)
		}
		if err := Highlight(w, patch, theme); err != nil {
			// Highlighting is cosmetic; fall back to the raw patch.
			fmt.Fprint(w, patch)
		}
		fmt.Fprintln(w)
	}
	return nil
}

func isBinary(content []byte) bool {
	return bytes.IndexByte(content, 0) >= 0
}
