// Package manifest locates the version manifest inside an exported solution
// tree and reads or rewrites the text of its single version element.
//
// The rewrite is a targeted element-text replacement rather than an XML
// round trip: re-serializing the whole document would churn attribute
// order and indentation, and the differ would then see changes the export
// never made. Every byte outside the element text stays untouched.
package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
)

// DefaultFileName is the manifest the export tool writes at the solution
// root.
const DefaultFileName = "Solution.xml"

// DefaultVersionElement is the XML element holding the version text.
const DefaultVersionElement = "Version"

// ErrVersionElementNotFound is returned when the manifest has no version
// element.
var ErrVersionElementNotFound = errors.New("version element not found")

// Locate walks root and returns the path of the first file named fileName.
func Locate(root, fileName string) (string, error) {
	var found string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == fileName {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to locate %s under %s: %w", fileName, root, err)
	}
	if found == "" {
		return "", fmt.Errorf("no %s found under %s", fileName, root)
	}
	return found, nil
}

func versionPattern(element string) *regexp.Regexp {
	quoted := regexp.QuoteMeta(element)
	return regexp.MustCompile(`(<` + quoted + `>\s*)([^<]*?)(\s*</` + quoted + `>)`)
}

// ReadVersion returns the text of the single version element in the file
// at path. Exactly one element is required: zero is
// ErrVersionElementNotFound, more than one is ambiguous and also an error.
func ReadVersion(path, element string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	matches := versionPattern(element).FindAllSubmatch(content, -1)
	if len(matches) == 0 {
		return "", fmt.Errorf("%s: %w", path, ErrVersionElementNotFound)
	}
	if len(matches) > 1 {
		return "", fmt.Errorf("%s: found %d <%s> elements, expected exactly one", path, len(matches), element)
	}
	return string(matches[0][2]), nil
}

// WriteVersion replaces the text of the single version element, leaving
// every other byte of the document as-is.
func WriteVersion(path, element, versionText string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	pattern := versionPattern(element)
	matches := pattern.FindAllSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return fmt.Errorf("%s: %w", path, ErrVersionElementNotFound)
	}
	if len(matches) > 1 {
		return fmt.Errorf("%s: found %d <%s> elements, expected exactly one", path, len(matches), element)
	}

	// Splice the new text between the element tags, keeping surrounding
	// whitespace captured by the pattern.
	loc := matches[0]
	var out []byte
	out = append(out, content[:loc[3]]...) // up to end of opening tag group
	out = append(out, []byte(versionText)...)
	out = append(out, content[loc[6]:]...) // from start of closing tag group

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat manifest %s: %w", path, err)
	}
	if err := os.WriteFile(path, out, info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to write manifest %s: %w", path, err)
	}
	return nil
}
