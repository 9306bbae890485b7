// Package version models the structured version number carried in a
// solution's manifest: three segments (major.minor.patch) or four
// (major.minor.build.revision), plus an optional prerelease label.
package version

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalid is returned by Parse for version strings with fewer than 3
// numeric segments, more than 4, or non-numeric segments.
var ErrInvalid = errors.New("invalid version")

// Kind selects which segment a bump advances.
type Kind int

const (
	None Kind = iota
	Patch
	Minor
	Major
)

// ParseKind converts a user-supplied bump name to a Kind.
// The empty string means None.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return None, nil
	case "patch":
		return Patch, nil
	case "minor":
		return Minor, nil
	case "major":
		return Major, nil
	default:
		return None, fmt.Errorf("unknown bump kind %q (expected none, patch, minor or major)", name)
	}
}

func (k Kind) String() string {
	switch k {
	case Patch:
		return "patch"
	case Minor:
		return "minor"
	case Major:
		return "major"
	default:
		return "none"
	}
}

// Version is an ordered sequence of 3 or 4 non-negative integer segments
// plus an optional prerelease label. The label is opaque: it is never
// ordered or parsed, only carried and replaced.
type Version struct {
	Segments   []int
	Prerelease string
}

// Parse splits text on the prerelease separator first, then on the segment
// separator. At least 3 numeric segments are required.
func Parse(text string) (Version, error) {
	trimmed := strings.TrimSpace(text)
	base, label, _ := strings.Cut(trimmed, "-")
	parts := strings.Split(base, ".")
	if len(parts) < 3 || len(parts) > 4 {
		return Version{}, fmt.Errorf("%w: %q has %d segments, expected 3 or 4", ErrInvalid, trimmed, len(parts))
	}
	segments := make([]int, len(parts))
	for i, part := range parts {
		if !isDigits(part) {
			return Version{}, fmt.Errorf("%w: segment %q in %q is not a non-negative integer", ErrInvalid, part, trimmed)
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return Version{}, fmt.Errorf("%w: segment %q in %q: %v", ErrInvalid, part, trimmed, err)
		}
		segments[i] = n
	}
	return Version{Segments: segments, Prerelease: label}, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Bump returns a new Version advanced under the given policy. The receiver
// is never modified.
//
//   - Major: segment 0 increments, every lower segment resets to zero.
//   - Minor: segment 1 increments, every lower segment resets to zero.
//   - Patch: the last segment increments, nothing else changes.
//   - None: numeric segments are left untouched.
//
// A non-empty prereleaseOverride replaces the label. Otherwise the label is
// cleared when a numeric bump occurred and kept as-is when kind is None.
func (v Version) Bump(kind Kind, prereleaseOverride string) Version {
	out := Version{
		Segments:   append([]int(nil), v.Segments...),
		Prerelease: v.Prerelease,
	}
	switch kind {
	case Major:
		out.Segments[0]++
		for i := 1; i < len(out.Segments); i++ {
			out.Segments[i] = 0
		}
	case Minor:
		out.Segments[1]++
		for i := 2; i < len(out.Segments); i++ {
			out.Segments[i] = 0
		}
	case Patch:
		out.Segments[len(out.Segments)-1]++
	}
	if prereleaseOverride != "" {
		out.Prerelease = prereleaseOverride
	} else if kind != None {
		out.Prerelease = ""
	}
	return out
}

// String joins the segments with dots and appends the prerelease label after
// a dash when present. Parse(v.String()) always round-trips.
func (v Version) String() string {
	parts := make([]string, len(v.Segments))
	for i, seg := range v.Segments {
		parts[i] = strconv.Itoa(seg)
	}
	text := strings.Join(parts, ".")
	if v.Prerelease != "" {
		text += "-" + v.Prerelease
	}
	return text
}

// Equal reports whether two versions have identical segments and label.
func (v Version) Equal(other Version) bool {
	if len(v.Segments) != len(other.Segments) || v.Prerelease != other.Prerelease {
		return false
	}
	for i := range v.Segments {
		if v.Segments[i] != other.Segments[i] {
			return false
		}
	}
	return true
}
