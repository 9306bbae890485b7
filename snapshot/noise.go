package snapshot

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultNoisePatterns covers paths the export tool rewrites on every run
// without any real change. Canvas app archives get fresh internal metadata
// per export even when their content is byte-identical.
var DefaultNoisePatterns = []string{
	"*.msapp",
}

// noiseRule is a single pattern: either a suffix match or a compiled regexp.
type noiseRule struct {
	suffix string
	re     *regexp.Regexp
}

func (r noiseRule) matches(relativePath string) bool {
	if r.re != nil {
		return r.re.MatchString(relativePath)
	}
	return strings.HasSuffix(relativePath, r.suffix)
}

// NoiseFilter excludes known-volatile paths from snapshot membership.
// A filtered path is absent from the snapshot entirely, not merely marked
// unchanged, so both sides of a diff see the same universe of paths.
type NoiseFilter struct {
	rules []noiseRule
}

// NewNoiseFilter compiles a pattern list into a filter. Patterns starting
// with "*" match as a suffix ("*.msapp" matches any path ending in .msapp),
// patterns starting with "re:" are regular expressions tested against the
// forward-slash relative path, and anything else matches a path suffix at a
// component boundary ("Other/Customizations.xml").
func NewNoiseFilter(patterns []string) (*NoiseFilter, error) {
	filter := &NoiseFilter{}
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		switch {
		case strings.HasPrefix(pattern, "re:"):
			re, err := regexp.Compile(strings.TrimPrefix(pattern, "re:"))
			if err != nil {
				return nil, fmt.Errorf("invalid noise pattern %q: %w", pattern, err)
			}
			filter.rules = append(filter.rules, noiseRule{re: re})
		case strings.HasPrefix(pattern, "*"):
			filter.rules = append(filter.rules, noiseRule{suffix: strings.TrimPrefix(pattern, "*")})
		default:
			re, err := regexp.Compile("(^|/)" + regexp.QuoteMeta(pattern) + "$")
			if err != nil {
				return nil, fmt.Errorf("invalid noise pattern %q: %w", pattern, err)
			}
			filter.rules = append(filter.rules, noiseRule{re: re})
		}
	}
	return filter, nil
}

// Match reports whether relativePath is noise. A nil filter matches nothing.
func (f *NoiseFilter) Match(relativePath string) bool {
	if f == nil {
		return false
	}
	for _, rule := range f.rules {
		if rule.matches(relativePath) {
			return true
		}
	}
	return false
}
