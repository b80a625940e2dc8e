// Package compat extracts lower-bound versions from Julia [compat] entries.
//
// Only the first alternative of a comma-separated constraint list counts as
// the declared floor. Entries the parser cannot handle (hyphen ranges,
// inequality operators, malformed versions) are left out of the result with
// a warning; callers treat a missing package as "no check", never as a zero
// bound.
package compat

import (
	"fmt"
	"sort"
	"strings"

	"github.com/glorpus-work/downgrade/pkg/errors"
	"github.com/glorpus-work/downgrade/pkg/logger"
	"github.com/glorpus-work/downgrade/pkg/project"
	"github.com/hashicorp/go-version"
)

// JuliaEntry is the compat key constraining the runtime itself.
const JuliaEntry = "julia"

var (
	// ErrHyphenRange is returned for ranges like "1.2 - 1.5".
	ErrHyphenRange = fmt.Errorf("hyphenated ranges are not supported")
	// ErrUnrecognized is returned when the constraint does not start with a version.
	ErrUnrecognized = fmt.Errorf("unrecognized constraint format")
	// ErrInvalidVersion is returned when the version part is not a plain
	// major[.minor[.patch]] version.
	ErrInvalidVersion = fmt.Errorf("invalid version in constraint")
)

// Bounds maps a package name to its declared lower bound.
type Bounds map[string]*version.Version

// Names returns the packages in lexical order.
func (b Bounds) Names() []string {
	names := make([]string, 0, len(b))
	for name := range b {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LowerBound returns the lower bound asserted by a single constraint
// expression such as "0.21", "^1.2.3", "~0.4" or "=2". Missing minor and
// patch components are zero.
func LowerBound(constraint string) (*version.Version, error) {
	first, _, _ := strings.Cut(constraint, ",")
	first = strings.TrimSpace(first)

	if strings.Contains(first, "-") {
		return nil, fmt.Errorf("%w: %q", ErrHyphenRange, constraint)
	}

	first = strings.TrimSpace(strings.TrimLeft(first, "^~="))
	if first == "" || first[0] < '0' || first[0] > '9' {
		return nil, fmt.Errorf("%w: %q", ErrUnrecognized, constraint)
	}

	// At most major.minor.patch; build metadata is not part of a bound.
	if strings.Count(first, ".") > 2 || strings.Contains(first, "+") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidVersion, constraint)
	}
	v, err := version.NewVersion(first)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidVersion, constraint, err)
	}
	return v, nil
}

// LowerBounds extracts the lower bound of every compat entry except julia
// and the ignored packages. Entries that do not yield a bound are logged and
// skipped.
func LowerBounds(entries map[string]string, ignore project.PackageSet) Bounds {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	bounds := make(Bounds, len(entries))
	for _, name := range names {
		if name == JuliaEntry || ignore.Has(name) {
			continue
		}
		v, err := LowerBound(entries[name])
		if err != nil {
			logger.Warn("skipping compat entry", logger.Fields{
				"package":    name,
				"constraint": entries[name],
				"reason":     err.Error(),
			})
			continue
		}
		bounds[name] = v
	}
	return bounds
}

// LowerBoundsFromManifest extracts the lower bounds declared in a project's
// [compat] section.
func LowerBoundsFromManifest(m *project.Manifest, ignore project.PackageSet) Bounds {
	return LowerBounds(m.Compat(), ignore)
}

// LowerBoundsFromText parses raw project file content and extracts its
// lower bounds. Invalid TOML is an error; individual bad entries are not.
func LowerBoundsFromText(text string, ignore project.PackageSet) (Bounds, error) {
	m, err := project.Parse([]byte(text))
	if err != nil {
		return nil, errors.Wrap(err, "reading compat section")
	}
	return LowerBoundsFromManifest(m, ignore), nil
}

// LowerBoundsFromFile loads the project file at path and extracts its lower bounds.
func LowerBoundsFromFile(path string, ignore project.PackageSet) (Bounds, error) {
	m, err := project.Load(path)
	if err != nil {
		return nil, err
	}
	return LowerBoundsFromManifest(m, ignore), nil
}
