// Package verify checks that a resolution realized the declared lower bounds
// exactly.
package verify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/glorpus-work/downgrade/pkg/compat"
	pkgerrors "github.com/glorpus-work/downgrade/pkg/errors"
	"github.com/glorpus-work/downgrade/pkg/logger"
	"github.com/hashicorp/go-version"
)

// Mismatch is a package whose resolved version differs from its declared bound.
type Mismatch struct {
	Package  string `json:"package"`
	Expected string `json:"expected"`
	Resolved string `json:"resolved"`
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: expected %s, got %s", m.Package, m.Expected, m.Resolved)
}

// Report is the outcome of one or more verification passes.
type Report struct {
	// Checked lists the packages that were compared, in order.
	Checked    []string   `json:"checked"`
	Mismatches []Mismatch `json:"mismatches"`
	// Missing lists bounded packages the resolution did not contain.
	Missing []string `json:"missing"`
}

// OK reports whether every compared package matched.
func (r *Report) OK() bool {
	return len(r.Mismatches) == 0
}

// Err returns nil for a passing report, otherwise an ErrVerification error
// naming every mismatched package.
func (r *Report) Err() error {
	if r.OK() {
		return nil
	}
	lines := make([]string, len(r.Mismatches))
	for i, m := range r.Mismatches {
		lines[i] = "  " + m.String()
	}
	return fmt.Errorf("%w (%d package(s)):\n%s", pkgerrors.ErrVerification, len(r.Mismatches), strings.Join(lines, "\n"))
}

// Strings renders the mismatches one per entry.
func (r *Report) Strings() []string {
	out := make([]string, len(r.Mismatches))
	for i, m := range r.Mismatches {
		out[i] = m.String()
	}
	return out
}

// Merge appends other's results to r.
func (r *Report) Merge(other *Report) {
	if other == nil {
		return
	}
	r.Checked = append(r.Checked, other.Checked...)
	r.Mismatches = append(r.Mismatches, other.Mismatches...)
	r.Missing = append(r.Missing, other.Missing...)
}

// Check compares every bound against the resolved versions. Packages absent
// from resolved are logged and recorded as missing, not as failures; every
// present package must equal its bound in all components.
func Check(bounds compat.Bounds, resolved map[string]*version.Version) *Report {
	report := &Report{}
	for _, name := range bounds.Names() {
		expected := bounds[name]
		got, ok := resolved[name]
		if !ok {
			logger.Warn("package not found in resolved manifest", logger.Fields{
				"package":  name,
				"expected": expected.String(),
			})
			report.Missing = append(report.Missing, name)
			continue
		}

		report.Checked = append(report.Checked, name)
		if !got.Equal(expected) {
			report.Mismatches = append(report.Mismatches, Mismatch{
				Package:  name,
				Expected: expected.String(),
				Resolved: got.String(),
			})
			logger.Error("lower bound not realized", logger.Fields{
				"package":  name,
				"expected": expected.String(),
				"resolved": got.String(),
			})
			continue
		}
		logger.Debug("lower bound realized", logger.Fields{"package": name, "version": got.String()})
	}
	sort.Strings(report.Missing)
	return report
}
