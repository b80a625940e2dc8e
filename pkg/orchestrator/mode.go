package orchestrator

import (
	"strings"

	pkgerrors "github.com/glorpus-work/downgrade/pkg/errors"
	"github.com/glorpus-work/downgrade/pkg/resolver"
)

// Mode selects what is downgraded and whether bounds are verified.
type Mode string

// Supported modes.
const (
	ModeDeps      Mode = "deps"
	ModeAllDeps   Mode = "alldeps"
	ModeWeakDeps  Mode = "weakdeps"
	ModeForceDeps Mode = "forcedeps"
)

// Modes lists every accepted mode.
var Modes = []Mode{ModeDeps, ModeAllDeps, ModeWeakDeps, ModeForceDeps}

// ModeNames returns the accepted mode names.
func ModeNames() []string {
	names := make([]string, len(Modes))
	for i, m := range Modes {
		names[i] = string(m)
	}
	return names
}

// ParseMode validates s as a mode.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.TrimSpace(s))
	if !m.Valid() {
		return "", pkgerrors.ErrInvalidModeWithDetails(s, ModeNames())
	}
	return m, nil
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeDeps, ModeAllDeps, ModeWeakDeps, ModeForceDeps:
		return true
	}
	return false
}

// Directive returns the resolver directive for m; forcedeps resolves like deps.
func (m Mode) Directive() resolver.Directive {
	if m == ModeForceDeps {
		return resolver.DirectiveDeps
	}
	return resolver.Directive(m)
}

// Verifies reports whether m checks bounds after resolving.
func (m Mode) Verifies() bool {
	return m == ModeForceDeps
}
