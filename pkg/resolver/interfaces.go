//go:generate mockgen -destination=./mocks/resolver.go . Runner

package resolver

import (
	"context"
	"fmt"

	pkgerrors "github.com/glorpus-work/downgrade/pkg/errors"
)

// Directive selects which dependency set the resolver minimizes.
type Directive string

// Supported directives.
const (
	DirectiveDeps     Directive = "deps"
	DirectiveAllDeps  Directive = "alldeps"
	DirectiveWeakDeps Directive = "weakdeps"
)

// ParseDirective validates s as a directive.
func ParseDirective(s string) (Directive, error) {
	switch d := Directive(s); d {
	case DirectiveDeps, DirectiveAllDeps, DirectiveWeakDeps:
		return d, nil
	}
	return "", fmt.Errorf("%w: unknown resolver directive %q", pkgerrors.ErrInvalidMode, s)
}

// Request asks for one directory to be resolved.
type Request struct {
	// Dir contains the project file to resolve; the lock file is written there.
	Dir          string
	Directive    Directive
	JuliaVersion string
}

// Command is an external process invocation.
type Command struct {
	Name string
	Args []string
	// Dir is the working directory; empty means the current one.
	Dir string
}

// Runner executes external commands synchronously.
type Runner interface {
	// Run executes cmd with its output streamed to the logger.
	Run(ctx context.Context, cmd Command) error
	// Output executes cmd and returns its standard output.
	Output(ctx context.Context, cmd Command) (string, error)
}
