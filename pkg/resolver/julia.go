// Package resolver runs the external Julia resolver that pins a project's
// dependencies to their lowest compatible versions, and installs it.
package resolver

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	pkgerrors "github.com/glorpus-work/downgrade/pkg/errors"
	"github.com/glorpus-work/downgrade/pkg/logger"
	"github.com/hashicorp/go-version"
	"mvdan.cc/sh/v3/shell"
)

// DefaultJuliaCommand is used when no command is configured.
const DefaultJuliaCommand = "julia"

// CurrentJuliaVersion is the sentinel for "the running Julia's major.minor".
const CurrentJuliaVersion = "1"

// ParseCommand splits a shell-quoted command line such as
// `julia +1.10 --startup-file=no` into arguments. Environment references
// are expanded from the process environment.
func ParseCommand(line string) ([]string, error) {
	if strings.TrimSpace(line) == "" {
		return []string{DefaultJuliaCommand}, nil
	}
	fields, err := shell.Fields(line, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: julia command %q: %w", pkgerrors.ErrConfigValidation, line, err)
	}
	if len(fields) == 0 {
		return []string{DefaultJuliaCommand}, nil
	}
	return fields, nil
}

// Julia resolves projects with Resolver.jl's bin/resolve.jl script.
type Julia struct {
	// Command is the julia executable followed by fixed arguments.
	Command []string
	// Dir is the resolver checkout containing bin/resolve.jl.
	Dir    string
	Runner Runner
}

// NewJulia creates a resolver from a julia command line and a resolver checkout.
func NewJulia(commandLine, dir string, runner Runner) (*Julia, error) {
	command, err := ParseCommand(commandLine)
	if err != nil {
		return nil, err
	}
	if runner == nil {
		runner = NewExecRunner()
	}
	return &Julia{Command: command, Dir: dir, Runner: runner}, nil
}

func (j *Julia) command(args ...string) Command {
	all := make([]string, 0, len(j.Command)-1+len(args))
	all = append(all, j.Command[1:]...)
	all = append(all, args...)
	return Command{Name: j.Command[0], Args: all}
}

// Resolve runs bin/resolve.jl against req.Dir. The directory is made
// absolute first since the script runs with it as its working directory.
func (j *Julia) Resolve(ctx context.Context, req Request) error {
	if _, err := ParseDirective(string(req.Directive)); err != nil {
		return err
	}
	dir, err := filepath.Abs(req.Dir)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", pkgerrors.ErrResolution, req.Dir, err)
	}
	binDir := filepath.Join(j.Dir, "bin")
	cmd := j.command(
		"--project="+binDir,
		filepath.Join(binDir, "resolve.jl"),
		dir,
		"--min=@"+string(req.Directive),
		"--julia="+req.JuliaVersion,
	)
	cmd.Dir = dir

	logger.Info("resolving", logger.Fields{
		"project":   dir,
		"directive": string(req.Directive),
		"julia":     req.JuliaVersion,
	})
	if err := j.Runner.Run(ctx, cmd); err != nil {
		return fmt.Errorf("%w: %s: %w", pkgerrors.ErrResolution, dir, err)
	}
	return nil
}

// Version returns the running Julia's major.minor version.
func (j *Julia) Version(ctx context.Context) (string, error) {
	out, err := j.Runner.Output(ctx, j.command("-e", `print(VERSION.major, ".", VERSION.minor)`))
	if err != nil {
		return "", fmt.Errorf("%w: querying julia version: %w", pkgerrors.ErrInvalidJuliaVersion, err)
	}
	v := strings.TrimSpace(out)
	if _, err := version.NewVersion(v); err != nil {
		return "", fmt.Errorf("%w: julia reported %q", pkgerrors.ErrInvalidJuliaVersion, v)
	}
	return v, nil
}

// TargetJuliaVersion resolves the requested runtime version. The "1"
// sentinel (or an empty value) is replaced by the running Julia's
// major.minor; anything else must be a valid version and is returned as is.
func TargetJuliaVersion(ctx context.Context, j *Julia, requested string) (string, error) {
	requested = strings.TrimSpace(requested)
	if requested == "" || requested == CurrentJuliaVersion {
		v, err := j.Version(ctx)
		if err != nil {
			return "", err
		}
		logger.Debug("using running julia version", logger.Fields{"version": v})
		return v, nil
	}
	if _, err := version.NewVersion(requested); err != nil {
		return "", fmt.Errorf("%w: %q", pkgerrors.ErrInvalidJuliaVersion, requested)
	}
	return requested, nil
}
