//go:generate mockgen -destination=./mocks/orchestrator.go . Resolver,HookRunner

package orchestrator

import (
	"context"

	"github.com/glorpus-work/downgrade/pkg/hook"
	"github.com/glorpus-work/downgrade/pkg/resolver"
	"github.com/glorpus-work/downgrade/pkg/verify"
)

// Resolver is the external resolution step used by the orchestrator.
type Resolver interface {
	Resolve(ctx context.Context, req resolver.Request) error
}

// HookRunner runs user scripts at fixed points of a run.
type HookRunner interface {
	Execute(hookType hook.HookType, ctx hook.HookContext) error
}

// Orchestrator sequences resolution and verification over project directories.
type Orchestrator struct {
	Resolver Resolver
	Scripts  HookRunner // optional
	Hooks    Hooks      // Hooks for progress and event notifications
}

// Event represents a simple progress notification.
type Event struct {
	Phase string // merging|resolving|patching|verifying|done|error
	ID    string // project directory
	Msg   string
}

// Hooks carries callbacks for progress events.
type Hooks struct {
	OnEvent func(Event)
}

// Options control a run.
type Options struct {
	Mode Mode
	// Projects are the directories to resolve; "." is the main project.
	Projects []string
	// Skip lists packages whose bounds are not verified.
	Skip []string
	// JuliaVersion is the concrete target runtime version.
	JuliaVersion string
	// Root is the directory Projects are relative to; empty means the working directory.
	Root string
	// TempDir is where merged projects are written; empty uses the system default.
	TempDir string
}

// Result summarizes a run.
type Result struct {
	Mode Mode `json:"mode"`
	// Resolved lists the resolved directories in order.
	Resolved []string `json:"resolved"`
	// Report is nil unless the mode verifies bounds.
	Report *verify.Report `json:"report,omitempty"`
}
