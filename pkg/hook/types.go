// Package hook runs user-supplied Tengo scripts around resolution and
// verification.
package hook

// HookType represents the type of hook.
type HookType string

// Supported hook types.
const (
	PreResolve  HookType = "pre-resolve"
	PostResolve HookType = "post-resolve"
	PostVerify  HookType = "post-verify"
)

// Types lists every hook type in execution order.
var Types = []HookType{PreResolve, PostResolve, PostVerify}

// Valid reports whether t is a known hook type.
func (t HookType) Valid() bool {
	switch t {
	case PreResolve, PostResolve, PostVerify:
		return true
	}
	return false
}

// Hook represents a hook script with its type and content.
type Hook struct {
	Type    HookType
	Content string
}

// HookContext contains information passed to hooks.
type HookContext struct {
	// Project is the directory being resolved or verified.
	Project      string
	Mode         string
	JuliaVersion string
	Vars         map[string]interface{}
}

// HookManager defines the interface for managing hooks.
type HookManager interface {
	// Execute runs the specified hook type with the given context
	Execute(hookType HookType, ctx HookContext) error

	// AddHook adds a new hook
	AddHook(hook Hook) error

	// RemoveHook removes a hook of the specified type
	RemoveHook(hookType HookType) error

	// HasHook checks if a hook of the specified type exists
	HasHook(hookType HookType) bool
}
