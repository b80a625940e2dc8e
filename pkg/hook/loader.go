package hook

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// HookFileExtension is the extension of hook script files.
const HookFileExtension = ".tengo"

// LoadHooksFromDir registers every <hook-type>.tengo file found in dir.
// Files with other names are ignored; a missing dir is not an error.
func LoadHooksFromDir(manager HookManager, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("%w: reading hooks directory %s: %w", ErrHookLoad, dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != HookFileExtension {
			continue
		}

		hookType := HookType(strings.TrimSuffix(entry.Name(), HookFileExtension))
		if !hookType.Valid() {
			continue
		}

		content, err := os.ReadFile(filepath.Join(dir, entry.Name())) //nolint:gosec // hooks directory chosen by the user
		if err != nil {
			return fmt.Errorf("%w: reading %s: %w", ErrHookLoad, entry.Name(), err)
		}

		if err := manager.AddHook(Hook{Type: hookType, Content: string(content)}); err != nil {
			return fmt.Errorf("%w: adding %s: %w", ErrHookLoad, hookType, err)
		}
	}

	return nil
}

// HookTemplate generates a template for a hook script
func HookTemplate(hookType HookType) string {
	switch hookType {
	case PreResolve:
		return `// Pre-resolve hook
// Runs before the resolver is invoked for a project directory.
// Available variables:
// - project: string - directory being resolved
// - mode: string - deps, alldeps, weakdeps or forcedeps
// - julia_version: string - target Julia version
// Set err to a message to abort the run.

/*
if mode == "weakdeps" {
    err = "weakdeps is not used in this repository"
}
*/`

	case PostResolve:
		return `// Post-resolve hook
// Runs after the resolver wrote the lock file.
// Available variables: same as pre-resolve hook

/*
fmt := import("fmt")
fmt.println("resolved ", project)
*/`

	case PostVerify:
		return `// Post-verify hook
// Runs after lower bounds were checked in forcedeps mode.
// Available variables: same as pre-resolve hook, plus
// - ok: bool - whether every bound was realized
// - mismatches: array - "pkg: expected X, got Y" entries

/*
if !ok {
    fmt := import("fmt")
    for m in mismatches { fmt.println(m) }
}
*/`

	default:
		return "// Unknown hook type: " + string(hookType)
	}
}
