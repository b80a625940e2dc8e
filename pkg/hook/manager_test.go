package hook_test

import (
	"os"
	"path/filepath"
	"testing"

	pkgerrors "github.com/glorpus-work/downgrade/pkg/errors"
	"github.com/glorpus-work/downgrade/pkg/hook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHookManager(t *testing.T) {
	manager := hook.NewHookManager()
	assert.NotNil(t, manager, "NewHookManager should return a non-nil manager")
}

func TestAddAndExecuteHook(t *testing.T) {
	manager := hook.NewHookManager()
	ctx := hook.HookContext{
		Project:      "/work/pkg",
		Mode:         "deps",
		JuliaVersion: "1.10",
		Vars: map[string]interface{}{
			"testVar": "testValue",
		},
	}

	err := manager.AddHook(hook.Hook{
		Type:    hook.PreResolve,
		Content: `// Simple hook that doesn't return anything`,
	})
	require.NoError(t, err, "AddHook should not return an error for valid hook")

	err = manager.Execute(hook.PreResolve, ctx)
	require.NoError(t, err, "Execute should not return an error for valid hook")
}

func TestExecute_NoHookRegistered(t *testing.T) {
	manager := hook.NewHookManager()
	require.NoError(t, manager.Execute(hook.PostVerify, hook.HookContext{}))
}

func TestExecute_ScriptAborts(t *testing.T) {
	manager := hook.NewHookManager()
	require.NoError(t, manager.AddHook(hook.Hook{
		Type:    hook.PreResolve,
		Content: `if mode == "weakdeps" { err = "weakdeps disabled for " + project }`,
	}))

	require.NoError(t, manager.Execute(hook.PreResolve, hook.HookContext{Project: "/p", Mode: "deps"}))

	err := manager.Execute(hook.PreResolve, hook.HookContext{Project: "/p", Mode: "weakdeps"})
	require.ErrorIs(t, err, pkgerrors.ErrHookScript)
	assert.Contains(t, err.Error(), "weakdeps disabled for /p")
}

func TestExecute_ErrorValue(t *testing.T) {
	manager := hook.NewHookManager()
	require.NoError(t, manager.AddHook(hook.Hook{
		Type:    hook.PostResolve,
		Content: `err = error("lock file rejected")`,
	}))

	err := manager.Execute(hook.PostResolve, hook.HookContext{})
	require.ErrorIs(t, err, pkgerrors.ErrHookScript)
	assert.Contains(t, err.Error(), "lock file rejected")
}

func TestExecute_PostVerifyVariables(t *testing.T) {
	manager := hook.NewHookManager()
	require.NoError(t, manager.AddHook(hook.Hook{
		Type: hook.PostVerify,
		Content: `
if !ok && len(mismatches) == 2 && julia_version == "1.10" {
	err = mismatches[0]
}`,
	}))

	err := manager.Execute(hook.PostVerify, hook.HookContext{
		JuliaVersion: "1.10",
		Vars: map[string]interface{}{
			"ok":         false,
			"mismatches": []string{"A: expected 1.0.0, got 1.0.1", "B: expected 2.0.0, got 2.1.0"},
		},
	})
	require.ErrorIs(t, err, pkgerrors.ErrHookScript)
	assert.Contains(t, err.Error(), "A: expected 1.0.0, got 1.0.1")
}

func TestExecute_CompileError(t *testing.T) {
	manager := hook.NewHookManager()
	require.NoError(t, manager.AddHook(hook.Hook{Type: hook.PreResolve, Content: `this is not tengo (`}))

	err := manager.Execute(hook.PreResolve, hook.HookContext{})
	require.ErrorIs(t, err, pkgerrors.ErrHookExecution)
}

func TestAddHook_Invalid(t *testing.T) {
	manager := hook.NewHookManager()
	require.ErrorIs(t, manager.AddHook(hook.Hook{}), hook.ErrHookTypeEmpty)
	require.Error(t, manager.AddHook(hook.Hook{Type: "pre-install", Content: "x := 1"}))
}

func TestAddHooks(t *testing.T) {
	manager := hook.NewHookManager()
	err := manager.AddHooks(map[hook.HookType]string{
		hook.PreResolve:  "a := 1",
		hook.PostResolve: "",
	})
	require.NoError(t, err)
	assert.True(t, manager.HasHook(hook.PreResolve))
	assert.False(t, manager.HasHook(hook.PostResolve))

	err = manager.AddHooks(map[hook.HookType]string{"post-install": "a := 1"})
	require.Error(t, err)
}

func TestHasHook(t *testing.T) {
	manager := hook.NewHookManager()

	assert.False(t, manager.HasHook(hook.PreResolve), "Should not have hook before adding")

	err := manager.AddHook(hook.Hook{
		Type:    hook.PreResolve,
		Content: `// Test hook`,
	})
	require.NoError(t, err)

	assert.True(t, manager.HasHook(hook.PreResolve), "Should have hook after adding")
}

func TestRemoveHook(t *testing.T) {
	manager := hook.NewHookManager()

	err := manager.AddHook(hook.Hook{
		Type:    hook.PostVerify,
		Content: `// Test hook`,
	})
	require.NoError(t, err)

	err = manager.RemoveHook(hook.PostVerify)
	require.NoError(t, err, "RemoveHook should not return an error for existing hook")

	assert.False(t, manager.HasHook(hook.PostVerify), "Should not have hook after removal")
	require.ErrorIs(t, manager.RemoveHook(""), hook.ErrHookTypeEmpty)
}

func TestExecuteAll(t *testing.T) {
	manager := hook.NewHookManager()
	require.NoError(t, manager.AddHook(hook.Hook{Type: hook.PreResolve, Content: `a := 1`}))
	require.NoError(t, manager.AddHook(hook.Hook{Type: hook.PostVerify, Content: `err = "stop"`}))

	err := manager.ExecuteAll(hook.HookContext{})
	require.ErrorIs(t, err, pkgerrors.ErrHookScript)
	assert.Contains(t, err.Error(), "post-verify")
}

func TestLoadHooksFromDir(t *testing.T) {
	hooksDir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(hooksDir, "pre-resolve.tengo"), []byte(`result := "Test hook executed"`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(hooksDir, "pre-install.tengo"), []byte(`x := 1`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(hooksDir, "post-verify.txt"), []byte(`x := 1`), 0o644))

	manager := hook.NewHookManager()
	require.NoError(t, hook.LoadHooksFromDir(manager, hooksDir))

	assert.True(t, manager.HasHook(hook.PreResolve), "Should have loaded the pre-resolve hook")
	assert.False(t, manager.HasHook(hook.PostVerify))

	require.NoError(t, hook.LoadHooksFromDir(manager, filepath.Join(hooksDir, "missing")))
}

func TestHookTemplate(t *testing.T) {
	tests := []struct {
		name     string
		hookType hook.HookType
		expected string
	}{
		{"PreResolve", hook.PreResolve, "Pre-resolve hook"},
		{"PostResolve", hook.PostResolve, "Post-resolve hook"},
		{"PostVerify", hook.PostVerify, "Post-verify hook"},
		{"Unknown", hook.HookType("unknown"), "Unknown hook type"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			template := hook.HookTemplate(tc.hookType)
			assert.Contains(t, template, tc.expected, "Template should contain expected content")
		})
	}
}
