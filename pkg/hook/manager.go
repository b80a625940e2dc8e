package hook

import (
	"sync"

	"github.com/glorpus-work/downgrade/pkg/errors"
	"github.com/glorpus-work/downgrade/pkg/logger"
)

// DefaultHookManager is the default implementation of HookManager.
type DefaultHookManager struct {
	executor *TengoExecutor
	mutex    sync.RWMutex
}

// NewHookManager creates a new hook manager.
func NewHookManager() *DefaultHookManager {
	return &DefaultHookManager{
		executor: NewTengoExecutor(),
	}
}

// Execute runs the specified hook type with the given context.
func (m *DefaultHookManager) Execute(hookType HookType, ctx HookContext) error {
	if !m.HasHook(hookType) {
		return nil
	}

	// Copy the context to prevent modifications
	ctxCopy := ctx
	if ctxCopy.Vars == nil {
		ctxCopy.Vars = make(map[string]interface{})
	}

	logger.Debug("running hook", logger.Fields{"hook": string(hookType), "project": ctx.Project})
	return m.executor.Execute(hookType, ctxCopy)
}

// AddHook adds a new hook.
func (m *DefaultHookManager) AddHook(hook Hook) error {
	if hook.Type == "" {
		return ErrHookTypeEmpty
	}
	if !hook.Type.Valid() {
		return ErrUnsupportedHookEvent(string(hook.Type))
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.executor.AddScript(hook.Type, hook.Content)
	return nil
}

// AddHooks registers every non-empty script of the map.
func (m *DefaultHookManager) AddHooks(scripts map[HookType]string) error {
	for _, t := range Types {
		content, ok := scripts[t]
		if !ok || content == "" {
			continue
		}
		if err := m.AddHook(Hook{Type: t, Content: content}); err != nil {
			return err
		}
	}
	for t := range scripts {
		if !t.Valid() {
			return ErrUnsupportedHookEvent(string(t))
		}
	}
	return nil
}

// RemoveHook removes a hook of the specified type.
func (m *DefaultHookManager) RemoveHook(hookType HookType) error {
	if hookType == "" {
		return ErrHookTypeEmpty
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.executor.RemoveScript(hookType)
	return nil
}

// HasHook checks if a hook of the specified type exists.
func (m *DefaultHookManager) HasHook(hookType HookType) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return m.executor.HasScript(hookType)
}

// ExecuteAll executes every registered hook in execution order.
func (m *DefaultHookManager) ExecuteAll(ctx HookContext) error {
	for _, hookType := range Types {
		if m.HasHook(hookType) {
			if err := m.Execute(hookType, ctx); err != nil {
				return errors.Wrapf(err, "error executing hook %s", hookType)
			}
		}
	}

	return nil
}
