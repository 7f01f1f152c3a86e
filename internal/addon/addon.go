// Package addon runs the module lifecycle: enable, disable and global reload.
package addon

import (
	"fmt"
	"log/slog"
	"sync"
)

// Module is a feature that can be switched on and off at runtime.
type Module interface {
	Name() string
	Enable() error
	Disable() error
}

// Dependencies holds all dependencies for the Manager.
type Dependencies struct {
	// Enabled reports whether a module is switched on in configuration.
	Enabled func(name string) bool
	// ReloadHooks run in order between disabling and enabling during ReloadAll.
	ReloadHooks []func() error
	Logger      *slog.Logger
}

// Manager owns the modules and remembers which ones are active.
type Manager struct {
	deps    Dependencies
	modules []Module

	mu     sync.Mutex
	active map[string]bool
}

// NewManager creates a manager over modules, enabled in the given order.
func NewManager(deps Dependencies, modules ...Module) *Manager {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Enabled == nil {
		deps.Enabled = func(string) bool { return true }
	}
	return &Manager{
		deps:    deps,
		modules: modules,
		active:  make(map[string]bool),
	}
}

// Modules returns the managed modules.
func (m *Manager) Modules() []Module {
	out := make([]Module, len(m.modules))
	copy(out, m.modules)
	return out
}

// Active reports whether the named module is enabled.
func (m *Manager) Active(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active[name]
}

// EnableAll enables every module switched on in configuration. A failing
// module is logged and left inactive; the others still start.
func (m *Manager) EnableAll() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, mod := range m.modules {
		name := mod.Name()
		if m.active[name] {
			n++
			continue
		}
		if !m.deps.Enabled(name) {
			m.deps.Logger.Info("Module disabled in configuration", "module", name)
			continue
		}
		if err := safely(mod.Enable); err != nil {
			m.deps.Logger.Error("Failed to enable module", "module", name, "error", err)
			continue
		}
		m.active[name] = true
		n++
		m.deps.Logger.Info("Module enabled", "module", name)
	}
	return n
}

// DisableAll disables active modules in reverse order.
func (m *Manager) DisableAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.modules) - 1; i >= 0; i-- {
		mod := m.modules[i]
		name := mod.Name()
		if !m.active[name] {
			continue
		}
		if err := safely(mod.Disable); err != nil {
			m.deps.Logger.Error("Failed to disable module", "module", name, "error", err)
		}
		delete(m.active, name)
		m.deps.Logger.Info("Module disabled", "module", name)
	}
}

// ReloadAll disables every module, runs the reload hooks and enables again.
// Modules are re-enabled even when a hook fails, so a bad config file does
// not leave the server without its modules.
func (m *Manager) ReloadAll() error {
	m.deps.Logger.Info("Reloading all modules")

	m.DisableAll()

	var hookErr error
	for _, hook := range m.deps.ReloadHooks {
		if err := hook(); err != nil {
			hookErr = err
			m.deps.Logger.Error("Reload step failed", "error", err)
			break
		}
	}

	n := m.EnableAll()
	m.deps.Logger.Info("Modules reloaded", "active", n, "total", len(m.modules))
	return hookErr
}

func safely(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
