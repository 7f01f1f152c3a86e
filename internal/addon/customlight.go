package addon

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ethria/headlamp/internal/config"
	"github.com/ethria/headlamp/internal/dispatcher"
	"github.com/ethria/headlamp/internal/handlers"
	"github.com/ethria/headlamp/internal/light"
	"github.com/ethria/headlamp/internal/parser"
	"github.com/ethria/headlamp/internal/registry"
)

// CustomLightName is the module name used in modules.<name>.enabled.
const CustomLightName = "customlight"

// CustomLightDeps holds what the custom light module is built from.
type CustomLightDeps struct {
	Engine     *light.Engine
	Dispatcher *dispatcher.Dispatcher
	Parser     *parser.Parser
	// Config returns the current light configuration.
	Config func() config.LightConfig
	// ReloadConfig re-reads the configuration source before a module reload.
	ReloadConfig func() error
	Logger       *slog.Logger
}

// CustomLight couples the light engine to the host events while enabled.
type CustomLight struct {
	deps   CustomLightDeps
	events *handlers.Service

	mu     sync.Mutex
	active bool
}

// NewCustomLight creates the module. Config defaults to config.GetLightConfig
// and ReloadConfig to config.Reload.
func NewCustomLight(deps CustomLightDeps) (*CustomLight, error) {
	if deps.Engine == nil || deps.Dispatcher == nil {
		return nil, errors.New("customlight: engine and dispatcher are required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Config == nil {
		deps.Config = config.GetLightConfig
	}
	if deps.ReloadConfig == nil {
		deps.ReloadConfig = config.Reload
	}

	m := &CustomLight{deps: deps}
	m.events = handlers.NewService(handlers.Dependencies{
		Engine: deps.Engine,
		Light:  m,
		Parser: deps.Parser,
		Logger: deps.Logger,
	})
	return m, nil
}

// Name returns the module name.
func (m *CustomLight) Name() string {
	return CustomLightName
}

// Enable loads the configuration, starts reconciliation and subscribes to host events.
func (m *CustomLight) Enable() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.load(); err != nil {
		return err
	}
	if err := m.deps.Engine.Start(); err != nil {
		return err
	}
	if err := m.events.RegisterEvents(m.deps.Dispatcher); err != nil {
		m.deps.Engine.Stop()
		return err
	}
	m.active = true
	return nil
}

// Disable unsubscribes from host events and removes every marker from the world.
func (m *CustomLight) Disable() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.events.UnregisterEvents(m.deps.Dispatcher)
	m.active = false
	return m.deps.Engine.Shutdown()
}

// Reload re-reads the configuration file, then reloads the registry and
// settings without touching tracked markers. When the file cannot be read
// the running configuration is kept.
func (m *CustomLight) Reload() (int, int, error) {
	if err := m.deps.ReloadConfig(); err != nil {
		return 0, 0, fmt.Errorf("customlight: %w", err)
	}
	res, err := m.load()
	return res.Loaded, res.Skipped, err
}

func (m *CustomLight) load() (registry.LoadResult, error) {
	cfg := m.deps.Config()
	return m.deps.Engine.Reload(Settings(cfg), cfg.GlowingItems)
}

// Active reports whether the module is enabled.
func (m *CustomLight) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Status returns the engine status.
func (m *CustomLight) Status() light.Status {
	return m.deps.Engine.Status()
}

// Settings converts the light configuration to engine settings.
func Settings(cfg config.LightConfig) light.Settings {
	return light.Settings{
		RemovalRadius:      cfg.Radius,
		UpdateInterval:     cfg.UpdateInterval,
		RemoveAllOnUnequip: cfg.RemoveAllOnUnequip,
		MaxMarkersPerActor: cfg.MaxMarkersPerActor,
		SettleDelay:        cfg.SettleDelay,
		HeadgearSlot:       cfg.HeadgearSlot,
		VerticalOffset:     cfg.VerticalOffset,
	}
}
