// Package handlers turns host events into engine and command calls.
package handlers

import (
	"errors"
	"log/slog"

	"github.com/ethria/headlamp/internal/command"
	"github.com/ethria/headlamp/internal/dispatcher"
	"github.com/ethria/headlamp/internal/light"
	"github.com/ethria/headlamp/internal/parser"
)

// Host event commands.
const (
	CmdInventoryClick  = ":INVENTORY:CLICK:"
	CmdInventoryDrag   = ":INVENTORY:DRAG:"
	CmdItemDrop        = ":ITEM:DROP:"
	CmdItemBreak       = ":ITEM:BREAK:"
	CmdActorWorld      = ":ACTOR:WORLD:"
	CmdActorQuit       = ":ACTOR:QUIT:"
	CmdLightReload     = ":LIGHT:RELOAD:"
	CmdLightCount      = ":LIGHT:COUNT:"
	CmdCommand         = ":COMMAND:"
	CmdCommandComplete = ":COMMAND:COMPLETE:"
)

// EventCommands are owned by the light module and only registered while it is enabled.
var EventCommands = []string{
	CmdInventoryClick, CmdInventoryDrag, CmdItemDrop, CmdItemBreak,
	CmdActorWorld, CmdActorQuit, CmdLightReload, CmdLightCount,
}

// Reloader reloads the light module from configuration.
type Reloader interface {
	Reload() (loaded, skipped int, err error)
}

// Dependencies holds all dependencies needed by handlers. Engine and Light
// are needed by RegisterEvents, Commands by RegisterCommands.
type Dependencies struct {
	Engine   *light.Engine
	Light    Reloader
	Commands *command.Handler
	Parser   *parser.Parser
	Logger   *slog.Logger
}

// Service provides the dispatcher handlers.
type Service struct {
	deps Dependencies
}

// NewService creates a new handler service.
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Parser == nil {
		deps.Parser = parser.NewParser(deps.Logger)
	}
	return &Service{deps: deps}
}

// RegisterEvents registers the light module's event handlers.
func (s *Service) RegisterEvents(d *dispatcher.Dispatcher) error {
	if s.deps.Engine == nil {
		return errors.New("handlers: engine is required for event handlers")
	}

	d.Register(CmdInventoryClick, s.handleInventoryClick)
	d.Register(CmdInventoryDrag, s.handleInventoryDrag)
	d.Register(CmdItemDrop, s.handleItemLoss)
	d.Register(CmdItemBreak, s.handleItemLoss)
	d.Register(CmdActorWorld, s.handleWorldChange, dispatcher.Logged())
	d.Register(CmdActorQuit, s.handleQuit, dispatcher.Logged())
	d.Register(CmdLightReload, s.handleLightReload, dispatcher.Logged())
	d.Register(CmdLightCount, s.handleLightCount)
	return nil
}

// UnregisterEvents removes everything RegisterEvents added.
func (s *Service) UnregisterEvents(d *dispatcher.Dispatcher) {
	for _, cmd := range EventCommands {
		d.Unregister(cmd)
	}
}

// RegisterCommands registers the admin command handlers.
func (s *Service) RegisterCommands(d *dispatcher.Dispatcher) error {
	if s.deps.Commands == nil {
		return errors.New("handlers: command handler is required")
	}
	d.Register(CmdCommand, s.handleCommand, dispatcher.Logged())
	d.Register(CmdCommandComplete, s.handleComplete)
	return nil
}

func (s *Service) handleInventoryClick(e dispatcher.Event) (any, error) {
	click, err := s.deps.Parser.ParseInventoryClick(e.Args)
	if err != nil {
		return nil, err
	}
	return nil, s.deps.Engine.HeadgearClick(click.Actor, click.Slot, click.OwnInventory, click.Shift, click.Item)
}

func (s *Service) handleInventoryDrag(e dispatcher.Event) (any, error) {
	drag, err := s.deps.Parser.ParseInventoryDrag(e.Args)
	if err != nil {
		return nil, err
	}
	return nil, s.deps.Engine.HeadgearDrag(drag.Actor, drag.RawSlots)
}

func (s *Service) handleItemLoss(e dispatcher.Event) (any, error) {
	loss, err := s.deps.Parser.ParseItemLoss(e.Args)
	if err != nil {
		return nil, err
	}
	return nil, s.deps.Engine.ItemGone(loss.Actor, loss.Item)
}

func (s *Service) handleWorldChange(e dispatcher.Event) (any, error) {
	wc, err := s.deps.Parser.ParseWorldChange(e.Args)
	if err != nil {
		return nil, err
	}
	return nil, s.deps.Engine.ChangedWorld(wc.Actor, wc.From, wc.To)
}

func (s *Service) handleQuit(e dispatcher.Event) (any, error) {
	id, err := s.deps.Parser.ParseActor(e.Args)
	if err != nil {
		return nil, err
	}
	return nil, s.deps.Engine.Departed(id)
}

func (s *Service) handleLightReload(dispatcher.Event) (any, error) {
	if s.deps.Light == nil {
		return nil, errors.New("light module not available")
	}
	loaded, skipped, err := s.deps.Light.Reload()
	if err != nil {
		return nil, err
	}
	return map[string]int{"loaded": loaded, "skipped": skipped}, nil
}

func (s *Service) handleLightCount(dispatcher.Event) (any, error) {
	return s.deps.Engine.Status(), nil
}
