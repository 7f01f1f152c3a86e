// Package command implements the admin command tree: the main label, its
// configurable aliases and the per-module subcommands.
package command

import (
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/ethria/headlamp/internal/light"
)

// Label is the main command label.
const Label = "headlamp"

// Permissions checked by the command tree.
const (
	PermAdmin       = "headlamp.admin"
	PermCustomLight = "headlamp.customlight.use"
)

// Subcommand names. customlight also answers to its short forms.
const (
	SubHelp        = "help"
	SubReload      = "reload"
	SubCustomLight = "customlight"
)

var customLightForms = []string{SubCustomLight, "clight", "cl"}

// Sender is whoever typed the command.
type Sender interface {
	Name() string
	HasPermission(perm string) bool
	SendMessage(msg string)
}

// Messages renders a localized message.
type Messages interface {
	Message(key string, args ...any) string
}

// Reloader performs the global reload.
type Reloader interface {
	ReloadAll() error
}

// CustomLight is the part of the light module the commands drive.
type CustomLight interface {
	Active() bool
	Reload() (loaded, skipped int, err error)
	Status() light.Status
}

// Dependencies holds everything the command tree talks to.
type Dependencies struct {
	Messages    Messages
	Reloader    Reloader
	CustomLight CustomLight // nil when the module does not exist
	Logger      *slog.Logger
}

// Handler resolves labels and runs subcommands.
type Handler struct {
	deps Dependencies

	mu      sync.RWMutex
	aliases map[string]string // alias label -> subcommand
}

// New creates a command handler with the given alias table.
func New(deps Dependencies, aliases map[string]string) *Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	h := &Handler{deps: deps}
	h.SetAliases(aliases)
	return h
}

// SetAliases replaces the alias table. Labels and targets are matched case-insensitively.
func (h *Handler) SetAliases(aliases map[string]string) {
	next := make(map[string]string, len(aliases))
	for alias, sub := range aliases {
		alias = strings.ToLower(strings.TrimSpace(alias))
		if alias == "" || alias == Label {
			continue
		}
		next[alias] = strings.ToLower(strings.TrimSpace(sub))
	}

	h.mu.Lock()
	h.aliases = next
	h.mu.Unlock()

	h.deps.Logger.Info("Command aliases registered", "count", len(next))
}

// Labels returns the main label followed by the sorted alias labels.
func (h *Handler) Labels() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	aliases := make([]string, 0, len(h.aliases))
	for alias := range h.aliases {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	return append([]string{Label}, aliases...)
}

// resolve maps a label and its arguments to a subcommand and the remaining
// arguments. ok is false when the label is not ours.
func (h *Handler) resolve(label string, args []string) (sub string, rest []string, ok bool) {
	label = strings.ToLower(label)
	if label == Label {
		if len(args) == 0 {
			return "", nil, true
		}
		return strings.ToLower(args[0]), args[1:], true
	}

	h.mu.RLock()
	sub, ok = h.aliases[label]
	h.mu.RUnlock()
	return sub, args, ok
}

func (h *Handler) send(s Sender, key string, args ...any) {
	s.SendMessage(h.deps.Messages.Message(key, args...))
}

// Execute runs a command. It returns false when label belongs to someone else.
func (h *Handler) Execute(s Sender, label string, args []string) bool {
	sub, rest, ok := h.resolve(label, args)
	if !ok {
		return false
	}

	if isCustomLight(sub) {
		h.customLight(s, rest)
		return true
	}

	if !s.HasPermission(PermAdmin) {
		h.send(s, "general.no-permission")
		return true
	}

	switch sub {
	case "", SubHelp:
		h.mainHelp(s)
	case SubReload:
		h.reload(s)
	default:
		h.send(s, "general.unknown-command", sub)
		h.send(s, "general.available-commands", strings.Join([]string{SubHelp, SubReload, SubCustomLight}, ", "))
	}
	return true
}

func (h *Handler) mainHelp(s Sender) {
	for _, key := range []string{"main.help-header", "main.help-reload", "main.help-customlight", "main.help-usage"} {
		h.send(s, key)
	}
}

func (h *Handler) reload(s Sender) {
	if h.deps.Reloader == nil {
		return
	}
	if err := h.deps.Reloader.ReloadAll(); err != nil {
		h.deps.Logger.Error("Global reload failed", "sender", s.Name(), "error", err)
		h.send(s, "general.reload-failed", err.Error())
		return
	}
	h.deps.Logger.Info("Global reload executed", "sender", s.Name())
	h.send(s, "general.config-reloaded")
}

func canUseCustomLight(s Sender) bool {
	return s.HasPermission(PermCustomLight) || s.HasPermission(PermAdmin)
}

func isCustomLight(sub string) bool {
	for _, form := range customLightForms {
		if sub == form {
			return true
		}
	}
	return false
}
