package command

import "strings"

var customLightSubs = []string{SubHelp, SubReload, "status"}

func (h *Handler) customLight(s Sender, args []string) {
	if !canUseCustomLight(s) {
		h.send(s, "customlight.no-permission")
		return
	}

	cl := h.deps.CustomLight
	if cl == nil || !cl.Active() {
		h.send(s, "customlight.module-not-loaded")
		return
	}

	sub := SubHelp
	if len(args) > 0 {
		sub = strings.ToLower(args[0])
	}

	switch sub {
	case SubHelp:
		for _, key := range []string{"customlight.help-header", "customlight.help-reload", "customlight.help-status"} {
			h.send(s, key)
		}
	case SubReload:
		loaded, skipped, err := cl.Reload()
		if err != nil {
			h.deps.Logger.Error("Custom light reload failed", "sender", s.Name(), "error", err)
			h.send(s, "general.reload-failed", err.Error())
			return
		}
		h.deps.Logger.Info("Custom light reloaded", "sender", s.Name(), "glowingItems", loaded, "skipped", skipped)
		h.send(s, "customlight.reloaded", loaded, skipped)
	case "status":
		st := cl.Status()
		h.send(s, "customlight.status", st.Markers, st.Actors, st.GlowingItems, st.Running)
	default:
		h.send(s, "customlight.unknown-subcommand")
	}
}
