package command

import "strings"

// Complete returns tab completions for the argument being typed, the last
// element of args. Senders without permission get nothing.
func (h *Handler) Complete(s Sender, label string, args []string) []string {
	label = strings.ToLower(label)

	var candidates []string
	switch {
	case label == Label && len(args) <= 1:
		if s.HasPermission(PermAdmin) {
			candidates = append(candidates, SubHelp, SubReload)
		}
		if canUseCustomLight(s) {
			candidates = append(candidates, SubCustomLight)
		}
	case label == Label:
		if isCustomLight(strings.ToLower(args[0])) && len(args) == 2 && canUseCustomLight(s) {
			candidates = customLightSubs
		}
	default:
		h.mu.RLock()
		sub, ok := h.aliases[label]
		h.mu.RUnlock()
		if ok && isCustomLight(sub) && len(args) <= 1 && canUseCustomLight(s) {
			candidates = customLightSubs
		}
	}

	prefix := ""
	if len(args) > 0 {
		prefix = strings.ToLower(args[len(args)-1])
	}
	return filterPrefix(candidates, prefix)
}

func filterPrefix(candidates []string, prefix string) []string {
	out := []string{}
	for _, c := range candidates {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}
