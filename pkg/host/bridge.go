package host

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ethria/headlamp/internal/dispatcher"
)

// Bridge turns raw host calls into dispatcher events and formats the reply.
type Bridge struct {
	dispatcher *dispatcher.Dispatcher
	now        func() time.Time
}

// NewBridge creates a bridge over d.
func NewBridge(d *dispatcher.Dispatcher) *Bridge {
	return &Bridge{dispatcher: d, now: time.Now}
}

// Call handles a pipe-delimited call: "COMMAND|arg1|arg2".
func (b *Bridge) Call(input string) string {
	parts := strings.Split(input, "|")
	return b.CallArgs(parts[0], parts[1:])
}

// CallArgs handles a call whose arguments are already split.
func (b *Bridge) CallArgs(command string, args []string) string {
	if b.dispatcher == nil || !b.dispatcher.HasHandler(command) {
		return FormatResponse(command, nil, fmt.Errorf("no handler registered"))
	}

	result, err := b.dispatcher.Dispatch(dispatcher.Event{
		Command:   command,
		Args:      args,
		Timestamp: b.now(),
	})
	return FormatResponse(command, result, err)
}

// FormatResponse renders a dispatch result as a host array literal:
// ["ok"], ["ok", <json>] or ["error", "<message>"].
func FormatResponse(command string, result any, err error) string {
	if err != nil {
		return fmt.Sprintf(`["error", %s]`, quote(err.Error()))
	}
	if result == nil {
		return `["ok"]`
	}

	raw, mErr := json.Marshal(result)
	if mErr != nil {
		return fmt.Sprintf(`["error", %s]`, quote(fmt.Sprintf("%s: cannot encode result: %v", command, mErr)))
	}
	return fmt.Sprintf(`["ok", %s]`, raw)
}

// quote wraps s in double quotes, doubling embedded ones the way the host escapes strings.
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
