package parser

import (
	"strings"

	"github.com/ethria/headlamp/pkg/core"
)

// ParseWorldChange parses [actor, fromWorld, toWorld].
func (p *Parser) ParseWorldChange(data []string) (WorldChange, error) {
	var ev WorldChange
	data = clean(data)
	if err := need(data, 3, "world change"); err != nil {
		return ev, err
	}

	ev.Actor = core.ActorID(data[0])
	ev.From = data[1]
	ev.To = data[2]
	return ev, nil
}

// ParseActor parses [actor] for departure events.
func (p *Parser) ParseActor(data []string) (core.ActorID, error) {
	data = clean(data)
	if err := need(data, 1, "actor"); err != nil {
		return "", err
	}
	return core.ActorID(data[0]), nil
}

// ParseCommand parses [sender, permissions, label, args...].
// permissions is a comma-separated list.
func (p *Parser) ParseCommand(data []string) (CommandCall, error) {
	var call CommandCall
	data = clean(data)
	if err := need(data, 3, "command"); err != nil {
		return call, err
	}

	call.Sender = data[0]
	for _, perm := range strings.Split(data[1], ",") {
		if perm = strings.TrimSpace(perm); perm != "" {
			call.Permissions = append(call.Permissions, perm)
		}
	}
	call.Label = data[2]
	call.Args = data[3:]
	return call, nil
}
