package parser

import (
	"fmt"
	"strings"

	"github.com/ethria/headlamp/pkg/core"
)

// ParseInventoryClick parses [actor, slot, inventoryKind, shift, itemModel].
// itemModel may be omitted when the slot was empty.
func (p *Parser) ParseInventoryClick(data []string) (InventoryClick, error) {
	var ev InventoryClick
	data = clean(data)
	if err := need(data, 4, "inventory click"); err != nil {
		return ev, err
	}

	ev.Actor = core.ActorID(data[0])

	slot, err := parseIntFromFloat(data[1])
	if err != nil {
		return ev, fmt.Errorf("error parsing slot: %w", err)
	}
	ev.Slot = int(slot)

	ev.OwnInventory = strings.EqualFold(data[2], InventoryKindPlayer)

	ev.Shift, err = parseFlag(data[3])
	if err != nil {
		return ev, fmt.Errorf("error parsing shift flag: %w", err)
	}

	ev.Item = core.NoModel
	if len(data) > 4 {
		ev.Item, err = parseModel(data[4])
		if err != nil {
			// an unreadable item only loses the shift-click shortcut
			p.logger.Warn("Error parsing clicked item model", "actor", ev.Actor, "value", data[4], "error", err)
			ev.Item = core.NoModel
		}
	}

	return ev, nil
}

// ParseInventoryDrag parses [actor, rawSlots].
func (p *Parser) ParseInventoryDrag(data []string) (InventoryDrag, error) {
	var ev InventoryDrag
	data = clean(data)
	if err := need(data, 2, "inventory drag"); err != nil {
		return ev, err
	}

	ev.Actor = core.ActorID(data[0])

	// slots may arrive as one list argument or spread over the remaining arguments
	slots, err := parseIntList(strings.Join(data[1:], ","))
	if err != nil {
		return ev, err
	}
	ev.RawSlots = slots

	return ev, nil
}

// ParseItemLoss parses [actor, itemModel] for drop and break events.
func (p *Parser) ParseItemLoss(data []string) (ItemLoss, error) {
	var ev ItemLoss
	data = clean(data)
	if err := need(data, 2, "item loss"); err != nil {
		return ev, err
	}

	ev.Actor = core.ActorID(data[0])

	item, err := parseModel(data[1])
	if err != nil {
		return ev, err
	}
	ev.Item = item

	return ev, nil
}
