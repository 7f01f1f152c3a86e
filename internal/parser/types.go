package parser

import "github.com/ethria/headlamp/pkg/core"

// InventoryKindPlayer is the inventory kind of an actor's own inventory.
const InventoryKindPlayer = "PLAYER"

// InventoryClick is a click on an inventory slot.
type InventoryClick struct {
	Actor        core.ActorID
	Slot         int
	OwnInventory bool
	Shift        bool
	Item         core.ModelID // model of the clicked item
}

// InventoryDrag is a drag across one or more raw slots.
type InventoryDrag struct {
	Actor    core.ActorID
	RawSlots []int
}

// ItemLoss is an item that was dropped or destroyed.
type ItemLoss struct {
	Actor core.ActorID
	Item  core.ModelID
}

// WorldChange is an actor moving between worlds.
type WorldChange struct {
	Actor core.ActorID
	From  string
	To    string
}

// CommandCall is an administrative command typed by a sender.
type CommandCall struct {
	Sender      string
	Permissions []string
	Label       string
	Args        []string
}
