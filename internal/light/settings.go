package light

// Settings is the scalar configuration the engine runs with.
type Settings struct {
	// RemovalRadius is the distance, in cells, beyond which markers are evicted.
	RemovalRadius float64
	// UpdateInterval is the reconciliation period in ticks.
	UpdateInterval uint64
	// RemoveAllOnUnequip purges markers as soon as headgear no longer glows.
	RemoveAllOnUnequip bool
	// MaxMarkersPerActor bounds each actor's tracked set. Zero disables placement.
	MaxMarkersPerActor int
	// SettleDelay is how many ticks the fast path waits before re-reading equipment.
	SettleDelay uint64
	// HeadgearSlot is the inventory slot number of the helmet.
	HeadgearSlot int
	// VerticalOffset lifts the marker above the actor's feet.
	VerticalOffset int
}

// DefaultSettings mirrors the configuration defaults.
func DefaultSettings() Settings {
	return Settings{
		RemovalRadius:      10,
		UpdateInterval:     1,
		RemoveAllOnUnequip: true,
		MaxMarkersPerActor: 3,
		SettleDelay:        1,
		HeadgearSlot:       39,
		VerticalOffset:     2,
	}
}

func (s Settings) interval() uint64 {
	if s.UpdateInterval == 0 {
		return 1
	}
	return s.UpdateInterval
}
