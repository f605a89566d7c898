package world

// InvStack is one inventory slot: an item template and a count.
type InvStack struct {
	ItemID int32
	Count  int32
}

// Inventory is a player's carried items. Slot numbers are stable indices into
// the stack list; commands address slots, not item IDs.
type Inventory struct {
	stacks []InvStack
}

func NewInventory() *Inventory {
	return &Inventory{}
}

// Slots returns the current stacks in slot order. Read-only view.
func (inv *Inventory) Slots() []InvStack {
	return inv.stacks
}

// At returns the stack in a slot, or nil for an invalid/empty slot.
func (inv *Inventory) At(slot int) *InvStack {
	if slot < 0 || slot >= len(inv.stacks) {
		return nil
	}
	return &inv.stacks[slot]
}

// Add merges count into an existing stack when stackable, otherwise appends
// a new slot. Returns the slot index.
func (inv *Inventory) Add(itemID, count int32, stackable bool) int {
	if stackable {
		for i := range inv.stacks {
			if inv.stacks[i].ItemID == itemID {
				inv.stacks[i].Count += count
				return i
			}
		}
	}
	inv.stacks = append(inv.stacks, InvStack{ItemID: itemID, Count: count})
	return len(inv.stacks) - 1
}

// Remove takes count items out of a slot. The slot is deleted when emptied.
// Returns the removed count, capped at what the slot held, or 0 for an
// invalid slot.
func (inv *Inventory) Remove(slot int, count int32) int32 {
	s := inv.At(slot)
	if s == nil || count <= 0 {
		return 0
	}
	if count > s.Count {
		count = s.Count
	}
	s.Count -= count
	if s.Count == 0 {
		inv.stacks = append(inv.stacks[:slot], inv.stacks[slot+1:]...)
	}
	return count
}

// Len returns the number of occupied slots.
func (inv *Inventory) Len() int {
	return len(inv.stacks)
}
