package entities

// IndexedSet is an ordered sequence of proposal ids with O(1) removal via
// swap-with-last + pop. Each member proposal carries its current position as
// SlotIndex; after SwapRemoveAt the caller must repoint the moved proposal's
// SlotIndex to the vacated slot.
type IndexedSet struct {
	ids []uint64
}

// Append adds id at the end and returns the slot it occupies.
func (s *IndexedSet) Append(id uint64) int {
	s.ids = append(s.ids, id)
	return len(s.ids) - 1
}

// SwapRemoveAt removes the member at slot by moving the last member into its
// place. It returns the id that was moved and whether a move happened (no
// move when the removed member was the last one). Out-of-range slots are a
// no-op reported through removed=false.
func (s *IndexedSet) SwapRemoveAt(slot int) (moved uint64, hasMoved bool, removed bool) {
	if slot < 0 || slot >= len(s.ids) {
		return 0, false, false
	}
	last := len(s.ids) - 1
	if slot != last {
		moved = s.ids[last]
		s.ids[slot] = moved
		hasMoved = true
	}
	s.ids[last] = 0
	s.ids = s.ids[:last]
	return moved, hasMoved, true
}

func (s *IndexedSet) At(slot int) (uint64, bool) {
	if slot < 0 || slot >= len(s.ids) {
		return 0, false
	}
	return s.ids[slot], true
}

// IDs returns a copy of the member sequence in slot order.
func (s *IndexedSet) IDs() []uint64 {
	out := make([]uint64, len(s.ids))
	copy(out, s.ids)
	return out
}

func (s *IndexedSet) Len() int {
	return len(s.ids)
}

func (s *IndexedSet) Clear() {
	s.ids = s.ids[:0]
}
