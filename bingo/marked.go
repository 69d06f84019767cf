package bingo

// MarkedSet tracks which numbers a player has toggled on their own
// card. It is client-local state, never written to the shared room.
type MarkedSet struct {
	nums map[int]bool
}

func NewMarkedSet() *MarkedSet {
	return &MarkedSet{nums: make(map[int]bool)}
}

// Toggle flips membership of n and reports whether n is now marked.
func (m *MarkedSet) Toggle(n int) bool {
	if m.nums[n] {
		delete(m.nums, n)
		return false
	}
	m.nums[n] = true
	return true
}

func (m *MarkedSet) Contains(n int) bool {
	return m.nums[n]
}

func (m *MarkedSet) Len() int {
	return len(m.nums)
}

// Clear empties the set, used when a game resets.
func (m *MarkedSet) Clear() {
	m.nums = make(map[int]bool)
}
