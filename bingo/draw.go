package bingo

import "math/rand"

// Pool returns the numbers eligible to be drawn under a mode. Modes
// whose pattern never touches certain columns skip those bands
// entirely: an X needs no N-column ball (the only N cell on either
// diagonal is the free center) and corners live in B and O alone.
func Pool(mode Mode) []int {
	var ranges [][2]int
	switch mode {
	case ModeX:
		ranges = [][2]int{bands[0], bands[1], bands[3], bands[4]}
	case ModeCorners:
		ranges = [][2]int{bands[0], bands[4]}
	default:
		ranges = [][2]int{{1, 75}}
	}

	var pool []int
	for _, r := range ranges {
		for n := r[0]; n <= r[1]; n++ {
			pool = append(pool, n)
		}
	}
	return pool
}

// Draw picks a uniformly random not-yet-drawn number from the mode's
// pool. ok is false when the pool is exhausted; that is a signal for
// the caller to surface, not an error.
func Draw(drawn []int, mode Mode) (n int, ok bool) {
	seen := make(map[int]bool, len(drawn))
	for _, d := range drawn {
		seen[d] = true
	}

	var available []int
	for _, candidate := range Pool(mode) {
		if !seen[candidate] {
			available = append(available, candidate)
		}
	}
	if len(available) == 0 {
		return 0, false
	}
	return available[rand.Intn(len(available))], true
}
