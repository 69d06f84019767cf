package bingo

// CheckWin reports whether the marked cells of a card satisfy the
// pattern for a mode. The Free cell always counts as marked. Unknown
// modes never win.
func CheckWin(card Card, marked *MarkedSet, mode Mode) bool {
	isMarked := func(row, col int) bool {
		n := card[row][col]
		return n == Free || marked.Contains(n)
	}

	fullRow := func(row int) bool {
		for col := 0; col < 5; col++ {
			if !isMarked(row, col) {
				return false
			}
		}
		return true
	}
	fullCol := func(col int) bool {
		for row := 0; row < 5; row++ {
			if !isMarked(row, col) {
				return false
			}
		}
		return true
	}

	switch mode {
	case ModeFull:
		for row := 0; row < 5; row++ {
			if !fullRow(row) {
				return false
			}
		}
		return true

	case ModeLine:
		for i := 0; i < 5; i++ {
			if fullRow(i) || fullCol(i) {
				return true
			}
		}
		return false

	case ModeL:
		return fullCol(0) && fullRow(4)

	case ModeX:
		for i := 0; i < 5; i++ {
			if !isMarked(i, i) || !isMarked(i, 4-i) {
				return false
			}
		}
		return true

	case ModeCorners:
		return isMarked(0, 0) && isMarked(0, 4) && isMarked(4, 0) && isMarked(4, 4)
	}

	return false
}
