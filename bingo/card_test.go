package bingo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateCard_ColumnsStayInBand(t *testing.T) {
	for i := 0; i < 50; i++ {
		card := GenerateCard()
		for col := 0; col < 5; col++ {
			min, max := bands[col][0], bands[col][1]
			seen := make(map[int]bool)
			for row := 0; row < 5; row++ {
				n := card[row][col]
				if row == 2 && col == 2 {
					continue
				}
				assert.GreaterOrEqual(t, n, min, "col %d row %d", col, row)
				assert.LessOrEqual(t, n, max, "col %d row %d", col, row)
				assert.False(t, seen[n], "duplicate %d in column %d", n, col)
				seen[n] = true
			}
		}
	}
}

func TestGenerateCard_CenterIsFree(t *testing.T) {
	card := GenerateCard()
	assert.Equal(t, Free, card[2][2])
}

func TestGenerateCard_ColumnsSortedAscending(t *testing.T) {
	card := GenerateCard()
	for col := 0; col < 5; col++ {
		prev := 0
		for row := 0; row < 5; row++ {
			if row == 2 && col == 2 {
				continue
			}
			assert.Greater(t, card[row][col], prev, "column %d not ascending", col)
			prev = card[row][col]
		}
	}
}

func TestCard_Contains(t *testing.T) {
	card := GenerateCard()
	assert.True(t, card.Contains(card[0][0]))
	assert.False(t, card.Contains(Free))
	// 76 is outside every band, so no card can hold it.
	assert.False(t, card.Contains(76))
}
