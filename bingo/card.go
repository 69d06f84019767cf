package bingo

import (
	"math/rand"
	"sort"
)

// Free marks the always-satisfied center cell. Real balls are 1-75,
// so zero is safe as the sentinel.
const Free = 0

// Card is a 5x5 bingo card, row-major: Card[row][col]. Column c draws
// from band c (B, I, N, G, O); the center cell is Free.
type Card [5][5]int

// bands holds the inclusive value range of each column.
var bands = [5][2]int{
	{1, 15},  // B
	{16, 30}, // I
	{31, 45}, // N
	{46, 60}, // G
	{61, 75}, // O
}

// GenerateCard builds a fresh card: 5 distinct values per column,
// sampled from that column's band and sorted ascending down the rows.
func GenerateCard() Card {
	var card Card
	for col := 0; col < 5; col++ {
		column := sampleBand(bands[col][0], bands[col][1], 5)
		for row := 0; row < 5; row++ {
			card[row][col] = column[row]
		}
	}
	card[2][2] = Free
	return card
}

// sampleBand draws count distinct values from [min, max] and returns
// them sorted ascending.
func sampleBand(min, max, count int) []int {
	span := max - min + 1
	picked := rand.Perm(span)[:count]
	values := make([]int, count)
	for i, p := range picked {
		values[i] = min + p
	}
	sort.Ints(values)
	return values
}

// Contains reports whether the card holds the given number anywhere.
// The Free cell never matches.
func (c Card) Contains(n int) bool {
	if n == Free {
		return false
	}
	for row := 0; row < 5; row++ {
		for col := 0; col < 5; col++ {
			if c[row][col] == n {
				return true
			}
		}
	}
	return false
}
