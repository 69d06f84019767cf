package bingo

import "math/rand"

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const codeLength = 6

// NewRoomCode returns a shareable 6-character room code. Codes are
// not checked against existing rooms; at 36^6 combinations a clash is
// accepted odds.
func NewRoomCode() string {
	code := make([]byte, codeLength)
	for i := range code {
		code[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return string(code)
}
