package models

import (
	"time"

	"github.com/wfunc/bingoserver/bingo"
)

// Room status values. Status only moves forward except for a
// host-issued reset back to waiting.
const (
	StatusWaiting  = "waiting"
	StatusPlaying  = "playing"
	StatusFinished = "finished"
)

// Player 房间成员
type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	IsHost bool   `json:"isHost"`
}

// Winner 中奖记录，写入即终局
type Winner struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Pattern bingo.Mode `json:"pattern"`
}

// Room is the authoritative room document. One instance per game,
// mutated only through store-level conditional writes and delivered
// whole to every subscriber.
type Room struct {
	ID            string     `json:"id"`
	Code          string     `json:"code"`
	HostID        string     `json:"hostId"`
	HostName      string     `json:"hostName"`
	GameMode      bingo.Mode `json:"gameMode"`
	Status        string     `json:"status"`
	DrawnNumbers  []int      `json:"drawnNumbers"`
	CurrentNumber *int       `json:"currentNumber,omitempty"`
	Players       []Player   `json:"players"`
	Winner        *Winner    `json:"winner,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// UniquePlayers de-duplicates the member list by id, keeping first
// occurrence. Joins race without atomicity, so duplicates are
// tolerated in the document and squashed at read time.
func (r *Room) UniquePlayers() []Player {
	seen := make(map[string]bool, len(r.Players))
	players := make([]Player, 0, len(r.Players))
	for _, p := range r.Players {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		players = append(players, p)
	}
	return players
}

// HasDrawn reports whether n has already been drawn in this game.
func (r *Room) HasDrawn(n int) bool {
	for _, d := range r.DrawnNumbers {
		if d == n {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so store subscribers and conditional
// writes never alias the stored document.
func (r *Room) Clone() *Room {
	cp := *r
	cp.DrawnNumbers = append([]int(nil), r.DrawnNumbers...)
	cp.Players = append([]Player(nil), r.Players...)
	if r.CurrentNumber != nil {
		n := *r.CurrentNumber
		cp.CurrentNumber = &n
	}
	if r.Winner != nil {
		w := *r.Winner
		cp.Winner = &w
	}
	return &cp
}
