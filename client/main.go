package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wfunc/bingoserver/bingo"
	"github.com/wfunc/bingoserver/models"
	"github.com/wfunc/bingoserver/network"
	"github.com/wfunc/bingoserver/reconcile"
	"github.com/wfunc/bingoserver/timer"
)

const revealDelay = 3 * time.Second

// send frames and writes one packet to the WebSocket server.
func send(c *websocket.Conn, msgID uint16, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.WriteMessage(websocket.BinaryMessage, network.EncodePacket(msgID, data))
}

func printCard(card bingo.Card, marked func(int) bool) {
	fmt.Println("  B   I   N   G   O")
	for row := 0; row < 5; row++ {
		for col := 0; col < 5; col++ {
			n := card[row][col]
			switch {
			case n == bingo.Free:
				fmt.Print("  *  ")
			case marked(n):
				fmt.Printf("[%2d] ", n)
			default:
				fmt.Printf(" %2d  ", n)
			}
		}
		fmt.Println()
	}
}

func main() {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: "localhost:8080", Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	playerID := uuid.New().String()
	playerName := "player"

	timers := timer.NewManager()
	defer timers.Stop()

	rec := reconcile.NewReconciler(playerID, revealDelay, timers)
	rec.OnCelebrate = func(youWon bool, winner models.Winner) {
		if youWon {
			fmt.Println(">>> BINGO! You won! <<<")
		} else {
			fmt.Printf(">>> %s got bingo (%s)! <<<\n", winner.Name, winner.Pattern)
		}
	}
	rec.OnReveal = func(n int) {
		fmt.Printf(">>> Number called: %s-%d <<<\n", bingo.Letter(n), n)
	}

	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			packet, err := network.DecodePacket(message)
			if err != nil {
				log.Printf("Bad packet: %v", err)
				continue
			}
			switch packet.MsgID {
			case network.MsgTypeCreateRoom:
				var resp network.CreateRoomResponse
				if err := json.Unmarshal(packet.Data, &resp); err == nil {
					fmt.Printf("Room created, share code: %s\n", resp.Code)
				}
			case network.MsgTypeJoinRoom:
				var resp network.JoinRoomResponse
				if err := json.Unmarshal(packet.Data, &resp); err == nil {
					fmt.Printf("Joined room %s\n", resp.Code)
				}
			case network.MsgTypeRoomSnapshot:
				var doc models.Room
				if err := json.Unmarshal(packet.Data, &doc); err != nil {
					log.Printf("Bad snapshot: %v", err)
					continue
				}
				view := rec.Apply(&doc)
				fmt.Printf("[%s] mode=%s players=%d drawn=%d\n",
					doc.Status, doc.GameMode, len(doc.UniquePlayers()), len(doc.DrawnNumbers))
				if view.RoomGone {
					fmt.Println("Room closed.")
				}
			case network.MsgTypeError:
				var resp network.ErrorResponse
				if err := json.Unmarshal(packet.Data, &resp); err == nil {
					fmt.Printf("Error (%s): %s\n", resp.Code, resp.Message)
				}
			default:
				log.Printf("Unhandled message type %d", packet.MsgID)
			}
		}
	}()

	fmt.Println("Commands: create <name> | join <code> <name> | mode <full|line|L|X|corners>")
	fmt.Println("          start | draw | mark <n> | card | newcard | reset | quit")

	reader := bufio.NewReader(os.Stdin)
	for {
		select {
		case <-done:
			return
		case <-interrupt:
			c.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		default:
		}

		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "create":
			if len(fields) > 1 {
				playerName = fields[1]
			}
			err = send(c, network.MsgTypeCreateRoom, network.CreateRoomRequest{
				PlayerID: playerID, PlayerName: playerName,
			})
		case "join":
			if len(fields) < 2 {
				fmt.Println("Usage: join <code> [name]")
				continue
			}
			if len(fields) > 2 {
				playerName = fields[2]
			}
			err = send(c, network.MsgTypeJoinRoom, network.JoinRoomRequest{
				Code: fields[1], PlayerID: playerID, PlayerName: playerName,
			})
		case "mode":
			if len(fields) < 2 {
				fmt.Println("Usage: mode <full|line|L|X|corners>")
				continue
			}
			err = send(c, network.MsgTypeSetGameMode, network.SetGameModeRequest{Mode: fields[1]})
		case "start":
			err = send(c, network.MsgTypeStartGame, struct{}{})
		case "draw":
			err = send(c, network.MsgTypeDrawNumber, struct{}{})
		case "mark":
			if len(fields) < 2 {
				fmt.Println("Usage: mark <n>")
				continue
			}
			n, convErr := strconv.Atoi(fields[1])
			if convErr != nil {
				fmt.Println("Not a number:", fields[1])
				continue
			}
			nowMarked, won, markErr := rec.MarkNumber(n)
			if markErr != nil {
				fmt.Println("Cannot mark:", markErr)
				continue
			}
			if nowMarked {
				fmt.Printf("Marked %d\n", n)
			} else {
				fmt.Printf("Unmarked %d\n", n)
			}
			if won {
				view := rec.View()
				pattern := "full"
				if view.Room != nil {
					pattern = string(view.Room.GameMode)
				}
				err = send(c, network.MsgTypeDeclareWin, network.DeclareWinRequest{Pattern: pattern})
			}
		case "card":
			printCard(rec.Card(), rec.Marked)
		case "newcard":
			if _, cardErr := rec.RegenerateCard(); cardErr != nil {
				fmt.Println("Cannot regenerate:", cardErr)
				continue
			}
			printCard(rec.Card(), rec.Marked)
		case "reset":
			err = send(c, network.MsgTypeResetGame, struct{}{})
		case "quit":
			send(c, network.MsgTypeLeaveRoom, struct{}{})
			c.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		default:
			fmt.Println("Unknown command:", fields[0])
		}
		if err != nil {
			log.Println("Write error:", err)
			return
		}
	}
}
