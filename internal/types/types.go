package types

import "github.com/daem-on/snazzy/internal/game"

// ClientMessage is every inbound message kind in one envelope, tagged by
// Type: "chat", "playCard", "pickCard", "startGame", "name", "reconnect",
// "debug".
type ClientMessage struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	CardArray []int  `json:"cardArray,omitempty"`
	CardIndex int    `json:"cardIndex"`
	Cmd       string `json:"cmd,omitempty"`
}

// ServerMessage is every outbound message kind: "welcome", "state",
// "deal", "dealPatch", "giveCard", "czar", "newRound", "update",
// "reveal", "winner", "over", "restart", "error", "chat".
type ServerMessage struct {
	Type      string         `json:"type"`
	ID        string         `json:"id,omitempty"`
	Hand      []int          `json:"hand,omitempty"`
	CardIndex *int           `json:"cardIndex,omitempty"`
	Winner    string         `json:"winner,omitempty"`
	Sender    string         `json:"sender,omitempty"`
	Text      string         `json:"text,omitempty"`
	Message   string         `json:"message,omitempty"`
	Version   int            `json:"version,omitempty"`
	State     *game.Snapshot `json:"state,omitempty"`
}
