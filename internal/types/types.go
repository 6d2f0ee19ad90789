package types

import "github.com/mkearny/draft-battle-backend/internal/engine"

// ClientMessage is one frame from a participant's socket.
type ClientMessage struct {
	Type           string `json:"type"` // "join-game" | "player-ready" | "pick-player"
	GameCode       string `json:"gameCode,omitempty"`
	PlayerID       string `json:"playerId,omitempty"`
	PickedPlayerID string `json:"pickedPlayerId,omitempty"`
}

// ServerMessage is one frame to a subscriber. Every successful transition
// re-sends the full session snapshot as a "game-update".
type ServerMessage struct {
	Type    string          `json:"type"` // "game-update" | "error"
	Version int             `json:"version,omitempty"`
	Session *engine.Session `json:"session,omitempty"`
	Error   string          `json:"error,omitempty"`
}
