package engine

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

type LineupSlot struct {
	PlayerID string  `json:"playerId"`
	Points   float64 `json:"points"`
}

type Participant struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Lineup []LineupSlot `json:"lineup"`
	Ready  bool         `json:"ready"`
	Score  *float64     `json:"score,omitempty"`
}

// Session is the canonical state of one draft room. Field names on the wire
// are fixed; the frontend reads this shape verbatim.
type Session struct {
	GameCode      string        `json:"gameCode"`
	Season        int           `json:"season"`
	Week          int           `json:"week"`
	Players       []Participant `json:"players"`
	PickedPlayers []string      `json:"pickedPlayers"`
	CurrentTurn   int           `json:"currentTurn"`
	Status        Status        `json:"status"`
	CreatedAt     time.Time     `json:"createdAt"`
}

func NewSession(code string, season, week int, now time.Time) Session {
	return Session{
		GameCode:      code,
		Season:        season,
		Week:          week,
		Players:       []Participant{},
		PickedPlayers: []string{},
		CurrentTurn:   0,
		Status:        StatusWaiting,
		CreatedAt:     now,
	}
}

func NewParticipant(name string) Participant {
	return Participant{
		ID:     uuid.NewString(),
		Name:   name,
		Lineup: []LineupSlot{},
		Ready:  false,
	}
}

// Join appends a participant to a waiting session with an open seat.
func Join(s Session, p Participant) (Session, error) {
	if s.Status != StatusWaiting {
		return s, ErrAlreadyStarted
	}
	if len(s.Players) >= MaxPlayers {
		return s, ErrFull
	}
	ns := s.Clone()
	ns.Players = append(ns.Players, p)
	return ns, nil
}

// Clone deep-copies the session so callers can hand out snapshots without
// sharing lineup or pick slices with the canonical copy.
func (s Session) Clone() Session {
	ns := s
	ns.Players = make([]Participant, len(s.Players))
	for i, p := range s.Players {
		np := p
		np.Lineup = slices.Clone(p.Lineup)
		if p.Score != nil {
			score := *p.Score
			np.Score = &score
		}
		ns.Players[i] = np
	}
	ns.PickedPlayers = slices.Clone(s.PickedPlayers)
	return ns
}

func (s Session) participantIndex(id string) int {
	return slices.IndexFunc(s.Players, func(p Participant) bool { return p.ID == id })
}

func (s Session) allReady() bool {
	if len(s.Players) < MaxPlayers {
		return false
	}
	for _, p := range s.Players {
		if !p.Ready {
			return false
		}
	}
	return true
}

func (s Session) lineupsFull() bool {
	for _, p := range s.Players {
		if len(p.Lineup) < RosterSize {
			return false
		}
	}
	return len(s.Players) > 0
}
