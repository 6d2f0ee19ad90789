package engine

import (
	"errors"
	"slices"
)

var ErrFull = errors.New("game is full")
var ErrAlreadyStarted = errors.New("game already started")
var ErrInvalidTransition = errors.New("invalid transition")
var ErrNotYourTurn = errors.New("not your turn")
var ErrAlreadyPicked = errors.New("player already picked")
var ErrUnknownParticipant = errors.New("unknown participant")
var ErrUnsupportedCommand = errors.New("unsupported command")

type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusActive   Status = "active"
	StatusFinished Status = "finished"
)

// RosterSize is the number of lineup slots each participant fills
// (QB, RB x2, WR x2, TE, FLEX, K, DEF).
const RosterSize = 9

// MaxPlayers is fixed: a draft is always head-to-head.
const MaxPlayers = 2

type CommandType string

const (
	CmdReady CommandType = "Ready"
	CmdPick  CommandType = "Pick"
)

type Command struct {
	Type          CommandType
	ParticipantID string
	PlayerID      string // NFL player id, pick commands only
}

type EventType string

const (
	EvtParticipantReady EventType = "ParticipantReady"
	EvtDraftStarted     EventType = "DraftStarted"
	EvtPlayerPicked     EventType = "PlayerPicked"
	EvtTurnAdvanced     EventType = "TurnAdvanced"
	EvtDraftFinished    EventType = "DraftFinished"
)

type Event struct {
	Type          EventType
	ParticipantID string
	PlayerID      string
}

// Apply validates cmd against s and returns the resulting session. On error
// the returned session is s unchanged; a rejected command never mutates state.
func Apply(s Session, cmd Command) ([]Event, Session, error) {
	switch cmd.Type {
	case CmdReady:
		// Readying up only makes sense in the waiting room with a full table.
		if s.Status != StatusWaiting || len(s.Players) < MaxPlayers {
			return nil, s, ErrInvalidTransition
		}

		idx := s.participantIndex(cmd.ParticipantID)
		if idx < 0 {
			return nil, s, ErrUnknownParticipant
		}

		ns := s.Clone()
		ns.Players[idx].Ready = true

		events := []Event{{Type: EvtParticipantReady, ParticipantID: cmd.ParticipantID}}
		if ns.allReady() {
			ns.Status = StatusActive
			ns.CurrentTurn = 0
			events = append(events, Event{Type: EvtDraftStarted})
		}
		return events, ns, nil

	case CmdPick:
		if s.Status != StatusActive {
			return nil, s, ErrInvalidTransition
		}

		active := s.Players[s.CurrentTurn]
		if active.ID != cmd.ParticipantID {
			return nil, s, ErrNotYourTurn
		}
		if slices.Contains(s.PickedPlayers, cmd.PlayerID) {
			return nil, s, ErrAlreadyPicked
		}

		ns := s.Clone()
		ns.Players[ns.CurrentTurn].Lineup = append(ns.Players[ns.CurrentTurn].Lineup, LineupSlot{PlayerID: cmd.PlayerID})
		ns.PickedPlayers = append(ns.PickedPlayers, cmd.PlayerID)

		events := []Event{{Type: EvtPlayerPicked, ParticipantID: active.ID, PlayerID: cmd.PlayerID}}

		if ns.lineupsFull() {
			// The finishing pick does not advance the turn; scoring is applied
			// by the caller before the final snapshot goes out.
			ns.Status = StatusFinished
			events = append(events, Event{Type: EvtDraftFinished})
		} else {
			ns.CurrentTurn = (ns.CurrentTurn + 1) % len(ns.Players)
			events = append(events, Event{Type: EvtTurnAdvanced})
		}
		return events, ns, nil

	default:
		return nil, s, ErrUnsupportedCommand
	}
}
