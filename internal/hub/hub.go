package hub

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/mkearny/draft-battle-backend/internal/lobby"
	"github.com/mkearny/draft-battle-backend/internal/store"
)

type HubMsg interface{ isHubMsg() }

// EnsureLobby replies with the lobby for a code, creating one from the
// persisted session if needed. Replies nil when no such session exists, so
// a lobby never outlives its store record.
type EnsureLobby struct {
	Code  string
	Reply chan *lobby.Lobby
}

type GetLobby struct {
	Code  string
	Reply chan *lobby.Lobby
}

type RemoveLobby struct {
	Code string
}

type ShutdownHub struct{}

func (EnsureLobby) isHubMsg() {}
func (GetLobby) isHubMsg()    {}
func (RemoveLobby) isHubMsg() {}
func (ShutdownHub) isHubMsg() {}

// Hub owns the lobby map. All access goes through its inbox.
type Hub struct {
	inbox   chan HubMsg
	lobbies map[string]*lobby.Lobby
	store   store.Store
	stats   lobby.StatProvider
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewHub(parent context.Context, st store.Store, stats lobby.StatProvider, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:   make(chan HubMsg, 64),
		lobbies: make(map[string]*lobby.Lobby),
		store:   st,
		stats:   stats,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case EnsureLobby:
				if lb := h.lobbies[msg.Code]; lb != nil {
					msg.Reply <- lb
					break
				}
				msg.Reply <- h.spawn(msg.Code)

			case GetLobby:
				msg.Reply <- h.lobbies[msg.Code] // May be nil

			case RemoveLobby:
				if lb := h.lobbies[msg.Code]; lb != nil {
					lb.Inbox() <- lobby.Shutdown{}
				}
				delete(h.lobbies, msg.Code)

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

// spawn builds a lobby around the persisted session, or nil when the code is
// unknown.
func (h *Hub) spawn(code string) *lobby.Lobby {
	sess, err := h.store.Get(h.ctx, code)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			h.log.Warn("load session failed", zap.String("game_code", code), zap.Error(err))
		}
		return nil
	}

	lb := lobby.NewLobby(h.ctx, sess, h.store, h.stats, h.log)
	h.lobbies[code] = lb
	return lb
}

func (h *Hub) shutdown() {
	for _, lb := range h.lobbies {
		lb.Inbox() <- lobby.Shutdown{}
	}
	clear(h.lobbies)
	h.cancel()
}

// Lobby is a synchronous convenience wrapper around GetLobby.
func (h *Hub) Lobby(code string) *lobby.Lobby {
	reply := make(chan *lobby.Lobby, 1)
	h.inbox <- GetLobby{Code: code, Reply: reply}
	return <-reply
}

// Ensure is a synchronous convenience wrapper around EnsureLobby.
func (h *Hub) Ensure(code string) *lobby.Lobby {
	reply := make(chan *lobby.Lobby, 1)
	h.inbox <- EnsureLobby{Code: code, Reply: reply}
	return <-reply
}
