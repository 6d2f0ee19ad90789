package lobby

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mkearny/draft-battle-backend/internal/engine"
	"github.com/mkearny/draft-battle-backend/internal/store"
)

// StatProvider resolves weekly fantasy points for the scoring pass.
type StatProvider interface {
	PointsForWeek(ctx context.Context, playerIDs []string, season, week int) (map[string]float64, error)
}

const (
	statFetchAttempts = 2
	statFetchTimeout  = 5 * time.Second
	statRetryDelay    = 500 * time.Millisecond
)

type Msg interface{ isLobbyMsg() }

// Subscribe registers a client outbox; the current snapshot is sent
// immediately.
type Subscribe struct {
	ClientID string
	Outbox   chan Outbound
}

func (Subscribe) isLobbyMsg() {}

type Unsubscribe struct{ ClientID string }

func (Unsubscribe) isLobbyMsg() {}

// FromClient carries a participant action. Validation failures are delivered
// only to the sending client, never broadcast.
type FromClient struct {
	ClientID string
	Cmd      engine.Command
}

func (FromClient) isLobbyMsg() {}

// Refresh reloads the session from the store and broadcasts it. Sent after
// out-of-band mutations such as an HTTP join.
type Refresh struct{}

func (Refresh) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

type Snapshot struct {
	Version int
	Session engine.Session
}

// Outbound is one frame for a subscriber: a snapshot, or an error addressed
// to that client alone.
type Outbound struct {
	Snapshot *Snapshot
	Err      string
}

type View struct {
	Version    int
	NumClients int
	Session    engine.Session
}

// Lobby is the single writer for one game code. Every mutation flows through
// its inbox, which linearizes concurrent client actions per session.
type Lobby struct {
	code    string
	inbox   chan Msg
	state   engine.Session
	version int
	clients map[string]chan Outbound
	store   store.Store
	stats   StatProvider
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewLobby(parent context.Context, initial engine.Session, st store.Store, stats StatProvider, log *zap.Logger) *Lobby {
	ctx, cancel := context.WithCancel(parent)

	l := &Lobby{
		code:    initial.GameCode,
		inbox:   make(chan Msg, 64), // Small buffer
		state:   initial,
		version: 0,
		clients: make(map[string]chan Outbound),
		store:   st,
		stats:   stats,
		log:     log.With(zap.String("game_code", initial.GameCode)),
		ctx:     ctx,
		cancel:  cancel,
	}

	go l.loop()
	return l
}

// Expose the inbox so the ws layer, httpapi, and tests can send messages.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

func (l *Lobby) loop() {
	// A lobby rebuilt from the store may hold a session that finished but
	// never got its scores persisted. Finish the job before serving clients.
	if l.state.Status == engine.StatusFinished && unscored(l.state) {
		l.scoreSession()
	}

	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Subscribe:
				l.clients[msg.ClientID] = msg.Outbox
				msg.Outbox <- Outbound{Snapshot: &Snapshot{Version: l.version, Session: l.state}}

			case Unsubscribe:
				if ch, ok := l.clients[msg.ClientID]; ok {
					close(ch) // lets the client's writer loop exit
					delete(l.clients, msg.ClientID)
				}

			case FromClient:
				l.handleCommand(msg)

			case Refresh:
				sess, err := l.store.Get(l.ctx, l.code)
				if err != nil {
					l.log.Warn("refresh failed", zap.Error(err))
					break
				}
				l.state = sess
				l.version++
				l.broadcast()

			case GetState:
				// test-only: reflect internal state without data races
				msg.Reply <- View{
					Version:    l.version,
					NumClients: len(l.clients),
					Session:    l.state,
				}

			case Shutdown:
				l.shutdown()
				return
			}
		}
	}
}

func (l *Lobby) handleCommand(msg FromClient) {
	var events []engine.Event
	updated, err := l.store.Apply(l.ctx, l.code, func(s engine.Session) (engine.Session, error) {
		evts, next, err := engine.Apply(s, msg.Cmd)
		if err != nil {
			return s, err
		}
		events = evts
		return next, nil
	})
	if err != nil {
		// Recoverable validation failure: tell only the sender.
		l.sendError(msg.ClientID, err)
		return
	}

	l.state = updated

	if containsEvent(events, engine.EvtDraftFinished) {
		// Scoring runs before the final snapshot goes out, so subscribers
		// never see a finished session with unresolved points.
		l.scoreSession()
	}

	l.version++
	l.broadcast()
}

// scoreSession resolves weekly points for every drafted player and persists
// the scored session. Stat-provider failures zero-fill rather than blocking
// the finished transition.
func (l *Lobby) scoreSession() {
	points := l.fetchPoints(l.state.PickedPlayers, l.state.Season, l.state.Week)

	scored, err := l.store.Apply(l.ctx, l.code, func(s engine.Session) (engine.Session, error) {
		return engine.ApplyScores(s, points), nil
	})
	if err != nil {
		l.log.Error("persist scored session failed", zap.Error(err))
		return
	}
	l.state = scored
}

func unscored(s engine.Session) bool {
	for _, p := range s.Players {
		if p.Score == nil {
			return true
		}
	}
	return false
}

func (l *Lobby) fetchPoints(playerIDs []string, season, week int) map[string]float64 {
	for attempt := 1; ; attempt++ {
		ctx, cancel := context.WithTimeout(l.ctx, statFetchTimeout)
		points, err := l.stats.PointsForWeek(ctx, playerIDs, season, week)
		cancel()
		if err == nil {
			return points
		}

		l.log.Warn("stat fetch failed",
			zap.Int("attempt", attempt),
			zap.Int("season", season),
			zap.Int("week", week),
			zap.Error(err))

		if attempt >= statFetchAttempts {
			// Retry budget spent: every drafted player scores zero.
			return map[string]float64{}
		}
		time.Sleep(statRetryDelay)
	}
}

func (l *Lobby) sendError(clientID string, err error) {
	ch, ok := l.clients[clientID]
	if !ok {
		return
	}
	select {
	case ch <- Outbound{Err: err.Error()}:
	default:
		close(ch)
		delete(l.clients, clientID)
	}
}

func (l *Lobby) broadcast() {
	snap := Snapshot{Version: l.version, Session: l.state}
	for id, ch := range l.clients {
		select {
		case ch <- Outbound{Snapshot: &snap}:
			//ok
		default:
			// Client is slow/full - drop them.
			close(ch)
			delete(l.clients, id)
		}
	}
}

func (l *Lobby) shutdown() {
	for id, ch := range l.clients {
		close(ch) // Tell client no more frames
		delete(l.clients, id)
	}
	l.cancel()
}

func containsEvent(events []engine.Event, t engine.EventType) bool {
	for _, e := range events {
		if e.Type == t {
			return true
		}
	}
	return false
}
