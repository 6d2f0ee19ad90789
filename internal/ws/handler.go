package ws

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/mkearny/draft-battle-backend/internal/engine"
	"github.com/mkearny/draft-battle-backend/internal/hub"
	"github.com/mkearny/draft-battle-backend/internal/lobby"
	"github.com/mkearny/draft-battle-backend/internal/types"
)

// Handler speaks the draft wire protocol: the client opens a socket, sends
// "join-game" to subscribe, then "player-ready" / "pick-player" actions.
// Snapshots go out as "game-update"; validation failures come back as
// "error" frames on this socket only.
func Handler(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			// In dev ONLY, you can loosen origin checks:
			// OriginPatterns: []string{"http://localhost:*", "http://127.0.0.1:*"},
		})
		if err != nil {
			log.Debug("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		var (
			lb       *lobby.Lobby
			out      chan lobby.Outbound
			clientID string
		)
		defer func() {
			if lb != nil {
				lb.Inbox() <- lobby.Unsubscribe{ClientID: clientID}
			}
		}()

		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()

		// Reader loop
		for {
			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
			_, data, err := conn.Read(ctx)
			cancel()
			if err != nil {
				// Treat clean close/going-away as normal:
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				// Otherwise, just exit (Unsubscribe in defer):
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				writeError(r.Context(), conn, "bad json")
				continue
			}

			switch cm.Type {
			case "join-game":
				if lb != nil {
					writeError(r.Context(), conn, "already joined")
					continue
				}
				lb = h.Ensure(cm.GameCode)
				if lb == nil {
					writeError(r.Context(), conn, "game not found")
					continue
				}

				// The writer goroutine owns the socket's send side for the
				// rest of the connection.
				out = make(chan lobby.Outbound, 8)
				clientID = cm.PlayerID + "-" + randID(6)
				lb.Inbox() <- lobby.Subscribe{ClientID: clientID, Outbox: out}
				go writer(writeCtx, conn, out)

			case "player-ready", "pick-player":
				if lb == nil {
					writeError(r.Context(), conn, "join a game first")
					continue
				}
				cmd, ok := toEngineCommand(cm)
				if !ok {
					writeError(r.Context(), conn, "unknown type")
					continue
				}
				lb.Inbox() <- lobby.FromClient{ClientID: clientID, Cmd: cmd}

			default:
				writeError(r.Context(), conn, "unknown type")
			}
		}
	}
}

func writer(ctx context.Context, conn *websocket.Conn, out <-chan lobby.Outbound) {
	for ob := range out {
		msg := types.ServerMessage{}
		if ob.Snapshot != nil {
			msg.Type = "game-update"
			msg.Version = ob.Snapshot.Version
			sess := ob.Snapshot.Session
			msg.Session = &sess
		} else {
			msg.Type = "error"
			msg.Error = ob.Err
		}

		payload, _ := json.Marshal(msg)
		wctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		_ = conn.Write(wctx, websocket.MessageText, payload)
		cancel()
	}
}

func writeError(ctx context.Context, conn *websocket.Conn, text string) {
	payload, _ := json.Marshal(types.ServerMessage{Type: "error", Error: text})
	_ = conn.Write(ctx, websocket.MessageText, payload)
}

func toEngineCommand(m types.ClientMessage) (engine.Command, bool) {
	switch m.Type {
	case "player-ready":
		return engine.Command{Type: engine.CmdReady, ParticipantID: m.PlayerID}, true
	case "pick-player":
		return engine.Command{Type: engine.CmdPick, ParticipantID: m.PlayerID, PlayerID: m.PickedPlayerID}, true
	default:
		return engine.Command{}, false
	}
}

func randID(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}
