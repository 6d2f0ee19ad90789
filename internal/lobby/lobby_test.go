package lobby

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mkearny/draft-battle-backend/internal/engine"
	"github.com/mkearny/draft-battle-backend/internal/store"
)

type stubStats struct {
	points map[string]float64
	err    error
	calls  int
}

func (s *stubStats) PointsForWeek(ctx context.Context, playerIDs []string, season, week int) (map[string]float64, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.points, nil
}

// helper: receive one frame with a timeout so tests never hang
func recvFrame(t *testing.T, ch <-chan Outbound, within time.Duration) Outbound {
	t.Helper()
	select {
	case ob, ok := <-ch:
		if !ok {
			t.Fatalf("client outbox closed unexpectedly")
		}
		return ob
	case <-time.After(within):
		t.Fatalf("timed out waiting for frame")
		return Outbound{} // unreachable
	}
}

func recvSnapshot(t *testing.T, ch <-chan Outbound, within time.Duration) Snapshot {
	t.Helper()
	ob := recvFrame(t, ch, within)
	if ob.Snapshot == nil {
		t.Fatalf("expected snapshot, got error frame: %q", ob.Err)
	}
	return *ob.Snapshot
}

func recvNoFrame(t *testing.T, ch <-chan Outbound, within time.Duration) {
	t.Helper()
	select {
	case ob, ok := <-ch:
		if !ok {
			// channel closed → that's fine; no further frames possible
			return
		}
		t.Fatalf("expected no frame within %v, but got: %+v", within, ob)
	case <-time.After(within):
		// good: no frame
	}
}

func recvView(t *testing.T, ch <-chan View, within time.Duration) View {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(within):
		t.Fatalf("timed out waiting for view")
		return View{} // unreachable
	}
}

func waitingSession(code string) engine.Session {
	s := engine.NewSession(code, 2023, 5, time.Now())
	s.Players = []engine.Participant{
		{ID: "1", Name: "Alice", Lineup: []engine.LineupSlot{}},
		{ID: "2", Name: "Bob", Lineup: []engine.LineupSlot{}},
	}
	return s
}

func activeSession(code string) engine.Session {
	s := waitingSession(code)
	s.Players[0].Ready = true
	s.Players[1].Ready = true
	s.Status = engine.StatusActive
	return s
}

func newTestLobby(t *testing.T, sess engine.Session, stats StatProvider) (*Lobby, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	if err := st.Create(context.Background(), sess); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	if stats == nil {
		stats = &stubStats{points: map[string]float64{}}
	}
	return NewLobby(ctx, sess, st, stats, zap.NewNop()), st
}

func TestLobby_SubscribeSendsCurrentSnapshot(t *testing.T) {
	l, _ := newTestLobby(t, waitingSession("SUB001"), nil)

	out := make(chan Outbound, 2)
	l.Inbox() <- Subscribe{ClientID: "c1", Outbox: out}

	snap := recvSnapshot(t, out, 100*time.Millisecond)
	if snap.Version != 0 {
		t.Fatalf("after subscribe: want version=0, got %d", snap.Version)
	}
	if snap.Session.Status != engine.StatusWaiting {
		t.Fatalf("want waiting session, got %q", snap.Session.Status)
	}
}

func TestLobby_Pick_BroadcastsSnapshotAndVersionIncrements(t *testing.T) {
	l, _ := newTestLobby(t, activeSession("PIC001"), nil)

	out := make(chan Outbound, 4)
	l.Inbox() <- Subscribe{ClientID: "c1", Outbox: out}
	first := recvSnapshot(t, out, 100*time.Millisecond)
	if first.Version != 0 {
		t.Fatalf("after subscribe: want version=0, got %d", first.Version)
	}

	l.Inbox() <- FromClient{ClientID: "c1", Cmd: engine.Command{
		Type: engine.CmdPick, ParticipantID: "1", PlayerID: "4046",
	}}

	next := recvSnapshot(t, out, 100*time.Millisecond)
	if next.Version != 1 {
		t.Fatalf("after pick: want version=1, got %d", next.Version)
	}
	lineup := next.Session.Players[0].Lineup
	if len(lineup) != 1 || lineup[0].PlayerID != "4046" {
		t.Fatalf("after pick: expected lineup [4046], got %+v", lineup)
	}
	if next.Session.CurrentTurn != 1 {
		t.Fatalf("after pick: want turn 1, got %d", next.Session.CurrentTurn)
	}
}

func TestLobby_RejectedPickGoesOnlyToSender(t *testing.T) {
	l, st := newTestLobby(t, activeSession("REJ001"), nil)

	alice := make(chan Outbound, 4)
	bob := make(chan Outbound, 4)
	l.Inbox() <- Subscribe{ClientID: "alice", Outbox: alice}
	l.Inbox() <- Subscribe{ClientID: "bob", Outbox: bob}
	_ = recvSnapshot(t, alice, 100*time.Millisecond)
	_ = recvSnapshot(t, bob, 100*time.Millisecond)

	// Bob picks out of turn.
	l.Inbox() <- FromClient{ClientID: "bob", Cmd: engine.Command{
		Type: engine.CmdPick, ParticipantID: "2", PlayerID: "4046",
	}}

	frame := recvFrame(t, bob, 100*time.Millisecond)
	if frame.Snapshot != nil || frame.Err == "" {
		t.Fatalf("expected error frame for bob, got %+v", frame)
	}
	recvNoFrame(t, alice, 150*time.Millisecond)

	sess, err := st.Get(context.Background(), "REJ001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(sess.PickedPlayers) != 0 {
		t.Fatalf("rejected pick mutated persisted session: %+v", sess.PickedPlayers)
	}
}

func TestLobby_ReadyUpStartsDraft(t *testing.T) {
	l, _ := newTestLobby(t, waitingSession("RDY001"), nil)

	out := make(chan Outbound, 4)
	l.Inbox() <- Subscribe{ClientID: "c1", Outbox: out}
	_ = recvSnapshot(t, out, 100*time.Millisecond)

	l.Inbox() <- FromClient{ClientID: "c1", Cmd: engine.Command{Type: engine.CmdReady, ParticipantID: "1"}}
	mid := recvSnapshot(t, out, 100*time.Millisecond)
	if mid.Session.Status != engine.StatusWaiting {
		t.Fatalf("one ready should keep waiting, got %q", mid.Session.Status)
	}

	l.Inbox() <- FromClient{ClientID: "c1", Cmd: engine.Command{Type: engine.CmdReady, ParticipantID: "2"}}
	started := recvSnapshot(t, out, 100*time.Millisecond)
	if started.Session.Status != engine.StatusActive {
		t.Fatalf("want active, got %q", started.Session.Status)
	}
	if started.Session.CurrentTurn != 0 {
		t.Fatalf("want currentTurn=0, got %d", started.Session.CurrentTurn)
	}
}

func TestLobby_FinishingPickScoresBeforeBroadcast(t *testing.T) {
	sess := activeSession("FIN001")
	// Both one pick away from a full roster; Alice to act.
	for i := 0; i < engine.RosterSize; i++ {
		if i < engine.RosterSize-1 {
			a := fmt.Sprintf("a%d", i)
			sess.Players[0].Lineup = append(sess.Players[0].Lineup, engine.LineupSlot{PlayerID: a})
			sess.PickedPlayers = append(sess.PickedPlayers, a)
		}
		b := fmt.Sprintf("b%d", i)
		sess.Players[1].Lineup = append(sess.Players[1].Lineup, engine.LineupSlot{PlayerID: b})
		sess.PickedPlayers = append(sess.PickedPlayers, b)
	}
	sess.CurrentTurn = 0

	points := map[string]float64{"last": 24.6}
	for i := 0; i < engine.RosterSize; i++ {
		points[fmt.Sprintf("a%d", i)] = 1.0
		points[fmt.Sprintf("b%d", i)] = 2.0
	}
	stats := &stubStats{points: points}

	l, st := newTestLobby(t, sess, stats)

	out := make(chan Outbound, 4)
	l.Inbox() <- Subscribe{ClientID: "c1", Outbox: out}
	_ = recvSnapshot(t, out, 100*time.Millisecond)

	l.Inbox() <- FromClient{ClientID: "c1", Cmd: engine.Command{
		Type: engine.CmdPick, ParticipantID: "1", PlayerID: "last",
	}}

	final := recvSnapshot(t, out, 500*time.Millisecond)
	if final.Session.Status != engine.StatusFinished {
		t.Fatalf("want finished, got %q", final.Session.Status)
	}
	if stats.calls != 1 {
		t.Fatalf("want exactly one stat fetch, got %d", stats.calls)
	}

	// A single snapshot carries resolved points and totals.
	alice := final.Session.Players[0]
	if alice.Score == nil || *alice.Score != 8*1.0+24.6 {
		t.Fatalf("want alice score %.1f, got %v", 8*1.0+24.6, alice.Score)
	}
	bob := final.Session.Players[1]
	if bob.Score == nil || *bob.Score != 9*2.0 {
		t.Fatalf("want bob score 18.0, got %v", bob.Score)
	}
	recvNoFrame(t, out, 150*time.Millisecond)

	// Scored session is persisted.
	stored, err := st.Get(context.Background(), "FIN001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Players[0].Score == nil {
		t.Fatalf("scored session not persisted")
	}
}

func TestLobby_StatProviderFailureZeroFills(t *testing.T) {
	sess := activeSession("ZRO001")
	for i := 0; i < engine.RosterSize; i++ {
		if i < engine.RosterSize-1 {
			a := fmt.Sprintf("a%d", i)
			sess.Players[0].Lineup = append(sess.Players[0].Lineup, engine.LineupSlot{PlayerID: a})
			sess.PickedPlayers = append(sess.PickedPlayers, a)
		}
		b := fmt.Sprintf("b%d", i)
		sess.Players[1].Lineup = append(sess.Players[1].Lineup, engine.LineupSlot{PlayerID: b})
		sess.PickedPlayers = append(sess.PickedPlayers, b)
	}
	sess.CurrentTurn = 0

	stats := &stubStats{err: errors.New("sleeper is down")}
	l, _ := newTestLobby(t, sess, stats)

	out := make(chan Outbound, 4)
	l.Inbox() <- Subscribe{ClientID: "c1", Outbox: out}
	_ = recvSnapshot(t, out, 100*time.Millisecond)

	l.Inbox() <- FromClient{ClientID: "c1", Cmd: engine.Command{
		Type: engine.CmdPick, ParticipantID: "1", PlayerID: "last",
	}}

	final := recvSnapshot(t, out, 3*time.Second)
	if final.Session.Status != engine.StatusFinished {
		t.Fatalf("stat failure must not block the finished transition, got %q", final.Session.Status)
	}
	if stats.calls < 2 {
		t.Fatalf("want a bounded retry, got %d calls", stats.calls)
	}
	for _, p := range final.Session.Players {
		if p.Score == nil || *p.Score != 0 {
			t.Fatalf("want zero-filled score, got %v", p.Score)
		}
	}
}

func TestLobby_DropSlowClient(t *testing.T) {
	l, _ := newTestLobby(t, activeSession("SLW001"), nil)

	out := make(chan Outbound, 1)
	l.Inbox() <- Subscribe{ClientID: "c1", Outbox: out}

	// The subscribe snapshot fills the buffer; the pick broadcast can't be
	// delivered and the client is dropped.
	l.Inbox() <- FromClient{ClientID: "c1", Cmd: engine.Command{
		Type: engine.CmdPick, ParticipantID: "1", PlayerID: "4046",
	}}

	reply := make(chan View, 1)
	l.Inbox() <- GetState{Reply: reply}
	view := recvView(t, reply, 100*time.Millisecond)

	if view.NumClients != 0 {
		t.Fatalf("expected slow client to be dropped; NumClients=%d", view.NumClients)
	}
}

func TestLobby_RefreshBroadcastsStoreState(t *testing.T) {
	sess := waitingSession("RFR001")
	sess.Players = sess.Players[:1]
	l, st := newTestLobby(t, sess, nil)

	out := make(chan Outbound, 4)
	l.Inbox() <- Subscribe{ClientID: "c1", Outbox: out}
	_ = recvSnapshot(t, out, 100*time.Millisecond)

	// Second participant joins through the HTTP layer, then the lobby is
	// poked to rebroadcast.
	_, err := st.Apply(context.Background(), "RFR001", func(s engine.Session) (engine.Session, error) {
		return engine.Join(s, engine.Participant{ID: "2", Name: "Bob", Lineup: []engine.LineupSlot{}})
	})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	l.Inbox() <- Refresh{}

	snap := recvSnapshot(t, out, 100*time.Millisecond)
	if len(snap.Session.Players) != 2 {
		t.Fatalf("refresh should carry the joined participant, got %d players", len(snap.Session.Players))
	}
}

func TestLobby_RebuildRescoresFinishedSession(t *testing.T) {
	// A finished session whose scores were never written, as after a crash
	// between the final pick and the scoring write.
	sess := activeSession("RSC001")
	for i := 0; i < engine.RosterSize; i++ {
		a := fmt.Sprintf("a%d", i)
		b := fmt.Sprintf("b%d", i)
		sess.Players[0].Lineup = append(sess.Players[0].Lineup, engine.LineupSlot{PlayerID: a})
		sess.Players[1].Lineup = append(sess.Players[1].Lineup, engine.LineupSlot{PlayerID: b})
		sess.PickedPlayers = append(sess.PickedPlayers, a, b)
	}
	sess.Status = engine.StatusFinished

	points := map[string]float64{}
	for i := 0; i < engine.RosterSize; i++ {
		points[fmt.Sprintf("a%d", i)] = 1.0
		points[fmt.Sprintf("b%d", i)] = 2.0
	}
	stats := &stubStats{points: points}

	l, st := newTestLobby(t, sess, stats)

	out := make(chan Outbound, 2)
	l.Inbox() <- Subscribe{ClientID: "c1", Outbox: out}

	snap := recvSnapshot(t, out, 500*time.Millisecond)
	if snap.Session.Players[0].Score == nil || *snap.Session.Players[0].Score != 9.0 {
		t.Fatalf("want alice rescored to 9.0, got %v", snap.Session.Players[0].Score)
	}
	if stats.calls != 1 {
		t.Fatalf("want one stat fetch on rebuild, got %d", stats.calls)
	}

	stored, err := st.Get(context.Background(), "RSC001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Players[1].Score == nil || *stored.Players[1].Score != 18.0 {
		t.Fatalf("want bob score 18.0 persisted, got %v", stored.Players[1].Score)
	}
}

func TestLobby_Shutdown_ClosesOutboxes(t *testing.T) {
	l, _ := newTestLobby(t, waitingSession("SHD001"), nil)

	out := make(chan Outbound, 2)
	l.Inbox() <- Subscribe{ClientID: "c1", Outbox: out}
	_ = recvSnapshot(t, out, 100*time.Millisecond)

	l.Inbox() <- Shutdown{}

	select {
	case _, ok := <-out:
		if ok {
			t.Fatalf("expected closed outbox after shutdown")
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("outbox not closed after shutdown")
	}
}
