package game

import (
	"testing"
	"time"
)

func newTestRuntime(t *testing.T, buyIns ...int64) *TableRuntime {
	t.Helper()
	rt, err := newTableRuntime(1, TableConfig{SmallBlind: 1, BigBlind: 2, MaxSeats: 6, Seed: 1}, 60, nil)
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}
	for i, buyIn := range buyIns {
		if _, err := rt.table.AddSeat(int64(100+i), buyIn); err != nil {
			t.Fatalf("seat %d: %v", i, err)
		}
	}
	return rt
}

func TestLeaveByUninvolvedSeatKeepsTurnClock(t *testing.T) {
	rt := newTestRuntime(t, 100, 100, 100)
	if _, err := rt.table.StartHand(); err != nil {
		t.Fatalf("start hand: %v", err)
	}

	rt.mu.Lock()
	rt.resetTurnTimerLocked()
	before := rt.turnDeadline
	acting := rt.table.ActingSeat()
	rt.mu.Unlock()
	defer func() {
		rt.mu.Lock()
		rt.cancelTimerLocked()
		rt.mu.Unlock()
	}()

	// a live seat that is not the one to act
	leaver := -1
	for i, s := range rt.table.Seats() {
		if i != acting && s.inHand() {
			leaver = i
			break
		}
	}
	if leaver == -1 {
		t.Fatalf("no uninvolved live seat to leave")
	}

	time.Sleep(5 * time.Millisecond)
	stack, availableNow, err := rt.Leave(rt.table.Seats()[leaver].PlayerID)
	if err != nil {
		t.Fatalf("leave: %v", err)
	}
	if availableNow || stack != 0 {
		t.Fatalf("mid-hand leave must defer the cash-out, got stack=%d now=%v", stack, availableNow)
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()
	if !rt.table.Seats()[leaver].Folded {
		t.Fatalf("leaver's seat must fold")
	}
	if rt.table.ActingSeat() != acting {
		t.Fatalf("acting seat moved from %d to %d", acting, rt.table.ActingSeat())
	}
	if !rt.turnDeadline.Equal(before) {
		t.Fatalf("turn clock was reset by an uninvolved leave: %v -> %v", before, rt.turnDeadline)
	}
}

func TestStateMasksOpponentHoleCards(t *testing.T) {
	rt := newTestRuntime(t, 100, 100)
	if _, err := rt.table.StartHand(); err != nil {
		t.Fatalf("start hand: %v", err)
	}

	state := rt.State(100)
	if state.Phase != PhasePlaying || state.Pot != 3 {
		t.Fatalf("unexpected state: phase=%s pot=%d", state.Phase, state.Pot)
	}
	if len(state.MyCards) != 2 {
		t.Fatalf("viewer must see their own hole cards, got %v", state.MyCards)
	}
	for _, sv := range state.Seats {
		if sv.UserID != 100 && len(sv.Hole) != 0 {
			t.Fatalf("opponent hole cards leaked to seat view: %+v", sv)
		}
	}

	// a viewer without a seat sees no hole cards at all
	outsider := rt.State(999)
	if len(outsider.MyCards) != 0 {
		t.Fatalf("non-seated viewer must not see cards, got %v", outsider.MyCards)
	}
	if outsider.AllowedActions != nil {
		t.Fatalf("non-seated viewer has no actions, got %v", outsider.AllowedActions)
	}
}
