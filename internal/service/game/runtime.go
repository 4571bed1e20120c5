package game

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"pano-service/pkg/logger"

	"go.uber.org/zap"
)

type Phase string

const (
	PhaseWaiting Phase = "waiting"
	PhasePlaying Phase = "playing"
)

const (
	defaultTurnSeconds = 15
	nextHandDelay      = 3 * time.Second
)

type SeatView struct {
	SeatIndex  int      `json:"seatIndex"`
	UserID     int64    `json:"userId,string"`
	Alias      string   `json:"alias"`
	Stack      int64    `json:"stack"`
	StreetBet  int64    `json:"streetBet"`
	Folded     bool     `json:"folded"`
	AllIn      bool     `json:"allIn"`
	SittingOut bool     `json:"sittingOut"`
	Hole       []string `json:"hole,omitempty"` // only the viewer's own seat
}

type TableState struct {
	TableID        int64       `json:"tableId,string"`
	Phase          Phase       `json:"phase"`
	HandNo         int64       `json:"handNo"`
	Street         string      `json:"street"`
	Pot            int64       `json:"pot"`
	CurrentBet     int64       `json:"currentBet"`
	TurnSeat       int         `json:"turnSeat"`
	Countdown      int         `json:"countdown"`
	AllowedActions []string    `json:"allowedActions"`
	Community      []string    `json:"community"`
	Seats          []SeatView  `json:"seats"`
	MyCards        []string    `json:"myCards"`
	LastResult     *HandResult `json:"lastResult,omitempty"`
}

type OutgoingMessage struct {
	Type string      `json:"type"`
	Seq  int64       `json:"seq"`
	Data interface{} `json:"data"`
}

// SeatSnapshot is the persistence view of one seat after a hand settles.
type SeatSnapshot struct {
	SeatIndex int
	UserID    int64
	Alias     string
	Stack     int64
	Delta     int64
	Left      bool // seat left during the hand; stack must be cashed out
}

// TableRuntime owns one live table: the rules engine, the turn clock and
// the websocket subscribers. All state behind mu; methods with the Locked
// suffix expect it held.
type TableRuntime struct {
	tableID     int64
	table       *Table
	aliases     map[int64]string
	leaving     map[int64]bool // fold requested mid-hand, seat removed after settle
	turnSeconds int

	subscribers  map[int64]chan OutgoingMessage
	timer        *time.Timer
	nextHand     *time.Timer
	turnDeadline time.Time
	seq          int64
	lastResult   *HandResult

	mu sync.Mutex

	onSettle func(tableID int64, result *HandResult, seats []SeatSnapshot)
}

func newTableRuntime(tableID int64, cfg TableConfig, turnSeconds int, onSettle func(int64, *HandResult, []SeatSnapshot)) (*TableRuntime, error) {
	tbl, err := NewTable(cfg)
	if err != nil {
		return nil, err
	}
	if turnSeconds <= 0 {
		turnSeconds = defaultTurnSeconds
	}
	return &TableRuntime{
		tableID:     tableID,
		table:       tbl,
		aliases:     make(map[int64]string),
		leaving:     make(map[int64]bool),
		turnSeconds: turnSeconds,
		subscribers: make(map[int64]chan OutgoingMessage),
		onSettle:    onSettle,
	}, nil
}

func (rt *TableRuntime) TableID() int64 { return rt.tableID }

// Join seats a user with their buy-in. A hand in progress is fine: the
// seat waits for the next deal.
func (rt *TableRuntime) Join(userID int64, alias string, buyIn int64) (int, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	idx, err := rt.table.AddSeat(userID, buyIn)
	if err != nil {
		return 0, err
	}
	rt.aliases[userID] = alias
	rt.maybeStartHandLocked()
	rt.broadcastStateLocked()
	return idx, nil
}

// Leave removes a user's seat and returns the stack to cash out. Mid-hand
// the seat is folded and removal is deferred to settlement; the second
// return value reports whether the chips are available now.
func (rt *TableRuntime) Leave(userID int64) (int64, bool, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	idx, ok := rt.table.SeatOf(userID)
	if !ok {
		return 0, false, ErrSeatNotFound
	}
	seat := rt.table.Seats()[idx]

	if rt.table.InHand() && seat.inHand() {
		rt.leaving[userID] = true
		actingBefore := rt.table.ActingSeat()
		result, err := rt.table.FoldOutOfTurn(idx)
		switch {
		case err != nil:
			logger.Log.Error("mid-hand leave fold failed",
				zap.Int64("tableID", rt.tableID),
				zap.Int64("userID", userID),
				zap.Error(err),
			)
		case result != nil:
			rt.settleLocked(result)
		case rt.table.ActingSeat() != actingBefore:
			// the leaver was the one to act; the clock belongs to the next
			// seat now. An uninvolved fold leaves the running clock alone.
			rt.resetTurnTimerLocked()
		}
		rt.broadcastStateLocked()
		return 0, false, nil
	}

	stack, err := rt.table.RemoveSeat(idx)
	if err != nil {
		return 0, false, err
	}
	delete(rt.aliases, userID)
	delete(rt.leaving, userID)
	rt.broadcastStateLocked()
	return stack, true, nil
}

func (rt *TableRuntime) Subscribe(userID int64) chan OutgoingMessage {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	ch := make(chan OutgoingMessage, 8)
	rt.subscribers[userID] = ch
	rt.pushStateLocked(userID)
	return ch
}

func (rt *TableRuntime) Unsubscribe(userID int64) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if ch, ok := rt.subscribers[userID]; ok {
		delete(rt.subscribers, userID)
		close(ch)
	}
}

// HasSeat reports whether the user currently occupies a seat.
func (rt *TableRuntime) HasSeat(userID int64) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	_, ok := rt.table.SeatOf(userID)
	return ok
}

func (rt *TableRuntime) HandleAction(userID int64, action string, data json.RawMessage) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	switch action {
	case "check", "call", "raise", "allin", "fold":
		return rt.handleTurnActionLocked(userID, ActionKind(action), data)
	case "rejoin":
		rt.pushStateLocked(userID)
		return nil
	case "ping":
		rt.pushMessageLocked(userID, OutgoingMessage{Type: "pong", Seq: rt.nextSeqLocked(), Data: ginH{"message": "pong"}})
		return nil
	default:
		return fmt.Errorf("unsupported action %q", action)
	}
}

func (rt *TableRuntime) handleTurnActionLocked(userID int64, kind ActionKind, data json.RawMessage) error {
	seatIdx, ok := rt.table.SeatOf(userID)
	if !ok {
		return ErrSeatNotFound
	}

	var amount int64
	if kind == ActionRaise {
		var payload struct {
			Amount int64 `json:"amount"`
		}
		if len(data) > 0 {
			_ = json.Unmarshal(data, &payload)
		}
		amount = payload.Amount
	}

	result, err := rt.table.Apply(seatIdx, kind, amount)
	if err != nil {
		return err
	}
	rt.handleResultLocked(result)
	rt.broadcastStateLocked()
	return nil
}

// handleResultLocked reacts to the engine finishing (or continuing) a
// hand: settle and schedule the next deal, or rearm the turn clock.
func (rt *TableRuntime) handleResultLocked(result *HandResult) {
	if result == nil {
		rt.resetTurnTimerLocked()
		return
	}
	rt.settleLocked(result)
}

func (rt *TableRuntime) settleLocked(result *HandResult) {
	rt.cancelTimerLocked()
	rt.turnDeadline = time.Time{}
	rt.lastResult = result

	rt.broadcastMessageLocked("hand_result", result)

	// Snapshot before touching the seat list so indexes still line up with
	// the result's deltas.
	snaps := rt.seatSnapshotsLocked(result)
	for i := range snaps {
		snaps[i].Left = rt.leaving[snaps[i].UserID]
	}

	// Deferred leaves: the hand is over, seats can go now. Their stacks are
	// cashed out by the settle callback via the Left flag.
	for userID := range rt.leaving {
		if idx, ok := rt.table.SeatOf(userID); ok {
			if _, err := rt.table.RemoveSeat(idx); err != nil {
				logger.Log.Error("deferred seat removal failed",
					zap.Int64("tableID", rt.tableID),
					zap.Int64("userID", userID),
					zap.Error(err),
				)
				continue
			}
		}
		delete(rt.aliases, userID)
		delete(rt.leaving, userID)
	}

	if rt.onSettle != nil {
		go rt.onSettle(rt.tableID, result, snaps)
	}

	if rt.nextHand != nil {
		rt.nextHand.Stop()
	}
	rt.nextHand = time.AfterFunc(nextHandDelay, rt.onNextHandTimer)
}

func (rt *TableRuntime) onNextHandTimer() {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.maybeStartHandLocked()
	rt.broadcastStateLocked()
}

// maybeStartHandLocked deals a new hand when the table is idle and at
// least two seats can fund a blind.
func (rt *TableRuntime) maybeStartHandLocked() {
	if rt.table.InHand() || rt.table.FundedSeats() < 2 {
		return
	}
	result, err := rt.table.StartHand()
	if err != nil {
		logger.Log.Error("start hand failed", zap.Int64("tableID", rt.tableID), zap.Error(err))
		return
	}
	rt.lastResult = nil
	if result != nil {
		// blinds put everyone all-in and the hand ran out immediately
		rt.settleLocked(result)
		return
	}
	rt.resetTurnTimerLocked()
}

// State renders the table for one viewer, hole cards masked to their own.
// Serves the HTTP snapshot query; websocket pushes use the same export.
func (rt *TableRuntime) State(userID int64) TableState {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.exportStateLocked(userID)
}

func (rt *TableRuntime) pushStateLocked(userID int64) {
	rt.pushMessageLocked(userID, OutgoingMessage{
		Type: "state",
		Seq:  rt.nextSeqLocked(),
		Data: rt.exportStateLocked(userID),
	})
}

func (rt *TableRuntime) broadcastStateLocked() {
	stateSeq := rt.nextSeqLocked()
	for uid, ch := range rt.subscribers {
		msg := OutgoingMessage{
			Type: "state",
			Seq:  stateSeq,
			Data: rt.exportStateLocked(uid),
		}
		select {
		case ch <- msg:
		default:
			logger.Log.Warn("ws subscriber channel full", zap.Int64("userID", uid), zap.Int64("tableID", rt.tableID))
		}
	}
}

func (rt *TableRuntime) broadcastMessageLocked(msgType string, data interface{}) {
	msg := OutgoingMessage{Type: msgType, Seq: rt.nextSeqLocked(), Data: data}
	for uid, ch := range rt.subscribers {
		select {
		case ch <- msg:
		default:
			logger.Log.Warn("ws subscriber channel full", zap.Int64("userID", uid), zap.Int64("tableID", rt.tableID))
		}
	}
}

func (rt *TableRuntime) pushMessageLocked(userID int64, msg OutgoingMessage) {
	if ch, ok := rt.subscribers[userID]; ok {
		select {
		case ch <- msg:
		default:
			logger.Log.Warn("ws subscriber channel full", zap.Int64("userID", userID), zap.Int64("tableID", rt.tableID))
		}
	}
}

func (rt *TableRuntime) nextSeqLocked() int64 {
	rt.seq++
	return rt.seq
}

// exportStateLocked renders the table for one viewer. Hole cards are
// never exported for other seats; opponents' holdings surface only in the
// hand_result reveal.
func (rt *TableRuntime) exportStateLocked(userID int64) TableState {
	phase := PhaseWaiting
	if rt.table.InHand() {
		phase = PhasePlaying
	}

	seats := make([]SeatView, 0, rt.table.SeatCount())
	var myCards []string
	for i, s := range rt.table.Seats() {
		view := SeatView{
			SeatIndex:  i,
			UserID:     s.PlayerID,
			Alias:      rt.aliases[s.PlayerID],
			Stack:      s.Stack,
			StreetBet:  s.StreetBet,
			Folded:     s.Folded,
			AllIn:      s.inHand() && s.Stack == 0,
			SittingOut: s.sittingOut,
		}
		if s.PlayerID == userID && len(s.Hole) > 0 {
			view.Hole = cardCodes(s.Hole)
			myCards = view.Hole
		}
		seats = append(seats, view)
	}
	if myCards == nil {
		myCards = []string{}
	}

	return TableState{
		TableID:        rt.tableID,
		Phase:          phase,
		HandNo:         rt.table.HandNo(),
		Street:         rt.table.Street().String(),
		Pot:            rt.table.PotTotal(),
		CurrentBet:     rt.table.CurrentBet(),
		TurnSeat:       rt.table.ActingSeat(),
		Countdown:      rt.countdownSecondsLocked(),
		AllowedActions: rt.allowedActionsLocked(userID),
		Community:      cardCodes(rt.table.Community()),
		Seats:          seats,
		MyCards:        myCards,
		LastResult:     rt.lastResult,
	}
}

func (rt *TableRuntime) allowedActionsLocked(userID int64) []string {
	seatIdx, ok := rt.table.SeatOf(userID)
	if !ok || !rt.table.InHand() || rt.table.ActingSeat() != seatIdx {
		return nil
	}
	seat := rt.table.Seats()[seatIdx]
	actions := make([]string, 0, 4)
	if seat.StreetBet == rt.table.CurrentBet() {
		actions = append(actions, "check")
	} else {
		actions = append(actions, "call")
	}
	if seat.Stack > rt.table.CurrentBet()-seat.StreetBet {
		actions = append(actions, "raise")
	}
	if seat.Stack > 0 {
		actions = append(actions, "allin")
	}
	return append(actions, "fold")
}

func (rt *TableRuntime) seatSnapshotsLocked(result *HandResult) []SeatSnapshot {
	snaps := make([]SeatSnapshot, 0, rt.table.SeatCount())
	for i, s := range rt.table.Seats() {
		snaps = append(snaps, SeatSnapshot{
			SeatIndex: i,
			UserID:    s.PlayerID,
			Alias:     rt.aliases[s.PlayerID],
			Stack:     s.Stack,
			Delta:     result.SeatDeltas[i],
		})
	}
	return snaps
}

// PlayersSnapshot exports current seat occupancy for persistence.
func (rt *TableRuntime) PlayersSnapshot() []SeatSnapshot {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	snaps := make([]SeatSnapshot, 0, rt.table.SeatCount())
	for i, s := range rt.table.Seats() {
		snaps = append(snaps, SeatSnapshot{
			SeatIndex: i,
			UserID:    s.PlayerID,
			Alias:     rt.aliases[s.PlayerID],
			Stack:     s.Stack,
		})
	}
	return snaps
}

func (rt *TableRuntime) resetTurnTimerLocked() {
	rt.cancelTimerLocked()
	if rt.table.ActingSeat() == -1 {
		rt.turnDeadline = time.Time{}
		return
	}
	d := time.Duration(rt.turnSeconds) * time.Second
	rt.turnDeadline = time.Now().Add(d)
	rt.timer = time.AfterFunc(d, rt.onTurnTimeout)
}

// onTurnTimeout plays for a slow seat: check when legal, fold otherwise.
func (rt *TableRuntime) onTurnTimeout() {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	seatIdx := rt.table.ActingSeat()
	if !rt.table.InHand() || seatIdx == -1 {
		return
	}

	logger.Log.Warn("turn timeout auto-play",
		zap.Int64("tableID", rt.tableID),
		zap.Int("seat", seatIdx),
	)

	result, err := rt.table.Apply(seatIdx, ActionCheck, 0)
	if err != nil {
		result, err = rt.table.Apply(seatIdx, ActionFold, 0)
		if err != nil {
			logger.Log.Error("auto-fold failed", zap.Int64("tableID", rt.tableID), zap.Error(err))
			return
		}
	}
	rt.handleResultLocked(result)
	rt.broadcastStateLocked()
}

func (rt *TableRuntime) cancelTimerLocked() {
	if rt.timer != nil {
		rt.timer.Stop()
		rt.timer = nil
	}
}

func (rt *TableRuntime) countdownSecondsLocked() int {
	if rt.turnDeadline.IsZero() {
		return 0
	}
	diff := time.Until(rt.turnDeadline)
	if diff <= 0 {
		return 0
	}
	return int(diff / time.Second)
}

// ginH is a tiny helper to avoid importing gin in this file.
type ginH map[string]interface{}
