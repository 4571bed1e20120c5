package game

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

type Street int

const (
	StreetPreFlop Street = iota + 1
	StreetFlop
	StreetTurn
	StreetRiver
	StreetShowdown
)

var streetNames = map[Street]string{
	StreetPreFlop:  "pre_flop",
	StreetFlop:     "flop",
	StreetTurn:     "turn",
	StreetRiver:    "river",
	StreetShowdown: "showdown",
}

func (s Street) String() string {
	if name, ok := streetNames[s]; ok {
		return name
	}
	return "waiting"
}

type ActionKind string

const (
	ActionCheck ActionKind = "check"
	ActionCall  ActionKind = "call"
	ActionRaise ActionKind = "raise"
	ActionAllIn ActionKind = "allin"
	ActionFold  ActionKind = "fold"
)

// Seat is one player's participation at the table. Seat order is insertion
// order and doubles as positional order for blind/turn rotation.
type Seat struct {
	PlayerID  int64
	Stack     int64
	StreetBet int64 // contribution during the active street
	HandBet   int64 // cumulative contribution this hand
	Hole      []Card
	Folded    bool
	Acted     bool

	sittingOut bool // no stack, or joined mid-hand; skipped until next deal
}

func (s *Seat) resetForHand() {
	s.StreetBet = 0
	s.HandBet = 0
	s.Hole = nil
	s.Folded = false
	s.Acted = false
	s.sittingOut = s.Stack <= 0
}

// inHand reports whether the seat was dealt into the current hand and has
// not folded.
func (s *Seat) inHand() bool {
	return !s.sittingOut && !s.Folded
}

// canAct reports whether the seat can still put chips in this hand.
func (s *Seat) canAct() bool {
	return s.inHand() && s.Stack > 0
}

// hand bundles all per-hand state. It is built whole by StartHand and
// dropped whole on resolution, so nothing stale leaks into the next hand.
type hand struct {
	no         int64
	deck       *Deck
	community  []Card
	street     Street
	currentBet int64
	acting     int // seat index; -1 once every remaining seat is all-in
	sbPos      int
	bbPos      int
}

type TableConfig struct {
	SmallBlind int64
	BigBlind   int64
	MaxSeats   int
	Seed       int64 // 0 seeds from the clock
}

func (c TableConfig) validate() error {
	if c.SmallBlind <= 0 || c.BigBlind < c.SmallBlind {
		return fmt.Errorf("invalid blinds %d/%d", c.SmallBlind, c.BigBlind)
	}
	if c.MaxSeats < 2 || c.MaxSeats > 10 {
		return fmt.Errorf("invalid seat limit %d", c.MaxSeats)
	}
	return nil
}

// Table is the rules engine for one table. It is not goroutine-safe: the
// owning runtime serializes access (one mutex per table), and separate
// tables never share state.
type Table struct {
	cfg    TableConfig
	rng    *rand.Rand
	seats  []*Seat
	hand   *hand
	sbPos  int // small blind of the previous hand; -1 before the first deal
	handNo int64
}

func NewTable(cfg TableConfig) (*Table, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Table{
		cfg:   cfg,
		rng:   rand.New(rand.NewSource(seed)),
		seats: make([]*Seat, 0, cfg.MaxSeats),
		sbPos: -1,
	}, nil
}

// AddSeat seats a player with their buy-in as the initial stack. Joining
// mid-hand is allowed; the seat sits out until the next deal.
func (t *Table) AddSeat(playerID, buyIn int64) (int, error) {
	if len(t.seats) >= t.cfg.MaxSeats {
		return 0, ErrNoFreeSeat
	}
	if buyIn <= 0 {
		return 0, fmt.Errorf("buy-in must be positive")
	}
	for _, s := range t.seats {
		if s.PlayerID == playerID {
			return 0, fmt.Errorf("player %d already seated", playerID)
		}
	}
	seat := &Seat{
		PlayerID:   playerID,
		Stack:      buyIn,
		sittingOut: true,
		Folded:     true,
		Acted:      true,
	}
	t.seats = append(t.seats, seat)
	return len(t.seats) - 1, nil
}

// RemoveSeat removes a seat between hands and returns its remaining stack.
// Mid-hand the caller must fold the seat first and retry after resolution.
func (t *Table) RemoveSeat(idx int) (int64, error) {
	if idx < 0 || idx >= len(t.seats) {
		return 0, ErrSeatNotFound
	}
	if t.hand != nil {
		// Even a folded seat may have chips in the pot; keep indexes stable
		// until the hand resolves.
		return 0, ErrHandInProgress
	}
	refund := t.seats[idx].Stack
	if idx <= t.sbPos {
		t.sbPos--
	}
	t.seats = append(t.seats[:idx], t.seats[idx+1:]...)
	return refund, nil
}

func (t *Table) SeatCount() int    { return len(t.seats) }
func (t *Table) Seats() []*Seat    { return t.seats }
func (t *Table) InHand() bool      { return t.hand != nil }
func (t *Table) HandNo() int64     { return t.handNo }
func (t *Table) SmallBlind() int64 { return t.cfg.SmallBlind }
func (t *Table) BigBlind() int64   { return t.cfg.BigBlind }

func (t *Table) SeatOf(playerID int64) (int, bool) {
	for i, s := range t.seats {
		if s.PlayerID == playerID {
			return i, true
		}
	}
	return 0, false
}

// Street returns the active street, 0 when no hand is running.
func (t *Table) Street() Street {
	if t.hand == nil {
		return 0
	}
	return t.hand.street
}

// Community returns the revealed community cards.
func (t *Table) Community() []Card {
	if t.hand == nil {
		return nil
	}
	return t.hand.community
}

func (t *Table) CurrentBet() int64 {
	if t.hand == nil {
		return 0
	}
	return t.hand.currentBet
}

// ActingSeat returns the seat index whose turn it is, -1 when undefined
// (no hand, or every remaining seat is all-in).
func (t *Table) ActingSeat() int {
	if t.hand == nil {
		return -1
	}
	return t.hand.acting
}

// PotTotal is every chip committed to the current hand, current street
// included.
func (t *Table) PotTotal() int64 {
	var total int64
	for _, s := range t.seats {
		total += s.HandBet
	}
	return total
}

// FundedSeats counts seats able to play the next hand.
func (t *Table) FundedSeats() int {
	n := 0
	for _, s := range t.seats {
		if s.Stack > 0 {
			n++
		}
	}
	return n
}

// nextSeat finds the first seat at or after `from` (wrapping) matching the
// predicate. The one rotation helper shared by blind posting, turn advance
// and street starts.
func (t *Table) nextSeat(from int, match func(*Seat) bool) int {
	n := len(t.seats)
	if n == 0 {
		return -1
	}
	for i := 0; i < n; i++ {
		idx := ((from+i)%n + n) % n
		if match(t.seats[idx]) {
			return idx
		}
	}
	return -1
}

// StartHand resets seats, rotates blinds, deals hole cards and opens the
// pre-flop street. If the blinds put everyone all-in the hand runs out
// immediately and the result is returned.
func (t *Table) StartHand() (*HandResult, error) {
	if t.hand != nil {
		return nil, ErrHandInProgress
	}
	for _, s := range t.seats {
		s.resetForHand()
	}
	if t.FundedSeats() < 2 {
		return nil, ErrNotEnoughPlayers
	}

	t.handNo++
	h := &hand{
		no:     t.handNo,
		deck:   NewDeck(t.rng),
		street: StreetPreFlop,
		acting: -1,
	}

	playing := func(s *Seat) bool { return !s.sittingOut }

	// Blind rotation: small blind moves one seat past the previous hand's;
	// the very first hand picks a random starting position.
	if t.sbPos < 0 {
		h.sbPos = t.nextSeat(t.rng.Intn(len(t.seats)), playing)
	} else {
		h.sbPos = t.nextSeat(t.sbPos+1, playing)
	}
	h.bbPos = t.nextSeat(h.sbPos+1, playing)
	t.sbPos = h.sbPos

	// A short-stacked blind posts its whole stack rather than failing.
	t.post(t.seats[h.sbPos], min64(t.cfg.SmallBlind, t.seats[h.sbPos].Stack))
	t.post(t.seats[h.bbPos], min64(t.cfg.BigBlind, t.seats[h.bbPos].Stack))
	for _, s := range t.seats {
		if s.StreetBet > h.currentBet {
			h.currentBet = s.StreetBet
		}
	}

	// Two hole cards each, one at a time starting left of the button.
	for round := 0; round < 2; round++ {
		idx := h.sbPos
		for i := 0; i < len(t.seats); i++ {
			seat := t.seats[idx]
			if playing(seat) {
				cards, err := h.deck.Draw(1)
				if err != nil {
					return nil, err
				}
				seat.Hole = append(seat.Hole, cards[0])
			}
			idx = (idx + 1) % len(t.seats)
		}
	}

	t.hand = h
	h.acting = t.nextSeat(h.bbPos+1, (*Seat).canAct)
	if h.acting == -1 {
		// blinds already put every live seat all-in
		return t.runOut()
	}
	return nil, nil
}

// Apply is the single entry point for player actions. It validates the
// action, mutates state, and resolves the hand when it ends (fold-out or
// showdown); a non-nil HandResult means the hand is over.
func (t *Table) Apply(seatIdx int, kind ActionKind, amount int64) (*HandResult, error) {
	if t.hand == nil {
		return nil, ErrTableNotInHand
	}
	if seatIdx < 0 || seatIdx >= len(t.seats) {
		return nil, ErrSeatNotFound
	}
	h := t.hand
	if h.acting != seatIdx {
		return nil, ErrNotYourTurn
	}
	seat := t.seats[seatIdx]

	switch kind {
	case ActionCheck:
		if seat.StreetBet != h.currentBet {
			return nil, fmt.Errorf("%w: cannot check facing a bet", ErrInvalidActionForState)
		}
		seat.Acted = true

	case ActionCall:
		shortfall := h.currentBet - seat.StreetBet
		if shortfall <= 0 {
			return nil, fmt.Errorf("%w: nothing to call", ErrInvalidActionForState)
		}
		// Short stacks call for whatever they have: an implicit all-in that
		// opens a side-pot boundary.
		t.post(seat, min64(shortfall, seat.Stack))
		seat.Acted = true

	case ActionRaise:
		if amount <= 0 {
			return nil, fmt.Errorf("%w: raise amount required", ErrInvalidActionForState)
		}
		target := h.currentBet + amount
		need := target - seat.StreetBet
		if need > seat.Stack {
			return nil, ErrInsufficientStack
		}
		t.post(seat, need)
		h.currentBet = target
		t.reopenAction(seatIdx)
		seat.Acted = true

	case ActionAllIn:
		if seat.Stack <= 0 {
			return nil, fmt.Errorf("%w: no chips left", ErrInvalidActionForState)
		}
		t.post(seat, seat.Stack)
		if seat.StreetBet > h.currentBet {
			h.currentBet = seat.StreetBet
			t.reopenAction(seatIdx)
		}
		seat.Acted = true

	case ActionFold:
		seat.Folded = true

	default:
		return nil, fmt.Errorf("%w: unknown action %q", ErrInvalidActionForState, kind)
	}

	return t.afterAction()
}

// FoldOutOfTurn folds a seat that may not be the one acting, used when a
// player leaves or disconnects mid-hand. A fold that leaves one live seat
// resolves the hand. The acting seat is untouched: anyone the action was
// waiting on still owes a turn.
func (t *Table) FoldOutOfTurn(seatIdx int) (*HandResult, error) {
	if t.hand == nil {
		return nil, ErrTableNotInHand
	}
	if seatIdx < 0 || seatIdx >= len(t.seats) {
		return nil, ErrSeatNotFound
	}
	if t.hand.acting == seatIdx {
		return t.Apply(seatIdx, ActionFold, 0)
	}
	seat := t.seats[seatIdx]
	if !seat.inHand() {
		return nil, nil
	}
	seat.Folded = true
	live := 0
	for _, s := range t.seats {
		if s.inHand() {
			live++
		}
	}
	if live <= 1 {
		return t.resolveFoldOut()
	}
	return nil, nil
}

// post moves chips from the seat's stack into its street contribution.
func (t *Table) post(seat *Seat, n int64) {
	seat.Stack -= n
	seat.StreetBet += n
	seat.HandBet += n
}

// reopenAction clears the acted flag of every other live seat after a
// raise (or raising all-in), so each gets another turn.
func (t *Table) reopenAction(raiser int) {
	for i, s := range t.seats {
		if i != raiser && s.canAct() {
			s.Acted = false
		}
	}
}

func (t *Table) afterAction() (*HandResult, error) {
	live := 0
	for _, s := range t.seats {
		if s.inHand() {
			live++
		}
	}
	if live <= 1 {
		return t.resolveFoldOut()
	}

	if t.streetComplete() {
		return t.advanceStreet()
	}

	h := t.hand
	h.acting = t.nextSeat(h.acting+1, func(s *Seat) bool {
		return s.canAct() && (!s.Acted || s.StreetBet < h.currentBet)
	})
	if h.acting == -1 {
		// Everyone left to speak is all-in; betting is finished for the hand.
		return t.runOut()
	}
	return nil, nil
}

// streetComplete reports whether every seat that can still act has matched
// the current bet and taken its turn.
func (t *Table) streetComplete() bool {
	h := t.hand
	for _, s := range t.seats {
		if !s.canAct() {
			continue
		}
		if !s.Acted || s.StreetBet != h.currentBet {
			return false
		}
	}
	return true
}

func (t *Table) advanceStreet() (*HandResult, error) {
	h := t.hand
	for _, s := range t.seats {
		if s.HandBet < 0 || s.Stack < 0 {
			return nil, errInvalidState(fmt.Sprintf("negative chips at seat %d", h.acting))
		}
		s.StreetBet = 0
		if s.canAct() {
			s.Acted = false
		}
	}
	h.currentBet = 0

	if h.street == StreetRiver {
		h.street = StreetShowdown
		return t.runShowdown()
	}

	h.street++
	if err := t.dealCommunity(); err != nil {
		return nil, err
	}

	h.acting = t.nextSeat(h.sbPos, (*Seat).canAct)
	if h.acting == -1 || t.singleActorLocked() {
		// Nobody (or only one seat) can still bet: deal the board out.
		return t.runOut()
	}
	return nil, nil
}

// singleActorLocked reports whether at most one live seat still has chips,
// with nothing left to call. Betting is then meaningless for the rest of
// the hand.
func (t *Table) singleActorLocked() bool {
	n := 0
	for _, s := range t.seats {
		if s.canAct() {
			n++
		}
	}
	return n <= 1
}

func (t *Table) dealCommunity() error {
	h := t.hand
	var n int
	switch h.street {
	case StreetFlop:
		n = 3
	case StreetTurn, StreetRiver:
		n = 1
	}
	if n == 0 {
		return nil
	}
	cards, err := h.deck.Draw(n)
	if err != nil {
		return err
	}
	h.community = append(h.community, cards...)
	return nil
}

// finishHand clears the per-seat traces of the resolved hand. Stacks
// already hold the payouts; everything else would leak into snapshots and
// pot totals of the next hand. The single reset point for both resolution
// paths.
func (t *Table) finishHand() {
	for _, s := range t.seats {
		s.StreetBet = 0
		s.HandBet = 0
		s.Hole = nil
		s.Folded = false
		s.Acted = false
		s.sittingOut = true
	}
	t.hand = nil
}

// runOut deals the remaining community cards with no further betting and
// goes straight to showdown.
func (t *Table) runOut() (*HandResult, error) {
	h := t.hand
	h.acting = -1
	for h.street < StreetRiver {
		h.street++
		if err := t.dealCommunity(); err != nil {
			return nil, err
		}
	}
	h.street = StreetShowdown
	return t.runShowdown()
}

// resolveFoldOut awards the whole pot to the last seat standing without
// evaluating any hands. The winner's own uncalled chips come back first.
func (t *Table) resolveFoldOut() (*HandResult, error) {
	h := t.hand
	winner := -1
	for i, s := range t.seats {
		if s.inHand() {
			winner = i
			break
		}
	}
	if winner == -1 {
		return nil, errInvalidState("fold-out with no live seat")
	}

	var maxOther int64
	for i, s := range t.seats {
		if i != winner && s.HandBet > maxOther {
			maxOther = s.HandBet
		}
	}
	refund := t.seats[winner].HandBet - maxOther
	if refund < 0 {
		refund = 0
	}
	pot := t.PotTotal() - refund

	deltas := make(map[int]int64, len(t.seats))
	for i, s := range t.seats {
		if s.HandBet == 0 {
			continue
		}
		deltas[i] = -s.HandBet
	}
	deltas[winner] += refund + pot
	t.seats[winner].Stack += refund + pot

	result := &HandResult{
		HandNo:       h.no,
		FoldOut:      true,
		Community:    cardCodes(h.community),
		PotTotal:     pot,
		SeatDeltas:   deltas,
		WinningSeats: []int{winner},
	}
	if refund > 0 {
		result.Refunds = map[int]int64{winner: refund}
	}
	t.finishHand()
	return result, nil
}

// runShowdown evaluates every live hand, builds the side pots and pays
// them out. Evaluation fans out across seats (pure CPU work) but results
// are applied in seat order so remainder chips land deterministically.
func (t *Table) runShowdown() (*HandResult, error) {
	h := t.hand
	if len(h.community) != 5 {
		return nil, errInvalidState(fmt.Sprintf("showdown with %d community cards", len(h.community)))
	}

	type evalOut struct {
		rank HandRank
		best []Card
	}
	evals := make([]*evalOut, len(t.seats))
	var wg sync.WaitGroup
	for i, s := range t.seats {
		if !s.inHand() || len(s.Hole) != 2 {
			continue
		}
		wg.Add(1)
		go func(idx int, seat *Seat) {
			defer wg.Done()
			all := make([]Card, 0, 7)
			all = append(all, seat.Hole...)
			all = append(all, h.community...)
			rank, best := EvaluateBest(all)
			evals[idx] = &evalOut{rank: rank, best: best}
		}(i, s)
	}
	wg.Wait()

	ranks := make(map[int]HandRank, len(t.seats))
	revealed := make([]RevealedHand, 0, len(t.seats))
	for i, s := range t.seats {
		if evals[i] == nil {
			continue
		}
		ranks[i] = evals[i].rank
		revealed = append(revealed, RevealedHand{
			Seat:     i,
			PlayerID: s.PlayerID,
			Hole:     cardCodes(s.Hole),
			Category: evals[i].rank.Category.String(),
			BestFive: cardCodes(evals[i].best),
		})
	}

	contribs := make([]potContribution, 0, len(t.seats))
	for i, s := range t.seats {
		if s.HandBet > 0 {
			contribs = append(contribs, potContribution{seat: i, amount: s.HandBet, folded: !s.inHand()})
		}
	}
	pots, refunds := buildSidePots(contribs)

	// Payout priority starts at the seat after the button, i.e. the small
	// blind, then continues in table order.
	order := make([]int, 0, len(t.seats))
	for i := 0; i < len(t.seats); i++ {
		order = append(order, (h.sbPos+i)%len(t.seats))
	}
	awards, winnings := distributePots(pots, ranks, order)

	deltas := make(map[int]int64, len(t.seats))
	var potTotal int64
	for _, p := range pots {
		potTotal += p.Amount
	}
	winnerSet := make(map[int]struct{})
	for _, a := range awards {
		for _, w := range a.Winners {
			winnerSet[w] = struct{}{}
		}
	}
	winningSeats := make([]int, 0, len(winnerSet))
	for i := range t.seats {
		if _, ok := winnerSet[i]; ok {
			winningSeats = append(winningSeats, i)
		}
	}

	// Apply in fixed seat order.
	for i, s := range t.seats {
		credit := winnings[i] + refunds[i]
		if credit > 0 {
			s.Stack += credit
		}
		if s.HandBet > 0 || credit > 0 {
			deltas[i] = credit - s.HandBet
		}
	}

	var check int64
	for _, d := range deltas {
		check += d
	}
	if check != 0 {
		return nil, errInvalidState(fmt.Sprintf("settlement leaks %d chips", check))
	}

	result := &HandResult{
		HandNo:       h.no,
		Community:    cardCodes(h.community),
		PotTotal:     potTotal,
		SeatDeltas:   deltas,
		WinningSeats: winningSeats,
		Revealed:     revealed,
		Pots:         awards,
	}
	if len(refunds) > 0 {
		result.Refunds = refunds
	}
	t.finishHand()
	return result, nil
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
