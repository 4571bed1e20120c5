package game

import "errors"

// Action rejections. These leave table state untouched and are reported to
// the submitting caller.
var (
	ErrNotYourTurn           = errors.New("not your turn")
	ErrInvalidActionForState = errors.New("action not legal in current state")
	ErrInsufficientStack     = errors.New("insufficient stack")
	ErrTableNotInHand        = errors.New("table is not in a hand")
	ErrHandInProgress        = errors.New("hand in progress")
	ErrNotEnoughPlayers      = errors.New("need at least two funded seats")
	ErrDeckExhausted         = errors.New("deck exhausted")
	ErrSeatNotFound          = errors.New("seat not found")
	ErrNoFreeSeat            = errors.New("no free seat")
)

// InvalidStateError marks an internal invariant violation (negative stack,
// contribution mismatch). The hand must abort loudly instead of settling an
// inconsistent pot.
type InvalidStateError string

func (e InvalidStateError) Error() string { return "invalid table state: " + string(e) }

func errInvalidState(msg string) error { return InvalidStateError(msg) }
