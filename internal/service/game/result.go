package game

// RevealedHand is one showdown participant's evaluated holding.
type RevealedHand struct {
	Seat     int      `json:"seat"`
	PlayerID int64    `json:"playerId"`
	Hole     []string `json:"hole"`
	Category string   `json:"category"`
	BestFive []string `json:"bestFive"`
}

// HandResult is the full outcome of one hand: chip movement per seat plus
// everything a client needs to render the ending. SeatDeltas are net against
// each seat's total contribution; they always sum to zero.
type HandResult struct {
	HandNo       int64           `json:"handNo"`
	FoldOut      bool            `json:"foldOut"`
	Community    []string        `json:"community"`
	PotTotal     int64           `json:"potTotal"`
	SeatDeltas   map[int]int64   `json:"seatDeltas"`
	WinningSeats []int           `json:"winningSeats"`
	Revealed     []RevealedHand  `json:"revealed,omitempty"`
	Pots         []PotAward      `json:"pots,omitempty"`
	Refunds      map[int]int64   `json:"refunds,omitempty"`
}
