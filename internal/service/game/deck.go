package game

import "math/rand"

// Deck is a shuffled 52-card sequence with a draw cursor. One Deck serves
// exactly one hand; no card is ever returned twice.
type Deck struct {
	cards  []Card
	cursor int
}

func NewDeck(rng *rand.Rand) *Deck {
	cards := make([]Card, 0, 52)
	for s := SuitClubs; s <= SuitSpades; s++ {
		for r := RankTwo; r <= RankAce; r++ {
			cards = append(cards, Card{Rank: r, Suit: s})
		}
	}
	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return &Deck{cards: cards}
}

// Draw returns the next n cards. Running out is an invariant violation at
// real seat counts (10 seats burn at most 25 cards), but it is still a
// defined failure.
func (d *Deck) Draw(n int) ([]Card, error) {
	if n < 0 || d.cursor+n > len(d.cards) {
		return nil, ErrDeckExhausted
	}
	out := d.cards[d.cursor : d.cursor+n]
	d.cursor += n
	return out, nil
}

func (d *Deck) Remaining() int {
	return len(d.cards) - d.cursor
}
