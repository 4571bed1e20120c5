package game

import "fmt"

// Card codes follow the compact poker format: Rank + Suit (e.g. "As", "Td", "2c").
// Ranks: 2-9, T, J, Q, K, A. Suits: s, h, d, c.

type Suit byte

const (
	SuitClubs Suit = iota
	SuitDiamonds
	SuitHearts
	SuitSpades
)

var suitRunes = [...]byte{'c', 'd', 'h', 's'}

// Rank is a card value, 2..14. Ace is 14 and also plays low in the
// wheel straight (A-2-3-4-5).
type Rank int

const (
	RankTwo   Rank = 2
	RankThree Rank = 3
	RankFour  Rank = 4
	RankFive  Rank = 5
	RankSix   Rank = 6
	RankSeven Rank = 7
	RankEight Rank = 8
	RankNine  Rank = 9
	RankTen   Rank = 10
	RankJack  Rank = 11
	RankQueen Rank = 12
	RankKing  Rank = 13
	RankAce   Rank = 14
)

const rankRunes = "23456789TJQKA"

type Card struct {
	Rank Rank
	Suit Suit
}

func (c Card) String() string {
	if c.Rank < RankTwo || c.Rank > RankAce || c.Suit > SuitSpades {
		return "??"
	}
	return string(rankRunes[c.Rank-2]) + string(suitRunes[c.Suit])
}

// ParseCard parses a two-character card code like "As" or "Td".
func ParseCard(code string) (Card, error) {
	if len(code) != 2 {
		return Card{}, fmt.Errorf("invalid card code %q", code)
	}
	var card Card
	found := false
	for i := 0; i < len(rankRunes); i++ {
		if rankRunes[i] == code[0] {
			card.Rank = Rank(i + 2)
			found = true
			break
		}
	}
	if !found {
		return Card{}, fmt.Errorf("invalid card rank in %q", code)
	}
	switch code[1] {
	case 'c':
		card.Suit = SuitClubs
	case 'd':
		card.Suit = SuitDiamonds
	case 'h':
		card.Suit = SuitHearts
	case 's':
		card.Suit = SuitSpades
	default:
		return Card{}, fmt.Errorf("invalid card suit in %q", code)
	}
	return card, nil
}

func cardCodes(cards []Card) []string {
	codes := make([]string, len(cards))
	for i, c := range cards {
		codes[i] = c.String()
	}
	return codes
}
