package game

import "sort"

type HandCategory int

const (
	HighCard HandCategory = iota + 1
	OnePair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
	RoyalFlush
)

var handCategoryNames = map[HandCategory]string{
	HighCard:      "high_card",
	OnePair:       "one_pair",
	TwoPair:       "two_pair",
	ThreeOfAKind:  "three_of_a_kind",
	Straight:      "straight",
	Flush:         "flush",
	FullHouse:     "full_house",
	FourOfAKind:   "four_of_a_kind",
	StraightFlush: "straight_flush",
	RoyalFlush:    "royal_flush",
}

func (c HandCategory) String() string {
	if name, ok := handCategoryNames[c]; ok {
		return name
	}
	return "unknown"
}

// HandRank is a totally ordered hand strength: category first, then the
// tiebreak sequence element-wise, most significant first.
type HandRank struct {
	Category  HandCategory
	Tiebreaks []int
}

// Compare returns <0 if r is weaker than other, 0 on an exact tie, >0 if
// stronger. Tiebreak sequences within one category always have equal length.
func (r HandRank) Compare(other HandRank) int {
	if r.Category != other.Category {
		return int(r.Category) - int(other.Category)
	}
	for i := range r.Tiebreaks {
		if i >= len(other.Tiebreaks) {
			return 1
		}
		if r.Tiebreaks[i] != other.Tiebreaks[i] {
			return r.Tiebreaks[i] - other.Tiebreaks[i]
		}
	}
	if len(other.Tiebreaks) > len(r.Tiebreaks) {
		return -1
	}
	return 0
}

// Evaluate5 classifies exactly 5 cards.
func Evaluate5(cards []Card) HandRank {
	ranks := make([]int, 0, 5)
	counts := make(map[int]int, 5)
	flush := true
	for i, c := range cards {
		v := int(c.Rank)
		ranks = append(ranks, v)
		counts[v]++
		if i > 0 && c.Suit != cards[0].Suit {
			flush = false
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ranks)))

	straightTop := straightTopCard(ranks)

	if flush && straightTop > 0 {
		if straightTop == int(RankAce) {
			return HandRank{Category: RoyalFlush, Tiebreaks: []int{straightTop}}
		}
		return HandRank{Category: StraightFlush, Tiebreaks: []int{straightTop}}
	}

	// Group ranks by multiplicity: quads, trips, pairs, singles.
	var quad, trip int
	pairs := make([]int, 0, 2)
	singles := make([]int, 0, 5)
	for _, v := range distinctDesc(ranks) {
		switch counts[v] {
		case 4:
			quad = v
		case 3:
			trip = v
		case 2:
			pairs = append(pairs, v)
		default:
			singles = append(singles, v)
		}
	}

	switch {
	case quad > 0:
		return HandRank{Category: FourOfAKind, Tiebreaks: []int{quad, singles[0]}}
	case trip > 0 && len(pairs) > 0:
		return HandRank{Category: FullHouse, Tiebreaks: []int{trip, pairs[0]}}
	case flush:
		return HandRank{Category: Flush, Tiebreaks: ranks}
	case straightTop > 0:
		return HandRank{Category: Straight, Tiebreaks: []int{straightTop}}
	case trip > 0:
		return HandRank{Category: ThreeOfAKind, Tiebreaks: []int{trip, singles[0], singles[1]}}
	case len(pairs) >= 2:
		return HandRank{Category: TwoPair, Tiebreaks: []int{pairs[0], pairs[1], singles[0]}}
	case len(pairs) == 1:
		return HandRank{Category: OnePair, Tiebreaks: []int{pairs[0], singles[0], singles[1], singles[2]}}
	default:
		return HandRank{Category: HighCard, Tiebreaks: ranks}
	}
}

// EvaluateBest returns the strongest 5-card rank achievable from 7 cards,
// along with the winning 5 cards. Pure: identical input always produces
// identical output, regardless of input order.
func EvaluateBest(cards []Card) (HandRank, []Card) {
	if len(cards) != 7 {
		// Defined for exactly 7 cards (2 hole + 5 community).
		return HandRank{}, nil
	}
	var best HandRank
	var bestFive []Card
	pick := make([]Card, 5)
	for a := 0; a < 3; a++ {
		for b := a + 1; b < 4; b++ {
			for c := b + 1; c < 5; c++ {
				for d := c + 1; d < 6; d++ {
					for e := d + 1; e < 7; e++ {
						pick[0], pick[1], pick[2], pick[3], pick[4] =
							cards[a], cards[b], cards[c], cards[d], cards[e]
						rank := Evaluate5(pick)
						if best.Category == 0 || rank.Compare(best) > 0 {
							best = rank
							bestFive = append(bestFive[:0], pick...)
						}
					}
				}
			}
		}
	}
	return best, bestFive
}

// straightTopCard returns the top card of a 5-card run, 0 if the ranks do
// not form a straight. The wheel (A-2-3-4-5) returns 5, ranking it below a
// 6-high straight.
func straightTopCard(sortedDesc []int) int {
	distinct := distinctDesc(sortedDesc)
	if len(distinct) != 5 {
		return 0
	}
	if distinct[0]-distinct[4] == 4 {
		return distinct[0]
	}
	// wheel: A,5,4,3,2
	if distinct[0] == int(RankAce) && distinct[1] == 5 && distinct[4] == 2 {
		return 5
	}
	return 0
}

func distinctDesc(sortedDesc []int) []int {
	out := make([]int, 0, len(sortedDesc))
	for i, v := range sortedDesc {
		if i == 0 || v != sortedDesc[i-1] {
			out = append(out, v)
		}
	}
	return out
}
