package game

import "sort"

// SidePot is one contribution layer: a chip amount plus the seats eligible
// to win it. Folded seats fund layers but are never eligible.
type SidePot struct {
	Amount   int64 `json:"amount"`
	Eligible []int `json:"eligible"` // seat indexes, ascending
}

// PotAward records how one pot was paid out.
type PotAward struct {
	Pot     SidePot `json:"pot"`
	Winners []int   `json:"winners"`
	Amounts []int64 `json:"amounts"`
}

type potContribution struct {
	seat   int
	amount int64
	folded bool
}

// buildSidePots layers total-hand contributions into side pots.
//
// An uncalled excess (one seat's contribution above the second-highest) is
// returned straight to that seat, never entering a pot. Layers whose
// contributors all folded add their chips to the last layer that still has
// an eligible winner.
func buildSidePots(contribs []potContribution) ([]SidePot, map[int]int64) {
	refunds := make(map[int]int64)

	active := make([]potContribution, 0, len(contribs))
	for _, c := range contribs {
		if c.amount > 0 {
			active = append(active, c)
		}
	}
	if len(active) == 0 {
		return nil, refunds
	}

	// Uncalled-bet return.
	var max, second int64
	maxIdx := -1
	for i, c := range active {
		if c.amount > max {
			second = max
			max = c.amount
			maxIdx = i
		} else if c.amount > second {
			second = c.amount
		}
	}
	if max > second {
		refunds[active[maxIdx].seat] = max - second
		active[maxIdx].amount = second
		if second == 0 {
			return nil, refunds
		}
	}

	// Distinct contribution levels, ascending.
	levelSet := make(map[int64]struct{}, len(active))
	for _, c := range active {
		levelSet[c.amount] = struct{}{}
	}
	levels := make([]int64, 0, len(levelSet))
	for lv := range levelSet {
		levels = append(levels, lv)
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })

	pots := make([]SidePot, 0, len(levels))
	prev := int64(0)
	for _, lv := range levels {
		pot := SidePot{}
		for _, c := range active {
			if c.amount < lv {
				continue
			}
			pot.Amount += lv - prev
			if !c.folded {
				pot.Eligible = append(pot.Eligible, c.seat)
			}
		}
		sort.Ints(pot.Eligible)
		pots = append(pots, pot)
		prev = lv
	}

	// Fold fully-dead layers into the last contested one. Eligibility only
	// shrinks as levels rise, so dead layers sit at the top.
	out := pots[:0]
	for _, p := range pots {
		if len(p.Eligible) == 0 && len(out) > 0 {
			out[len(out)-1].Amount += p.Amount
			continue
		}
		out = append(out, p)
	}
	return out, refunds
}

// distributePots pays every pot to the strongest eligible showdown hands.
// Ties split evenly; integer remainders go one unit at a time following
// payoutOrder (table order starting at the seat after the button), so the
// result is reproducible.
func distributePots(pots []SidePot, ranks map[int]HandRank, payoutOrder []int) ([]PotAward, map[int]int64) {
	deltas := make(map[int]int64)
	awards := make([]PotAward, 0, len(pots))

	for _, pot := range pots {
		winners := make([]int, 0, len(pot.Eligible))
		var best HandRank
		for _, seat := range pot.Eligible {
			rank, ok := ranks[seat]
			if !ok {
				continue
			}
			switch cmp := rank.Compare(best); {
			case len(winners) == 0 || cmp > 0:
				winners = winners[:0]
				winners = append(winners, seat)
				best = rank
			case cmp == 0:
				winners = append(winners, seat)
			}
		}
		if len(winners) == 0 {
			awards = append(awards, PotAward{Pot: pot})
			continue
		}

		share := pot.Amount / int64(len(winners))
		remainder := pot.Amount % int64(len(winners))
		won := make(map[int]int64, len(winners))
		for _, w := range winners {
			won[w] = share
		}
		for _, seat := range payoutOrder {
			if remainder == 0 {
				break
			}
			if _, ok := won[seat]; ok {
				won[seat]++
				remainder--
			}
		}

		award := PotAward{Pot: pot, Winners: winners, Amounts: make([]int64, len(winners))}
		for i, w := range winners {
			award.Amounts[i] = won[w]
			deltas[w] += won[w]
		}
		awards = append(awards, award)
	}
	return awards, deltas
}
