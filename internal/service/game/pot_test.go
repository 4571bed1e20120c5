package game

import (
	"reflect"
	"testing"
)

func potTotal(pots []SidePot) int64 {
	var total int64
	for _, p := range pots {
		total += p.Amount
	}
	return total
}

func TestBuildSidePotsSingleLevel(t *testing.T) {
	pots, refunds := buildSidePots([]potContribution{
		{seat: 0, amount: 100},
		{seat: 1, amount: 100},
		{seat: 2, amount: 100},
	})
	if len(refunds) != 0 {
		t.Fatalf("no refunds expected, got %v", refunds)
	}
	if len(pots) != 1 || pots[0].Amount != 300 {
		t.Fatalf("expected one pot of 300, got %+v", pots)
	}
	if !reflect.DeepEqual(pots[0].Eligible, []int{0, 1, 2}) {
		t.Fatalf("all seats eligible, got %v", pots[0].Eligible)
	}
}

func TestBuildSidePotsLayersByAllIn(t *testing.T) {
	// Seat 0 all-in for 10, the other two matched 30 each.
	pots, refunds := buildSidePots([]potContribution{
		{seat: 0, amount: 10},
		{seat: 1, amount: 30},
		{seat: 2, amount: 30},
	})
	if len(refunds) != 0 {
		t.Fatalf("no refunds expected, got %v", refunds)
	}
	if len(pots) != 2 {
		t.Fatalf("expected main + side pot, got %+v", pots)
	}
	if pots[0].Amount != 30 || !reflect.DeepEqual(pots[0].Eligible, []int{0, 1, 2}) {
		t.Fatalf("bad main pot: %+v", pots[0])
	}
	if pots[1].Amount != 40 || !reflect.DeepEqual(pots[1].Eligible, []int{1, 2}) {
		t.Fatalf("bad side pot: %+v", pots[1])
	}
}

func TestBuildSidePotsUncalledExcessRefunded(t *testing.T) {
	// Seat 2 over-bet 50 into seats that only matched 30.
	pots, refunds := buildSidePots([]potContribution{
		{seat: 0, amount: 30},
		{seat: 1, amount: 30},
		{seat: 2, amount: 50},
	})
	if refunds[2] != 20 {
		t.Fatalf("expected refund of 20 to seat 2, got %v", refunds)
	}
	if potTotal(pots) != 90 {
		t.Fatalf("pots should hold 90 after the refund, got %d", potTotal(pots))
	}
}

func TestBuildSidePotsFoldedSeatsFundButNeverWin(t *testing.T) {
	pots, refunds := buildSidePots([]potContribution{
		{seat: 0, amount: 30, folded: true},
		{seat: 1, amount: 30},
		{seat: 2, amount: 30},
	})
	if len(refunds) != 0 {
		t.Fatalf("no refunds expected, got %v", refunds)
	}
	if len(pots) != 1 || pots[0].Amount != 90 {
		t.Fatalf("folded chips stay in the pot: %+v", pots)
	}
	if !reflect.DeepEqual(pots[0].Eligible, []int{1, 2}) {
		t.Fatalf("folded seat must not be eligible: %v", pots[0].Eligible)
	}
}

func TestBuildSidePotsDeadTopLayerMerges(t *testing.T) {
	// The only seat past 20 folded, so the top layer has no eligible winner
	// and collapses into the contested layer below.
	pots, _ := buildSidePots([]potContribution{
		{seat: 0, amount: 20},
		{seat: 1, amount: 20},
		{seat: 2, amount: 20, folded: true},
	})
	if len(pots) != 1 {
		t.Fatalf("expected a single contested pot, got %+v", pots)
	}
	if pots[0].Amount != 60 {
		t.Fatalf("expected 60 in the pot, got %d", pots[0].Amount)
	}
}

func TestDistributePotsSplitsAndRemainder(t *testing.T) {
	pots := []SidePot{{Amount: 101, Eligible: []int{0, 1}}}
	ranks := map[int]HandRank{
		0: {Category: OnePair, Tiebreaks: []int{10, 9, 8, 7}},
		1: {Category: OnePair, Tiebreaks: []int{10, 9, 8, 7}},
	}
	awards, winnings := distributePots(pots, ranks, []int{1, 0})
	if len(awards) != 1 || len(awards[0].Winners) != 2 {
		t.Fatalf("expected a split pot, got %+v", awards)
	}
	// odd chip goes to the first seat in payout order
	if winnings[1] != 51 || winnings[0] != 50 {
		t.Fatalf("remainder should follow payout order, got %v", winnings)
	}
}

func TestDistributePotsBestEligibleWinsEachPot(t *testing.T) {
	pots := []SidePot{
		{Amount: 30, Eligible: []int{0, 1, 2}},
		{Amount: 40, Eligible: []int{1, 2}},
	}
	ranks := map[int]HandRank{
		0: {Category: FullHouse, Tiebreaks: []int{9, 5}},
		1: {Category: Flush, Tiebreaks: []int{14, 12, 9, 5, 2}},
		2: {Category: OnePair, Tiebreaks: []int{10, 9, 8, 7}},
	}
	awards, winnings := distributePots(pots, ranks, []int{0, 1, 2})
	if !reflect.DeepEqual(awards[0].Winners, []int{0}) {
		t.Fatalf("seat 0 should win the main pot: %+v", awards[0])
	}
	if !reflect.DeepEqual(awards[1].Winners, []int{1}) {
		t.Fatalf("seat 1 should win the side pot: %+v", awards[1])
	}
	if winnings[0] != 30 || winnings[1] != 40 {
		t.Fatalf("unexpected winnings: %v", winnings)
	}

	var paid int64
	for _, w := range winnings {
		paid += w
	}
	if paid != potTotal(pots) {
		t.Fatalf("chips leaked: paid %d of %d", paid, potTotal(pots))
	}
}
