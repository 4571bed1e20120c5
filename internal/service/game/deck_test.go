package game_test

import (
	"errors"
	"math/rand"
	"testing"

	"pano-service/internal/service/game"
)

func TestNewDeckHolds52DistinctCards(t *testing.T) {
	for _, seed := range []int64{1, 7, 42} {
		deck := game.NewDeck(rand.New(rand.NewSource(seed)))
		if deck.Remaining() != 52 {
			t.Fatalf("seed %d: expected 52 cards, got %d", seed, deck.Remaining())
		}
		drawn, err := deck.Draw(52)
		if err != nil {
			t.Fatalf("seed %d: draw failed: %v", seed, err)
		}
		seen := make(map[string]bool, 52)
		for _, c := range drawn {
			code := c.String()
			if seen[code] {
				t.Fatalf("seed %d: duplicate card %s", seed, code)
			}
			seen[code] = true
		}
	}
}

func TestDeckDrawExhaustion(t *testing.T) {
	deck := game.NewDeck(rand.New(rand.NewSource(1)))
	if _, err := deck.Draw(50); err != nil {
		t.Fatalf("draw failed: %v", err)
	}
	if _, err := deck.Draw(3); !errors.Is(err, game.ErrDeckExhausted) {
		t.Fatalf("expected ErrDeckExhausted, got %v", err)
	}
	// the failed draw must not consume anything
	if deck.Remaining() != 2 {
		t.Fatalf("expected 2 cards left, got %d", deck.Remaining())
	}
}
