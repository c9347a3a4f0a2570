package model

import (
	"testing"

	"github.com/google/uuid"
)

func TestValidDelta(t *testing.T) {
	cases := []struct {
		typ   MovementType
		delta int
		valid bool
	}{
		{MovementEntry, 5, true},
		{MovementEntry, -5, false},
		{MovementEntry, 0, false},
		{MovementExit, -3, true},
		{MovementExit, 3, false},
		{MovementReturn, 1, true},
		{MovementReturn, -1, false},
		{MovementAdjustment, 7, true},
		{MovementAdjustment, -7, true},
		{MovementAdjustment, 0, false},
		{MovementType("BOGUS"), 1, false},
	}
	for _, tc := range cases {
		if got := tc.typ.ValidDelta(tc.delta); got != tc.valid {
			t.Errorf("%s.ValidDelta(%d) expected %v, got %v", tc.typ, tc.delta, tc.valid, got)
		}
	}
}

func chainOf(deltas ...int) []StockMovement {
	movements := make([]StockMovement, 0, len(deltas))
	prev := 0
	for _, d := range deltas {
		movements = append(movements, StockMovement{
			ID:               uuid.New(),
			Quantity:         d,
			PreviousQuantity: prev,
			NewQuantity:      prev + d,
		})
		prev += d
	}
	return movements
}

func TestVerifyChain_Intact(t *testing.T) {
	if br := VerifyChain(nil); br != nil {
		t.Errorf("empty chain should be intact, got break at %d", br.Index)
	}
	if br := VerifyChain(chainOf(10, -3, 5, -12)); br != nil {
		t.Errorf("valid chain should be intact, got break at %d", br.Index)
	}
}

func TestVerifyChain_BrokenLink(t *testing.T) {
	movements := chainOf(10, -3, 5)
	// Second row claims a previous quantity the first row never produced.
	movements[1].PreviousQuantity = 8

	br := VerifyChain(movements)
	if br == nil {
		t.Fatal("expected a chain break")
	}
	if br.Index != 1 {
		t.Errorf("expected break at index 1, got %d", br.Index)
	}
	if br.Expected != 10 || br.Actual != 8 {
		t.Errorf("expected previous 10 vs 8, got %d vs %d", br.Expected, br.Actual)
	}
}

func TestVerifyChain_BadArithmetic(t *testing.T) {
	movements := chainOf(10, -3)
	movements[1].NewQuantity = 6 // 10 - 3 is 7

	br := VerifyChain(movements)
	if br == nil {
		t.Fatal("expected a chain break")
	}
	if br.Index != 1 {
		t.Errorf("expected break at index 1, got %d", br.Index)
	}
	if br.Expected != 7 || br.Actual != 6 {
		t.Errorf("expected 7 vs 6, got %d vs %d", br.Expected, br.Actual)
	}
}

func TestSumDeltas(t *testing.T) {
	if got := SumDeltas(nil); got != 0 {
		t.Errorf("empty ledger should sum to 0, got %d", got)
	}
	if got := SumDeltas(chainOf(10, -3, 5, -12)); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
	if got := SumDeltas(chainOf(100, -40, 7)); got != 67 {
		t.Errorf("expected 67, got %d", got)
	}
}
