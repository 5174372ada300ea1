package tetrad

import (
	"errors"
	"math"
	"testing"
)

func TestParseInteractions(t *testing.T) {
	trace, err := ParseInteractions("WXYZ,XXXX, ZZZZ")
	if err != nil {
		t.Fatalf("ParseInteractions failed: %v", err)
	}
	if len(trace) != 3 {
		t.Fatalf("Expected 3 rounds, got %d", len(trace))
	}
	if trace[0] != (Interaction{W, X, Y, Z}) {
		t.Errorf("Expected WXYZ, got %s", trace[0])
	}
	if s := FormatInteractions(trace); s != "WXYZXXXXZZZZ" {
		t.Errorf("Expected WXYZXXXXZZZZ, got %s", s)
	}

	if _, err := ParseInteractions("WXY"); !errors.Is(err, ErrMalformedTrace) {
		t.Errorf("Expected ErrMalformedTrace, got %v", err)
	}
	_, err = ParseInteractions("WXYC")
	if !errors.Is(err, ErrMalformedTrace) || !errors.Is(err, ErrUnknownAction) {
		t.Errorf("Expected ErrMalformedTrace wrapping ErrUnknownAction, got %v", err)
	}
}

func TestActionCounts(t *testing.T) {
	if _, ok := ComputeActionCounts(nil); ok {
		t.Error("Expected no counts for an empty trace")
	}
	trace := mustTrace("WXYZWXYYWWWW")
	counts, ok := ComputeActionCounts(trace)
	if !ok {
		t.Fatal("Expected counts")
	}
	if counts[0][W] != 3 || counts[3][Y] != 1 || counts[3][Z] != 1 || counts[3][W] != 1 {
		t.Errorf("Unexpected counts %v", counts)
	}
	norm, _ := ComputeNormalizedActionCounts(trace)
	if math.Abs(norm[1][X]-2.0/3.0) > 1e-12 {
		t.Errorf("Expected 2/3 X for slot 1, got %v", norm[1][X])
	}
	if got := FormatActions(SlotActions(trace, 2)); got != "YYW" {
		t.Errorf("Expected YYW for slot 2, got %s", got)
	}
}

func TestFinalScorePerTurn(t *testing.T) {
	per, ok := ComputeFinalScorePerTurn(mustTrace("ZZZZWWWW"), nil)
	if !ok || per != (Payoffs{1, 1, 1, 1}) {
		t.Errorf("Expected {1 1 1 1}, got %v", per)
	}
	if _, ok := ComputeFinalScorePerTurn(nil, nil); ok {
		t.Error("Expected no score for an empty trace")
	}
}

func TestStateToActionDistribution(t *testing.T) {
	trace := mustTrace("XXXX" + "ZXXX" + "XXXX" + "WXXX" + "XXXX")
	dist := ComputeStateToActionDistribution(trace)

	xxxx := Interaction{X, X, X, X}
	if got := dist[0][StateAction{State: xxxx, Action: Z}]; got != 1 {
		t.Errorf("Expected XXXX>Z once, got %d", got)
	}
	if got := dist[0][StateAction{State: xxxx, Action: W}]; got != 1 {
		t.Errorf("Expected XXXX>W once, got %d", got)
	}
	if got := dist[1][StateAction{State: xxxx, Action: X}]; got != 2 {
		t.Errorf("Expected XXXX>X twice for slot 1, got %d", got)
	}

	norm := ComputeNormalizedStateToActionDistribution(trace)
	for s := range norm {
		totals := make(map[Interaction]float64)
		for sa, p := range norm[s] {
			totals[sa.State] += p
		}
		for state, total := range totals {
			if math.Abs(total-1) > 1e-12 {
				t.Errorf("Slot %d state %s: probabilities sum to %v", s, state, total)
			}
		}
	}
	if got := norm[0][StateAction{State: xxxx, Action: Z}]; got != 0.5 {
		t.Errorf("Expected XXXX>Z 0.5, got %v", got)
	}

	empty := ComputeStateToActionDistribution(nil)
	if empty[0] != nil {
		t.Error("Expected nil distributions for an empty trace")
	}
}
