package tetrad

import (
	"errors"
	"testing"
)

func TestHistoryExtendMatchesAppend(t *testing.T) {
	own, _ := ParseActions("WXYZZ")
	c, _ := ParseActions("XXXXW")
	p1, _ := ParseActions("YYWWZ")
	p2, _ := ParseActions("ZWZWZ")

	var appended History
	for i := range own {
		appended.Append(own[i], c[i], p1[i], p2[i])
	}
	extended, err := NewHistory(own, c, p1, p2)
	if err != nil {
		t.Fatalf("NewHistory failed: %v", err)
	}

	if !appended.Equal(extended) {
		t.Error("Expected equal sequences")
	}
	for _, a := range AllActions() {
		if appended.Count(a) != extended.Count(a) {
			t.Errorf("Count(%s): append=%d extend=%d", a, appended.Count(a), extended.Count(a))
		}
	}
	for _, it := range AllInteractions() {
		if appended.StateCount(it) != extended.StateCount(it) {
			t.Errorf("StateCount(%s): append=%d extend=%d", it, appended.StateCount(it), extended.StateCount(it))
		}
	}
	if extended.Count(Z) != 2 {
		t.Errorf("Expected 2 Z moves, got %d", extended.Count(Z))
	}
	if got := extended.Normalized(Z); got != 0.4 {
		t.Errorf("Expected normalized Z 0.4, got %v", got)
	}
	if got := extended.StateCount(Interaction{Z, W, Z, Z}); got != 1 {
		t.Errorf("Expected ZWZZ once, got %d", got)
	}
}

func TestHistoryExtendLengthMismatch(t *testing.T) {
	var h History
	err := h.Extend([]Action{W, X}, []Action{W}, []Action{W, X}, []Action{W, X})
	if !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("Expected ErrLengthMismatch, got %v", err)
	}
	if h.Len() != 0 {
		t.Errorf("Expected history untouched, got %d rounds", h.Len())
	}
}

func TestHistoryReset(t *testing.T) {
	var h History
	h.Append(X, Y, Z, W)
	h.Append(X, X, X, X)
	h.Reset()

	if h.Len() != 0 || len(h.CounterpartPlays()) != 0 || len(h.Partner1Plays()) != 0 || len(h.Partner2Plays()) != 0 {
		t.Error("Expected all sequences cleared")
	}
	if h.Count(X) != 0 {
		t.Errorf("Expected action counter cleared, got %d", h.Count(X))
	}
	if len(h.StateDistribution()) != 0 {
		t.Errorf("Expected state distribution cleared, got %v", h.StateDistribution())
	}
	if _, ok := h.Last(); ok {
		t.Error("Expected no last move after reset")
	}
	if h.Normalized(X) != 0 {
		t.Error("Expected zero normalized count on empty history")
	}
}

func TestHistoryAccessorsReturnCopies(t *testing.T) {
	var h History
	h.Append(W, X, Y, Z)
	plays := h.Plays()
	plays[0] = Z
	if h.At(0) != W {
		t.Error("Mutating Plays() result changed the history")
	}
}

func TestHistoryFlipPlays(t *testing.T) {
	own, _ := ParseActions("WXYZWXYZ")
	other, _ := ParseActions("ZZZZWWWW")
	h, err := NewHistory(own, other, other, other)
	if err != nil {
		t.Fatalf("NewHistory failed: %v", err)
	}
	before := h.Copy()

	flipped := h.FlipPlays(NewStream(3))
	if !h.Equal(before) {
		t.Fatal("FlipPlays modified the original history")
	}
	for i := 0; i < h.Len(); i++ {
		if flipped.At(i) == h.At(i) {
			t.Errorf("Round %d: own move not flipped", i)
		}
	}
	if FormatActions(flipped.CounterpartPlays()) != FormatActions(other) {
		t.Error("Expected counterpart sequence unchanged")
	}
}

func TestHistoryNormalizedStateDistribution(t *testing.T) {
	var h History
	h.Append(X, X, X, X)
	h.Append(X, X, X, X)
	h.Append(Z, Z, Z, Z)
	h.Append(X, X, X, X)

	dist := h.NormalizedStateDistribution()
	if len(dist) != 2 {
		t.Fatalf("Expected 2 states, got %d", len(dist))
	}
	if dist[Interaction{X, X, X, X}] != 0.75 {
		t.Errorf("Expected XXXX 0.75, got %v", dist[Interaction{X, X, X, X}])
	}
	if dist[Interaction{Z, Z, Z, Z}] != 0.25 {
		t.Errorf("Expected ZZZZ 0.25, got %v", dist[Interaction{Z, Z, Z, Z}])
	}
}
