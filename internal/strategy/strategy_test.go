package strategy

import (
	"errors"
	"testing"

	"github.com/freeeve/tetrad/pkg/tetrad"
)

func playMatch(t *testing.T, turns int, players ...tetrad.Player) []tetrad.Interaction {
	t.Helper()
	m, err := tetrad.NewMatch(players, tetrad.MatchConfig{Turns: turns, Stream: tetrad.NewStream(1)})
	if err != nil {
		t.Fatalf("NewMatch failed: %v", err)
	}
	result, err := m.Play()
	if err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	return result
}

func TestNewKnownStrategies(t *testing.T) {
	for _, name := range Names() {
		p, err := New(name)
		if err != nil {
			t.Errorf("New(%q) failed: %v", name, err)
			continue
		}
		clone := p.Clone()
		if !tetrad.Equal(p, clone) {
			t.Errorf("%s: clone not equal to original", name)
		}
	}
}

func TestNewUnknownStrategy(t *testing.T) {
	if _, err := New("grudger"); !errors.Is(err, ErrUnknownStrategy) {
		t.Errorf("Expected ErrUnknownStrategy, got %v", err)
	}
	if _, err := New("cycler:Q"); !errors.Is(err, ErrBadArgument) {
		t.Errorf("Expected ErrBadArgument, got %v", err)
	}
	if _, err := New("random:0.5/0.6/0"); !errors.Is(err, ErrBadArgument) {
		t.Errorf("Expected ErrBadArgument for probabilities above one, got %v", err)
	}
}

func TestParseRoster(t *testing.T) {
	players, err := ParseRoster("tft-2p*3, always-z ,cycler:Y")
	if err != nil {
		t.Fatalf("ParseRoster failed: %v", err)
	}
	want := []string{"Simple TFT (2p)", "Simple TFT (2p)", "Simple TFT (2p)", "Always Z", "Cycler"}
	if len(players) != len(want) {
		t.Fatalf("Expected %d players, got %d", len(want), len(players))
	}
	for i, p := range players {
		if p.Name() != want[i] {
			t.Errorf("Player %d: expected %q, got %q", i, want[i], p.Name())
		}
	}
	if players[0] == players[1] {
		t.Error("Expected distinct instances for repeated specs")
	}

	for _, bad := range []string{"", " , ", "tft-2p*0", "tft-2p*x"} {
		if _, err := ParseRoster(bad); err == nil {
			t.Errorf("ParseRoster(%q): expected error", bad)
		}
	}
}

func TestCycler(t *testing.T) {
	result := playMatch(t, 6, NewCycler(tetrad.Y), NewAlways(tetrad.W), NewAlways(tetrad.W), NewAlways(tetrad.W))
	if got := tetrad.FormatActions(tetrad.SlotActions(result, 0)); got != "YZWXYZ" {
		t.Errorf("Expected YZWXYZ, got %s", got)
	}
}

func TestAlternator(t *testing.T) {
	result := playMatch(t, 5, NewAlternator(), NewAlways(tetrad.W), NewAlways(tetrad.W), NewAlways(tetrad.W))
	if got := tetrad.FormatActions(tetrad.SlotActions(result, 0)); got != "XWXWX" {
		t.Errorf("Expected XWXWX, got %s", got)
	}
}

func TestCopyRoles(t *testing.T) {
	// Slot 0 sees slot 1 as competitor, slot 2 as SC1 and slot 3 as SC2.
	tests := []struct {
		role Role
		want string
	}{
		{Competitor, "WXXX"},
		{Partner1, "WYYY"},
		{Partner2, "WZZZ"},
	}
	for _, tt := range tests {
		t.Run(tt.role.String(), func(t *testing.T) {
			result := playMatch(t, 4, NewCopy(tt.role, tetrad.W), NewAlways(tetrad.X), NewAlways(tetrad.Y), NewAlways(tetrad.Z))
			if got := tetrad.FormatActions(tetrad.SlotActions(result, 0)); got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestTFT2p(t *testing.T) {
	// Slot 2 is SC1 of slot 0 and plays a fixed pattern.
	result := playMatch(t, 5, NewTFT2p(), NewAlways(tetrad.W), NewCycler(tetrad.W), NewAlways(tetrad.W))
	// SC1 plays W X Y Z W; TFT answers one round later.
	if got := tetrad.FormatActions(tetrad.SlotActions(result, 0)); got != "XWXWX" {
		t.Errorf("Expected XWXWX, got %s", got)
	}
}

func TestPavlov2p(t *testing.T) {
	result := playMatch(t, 4, NewPavlov2p(), NewAlways(tetrad.W), NewAlways(tetrad.X), NewAlways(tetrad.W))
	// (X,X) stays on X.
	if got := tetrad.FormatActions(tetrad.SlotActions(result, 0)); got != "XXXX" {
		t.Errorf("Expected XXXX, got %s", got)
	}
	result = playMatch(t, 4, NewPavlov2p(), NewAlways(tetrad.W), NewAlways(tetrad.Y), NewAlways(tetrad.W))
	// (X,Y) shifts to W, then (W,Y) stays on W.
	if got := tetrad.FormatActions(tetrad.SlotActions(result, 0)); got != "XWWW" {
		t.Errorf("Expected XWWW, got %s", got)
	}
}

func TestContriteTFT2pReset(t *testing.T) {
	p := NewContriteTFT2p()
	p.contrite = true
	p.lastMove = tetrad.Z
	p.History().Append(tetrad.W, tetrad.W, tetrad.W, tetrad.W)
	p.Reset()
	if p.contrite || p.lastMove != tetrad.X || p.History().Len() != 0 {
		t.Error("Expected reset to restore construction state")
	}
}

func TestContriteTFT2pMirrorsPartner(t *testing.T) {
	result := playMatch(t, 5, NewContriteTFT2p(), NewAlways(tetrad.W), NewCycler(tetrad.W), NewAlways(tetrad.W))
	// SC1 plays W X Y Z W; Y maps to W and Z to X.
	if got := tetrad.FormatActions(tetrad.SlotActions(result, 0)); got != "XWXWX" {
		t.Errorf("Expected XWXWX, got %s", got)
	}
}

func TestRandomFinalize(t *testing.T) {
	p, err := New("random:1/0/0")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if p.Classifier().Stochastic {
		t.Error("Expected certain Random to be classified deterministic")
	}
	p, err = New("random:0/0/0")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if a, _ := p.Decide(nil, nil, nil); a != tetrad.Z {
		t.Errorf("Expected Z, got %s", a)
	}
	p, err = New("random")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if !p.Classifier().Stochastic {
		t.Error("Expected uniform Random to be stochastic")
	}
}

func TestStochasticReproducibleUnderMatchSeed(t *testing.T) {
	run := func() string {
		players := []tetrad.Player{
			tetrad.Finalize(mustRandom(t)),
			NewMimic(),
			tetrad.Finalize(mustRandom(t)),
			NewCycler(tetrad.X),
		}
		m, err := tetrad.NewMatch(players, tetrad.MatchConfig{Turns: 50, Noise: 0.05, Stream: tetrad.NewStream(77)})
		if err != nil {
			t.Fatalf("NewMatch failed: %v", err)
		}
		result, err := m.Play()
		if err != nil {
			t.Fatalf("Play failed: %v", err)
		}
		return tetrad.FormatInteractions(result)
	}
	if a, b := run(), run(); a != b {
		t.Errorf("Expected identical traces:\n%s\n%s", a, b)
	}
}

func TestMimicFollowsCompetitorFrequencies(t *testing.T) {
	result := playMatch(t, 30, NewMimic(), NewAlways(tetrad.Y), NewAlways(tetrad.W), NewAlways(tetrad.W))
	moves := tetrad.SlotActions(result, 0)
	if moves[0] != tetrad.X {
		t.Errorf("Expected opening X, got %s", moves[0])
	}
	for i, a := range moves[1:] {
		if a != tetrad.Y {
			t.Errorf("Round %d: expected Y, got %s", i+1, a)
		}
	}
}

func mustRandom(t *testing.T) *Random {
	t.Helper()
	r, err := NewRandom(0.1, 0.2, 0.3)
	if err != nil {
		t.Fatalf("NewRandom failed: %v", err)
	}
	return r
}
