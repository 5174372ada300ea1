package tetrad

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedTrace is returned when a trace string does not split into
// four-character rounds.
var ErrMalformedTrace = errors.New("malformed interaction trace")

// WinnerStatus distinguishes a decided match from a tie and from a match
// that has not been played.
type WinnerStatus int

const (
	Undecided WinnerStatus = iota
	Tie
	Won
)

func (s WinnerStatus) String() string {
	switch s {
	case Tie:
		return "tie"
	case Won:
		return "won"
	default:
		return "undecided"
	}
}

// Outcome is the winner of a trace. Index is meaningful only when Status is Won.
type Outcome struct {
	Index  int
	Status WinnerStatus
}

// Won reports whether slot s won outright.
func (o Outcome) Won(s int) bool {
	return o.Status == Won && o.Index == s
}

// StateAction pairs the previous round with the move that followed it.
type StateAction struct {
	State  Interaction
	Action Action
}

func (sa StateAction) String() string {
	return sa.State.String() + ">" + sa.Action.String()
}

func tableOrDefault(t *ScoreTable) *ScoreTable {
	if t == nil {
		return DefaultScoreTable()
	}
	return t
}

// ComputeScores returns the per-round payoffs of a trace.
func ComputeScores(trace []Interaction, table *ScoreTable) []Payoffs {
	table = tableOrDefault(table)
	scores := make([]Payoffs, len(trace))
	for i, it := range trace {
		scores[i] = table.Score(it)
	}
	return scores
}

// ComputeFinalScores sums the payoffs of a trace. It reports false for an
// empty trace.
func ComputeFinalScores(trace []Interaction, table *ScoreTable) (Payoffs, bool) {
	var total Payoffs
	if len(trace) == 0 {
		return total, false
	}
	table = tableOrDefault(table)
	for _, it := range trace {
		p := table.Score(it)
		for s := range total {
			total[s] += p[s]
		}
	}
	return total, true
}

// ComputeFinalScorePerTurn returns the mean payoff per round.
func ComputeFinalScorePerTurn(trace []Interaction, table *ScoreTable) (Payoffs, bool) {
	total, ok := ComputeFinalScores(trace, table)
	if !ok {
		return total, false
	}
	n := float64(len(trace))
	for s := range total {
		total[s] /= n
	}
	return total, true
}

// ComputeWinner determines the winner of a trace. All four totals equal is a
// tie; otherwise the lowest slot holding the highest total wins.
func ComputeWinner(trace []Interaction, table *ScoreTable) Outcome {
	total, ok := ComputeFinalScores(trace, table)
	if !ok {
		return Outcome{Status: Undecided}
	}
	if total[0] == total[1] && total[1] == total[2] && total[2] == total[3] {
		return Outcome{Status: Tie}
	}
	best := 0
	for s := 1; s < NumSlots; s++ {
		if total[s] > total[best] {
			best = s
		}
	}
	return Outcome{Index: best, Status: Won}
}

// ComputeActionCounts counts each slot's moves, indexed [slot][action].
func ComputeActionCounts(trace []Interaction) ([NumSlots][NumActions]int, bool) {
	var counts [NumSlots][NumActions]int
	if len(trace) == 0 {
		return counts, false
	}
	for _, it := range trace {
		for s, a := range it {
			if a.Valid() {
				counts[s][a]++
			}
		}
	}
	return counts, true
}

// ComputeNormalizedActionCounts divides the action counts by the trace length.
func ComputeNormalizedActionCounts(trace []Interaction) ([NumSlots][NumActions]float64, bool) {
	var norm [NumSlots][NumActions]float64
	counts, ok := ComputeActionCounts(trace)
	if !ok {
		return norm, false
	}
	n := float64(len(trace))
	for s := range counts {
		for a := range counts[s] {
			norm[s][a] = float64(counts[s][a]) / n
		}
	}
	return norm, true
}

// SlotActions extracts one slot's moves from a trace.
func SlotActions(trace []Interaction, slot int) []Action {
	out := make([]Action, len(trace))
	for i, it := range trace {
		out[i] = it[slot]
	}
	return out
}

// ComputeStateDistribution counts each distinct round in the trace. It
// returns nil for an empty trace.
func ComputeStateDistribution(trace []Interaction) map[Interaction]int {
	if len(trace) == 0 {
		return nil
	}
	m := make(map[Interaction]int)
	for _, it := range trace {
		m[it]++
	}
	return m
}

// ComputeNormalizedStateDistribution returns the state distribution as
// fractions summing to 1.
func ComputeNormalizedStateDistribution(trace []Interaction) map[Interaction]float64 {
	counts := ComputeStateDistribution(trace)
	if counts == nil {
		return nil
	}
	n := float64(len(trace))
	m := make(map[Interaction]float64, len(counts))
	for it, c := range counts {
		m[it] = float64(c) / n
	}
	return m
}

// ComputeStateToActionDistribution counts, per slot, which move followed
// each round. A trace of n rounds yields n-1 transitions per slot.
func ComputeStateToActionDistribution(trace []Interaction) [NumSlots]map[StateAction]int {
	var dist [NumSlots]map[StateAction]int
	if len(trace) == 0 {
		return dist
	}
	for s := range dist {
		dist[s] = make(map[StateAction]int)
	}
	for i := 1; i < len(trace); i++ {
		prev := trace[i-1]
		for s, a := range trace[i] {
			dist[s][StateAction{State: prev, Action: a}]++
		}
	}
	return dist
}

// ComputeNormalizedStateToActionDistribution turns the transition counts into
// conditional probabilities: for each slot and previous round, the shares of
// the moves that followed sum to 1.
func ComputeNormalizedStateToActionDistribution(trace []Interaction) [NumSlots]map[StateAction]float64 {
	var norm [NumSlots]map[StateAction]float64
	dist := ComputeStateToActionDistribution(trace)
	for s, counts := range dist {
		if counts == nil {
			continue
		}
		totals := make(map[Interaction]int)
		for sa, c := range counts {
			totals[sa.State] += c
		}
		norm[s] = make(map[StateAction]float64, len(counts))
		for sa, c := range counts {
			norm[s][sa] = float64(c) / float64(totals[sa.State])
		}
	}
	return norm
}

// ParseInteractions decodes a trace written as consecutive four-character
// rounds, e.g. "WXYZWXYZ". Separating commas and whitespace are ignored.
func ParseInteractions(s string) ([]Interaction, error) {
	s = strings.Map(func(r rune) rune {
		if r == ',' || r == ' ' || r == '\t' || r == '\n' {
			return -1
		}
		return r
	}, s)
	if len(s)%NumSlots != 0 {
		return nil, fmt.Errorf("%w: length %d is not a multiple of %d", ErrMalformedTrace, len(s), NumSlots)
	}
	actions, err := ParseActions(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedTrace, err)
	}
	trace := make([]Interaction, len(actions)/NumSlots)
	for i := range trace {
		copy(trace[i][:], actions[i*NumSlots:(i+1)*NumSlots])
	}
	return trace, nil
}

// FormatInteractions is the inverse of ParseInteractions, without separators.
func FormatInteractions(trace []Interaction) string {
	var b strings.Builder
	b.Grow(len(trace) * NumSlots)
	for _, it := range trace {
		for _, a := range it {
			b.WriteByte(a.Byte())
		}
	}
	return b.String()
}
