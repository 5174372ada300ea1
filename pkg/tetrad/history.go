package tetrad

import (
	"errors"
	"fmt"
	"slices"
)

// ErrLengthMismatch is returned when parallel action sequences differ in length.
var ErrLengthMismatch = errors.New("action sequences differ in length")

// HistoryView is the read-only face of a History. Strategies receive their
// co-participants through this interface.
type HistoryView interface {
	Len() int
	At(i int) Action
	Last() (Action, bool)
	Plays() []Action
	CounterpartPlays() []Action
	Partner1Plays() []Action
	Partner2Plays() []Action
	Count(a Action) int
	Normalized(a Action) float64
	StateCount(i Interaction) int
	StateDistribution() map[Interaction]int
}

// History is the append-only ledger one player keeps of a match: its own
// moves, the moves of its counterpart and both partners, a per-action counter
// and a counter over observed interactions (in the owner's role order).
type History struct {
	plays       []Action
	counterpart []Action
	partner1    []Action
	partner2    []Action
	actions     [NumActions]int
	states      [NumInteractions]int
}

// NewHistory returns a history pre-filled with the given sequences.
func NewHistory(plays, counterpart, partner1, partner2 []Action) (*History, error) {
	h := &History{}
	if err := h.Extend(plays, counterpart, partner1, partner2); err != nil {
		return nil, err
	}
	return h, nil
}

// Append records one round.
func (h *History) Append(own, counterpart, partner1, partner2 Action) {
	h.plays = append(h.plays, own)
	h.counterpart = append(h.counterpart, counterpart)
	h.partner1 = append(h.partner1, partner1)
	h.partner2 = append(h.partner2, partner2)
	h.actions[own]++
	h.states[Interaction{own, counterpart, partner1, partner2}.Index()]++
}

// Extend records several rounds at once. All four sequences must have the
// same length; counters end up as if Append had been called per round.
func (h *History) Extend(plays, counterpart, partner1, partner2 []Action) error {
	n := len(plays)
	if len(counterpart) != n || len(partner1) != n || len(partner2) != n {
		return fmt.Errorf("%w: %d/%d/%d/%d", ErrLengthMismatch, n, len(counterpart), len(partner1), len(partner2))
	}
	for i := 0; i < n; i++ {
		if !plays[i].Valid() || !counterpart[i].Valid() || !partner1[i].Valid() || !partner2[i].Valid() {
			return fmt.Errorf("%w: round %d", ErrUnknownAction, i)
		}
	}
	h.plays = append(h.plays, plays...)
	h.counterpart = append(h.counterpart, counterpart...)
	h.partner1 = append(h.partner1, partner1...)
	h.partner2 = append(h.partner2, partner2...)
	for i := 0; i < n; i++ {
		h.actions[plays[i]]++
		h.states[Interaction{plays[i], counterpart[i], partner1[i], partner2[i]}.Index()]++
	}
	return nil
}

// Reset clears all sequences and counters.
func (h *History) Reset() {
	*h = History{
		plays:       h.plays[:0],
		counterpart: h.counterpart[:0],
		partner1:    h.partner1[:0],
		partner2:    h.partner2[:0],
	}
}

// Copy returns an independent copy.
func (h *History) Copy() *History {
	c := *h
	c.plays = slices.Clone(h.plays)
	c.counterpart = slices.Clone(h.counterpart)
	c.partner1 = slices.Clone(h.partner1)
	c.partner2 = slices.Clone(h.partner2)
	return &c
}

// FlipPlays returns a new history whose own moves are flipped with draws from
// src. The co-participant sequences are kept; h is not modified.
func (h *History) FlipPlays(src Uniform) *History {
	flipped := make([]Action, len(h.plays))
	for i, a := range h.plays {
		flipped[i] = a.Flip(src)
	}
	c := &History{}
	// lengths match by construction
	_ = c.Extend(flipped, h.counterpart, h.partner1, h.partner2)
	return c
}

// Len returns the number of recorded rounds.
func (h *History) Len() int { return len(h.plays) }

// At returns the owner's move in round i.
func (h *History) At(i int) Action { return h.plays[i] }

// Last returns the owner's most recent move.
func (h *History) Last() (Action, bool) {
	if len(h.plays) == 0 {
		return 0, false
	}
	return h.plays[len(h.plays)-1], true
}

func (h *History) Plays() []Action            { return slices.Clone(h.plays) }
func (h *History) CounterpartPlays() []Action { return slices.Clone(h.counterpart) }
func (h *History) Partner1Plays() []Action    { return slices.Clone(h.partner1) }
func (h *History) Partner2Plays() []Action    { return slices.Clone(h.partner2) }

// Count returns how often the owner played a.
func (h *History) Count(a Action) int {
	if !a.Valid() {
		return 0
	}
	return h.actions[a]
}

// Normalized returns Count(a) divided by the number of rounds, or 0 before
// the first round.
func (h *History) Normalized(a Action) float64 {
	if len(h.plays) == 0 {
		return 0
	}
	return float64(h.Count(a)) / float64(len(h.plays))
}

// StateCount returns how often interaction i was observed.
func (h *History) StateCount(i Interaction) int {
	if !i.Valid() {
		return 0
	}
	return h.states[i.Index()]
}

// StateDistribution returns the observed interactions with non-zero counts.
func (h *History) StateDistribution() map[Interaction]int {
	m := make(map[Interaction]int)
	for idx, c := range h.states {
		if c > 0 {
			m[InteractionAt(idx)] = c
		}
	}
	return m
}

// NormalizedStateDistribution returns the state distribution as fractions of
// the number of rounds.
func (h *History) NormalizedStateDistribution() map[Interaction]float64 {
	m := make(map[Interaction]float64)
	if len(h.plays) == 0 {
		return m
	}
	total := float64(len(h.plays))
	for idx, c := range h.states {
		if c > 0 {
			m[InteractionAt(idx)] = float64(c) / total
		}
	}
	return m
}

// Equal reports whether both histories recorded the same rounds.
func (h *History) Equal(other *History) bool {
	return slices.Equal(h.plays, other.plays) &&
		slices.Equal(h.counterpart, other.counterpart) &&
		slices.Equal(h.partner1, other.partner1) &&
		slices.Equal(h.partner2, other.partner2)
}

func (h *History) String() string {
	return FormatActions(h.plays)
}
