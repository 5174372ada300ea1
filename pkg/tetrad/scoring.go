package tetrad

import (
	"errors"
	"fmt"
	"sync"
)

// ErrInvalidTable is returned when a score table cannot be built.
var ErrInvalidTable = errors.New("invalid score table")

// NumSlots is the number of simultaneous participants in a match.
const NumSlots = 4

// NumInteractions is the number of distinct four-way action tuples (4^4).
const NumInteractions = NumActions * NumActions * NumActions * NumActions

// Interaction is one round's simultaneous actions in slot order:
// self, counterpart, partner 1, partner 2.
type Interaction [NumSlots]Action

// Index maps a valid interaction onto [0, NumInteractions). Slot 0 is the
// most significant digit, so indices follow Cartesian-product order.
func (i Interaction) Index() int {
	return int(i[0])*64 + int(i[1])*16 + int(i[2])*4 + int(i[3])
}

// Valid reports whether all four entries are declared actions.
func (i Interaction) Valid() bool {
	return i[0].Valid() && i[1].Valid() && i[2].Valid() && i[3].Valid()
}

func (i Interaction) String() string {
	return FormatActions(i[:])
}

// InteractionAt is the inverse of Index.
func InteractionAt(idx int) Interaction {
	return Interaction{
		Action(idx / 64 % 4),
		Action(idx / 16 % 4),
		Action(idx / 4 % 4),
		Action(idx % 4),
	}
}

// AllInteractions enumerates every interaction in Cartesian-product order.
func AllInteractions() []Interaction {
	all := make([]Interaction, NumInteractions)
	for idx := range all {
		all[idx] = InteractionAt(idx)
	}
	return all
}

// Payoffs holds one payoff per slot.
type Payoffs [NumSlots]float64

// BaseMatrix gives, for each move (row), the payoff the mover hands to
// self, counterpart, partner 1 and partner 2 (columns).
type BaseMatrix [NumActions][NumSlots]float64

// SlotPermutations maps, for each mover slot (row), the base matrix columns
// onto the absolute slots that receive them.
type SlotPermutations [NumSlots][NumSlots]int

// DefaultBaseMatrix is the canonical payoff matrix.
var DefaultBaseMatrix = BaseMatrix{
	{0, 0, 0, 0},  // W
	{-3, 0, 4, 0}, // X
	{-3, 0, 0, 4}, // Y
	{-4, 0, 3, 3}, // Z
}

// DefaultSlotPermutations is the canonical role mapping. Row s lists the
// slots that play self, counterpart, partner 1 and partner 2 for slot s.
var DefaultSlotPermutations = SlotPermutations{
	{0, 1, 2, 3},
	{1, 0, 3, 2},
	{2, 3, 0, 1},
	{3, 2, 1, 0},
}

// SlotView returns the slots that slot s sees as counterpart, partner 1 and
// partner 2. History bookkeeping, decisions and row roles all use this view.
func SlotView(s int) [3]int {
	row := DefaultSlotPermutations[s]
	return [3]int{row[1], row[2], row[3]}
}

// Perspective reorders i into slot s's role order.
func Perspective(i Interaction, s int) Interaction {
	v := SlotView(s)
	return Interaction{i[s], i[v[0]], i[v[1]], i[v[2]]}
}

// ScoreTable is a frozen total map from Interaction to Payoffs.
type ScoreTable struct {
	entries [NumInteractions]Payoffs
}

// BuildScoreTable expands a base matrix through the slot permutations into a
// table covering all 256 interactions.
func BuildScoreTable(base BaseMatrix, perms SlotPermutations) (*ScoreTable, error) {
	for s, row := range perms {
		var seen [NumSlots]bool
		for _, target := range row {
			if target < 0 || target >= NumSlots || seen[target] {
				return nil, fmt.Errorf("%w: permutation row %d %v is not a permutation of 0..3", ErrInvalidTable, s, row)
			}
			seen[target] = true
		}
	}

	t := &ScoreTable{}
	for idx := range t.entries {
		i := InteractionAt(idx)
		var p Payoffs
		for s := 0; s < NumSlots; s++ {
			for k := 0; k < NumSlots; k++ {
				p[perms[s][k]] += base[i[s]][k]
			}
		}
		t.entries[idx] = p
	}
	return t, nil
}

// NewScoreTable builds a table from an explicit map, which must cover every
// interaction.
func NewScoreTable(m map[Interaction]Payoffs) (*ScoreTable, error) {
	var covered [NumInteractions]bool
	t := &ScoreTable{}
	for i, p := range m {
		if !i.Valid() {
			return nil, fmt.Errorf("%w: key %v holds a non-action value", ErrInvalidTable, [4]uint8{uint8(i[0]), uint8(i[1]), uint8(i[2]), uint8(i[3])})
		}
		t.entries[i.Index()] = p
		covered[i.Index()] = true
	}
	for idx, ok := range covered {
		if !ok {
			return nil, fmt.Errorf("%w: missing interaction %s", ErrInvalidTable, InteractionAt(idx))
		}
	}
	return t, nil
}

var (
	defaultTableOnce sync.Once
	defaultTable     *ScoreTable
)

// DefaultScoreTable returns the shared canonical table.
func DefaultScoreTable() *ScoreTable {
	defaultTableOnce.Do(func() {
		t, err := BuildScoreTable(DefaultBaseMatrix, DefaultSlotPermutations)
		if err != nil {
			panic(err)
		}
		defaultTable = t
	})
	return defaultTable
}

// Score returns the payoffs for i. The table is total over valid
// interactions; an interaction holding a non-action value scores zero.
// Use Lookup to distinguish that case.
func (t *ScoreTable) Score(i Interaction) Payoffs {
	p, _ := t.Lookup(i)
	return p
}

// Lookup returns the payoffs for i and whether i is a valid interaction.
func (t *ScoreTable) Lookup(i Interaction) (Payoffs, bool) {
	if !i.Valid() {
		return Payoffs{}, false
	}
	return t.entries[i.Index()], true
}

// Map returns a copy of the table keyed by interaction.
func (t *ScoreTable) Map() map[Interaction]Payoffs {
	m := make(map[Interaction]Payoffs, NumInteractions)
	for idx, p := range t.entries {
		m[InteractionAt(idx)] = p
	}
	return m
}
