package tetrad

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/rs/zerolog/log"
)

// DefaultTurns is the fixed match length used when neither a turn count nor a
// termination probability is configured.
const DefaultTurns = 100

var (
	ErrPlayerCount   = errors.New("a match needs exactly four players")
	ErrInvalidConfig = errors.New("invalid match configuration")
)

// MatchConfig holds the parameters of a single match.
//
// Turns and ProbEnd combine as follows: both zero plays DefaultTurns rounds;
// ProbEnd alone samples the length with no cap; both set samples the length
// and caps it at Turns.
type MatchConfig struct {
	Turns   int
	ProbEnd float64
	Noise   float64
	Table   *ScoreTable

	// Attributes overrides what players are told about the match. When nil
	// they are derived from the other fields.
	Attributes *MatchAttributes

	// KeepState skips resetting players before each Play.
	KeepState bool

	// Stream drives length sampling, noise and the seeding of stochastic
	// players. A nil stream is replaced by an unseeded one.
	Stream *Stream
}

// DecideError reports a strategy that failed to produce a move.
type DecideError struct {
	Round  int
	Slot   int
	Player string
	Err    error
}

func (e *DecideError) Error() string {
	return fmt.Sprintf("round %d, slot %d (%s): %v", e.Round, e.Slot, e.Player, e.Err)
}

func (e *DecideError) Unwrap() error { return e.Err }

// Match runs four players against each other. A Match may be played several
// times; each Play reuses the same stream, so repetitions differ whenever the
// length is sampled or noise is on.
type Match struct {
	players   [NumSlots]Player
	turns     int
	probEnd   float64
	noise     float64
	table     *ScoreTable
	attrs     MatchAttributes
	keepState bool
	stream    *Stream
	result    []Interaction
}

// NewMatch validates cfg and binds the four players to slots 0..3 in order.
// The players are used directly; callers that need isolation clone them first.
func NewMatch(players []Player, cfg MatchConfig) (*Match, error) {
	if len(players) != NumSlots {
		return nil, fmt.Errorf("%w: got %d", ErrPlayerCount, len(players))
	}
	if cfg.Turns < 0 {
		return nil, fmt.Errorf("%w: turns %d is negative", ErrInvalidConfig, cfg.Turns)
	}
	if !(cfg.ProbEnd >= 0 && cfg.ProbEnd <= 1) {
		return nil, fmt.Errorf("%w: termination probability %v outside [0, 1]", ErrInvalidConfig, cfg.ProbEnd)
	}
	if !(cfg.Noise >= 0 && cfg.Noise <= 1) {
		return nil, fmt.Errorf("%w: noise %v outside [0, 1]", ErrInvalidConfig, cfg.Noise)
	}

	m := &Match{
		turns:     cfg.Turns,
		probEnd:   cfg.ProbEnd,
		noise:     cfg.Noise,
		table:     cfg.Table,
		keepState: cfg.KeepState,
		stream:    cfg.Stream,
	}
	for s, p := range players {
		if p == nil {
			return nil, fmt.Errorf("%w: slot %d has no player", ErrInvalidConfig, s)
		}
		for prev := 0; prev < s; prev++ {
			if players[prev].History() == p.History() {
				return nil, fmt.Errorf("%w: slots %d and %d share one player instance", ErrInvalidConfig, prev, s)
			}
		}
		m.players[s] = p
	}
	if m.turns == 0 && m.probEnd == 0 {
		m.turns = DefaultTurns
	}
	if m.table == nil {
		m.table = DefaultScoreTable()
	}
	if m.stream == nil {
		m.stream = NewUnseededStream()
	}

	if cfg.Attributes != nil {
		m.attrs = *cfg.Attributes
		if m.attrs.Table == nil {
			m.attrs.Table = m.table
		}
	} else {
		m.attrs = MatchAttributes{Length: m.turns, Table: m.table, Noise: m.noise}
		if m.probEnd > 0 {
			m.attrs.Length = -1
		}
	}
	for _, p := range m.players {
		p.SetMatchAttributes(m.attrs)
	}
	return m, nil
}

// SampleLength draws a match length from the geometric law with termination
// probability p, by inverse transform of the uniform draw r in [0, 1). The
// result is at least 1. p <= 0 has no finite length and returns math.MaxInt.
func SampleLength(p, r float64) int {
	if p <= 0 {
		return math.MaxInt
	}
	if p >= 1 {
		return 1
	}
	n := math.Ceil(math.Log(1-r) / math.Log(1-p))
	switch {
	case math.IsNaN(n) || n < 1:
		return 1
	case n >= math.MaxInt:
		return math.MaxInt
	}
	return int(n)
}

// Play runs the match and returns the round trace.
//
// The order of draws from the match stream is fixed: the length (when
// sampled), one seed per stochastic player in slot order, then per round the
// noise flips in slot order.
func (m *Match) Play() ([]Interaction, error) {
	turns := m.turns
	if m.probEnd > 0 {
		turns = SampleLength(m.probEnd, m.stream.Float64())
		if m.turns > 0 && turns > m.turns {
			turns = m.turns
		}
	}

	for _, p := range m.players {
		if !m.keepState {
			p.Reset()
		}
		p.SetMatchAttributes(m.attrs)
	}
	for _, p := range m.players {
		if s, ok := p.(Seeder); ok && p.Classifier().Stochastic {
			s.SetSeed(m.stream.SeedInt())
		}
	}

	result := make([]Interaction, 0, min(turns, 1<<12))
	for round := 0; round < turns; round++ {
		plays, err := m.simultaneousPlay(round)
		if err != nil {
			m.result = result
			return nil, err
		}
		result = append(result, plays)
	}
	m.result = result
	log.Trace().Int("turns", len(result)).Msg("Match played")
	return slices.Clone(result), nil
}

func (m *Match) simultaneousPlay(round int) (Interaction, error) {
	var plays Interaction
	for s, p := range m.players {
		v := SlotView(s)
		a, err := p.Decide(m.players[v[0]].History(), m.players[v[1]].History(), m.players[v[2]].History())
		if err == nil && !a.Valid() {
			err = fmt.Errorf("%w: value %d", ErrUnknownAction, uint8(a))
		}
		if err != nil {
			return plays, &DecideError{Round: round, Slot: s, Player: p.Name(), Err: err}
		}
		plays[s] = a
	}

	// Noise comes from the match stream only, never from a player's own.
	if m.noise > 0 {
		for s := range plays {
			plays[s] = m.stream.RandomFlip(plays[s], m.noise)
		}
	}

	for s, p := range m.players {
		v := Perspective(plays, s)
		p.History().Append(v[0], v[1], v[2], v[3])
	}
	return plays, nil
}

// Players returns the bound players in slot order.
func (m *Match) Players() [NumSlots]Player { return m.players }

// Table returns the scoring table in use.
func (m *Match) Table() *ScoreTable { return m.table }

// Stream returns the match stream.
func (m *Match) Stream() *Stream { return m.stream }

// MaxTurns returns the configured length: the fixed length, the cap on a
// sampled length, or 0 for an uncapped sampled length.
func (m *Match) MaxTurns() int { return m.turns }

// Result returns the trace of the last Play.
func (m *Match) Result() []Interaction { return slices.Clone(m.result) }

// Turns returns the number of rounds in the last Play.
func (m *Match) Turns() int { return len(m.result) }

func (m *Match) Scores() []Payoffs { return ComputeScores(m.result, m.table) }

func (m *Match) FinalScores() (Payoffs, bool) { return ComputeFinalScores(m.result, m.table) }

func (m *Match) FinalScorePerTurn() (Payoffs, bool) {
	return ComputeFinalScorePerTurn(m.result, m.table)
}

func (m *Match) Winner() Outcome { return ComputeWinner(m.result, m.table) }

func (m *Match) ActionCounts() ([NumSlots][NumActions]int, bool) {
	return ComputeActionCounts(m.result)
}

func (m *Match) NormalizedActionCounts() ([NumSlots][NumActions]float64, bool) {
	return ComputeNormalizedActionCounts(m.result)
}

func (m *Match) StateDistribution() map[Interaction]int {
	return ComputeStateDistribution(m.result)
}

func (m *Match) NormalizedStateDistribution() map[Interaction]float64 {
	return ComputeNormalizedStateDistribution(m.result)
}

func (m *Match) StateToActionDistribution() [NumSlots]map[StateAction]int {
	return ComputeStateToActionDistribution(m.result)
}

func (m *Match) NormalizedStateToActionDistribution() [NumSlots]map[StateAction]float64 {
	return ComputeNormalizedStateToActionDistribution(m.result)
}
