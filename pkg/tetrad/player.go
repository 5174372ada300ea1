package tetrad

import "maps"

// Classifier describes static properties of a strategy. It is informational
// only; the engine never branches on it except to seed stochastic players.
type Classifier struct {
	MemoryDepth       int // -1 means unbounded
	Stochastic        bool
	LongRunTime       bool
	InspectsSource    bool
	ManipulatesSource bool
	ManipulatesState  bool
}

// MatchAttributes are pushed to every player before a match starts so that
// match-aware strategies can condition on them.
type MatchAttributes struct {
	Length int // number of rounds, -1 when unknown
	Table  *ScoreTable
	Noise  float64
}

// DefaultMatchAttributes returns attributes for an unknown-length, noiseless
// match on the canonical table.
func DefaultMatchAttributes() MatchAttributes {
	return MatchAttributes{Length: -1, Table: DefaultScoreTable()}
}

// Player is the contract every strategy implements.
//
// Decide sees only the histories of its three co-participants, each in that
// co-participant's own role order. It must not retain or mutate them. The
// engine appends to every history only after all four decisions of a round
// are collected, so no player ever observes a current-round move.
type Player interface {
	Name() string
	Classifier() Classifier
	Decide(counterpart, partner1, partner2 HistoryView) (Action, error)

	History() *History
	SetMatchAttributes(attrs MatchAttributes)
	MatchAttributes() MatchAttributes

	// Reset reinitialises the player from its construction arguments.
	Reset()
	// Clone returns a player with the same configuration and empty history.
	Clone() Player
}

// Seeder is implemented by players that own a private random stream.
type Seeder interface {
	SetSeed(seed uint64)
}

// Finalizer is implemented by players whose derived metadata must be
// computed after construction. Factories call Finalize once per new player.
type Finalizer interface {
	Finalize()
}

// Parameterized exposes the construction arguments of a player for equality
// checks and display.
type Parameterized interface {
	Params() map[string]string
}

// Finalize runs the post-construction step of p, if any, and returns p.
func Finalize(p Player) Player {
	if f, ok := p.(Finalizer); ok {
		f.Finalize()
	}
	return p
}

// Equal compares configuration and accumulated history. Random generator
// state is never compared.
func Equal(a, b Player) bool {
	if a.Name() != b.Name() || a.Classifier() != b.Classifier() {
		return false
	}
	pa, aok := a.(Parameterized)
	pb, bok := b.(Parameterized)
	if aok != bok {
		return false
	}
	if aok && !maps.Equal(pa.Params(), pb.Params()) {
		return false
	}
	return a.History().Equal(b.History())
}

// Base carries the state every strategy needs. Embed it and call InitBase
// from the constructor.
type Base struct {
	name       string
	classifier Classifier
	history    History
	attrs      MatchAttributes
	stream     *Stream
}

// InitBase (re)initialises the embedded state.
func (b *Base) InitBase(name string, c Classifier) {
	b.name = name
	b.classifier = c
	b.history.Reset()
	b.attrs = DefaultMatchAttributes()
	b.stream = nil
}

func (b *Base) Name() string                     { return b.name }
func (b *Base) Classifier() Classifier           { return b.classifier }
func (b *Base) History() *History                { return &b.history }
func (b *Base) MatchAttributes() MatchAttributes { return b.attrs }
func (b *Base) SetClassifier(c Classifier)       { b.classifier = c }
func (b *Base) SetMatchAttributes(a MatchAttributes) {
	if a.Table == nil {
		a.Table = DefaultScoreTable()
	}
	b.attrs = a
}

// ResetBase clears the history. The match attributes and stream are kept, as
// the match pushes fresh attributes and seeds right after a reset.
func (b *Base) ResetBase() {
	b.history.Reset()
}

// SetSeed gives the player its own random stream.
func (b *Base) SetSeed(seed uint64) {
	b.stream = NewStream(seed)
}

// Rand returns the player's stream, creating an unseeded one if the player
// was never seeded.
func (b *Base) Rand() *Stream {
	if b.stream == nil {
		b.stream = NewUnseededStream()
	}
	return b.stream
}
