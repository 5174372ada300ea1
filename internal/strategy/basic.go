package strategy

import (
	"github.com/freeeve/tetrad/pkg/tetrad"
)

// Always plays one move regardless of history.
type Always struct {
	tetrad.Base
	move tetrad.Action
}

func NewAlways(move tetrad.Action) *Always {
	p := &Always{move: move}
	p.InitBase("Always "+move.String(), tetrad.Classifier{MemoryDepth: 0})
	return p
}

func (p *Always) Decide(_, _, _ tetrad.HistoryView) (tetrad.Action, error) {
	return p.move, nil
}

func (p *Always) Reset()               { p.ResetBase() }
func (p *Always) Clone() tetrad.Player { return NewAlways(p.move) }
func (p *Always) Params() map[string]string {
	return map[string]string{"move": p.move.String()}
}

// Cycler rotates W, X, Y, Z starting from a configured move.
type Cycler struct {
	tetrad.Base
	start tetrad.Action
}

func NewCycler(start tetrad.Action) *Cycler {
	p := &Cycler{start: start}
	p.InitBase("Cycler", tetrad.Classifier{MemoryDepth: 1})
	return p
}

func (p *Cycler) Decide(_, _, _ tetrad.HistoryView) (tetrad.Action, error) {
	last, ok := p.History().Last()
	if !ok {
		return p.start, nil
	}
	return (last + 1) % tetrad.NumActions, nil
}

func (p *Cycler) Reset()               { p.ResetBase() }
func (p *Cycler) Clone() tetrad.Player { return NewCycler(p.start) }
func (p *Cycler) Params() map[string]string {
	return map[string]string{"start": p.start.String()}
}

// Alternator opens with X and then alternates W and X.
type Alternator struct {
	tetrad.Base
}

func NewAlternator() *Alternator {
	p := &Alternator{}
	p.InitBase("Cycle-X-W", tetrad.Classifier{MemoryDepth: 2})
	return p
}

func (p *Alternator) Decide(_, _, _ tetrad.HistoryView) (tetrad.Action, error) {
	if p.History().Len()%2 == 1 {
		return tetrad.W, nil
	}
	return tetrad.X, nil
}

func (p *Alternator) Reset()               { p.ResetBase() }
func (p *Alternator) Clone() tetrad.Player { return NewAlternator() }

// Role names one of the three co-participants as seen by a player.
type Role int

const (
	Competitor Role = iota
	Partner1
	Partner2
)

func (r Role) String() string {
	switch r {
	case Competitor:
		return "Competitor"
	case Partner1:
		return "SC1"
	default:
		return "SC2"
	}
}

// Copy repeats the last move of one co-participant.
type Copy struct {
	tetrad.Base
	role  Role
	start tetrad.Action
}

func NewCopy(role Role, start tetrad.Action) *Copy {
	p := &Copy{role: role, start: start}
	p.InitBase("Copy "+role.String(), tetrad.Classifier{MemoryDepth: 1})
	return p
}

func (p *Copy) Decide(counterpart, partner1, partner2 tetrad.HistoryView) (tetrad.Action, error) {
	target := counterpart
	switch p.role {
	case Partner1:
		target = partner1
	case Partner2:
		target = partner2
	}
	if last, ok := target.Last(); ok {
		return last, nil
	}
	return p.start, nil
}

func (p *Copy) Reset()               { p.ResetBase() }
func (p *Copy) Clone() tetrad.Player { return NewCopy(p.role, p.start) }
func (p *Copy) Params() map[string]string {
	return map[string]string{"role": p.role.String(), "start": p.start.String()}
}
