package tetrad

import (
	"errors"
	"fmt"
	"strconv"
)

// fixedPlayer always plays the same move.
type fixedPlayer struct {
	Base
	move Action
}

func newFixed(a Action) *fixedPlayer {
	p := &fixedPlayer{move: a}
	p.InitBase("Fixed "+a.String(), Classifier{MemoryDepth: 0})
	return p
}

func (p *fixedPlayer) Decide(_, _, _ HistoryView) (Action, error) { return p.move, nil }
func (p *fixedPlayer) Reset()                                     { p.ResetBase() }
func (p *fixedPlayer) Clone() Player                              { return newFixed(p.move) }
func (p *fixedPlayer) Params() map[string]string {
	return map[string]string{"move": p.move.String()}
}

// coinPlayer picks uniformly from its private stream.
type coinPlayer struct {
	Base
}

func newCoin() *coinPlayer {
	p := &coinPlayer{}
	p.InitBase("Coin", Classifier{MemoryDepth: 0, Stochastic: true})
	return p
}

func (p *coinPlayer) Decide(_, _, _ HistoryView) (Action, error) {
	return p.Rand().RandomChoice(0.25, 0.25, 0.25), nil
}
func (p *coinPlayer) Reset()        { p.ResetBase() }
func (p *coinPlayer) Clone() Player { return newCoin() }

// peekPlayer fails if it ever sees a collaborator history that is ahead of
// or behind its own.
type peekPlayer struct {
	Base
}

func newPeek() *peekPlayer {
	p := &peekPlayer{}
	p.InitBase("Peek", Classifier{MemoryDepth: -1})
	return p
}

func (p *peekPlayer) Decide(c, p1, p2 HistoryView) (Action, error) {
	own := p.History().Len()
	for _, h := range []HistoryView{c, p1, p2} {
		if h.Len() != own {
			return W, fmt.Errorf("saw %d moves, own history has %d", h.Len(), own)
		}
	}
	// Answer the counterpart's last move.
	if a, ok := c.Last(); ok {
		return a, nil
	}
	return X, nil
}
func (p *peekPlayer) Reset()        { p.ResetBase() }
func (p *peekPlayer) Clone() Player { return newPeek() }

var errBroken = errors.New("broken strategy")

// brokenPlayer fails on a given round.
type brokenPlayer struct {
	Base
	round int
}

func newBroken(round int) *brokenPlayer {
	p := &brokenPlayer{round: round}
	p.InitBase("Broken "+strconv.Itoa(round), Classifier{})
	return p
}

func (p *brokenPlayer) Decide(_, _, _ HistoryView) (Action, error) {
	if p.History().Len() == p.round {
		return W, errBroken
	}
	return W, nil
}
func (p *brokenPlayer) Reset()        { p.ResetBase() }
func (p *brokenPlayer) Clone() Player { return newBroken(p.round) }

func fixedPlayers(moves ...Action) []Player {
	out := make([]Player, len(moves))
	for i, a := range moves {
		out[i] = newFixed(a)
	}
	return out
}

func mustTrace(s string) []Interaction {
	trace, err := ParseInteractions(s)
	if err != nil {
		panic(err)
	}
	return trace
}
