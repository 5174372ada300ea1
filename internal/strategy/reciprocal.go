package strategy

import (
	"github.com/freeeve/tetrad/pkg/tetrad"
)

// TFT2p cooperates with partner 1 for as long as partner 1 invested in it
// last round (X or Z) and withholds (W) otherwise. It opens with X.
type TFT2p struct {
	tetrad.Base
}

func NewTFT2p() *TFT2p {
	p := &TFT2p{}
	p.InitBase("Simple TFT (2p)", tetrad.Classifier{MemoryDepth: 1})
	return p
}

func (p *TFT2p) Decide(_, partner1, _ tetrad.HistoryView) (tetrad.Action, error) {
	last, ok := partner1.Last()
	if !ok {
		return tetrad.X, nil
	}
	if last == tetrad.X || last == tetrad.Z {
		return tetrad.X, nil
	}
	return tetrad.W, nil
}

func (p *TFT2p) Reset()               { p.ResetBase() }
func (p *TFT2p) Clone() tetrad.Player { return NewTFT2p() }

// ContriteTFT2p mirrors partner 1 like TFT2p, but when noise turned its own
// X into a W it stays contrite and keeps offering X until one lands.
type ContriteTFT2p struct {
	tetrad.Base
	contrite bool
	lastMove tetrad.Action
}

func NewContriteTFT2p() *ContriteTFT2p {
	p := &ContriteTFT2p{lastMove: tetrad.X}
	p.InitBase("Contrite TFT (2p)", tetrad.Classifier{MemoryDepth: 1})
	return p
}

func (p *ContriteTFT2p) Decide(_, partner1, _ tetrad.HistoryView) (tetrad.Action, error) {
	own, ok := p.History().Last()
	if !ok {
		p.lastMove = tetrad.X
		return tetrad.X, nil
	}
	if p.contrite && own == tetrad.X {
		p.contrite = false
		p.lastMove = tetrad.X
		return tetrad.X, nil
	}

	sc1, _ := partner1.Last()
	// A recorded move differing from the intended one means noise.
	if p.lastMove != own && own == tetrad.W && sc1 == tetrad.X {
		p.contrite = true
	}

	var move tetrad.Action
	switch sc1 {
	case tetrad.Y:
		move = tetrad.W
	case tetrad.Z:
		move = tetrad.X
	default:
		move = sc1
	}
	p.lastMove = move
	return move, nil
}

func (p *ContriteTFT2p) Reset() {
	p.ResetBase()
	p.contrite = false
	p.lastMove = tetrad.X
}

func (p *ContriteTFT2p) Clone() tetrad.Player { return NewContriteTFT2p() }

// Pavlov2p is win-stay, lose-shift against partner 1: it plays X after a
// mutual X or a mutual W and W otherwise.
type Pavlov2p struct {
	tetrad.Base
}

func NewPavlov2p() *Pavlov2p {
	p := &Pavlov2p{}
	p.InitBase("Win-stay, lose-shift (2p)", tetrad.Classifier{MemoryDepth: 2})
	return p
}

func (p *Pavlov2p) Decide(_, partner1, _ tetrad.HistoryView) (tetrad.Action, error) {
	own, ok := p.History().Last()
	if !ok {
		return tetrad.X, nil
	}
	sc1, _ := partner1.Last()
	if own == sc1 && (own == tetrad.X || own == tetrad.W) {
		return tetrad.X, nil
	}
	return tetrad.W, nil
}

func (p *Pavlov2p) Reset()               { p.ResetBase() }
func (p *Pavlov2p) Clone() tetrad.Player { return NewPavlov2p() }
