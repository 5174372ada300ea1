package strategy

import (
	"fmt"
	"strconv"

	"github.com/freeeve/tetrad/pkg/tetrad"
)

// Random plays W, X and Y with fixed probabilities and Z with the remainder.
type Random struct {
	tetrad.Base
	pW, pX, pY float64
}

// NewRandom validates the probabilities. Call tetrad.Finalize on the result
// (New does) so that degenerate distributions are classified deterministic.
func NewRandom(pW, pX, pY float64) (*Random, error) {
	for _, p := range []float64{pW, pX, pY} {
		if p < 0 || p > 1 {
			return nil, fmt.Errorf("%w: probability %v outside [0, 1]", ErrBadArgument, p)
		}
	}
	if sum := pW + pX + pY; sum > 1+1e-9 {
		return nil, fmt.Errorf("%w: probabilities sum to %v", ErrBadArgument, sum)
	}
	p := &Random{pW: pW, pX: pX, pY: pY}
	p.InitBase("Random", tetrad.Classifier{MemoryDepth: 0, Stochastic: true})
	return p, nil
}

// Finalize marks the player deterministic when one move has probability one.
func (p *Random) Finalize() {
	c := p.Classifier()
	_, fixed := p.certain()
	c.Stochastic = !fixed
	p.SetClassifier(c)
}

func (p *Random) certain() (tetrad.Action, bool) {
	switch {
	case p.pW == 1:
		return tetrad.W, true
	case p.pX == 1:
		return tetrad.X, true
	case p.pY == 1:
		return tetrad.Y, true
	case p.pW+p.pX+p.pY == 0:
		return tetrad.Z, true
	}
	return 0, false
}

func (p *Random) Decide(_, _, _ tetrad.HistoryView) (tetrad.Action, error) {
	if a, ok := p.certain(); ok {
		return a, nil
	}
	return p.Rand().RandomChoice(p.pW, p.pX, p.pY), nil
}

func (p *Random) Reset() { p.ResetBase() }

func (p *Random) Clone() tetrad.Player {
	c, _ := NewRandom(p.pW, p.pX, p.pY)
	return tetrad.Finalize(c)
}

func (p *Random) Params() map[string]string {
	return map[string]string{
		"pW": strconv.FormatFloat(p.pW, 'f', -1, 64),
		"pX": strconv.FormatFloat(p.pX, 'f', -1, 64),
		"pY": strconv.FormatFloat(p.pY, 'f', -1, 64),
	}
}

// Mimic samples its move from the competitor's observed move frequencies,
// opening with X.
type Mimic struct {
	tetrad.Base
}

func NewMimic() *Mimic {
	p := &Mimic{}
	p.InitBase("Mimic", tetrad.Classifier{MemoryDepth: -1, Stochastic: true})
	return p
}

func (p *Mimic) Decide(counterpart, _, _ tetrad.HistoryView) (tetrad.Action, error) {
	actions := tetrad.AllActions()
	counts := make([]int, len(actions))
	for i, a := range actions {
		counts[i] = counterpart.Count(a)
	}
	pdf := tetrad.NewPdf(actions, counts, p.Rand())
	if pdf == nil {
		return tetrad.X, nil
	}
	return pdf.Sample(), nil
}

func (p *Mimic) Reset()               { p.ResetBase() }
func (p *Mimic) Clone() tetrad.Player { return NewMimic() }
