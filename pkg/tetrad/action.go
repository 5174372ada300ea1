// Package tetrad implements the four-player, four-action repeated game:
// actions and payoffs, per-player history, the player contract, seeded
// random streams and the match engine.
package tetrad

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownAction is returned when a character does not name an action.
var ErrUnknownAction = errors.New("unknown action")

// Action is one of the four simultaneous choices available each round.
type Action uint8

const (
	W Action = iota // no commitment
	X               // commit to partner 1
	Y               // commit to partner 2
	Z               // commit to both partners
)

// NumActions is the size of the action set.
const NumActions = 4

// AllActions returns the four actions in declaration order.
func AllActions() []Action {
	return []Action{W, X, Y, Z}
}

// Valid reports whether a is one of the four declared actions.
func (a Action) Valid() bool {
	return a < NumActions
}

// Byte returns the single-character encoding of a.
func (a Action) Byte() byte {
	switch a {
	case W:
		return 'W'
	case X:
		return 'X'
	case Y:
		return 'Y'
	case Z:
		return 'Z'
	default:
		return '?'
	}
}

func (a Action) String() string {
	return string(a.Byte())
}

// ParseAction converts a single character into an Action.
func ParseAction(c byte) (Action, error) {
	switch c {
	case 'W':
		return W, nil
	case 'X':
		return X, nil
	case 'Y':
		return Y, nil
	case 'Z':
		return Z, nil
	}
	return 0, fmt.Errorf("%w: %q (must be W, X, Y or Z)", ErrUnknownAction, c)
}

// Flip returns one of the three other actions, chosen uniformly with a single
// draw from src. The draw is split into thirds which map to a+1, a+2 and a+3
// (mod 4), so the result never equals a.
func (a Action) Flip(src Uniform) Action {
	r := src.Float64()
	var step Action
	switch {
	case r <= 1.0/3.0:
		step = 1
	case r <= 2.0/3.0:
		step = 2
	default:
		step = 3
	}
	return (a%NumActions + step) % NumActions
}

// ParseActions converts a string such as "WWX" into actions.
func ParseActions(s string) ([]Action, error) {
	actions := make([]Action, len(s))
	for i := 0; i < len(s); i++ {
		a, err := ParseAction(s[i])
		if err != nil {
			return nil, fmt.Errorf("position %d: %w", i, err)
		}
		actions[i] = a
	}
	return actions, nil
}

// FormatActions is the inverse of ParseActions.
func FormatActions(actions []Action) string {
	var b strings.Builder
	b.Grow(len(actions))
	for _, a := range actions {
		b.WriteByte(a.Byte())
	}
	return b.String()
}
