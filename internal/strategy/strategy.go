// Package strategy holds a small catalogue of reference strategies and the
// factory that turns roster strings into finalized players.
package strategy

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/freeeve/tetrad/pkg/tetrad"
)

// ErrUnknownStrategy is returned when a roster names a strategy that is not
// registered.
var ErrUnknownStrategy = errors.New("unknown strategy")

// ErrBadArgument is returned when a strategy argument cannot be parsed.
var ErrBadArgument = errors.New("bad strategy argument")

// constructor builds a player from an optional argument string.
type constructor func(arg string) (tetrad.Player, error)

var registry = map[string]constructor{
	"always-w": func(string) (tetrad.Player, error) { return NewAlways(tetrad.W), nil },
	"always-x": func(string) (tetrad.Player, error) { return NewAlways(tetrad.X), nil },
	"always-y": func(string) (tetrad.Player, error) { return NewAlways(tetrad.Y), nil },
	"always-z": func(string) (tetrad.Player, error) { return NewAlways(tetrad.Z), nil },
	"cycler": func(arg string) (tetrad.Player, error) {
		start, err := moveArg(arg, tetrad.W)
		if err != nil {
			return nil, err
		}
		return NewCycler(start), nil
	},
	"cycle-xw":        func(string) (tetrad.Player, error) { return NewAlternator(), nil },
	"copy-competitor": copyConstructor(Competitor),
	"copy-sc1":        copyConstructor(Partner1),
	"copy-sc2":        copyConstructor(Partner2),
	"tft-2p":          func(string) (tetrad.Player, error) { return NewTFT2p(), nil },
	"contrite-tft-2p": func(string) (tetrad.Player, error) { return NewContriteTFT2p(), nil },
	"pavlov-2p":       func(string) (tetrad.Player, error) { return NewPavlov2p(), nil },
	"random": func(arg string) (tetrad.Player, error) {
		p := [3]float64{0.25, 0.25, 0.25}
		if arg != "" {
			fields := strings.Split(arg, "/")
			if len(fields) != 3 {
				return nil, fmt.Errorf("%w: random wants pW/pX/pY, got %q", ErrBadArgument, arg)
			}
			for i, f := range fields {
				v, err := strconv.ParseFloat(f, 64)
				if err != nil {
					return nil, fmt.Errorf("%w: %w", ErrBadArgument, err)
				}
				p[i] = v
			}
		}
		r, err := NewRandom(p[0], p[1], p[2])
		if err != nil {
			return nil, err
		}
		return r, nil
	},
	"mimic": func(string) (tetrad.Player, error) { return NewMimic(), nil },
}

func copyConstructor(r Role) constructor {
	return func(arg string) (tetrad.Player, error) {
		start, err := moveArg(arg, tetrad.W)
		if err != nil {
			return nil, err
		}
		return NewCopy(r, start), nil
	}
}

func moveArg(arg string, def tetrad.Action) (tetrad.Action, error) {
	if arg == "" {
		return def, nil
	}
	if len(arg) != 1 {
		return 0, fmt.Errorf("%w: expected a single move, got %q", ErrBadArgument, arg)
	}
	a, err := tetrad.ParseAction(arg[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBadArgument, err)
	}
	return a, nil
}

// Names returns the registered strategy keys in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for k := range registry {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// New builds and finalizes one player from a spec of the form key[:arg],
// e.g. "always-x", "cycler:Y" or "random:0.1/0.2/0.3".
func New(spec string) (tetrad.Player, error) {
	key, arg, _ := strings.Cut(strings.TrimSpace(spec), ":")
	ctor, ok := registry[strings.ToLower(key)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, key)
	}
	p, err := ctor(arg)
	if err != nil {
		return nil, fmt.Errorf("strategy %s: %w", key, err)
	}
	return tetrad.Finalize(p), nil
}

// ParseRoster parses a comma-separated list of player specs. A spec may be
// followed by *N to add N copies, e.g. "tft-2p*3,random,always-z".
func ParseRoster(s string) ([]tetrad.Player, error) {
	var players []tetrad.Player
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		count := 1
		if spec, n, ok := strings.Cut(part, "*"); ok {
			c, err := strconv.Atoi(n)
			if err != nil || c < 1 {
				return nil, fmt.Errorf("%w: bad repeat count in %q", ErrBadArgument, part)
			}
			count = c
			part = spec
		}
		for i := 0; i < count; i++ {
			p, err := New(part)
			if err != nil {
				return nil, err
			}
			players = append(players, p)
		}
	}
	if len(players) == 0 {
		return nil, fmt.Errorf("%w: empty roster", ErrBadArgument)
	}
	return players, nil
}
