// Package tournament runs every participant tuple of a roster through a
// four-player match and streams one result row per slot per repetition.
package tournament

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/freeeve/tetrad/internal/logger"
	"github.com/freeeve/tetrad/internal/model"
	"github.com/freeeve/tetrad/internal/repository"
	"github.com/freeeve/tetrad/pkg/tetrad"
)

// ErrInvalidConfig is returned by New for an unusable configuration.
var ErrInvalidConfig = errors.New("invalid tournament configuration")

// Config describes a tournament.
type Config struct {
	Name        string
	RunID       string
	Players     []tetrad.Player
	Table       *tetrad.ScoreTable
	Turns       int
	ProbEnd     float64
	Noise       float64
	Repetitions int
	Graph       Graph
	Edges       [][4]int // overrides Graph when set
	Attributes  *tetrad.MatchAttributes
	Seed        *uint64
	SeedBatch   int
	Workers     int
}

// MatchError reports a match that could not be built or played.
type MatchError struct {
	Index      int
	Players    [4]int
	Repetition int
	Seed       uint64
	Err        error
}

func (e *MatchError) Error() string {
	return fmt.Sprintf("match %d %v repetition %d (seed %d): %v", e.Index, e.Players, e.Repetition, e.Seed, e.Err)
}

func (e *MatchError) Unwrap() error { return e.Err }

// Summary reports what a run produced.
type Summary struct {
	Matches      int           `json:"matches"`
	Interactions int           `json:"interactions"`
	Rows         int           `json:"rows"`
	Duration     time.Duration `json:"duration"`
}

// Tournament holds a validated configuration. The roster's players are
// templates: every match plays fresh clones of them.
type Tournament struct {
	cfg    Config
	edges  [][4]int
	names  []string
	params MatchParams
}

// New validates cfg and returns a tournament ready to run.
func New(cfg Config) (*Tournament, error) {
	n := len(cfg.Players)
	if n == 0 {
		return nil, fmt.Errorf("%w: no players", ErrInvalidConfig)
	}
	names := make([]string, n)
	for i, p := range cfg.Players {
		if p == nil {
			return nil, fmt.Errorf("%w: player %d is nil", ErrInvalidConfig, i)
		}
		names[i] = p.Name()
	}
	if cfg.Turns < 0 {
		return nil, fmt.Errorf("%w: turns must be non-negative, got %d", ErrInvalidConfig, cfg.Turns)
	}
	if !(cfg.ProbEnd >= 0 && cfg.ProbEnd <= 1) {
		return nil, fmt.Errorf("%w: prob_end must be in [0, 1], got %v", ErrInvalidConfig, cfg.ProbEnd)
	}
	if !(cfg.Noise >= 0 && cfg.Noise <= 1) {
		return nil, fmt.Errorf("%w: noise must be in [0, 1], got %v", ErrInvalidConfig, cfg.Noise)
	}
	switch {
	case cfg.Repetitions < 0:
		return nil, fmt.Errorf("%w: repetitions must be positive, got %d", ErrInvalidConfig, cfg.Repetitions)
	case cfg.Repetitions == 0:
		cfg.Repetitions = 1
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Graph == "" {
		cfg.Graph = Complete
	}
	if _, err := ParseGraph(string(cfg.Graph)); err != nil {
		return nil, err
	}

	edges := cfg.Edges
	if edges == nil {
		edges = cfg.Graph.Edges(n)
	}
	for i, e := range edges {
		for _, idx := range e {
			if idx < 0 || idx >= n {
				return nil, fmt.Errorf("%w: edge %d %v references player %d of %d", ErrInvalidConfig, i, e, idx, n)
			}
		}
	}

	return &Tournament{
		cfg:   cfg,
		edges: edges,
		names: names,
		params: MatchParams{
			Turns:      cfg.Turns,
			ProbEnd:    cfg.ProbEnd,
			Noise:      cfg.Noise,
			Table:      cfg.Table,
			Attributes: cfg.Attributes,
		},
	}, nil
}

// Size returns the number of matches the tournament plays.
func (t *Tournament) Size() int { return len(t.edges) }

// Repetitions returns how often each match is repeated.
func (t *Tournament) Repetitions() int { return t.cfg.Repetitions }

// Names returns the roster's player names by index.
func (t *Tournament) Names() []string { return t.names }

// Generator returns a fresh chunk generator for the tournament.
func (t *Tournament) Generator() *Generator {
	return NewGenerator(GeneratorConfig{
		Edges:       t.edges,
		Params:      t.params,
		Repetitions: t.cfg.Repetitions,
		Seed:        t.cfg.Seed,
		SeedBatch:   t.cfg.SeedBatch,
	})
}

// Run plays every match and hands the rows to sink in canonical order:
// enumeration order, then repetition, then slot. A nil sink discards rows.
// The row stream does not depend on the number of workers.
func (t *Tournament) Run(ctx context.Context, sink repository.RowSink) (*Summary, error) {
	if sink == nil {
		sink = repository.Discard{}
	}
	l := logger.ForRun(ctx)
	l.Info().
		Str("tournament", t.cfg.Name).
		Int("players", len(t.names)).
		Int("matches", t.Size()).
		Int("repetitions", t.cfg.Repetitions).
		Int("workers", t.cfg.Workers).
		Msg("Tournament started")

	start := time.Now()
	w := &writer{t: t, sink: sink, summary: &Summary{}}

	var err error
	if t.cfg.Workers > 1 {
		err = t.runParallel(ctx, w)
	} else {
		err = t.runSerial(ctx, w)
	}
	w.summary.Duration = time.Since(start)
	if err != nil {
		l.Error().Err(err).Int("matches", w.summary.Matches).Msg("Tournament failed")
		return w.summary, err
	}

	l.Info().
		Str("tournament", t.cfg.Name).
		Int("matches", w.summary.Matches).
		Int("rows", w.summary.Rows).
		Dur("duration", w.summary.Duration).
		Msg("Tournament completed")
	return w.summary, nil
}

func (t *Tournament) runSerial(ctx context.Context, w *writer) error {
	gen := t.Generator()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		chunk, ok := gen.Next()
		if !ok {
			return nil
		}
		res, err := t.playChunk(chunk)
		if err != nil {
			return err
		}
		if err := w.write(ctx, res); err != nil {
			return err
		}
	}
}

// repetition is one played match.
type repetition struct {
	trace  []tetrad.Interaction
	scores tetrad.Payoffs
	winner tetrad.Outcome
}

type chunkResult struct {
	chunk Chunk
	reps  []repetition
}

// playChunk builds one match over fresh clones and plays it the chunk's
// number of times. All repetitions share the chunk's seed stream.
func (t *Tournament) playChunk(c Chunk) (chunkResult, error) {
	players := make([]tetrad.Player, tetrad.NumSlots)
	for s, idx := range c.Players {
		players[s] = t.cfg.Players[idx].Clone()
	}
	m, err := tetrad.NewMatch(players, c.Params.Config(tetrad.NewStream(c.Seed)))
	if err != nil {
		return chunkResult{}, &MatchError{Index: c.Index, Players: c.Players, Seed: c.Seed, Err: err}
	}

	res := chunkResult{chunk: c, reps: make([]repetition, 0, c.Repetitions)}
	for r := 0; r < c.Repetitions; r++ {
		trace, err := m.Play()
		if err != nil {
			return chunkResult{}, &MatchError{Index: c.Index, Players: c.Players, Repetition: r, Seed: c.Seed, Err: err}
		}
		scores, _ := tetrad.ComputeFinalScores(trace, m.Table())
		res.reps = append(res.reps, repetition{
			trace:  trace,
			scores: scores,
			winner: tetrad.ComputeWinner(trace, m.Table()),
		})
	}
	return res, nil
}

// writer turns chunk results into rows. Only one goroutine calls write, so
// the interaction index needs no locking.
type writer struct {
	t       *Tournament
	sink    repository.RowSink
	summary *Summary
}

func (w *writer) write(ctx context.Context, res chunkResult) error {
	rows := w.t.rows(res, w.summary.Interactions)
	if err := w.sink.WriteRows(ctx, rows); err != nil {
		return fmt.Errorf("write rows for match %d: %w", res.chunk.Index, err)
	}
	w.summary.Matches++
	w.summary.Interactions += len(res.reps)
	w.summary.Rows += len(rows)

	l := logger.ForRun(ctx)
	l.Trace().
		Int("match", res.chunk.Index).
		Ints("players", res.chunk.Players[:]).
		Msg("Match completed")
	return nil
}

// rows lays out one chunk result, numbering repetitions from first.
func (t *Tournament) rows(res chunkResult, first int) []model.Row {
	idx := res.chunk.Players
	rows := make([]model.Row, 0, len(res.reps)*tetrad.NumSlots)
	for r, rep := range res.reps {
		for s := 0; s < tetrad.NumSlots; s++ {
			v := tetrad.SlotView(s)
			rows = append(rows, model.Row{
				RunID:            t.cfg.RunID,
				InteractionIndex: first + r,
				Slot:             s,
				PlayerIndex:      idx[s],
				CompetitorIndex:  idx[v[0]],
				SC1Index:         idx[v[1]],
				SC2Index:         idx[v[2]],
				Repetition:       r,
				PlayerName:       t.names[idx[s]],
				CompetitorName:   t.names[idx[v[0]]],
				SC1Name:          t.names[idx[v[1]]],
				SC2Name:          t.names[idx[v[2]]],
				Actions:          tetrad.FormatActions(tetrad.SlotActions(rep.trace, s)),
				Score:            rep.scores[s],
				Turns:            len(rep.trace),
				Winner:           rep.winner.Won(s),
			})
		}
	}
	return rows
}
