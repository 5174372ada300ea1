package tournament

import (
	"github.com/freeeve/tetrad/pkg/tetrad"
)

// MatchParams is the parameter bundle shared by every match of a tournament.
type MatchParams struct {
	Turns      int
	ProbEnd    float64
	Noise      float64
	Table      *tetrad.ScoreTable
	Attributes *tetrad.MatchAttributes
}

// Config returns the match configuration for a match driven by stream.
func (p MatchParams) Config(stream *tetrad.Stream) tetrad.MatchConfig {
	return tetrad.MatchConfig{
		Turns:      p.Turns,
		ProbEnd:    p.ProbEnd,
		Noise:      p.Noise,
		Table:      p.Table,
		Attributes: p.Attributes,
		Stream:     stream,
	}
}

// Chunk is one unit of tournament work: a participant tuple, its parameters,
// how often to repeat it and the seed of its match stream.
type Chunk struct {
	Index       int
	Players     [4]int
	Params      MatchParams
	Repetitions int
	Seed        uint64
}

// GeneratorConfig configures a Generator.
type GeneratorConfig struct {
	Edges       [][4]int
	Params      MatchParams
	Repetitions int
	Seed        *uint64 // nil draws match seeds from the clock
	SeedBatch   int
}

// Generator yields chunks in enumeration order and draws one seed per chunk
// from a bulk seeder, so a fixed tournament seed always maps the same match
// to the same seed.
type Generator struct {
	edges  [][4]int
	params MatchParams
	reps   int
	seeder *tetrad.BulkSeeder
	next   int
}

// NewGenerator returns a generator over cfg.Edges.
func NewGenerator(cfg GeneratorConfig) *Generator {
	g := &Generator{
		edges:  cfg.Edges,
		params: cfg.Params,
		reps:   cfg.Repetitions,
	}
	if cfg.Seed != nil {
		g.seeder = tetrad.NewBulkSeeder(*cfg.Seed, cfg.SeedBatch)
	} else {
		g.seeder = tetrad.NewUnseededBulkSeeder(cfg.SeedBatch)
	}
	return g
}

// Size returns the total number of chunks.
func (g *Generator) Size() int { return len(g.edges) }

// Next returns the next chunk, or false when the enumeration is exhausted.
func (g *Generator) Next() (Chunk, bool) {
	if g.next >= len(g.edges) {
		return Chunk{}, false
	}
	c := Chunk{
		Index:       g.next,
		Players:     g.edges[g.next],
		Params:      g.params,
		Repetitions: g.reps,
		Seed:        g.seeder.Next(),
	}
	g.next++
	return c, true
}
