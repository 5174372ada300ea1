package tetrad

import (
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
)

// maxSeed bounds generated seeds to the unsigned 32-bit range [0, 2^32-1).
const maxSeed = math.MaxUint32

// Uniform is a source of uniform draws in [0, 1).
type Uniform interface {
	Float64() float64
}

// Stream is a seeded, reproducible random source owned by exactly one match
// or player. It is not safe for concurrent use.
type Stream struct {
	rng    *rand.Rand
	seed   uint64
	seeded bool
}

// NewStream returns a stream seeded with seed.
func NewStream(seed uint64) *Stream {
	return &Stream{
		rng:    rand.New(rand.NewSource(int64(seed))),
		seed:   seed,
		seeded: true,
	}
}

// NewUnseededStream returns a stream seeded from the clock. Results drawn from
// it are not reproducible, so a warning is logged.
func NewUnseededStream() *Stream {
	seed := uint64(time.Now().UnixNano())
	log.Warn().Uint64("seed", seed).Msg("Random stream created without a seed; results will not be reproducible")
	return &Stream{
		rng:  rand.New(rand.NewSource(int64(seed))),
		seed: seed,
	}
}

// Seed returns the seed in use and whether it was supplied by the caller.
func (s *Stream) Seed() (uint64, bool) {
	return s.seed, s.seeded
}

// Float64 returns a uniform draw in [0, 1).
func (s *Stream) Float64() float64 {
	return s.rng.Float64()
}

// Intn returns a uniform integer in [0, n).
func (s *Stream) Intn(n int) int {
	return s.rng.Intn(n)
}

// Range returns a uniform integer in [a, b).
func (s *Stream) Range(a, b int) int {
	return a + int(float64(b-a)*s.rng.Float64())
}

// SeedInt draws a seed suitable for another stream.
func (s *Stream) SeedInt() uint64 {
	return uint64(s.rng.Int63n(maxSeed))
}

// RandomChoice returns W, X or Y with the given probabilities and Z with the
// remainder. Degenerate distributions return without drawing.
func (s *Stream) RandomChoice(pW, pX, pY float64) Action {
	switch {
	case pW == 1:
		return W
	case pX == 1:
		return X
	case pY == 1:
		return Y
	case pW == 0 && pX == 0 && pY == 0:
		return Z
	}

	r := s.rng.Float64()
	switch {
	case r <= pW:
		return W
	case r <= pW+pX:
		return X
	case r <= pW+pX+pY:
		return Y
	default:
		return Z
	}
}

// RandomFlip flips a with probability threshold. Both the decision and the
// flip itself draw from this stream. No draw happens when threshold <= 0.
func (s *Stream) RandomFlip(a Action, threshold float64) Action {
	if threshold <= 0 {
		return a
	}
	if s.rng.Float64() < threshold {
		return a.Flip(s)
	}
	return a
}

// RandomVector returns n non-negative values summing to 1.
func (s *Stream) RandomVector(n int) []float64 {
	v := make([]float64, n)
	var total float64
	for i := range v {
		v[i] = s.rng.Float64()
		total += v[i]
	}
	if total == 0 {
		return v
	}
	for i := range v {
		v[i] /= total
	}
	return v
}

// Pdf samples outcomes in proportion to their observed counts.
type Pdf[T comparable] struct {
	outcomes []T
	cumul    []float64
	stream   *Stream
}

// NewPdf builds a distribution over outcomes weighted by counts. Outcomes with
// a zero count are never sampled. It returns nil when every count is zero.
func NewPdf[T comparable](outcomes []T, counts []int, stream *Stream) *Pdf[T] {
	var total int
	for _, c := range counts {
		total += c
	}
	if total == 0 || len(outcomes) != len(counts) {
		return nil
	}
	p := &Pdf[T]{
		outcomes: append([]T(nil), outcomes...),
		cumul:    make([]float64, len(counts)),
		stream:   stream,
	}
	var acc int
	for i, c := range counts {
		acc += c
		p.cumul[i] = float64(acc) / float64(total)
	}
	return p
}

// Sample draws one outcome.
func (p *Pdf[T]) Sample() T {
	r := p.stream.Float64()
	for i, c := range p.cumul {
		if r < c {
			return p.outcomes[i]
		}
	}
	return p.outcomes[len(p.outcomes)-1]
}

// DefaultSeedBatch is the number of seeds a BulkSeeder pre-generates at once.
const DefaultSeedBatch = 1000

// BulkSeeder hands out one seed per generated match from a single seeded
// generator. Seeds are produced in batches, but the sequence does not depend
// on the batch size.
type BulkSeeder struct {
	rng   *rand.Rand
	batch []uint64
	index int
}

// NewBulkSeeder returns a seeder for the given tournament seed.
func NewBulkSeeder(seed uint64, batchSize int) *BulkSeeder {
	return newBulkSeeder(rand.New(rand.NewSource(int64(seed))), batchSize)
}

// NewUnseededBulkSeeder returns a clock-seeded seeder and logs a warning.
func NewUnseededBulkSeeder(batchSize int) *BulkSeeder {
	seed := time.Now().UnixNano()
	log.Warn().Int64("seed", seed).Msg("Tournament running without a seed; match seeds will not be reproducible")
	return newBulkSeeder(rand.New(rand.NewSource(seed)), batchSize)
}

func newBulkSeeder(rng *rand.Rand, batchSize int) *BulkSeeder {
	if batchSize <= 0 {
		batchSize = DefaultSeedBatch
	}
	b := &BulkSeeder{
		rng:   rng,
		batch: make([]uint64, batchSize),
	}
	b.fill()
	return b
}

func (b *BulkSeeder) fill() {
	for i := range b.batch {
		b.batch[i] = uint64(b.rng.Int63n(maxSeed))
	}
	b.index = 0
}

// Next returns the next seed, refilling the batch when it runs out.
func (b *BulkSeeder) Next() uint64 {
	if b.index >= len(b.batch) {
		b.fill()
	}
	v := b.batch[b.index]
	b.index++
	return v
}
