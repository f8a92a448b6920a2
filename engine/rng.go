package engine

import "math/rand"

// RNG is the engine's single source of randomness. It counts every draw so
// a save can record (seed, position) and a load can replay to the same
// point; each draw consumes exactly one value from the source.
type RNG struct {
	seed int64
	src  *rand.Rand
	pos  int64
}

// NewRNG creates an RNG at position 0 of seed.
func NewRNG(seed int64) *RNG {
	return &RNG{seed: seed, src: rand.New(rand.NewSource(seed))}
}

// RestoreRNG creates an RNG already advanced to position.
func RestoreRNG(seed, position int64) *RNG {
	r := &RNG{}
	r.Reset(seed, position)
	return r
}

// Reset rewinds the RNG in place and replays it to position, so the
// timed-input engine and the fight loop, which share the pointer, follow
// a loaded save.
func (r *RNG) Reset(seed, position int64) {
	r.seed = seed
	r.src = rand.New(rand.NewSource(seed))
	for i := int64(0); i < position; i++ {
		r.src.Int63()
	}
	r.pos = position
}

func (r *RNG) draw() int64 {
	r.pos++
	return r.src.Int63()
}

// Between returns a uniform integer in [lo, hi]. A reversed or empty range
// yields lo but still consumes a draw.
func (r *RNG) Between(lo, hi int) int {
	v := r.draw()
	if hi <= lo {
		return lo
	}
	return lo + int(v%int64(hi-lo+1))
}

// Float64 returns a number in [0, 1).
func (r *RNG) Float64() float64 {
	return float64(r.draw()>>10) / (1 << 53)
}

// Chance reports true with probability p.
func (r *RNG) Chance(p float64) bool {
	return r.Float64() < p
}

// WeightedSelect picks an index with probability proportional to its
// weight. Weights must be positive.
func (r *RNG) WeightedSelect(weights []int) int {
	total := 0
	for _, w := range weights {
		total += w
	}
	roll := int(r.draw() % int64(total))
	for i, w := range weights {
		if roll < w {
			return i
		}
		roll -= w
	}
	return len(weights) - 1
}

func (r *RNG) Seed() int64     { return r.seed }
func (r *RNG) Position() int64 { return r.pos }
