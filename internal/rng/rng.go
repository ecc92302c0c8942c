// Package rng provides the recording pseudo-random source used by stage
// simulation. Every draw is kept in an ordered history so that stepping the
// same frame range again (after a reset or snapshot restore) replays the
// exact same values.
package rng

// LCG is a deterministic pseudo-random number generator.
// Uses the 64-bit MMIX linear congruential parameters.
type LCG struct {
	state uint64
}

// NewLCG creates a new generator with the given seed.
func NewLCG(seed int64) *LCG {
	s := uint64(seed) //#nosec G115 -- intentional conversion for RNG seeding
	if s == 0 {
		s = 1
	}
	return &LCG{state: s}
}

// Next generates the next random uint64.
func (g *LCG) Next() uint64 {
	g.state = g.state*6364136223846793005 + 1442695040888963407
	return g.state
}

// Float64 returns a random float64 in [0, 1).
func (g *LCG) Float64() float64 {
	// High 53 bits carry the best entropy of an LCG
	return float64(g.Next()>>11) / float64(1<<53)
}

// Recorder is a replayable random source.
//
// Random returns the value under the cursor when the cursor is inside the
// recorded history, otherwise it draws a fresh value and appends it.
type Recorder struct {
	seed    int64
	src     *LCG
	history []float64
	cursor  int
}

// New creates a Recorder whose fresh draws come from an LCG seeded with seed.
func New(seed int64) *Recorder {
	return &Recorder{
		seed: seed,
		src:  NewLCG(seed),
	}
}

// Random returns the next value in [0, 1).
func (r *Recorder) Random() float64 {
	if r.cursor < len(r.history) {
		v := r.history[r.cursor]
		r.cursor++
		return v
	}
	v := r.src.Float64()
	r.history = append(r.history, v)
	r.cursor++
	return v
}

// RandomInt returns floor(Random()*(high-low)) + low, i.e. a value in
// [low, high) when high > low.
func (r *Recorder) RandomInt(low, high int) int {
	return int(r.Random()*float64(high-low)) + low
}

// Reset rewinds the cursor to the start of the history without clearing it.
// The next pass reproduces the exact same draws.
func (r *Recorder) Reset() {
	r.cursor = 0
}

// Reseed clears the history and rewinds the cursor, starting an independent
// stream. The underlying generator keeps advancing.
func (r *Recorder) Reseed() {
	r.history = r.history[:0]
	r.cursor = 0
}

// Cursor returns the number of values consumed since the last Reset.
func (r *Recorder) Cursor() int {
	return r.cursor
}

// Seek moves the cursor to n. Positions past the recorded history are
// filled with fresh draws so the cursor always points into a valid stream.
func (r *Recorder) Seek(n int) {
	if n < 0 {
		n = 0
	}
	for len(r.history) < n {
		r.history = append(r.history, r.src.Float64())
	}
	r.cursor = n
}

// Len returns the number of recorded draws.
func (r *Recorder) Len() int {
	return len(r.history)
}

// Seed returns the seed the recorder was created with.
func (r *Recorder) Seed() int64 {
	return r.seed
}
