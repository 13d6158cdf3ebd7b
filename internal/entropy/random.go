// Package entropy provides the pluggable random sources used by trait generation,
// tech-level jitter and deterrence gates. Seeded sources make runs reproducible;
// the crypto source is the fallback when no seed is configured.
package entropy

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"
)

// Source is the randomness every stochastic system draws from.
type Source interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
	// Intn returns a value in [0, n). n must be > 0.
	Intn(n int) int
}

// Seeded is a deterministic Source backed by PCG.
type Seeded struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeeded creates a deterministic source. The same seed always yields the
// same sequence.
func NewSeeded(seed int64) *Seeded {
	return &Seeded{rng: rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))}
}

// Float64 returns a value in [0, 1).
func (s *Seeded) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// Intn returns a value in [0, n).
func (s *Seeded) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

// cryptoSource draws from crypto/rand.
type cryptoSource struct{}

// Crypto returns a non-deterministic source.
func Crypto() Source {
	return cryptoSource{}
}

func (cryptoSource) Float64() float64 {
	return cryptoRandFloat()
}

func (cryptoSource) Intn(n int) int {
	return int(cryptoRandFloat() * float64(n))
}

// cryptoRandFloat generates a random float64 using crypto/rand.
func cryptoRandFloat() float64 {
	var buf [8]byte
	_, err := crand.Read(buf[:])
	if err != nil {
		// This should never happen but return 0.5 as a safe default.
		return 0.5
	}
	// Use only 53 bits for a uniform float64 in [0, 1).
	n := binary.LittleEndian.Uint64(buf[:]) >> 11
	return float64(n) / float64(1<<53)
}

// FromSeed returns a seeded source, or the crypto source when seed is 0.
func FromSeed(seed int64) Source {
	if seed == 0 {
		return Crypto()
	}
	return NewSeeded(seed)
}

// Fixed is a Source that replays a fixed sequence, cycling when exhausted.
// Tests use it to force specific branches.
type Fixed struct {
	Values []float64
	next   int
}

// Float64 returns the next scripted value.
func (f *Fixed) Float64() float64 {
	if len(f.Values) == 0 {
		return 0
	}
	v := f.Values[f.next%len(f.Values)]
	f.next++
	return v
}

// Intn scales the next scripted value into [0, n).
func (f *Fixed) Intn(n int) int {
	i := int(f.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}
