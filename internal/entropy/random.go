// Package entropy provides the randomness used by every stochastic subsystem.
// Ordinary rolls come from an injectable Source so tests can supply a fixed
// sequence; lottery draws can optionally pull true randomness from random.org,
// falling back to crypto/rand when the API is unavailable.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand"
	"sort"
	"sync"
	"time"
)

// Source yields random values. All simulation code takes a Source rather
// than calling math/rand directly.
type Source interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
	// Intn returns a value in [0, n).
	Intn(n int) int
}

// mathSource wraps math/rand with a lock so a single Source can be shared
// between the interactive handlers and the background tick.
type mathSource struct {
	mu  sync.Mutex
	rng *mrand.Rand
}

// NewSource returns a time-seeded Source. Unseeded by design: the
// simulation does not need to be replayable.
func NewSource() Source {
	return &mathSource{rng: mrand.New(mrand.NewSource(time.Now().UnixNano()))}
}

// NewSeededSource returns a deterministic Source for tests.
func NewSeededSource(seed int64) Source {
	return &mathSource{rng: mrand.New(mrand.NewSource(seed))}
}

func (s *mathSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

func (s *mathSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

// Uniform returns a value in [lo, hi).
func Uniform(src Source, lo, hi float64) float64 {
	return lo + src.Float64()*(hi-lo)
}

// Chance performs a Bernoulli trial with probability p.
func Chance(src Source, p float64) bool {
	return src.Float64() < p
}

// WeightedChoice picks a key from weights proportionally to its weight.
// Iteration order is made stable by sorting keys, so a deterministic Source
// yields a deterministic pick. Zero or negative total weight picks the first
// key in sorted order.
func WeightedChoice[K ~string | ~int](src Source, weights map[K]float64) K {
	keys := make([]K, 0, len(weights))
	total := 0.0
	for k, w := range weights {
		keys = append(keys, k)
		if w > 0 {
			total += w
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	if total <= 0 {
		return keys[0]
	}

	roll := src.Float64() * total
	for _, k := range keys {
		w := weights[k]
		if w <= 0 {
			continue
		}
		roll -= w
		if roll < 0 {
			return k
		}
	}
	return keys[len(keys)-1]
}

// SampleUnique draws k distinct ints from [lo, hi] (inclusive).
func SampleUnique(src Source, lo, hi, k int) []int {
	n := hi - lo + 1
	perm := make([]int, n)
	for i := range perm {
		perm[i] = lo + i
	}
	// Partial Fisher-Yates: only the first k positions are needed.
	for i := 0; i < k; i++ {
		j := i + src.Intn(n-i)
		perm[i], perm[j] = perm[j], perm[i]
	}
	out := make([]int, k)
	copy(out, perm[:k])
	return out
}

// cryptoFloat generates a float64 in [0, 1) from crypto/rand.
func cryptoFloat() float64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// Should never happen; 0.5 is a safe default.
		return 0.5
	}
	// Use only 53 bits for a uniform float64 in [0, 1).
	n := binary.LittleEndian.Uint64(buf[:]) >> 11
	return float64(n) / float64(1<<53)
}

// CryptoFloat returns a random float using crypto/rand (no API needed).
func CryptoFloat() float64 {
	return cryptoFloat()
}
