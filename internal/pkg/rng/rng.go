// Package rng provides the random source shared by the game engines. Engines
// take a Source so tests can pin outcomes with a seed or a scripted source.
package rng

import (
	"math/rand"
	"sync"
	"time"
)

// Source is the subset of *rand.Rand the engines draw from.
type Source interface {
	Intn(n int) int
	Float64() float64
}

// locked makes a *rand.Rand safe for concurrent handlers.
type locked struct {
	mu sync.Mutex
	r  *rand.Rand
}

// New returns a goroutine-safe source seeded with seed.
func New(seed int64) Source {
	return &locked{r: rand.New(rand.NewSource(seed))}
}

// NewTimeSeeded returns a goroutine-safe source seeded from the clock.
func NewTimeSeeded() Source {
	return New(time.Now().UnixNano())
}

func (l *locked) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

func (l *locked) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

// IntRange draws uniformly from [lo, hi]. hi < lo returns lo.
func IntRange(src Source, lo, hi int64) int64 {
	if hi <= lo {
		return lo
	}
	return lo + int64(src.Intn(int(hi-lo+1)))
}

// Chance reports true with probability p.
func Chance(src Source, p float64) bool {
	return src.Float64() < p
}

// Scripted replays fixed draws, cycling when exhausted. It is meant for tests
// and deterministic simulations.
type Scripted struct {
	mu     sync.Mutex
	Ints   []int
	Floats []float64
	ii, fi int
}

// Intn returns the next scripted int reduced modulo n.
func (s *Scripted) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Ints) == 0 {
		return 0
	}
	v := s.Ints[s.ii%len(s.Ints)]
	s.ii++
	return v % n
}

// Float64 returns the next scripted float.
func (s *Scripted) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Floats) == 0 {
		return 0
	}
	v := s.Floats[s.fi%len(s.Floats)]
	s.fi++
	return v
}
