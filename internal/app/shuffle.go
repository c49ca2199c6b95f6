package app

import (
	"math/rand"
	"sync"
	"time"
)

// Shuffler randomizes sequences with Fisher-Yates. When disabled it returns
// copies in original order; the switch applies to both question and option
// order.
type Shuffler struct {
	enabled bool

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewShuffler returns a shuffler. A nil rnd seeds one from the clock.
func NewShuffler(enabled bool, rnd *rand.Rand) *Shuffler {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Shuffler{enabled: enabled, rnd: rnd}
}

// Enabled reports whether randomization is on.
func (s *Shuffler) Enabled() bool {
	return s.enabled
}

func (s *Shuffler) intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Intn(n)
}

// Shuffle returns a new slice holding the elements of xs in random order.
// xs is never mutated.
func Shuffle[T any](s *Shuffler, xs []T) []T {
	out := make([]T, len(xs))
	copy(out, xs)
	if s == nil || !s.enabled {
		return out
	}
	for i := len(out) - 1; i > 0; i-- {
		j := s.intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
