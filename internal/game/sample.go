package game

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
	"sync"
)

// Sample draws k distinct positions of items uniformly without replacement
// and returns the elements at those positions in draw order.
// items is never mutated. The result is deterministic for a given rnd state.
func Sample[T any](rnd *rand.Rand, items []T, k int) ([]T, error) {
	if k < 0 || k > len(items) {
		return nil, fmt.Errorf("%w: want %d of %d", ErrInvalidSampleSize, k, len(items))
	}
	// Partial Fisher–Yates over an index permutation.
	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	out := make([]T, k)
	for i := 0; i < k; i++ {
		j := i + rnd.Intn(len(idx)-i)
		idx[i], idx[j] = idx[j], idx[i]
		out[i] = items[idx[i]]
	}
	return out, nil
}

// Sampler shares one random source between goroutines.
type Sampler struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSampler returns a Sampler with a fixed seed (tests, replays).
func NewSampler(seed int64) *Sampler {
	return &Sampler{rnd: rand.New(rand.NewSource(seed))}
}

// NewRandomSampler returns a Sampler seeded from crypto/rand.
func NewRandomSampler() *Sampler {
	var b [8]byte
	_, _ = crand.Read(b[:])
	return NewSampler(int64(binary.LittleEndian.Uint64(b[:])))
}

// SampleWith is Sample using the Sampler's random source.
func SampleWith[T any](s *Sampler, items []T, k int) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Sample(s.rnd, items, k)
}
