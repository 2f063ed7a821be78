package llm

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/catalog"
)

// MaxSample caps how many records are sent to the model.
const MaxSample = 100

// Sampler picks the records that ground a model prompt.
type Sampler interface {
	Sample(records []catalog.Record, n int) []catalog.Record
}

// RandomSampler draws a uniform random subset without replacement. The
// subset keeps catalog order. Safe for concurrent use.
type RandomSampler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomSampler creates a sampler. A zero seed seeds from the clock.
func NewRandomSampler(seed int64) *RandomSampler {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandomSampler{rng: rand.New(rand.NewSource(seed))}
}

// Sample returns min(n, len(records)) records. n is clamped to MaxSample.
func (s *RandomSampler) Sample(records []catalog.Record, n int) []catalog.Record {
	if n <= 0 || n > MaxSample {
		n = MaxSample
	}
	if len(records) <= n {
		return records
	}

	s.mu.Lock()
	picked := s.rng.Perm(len(records))[:n]
	s.mu.Unlock()

	sort.Ints(picked)
	out := make([]catalog.Record, n)
	for i, idx := range picked {
		out[i] = records[idx]
	}
	return out
}
