package tensor

import (
	"math/rand"
	"time"
)

// Source supplies the pseudo-random numbers used for initialization and
// sampling. *rand.Rand satisfies it.
type Source interface {
	// Float32 returns a uniform value in [0, 1).
	Float32() float32
	// Intn returns a uniform value in [0, n).
	Intn(n int) int
}

// NewSource returns a math/rand backed Source. A zero seed picks a
// time-based one, so runs are not reproducible unless a seed is given.
func NewSource(seed int64) Source {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	//nolint:gosec // G404: ML uses math/rand intentionally for reproducibility
	return rand.New(rand.NewSource(seed))
}

func fillUniform(data []float32, src Source) {
	for i := range data {
		data[i] = src.Float32()
	}
}
