package ports

import (
	"math"
	"math/rand"
	"time"
)

// RandomSource is the random stream a run draws from.
// Implementations are not required to be safe for concurrent use; the engine
// draws sequentially so that a recipe plus a seed replays identically.
type RandomSource interface {
	// Intn returns a value in [0, n). It panics if n <= 0.
	Intn(n int) int
	// Int63n returns a value in [0, n). It panics if n <= 0.
	Int63n(n int64) int64
	// Int63 returns a non-negative pseudo-random 63-bit integer.
	Int63() int64
	// Float64 returns a value in [0.0, 1.0).
	Float64() float64
}

// NewSeededSource creates a math/rand backed RandomSource.
func NewSeededSource(seed int64) RandomSource {
	return rand.New(rand.NewSource(seed))
}

// UniformUint64 returns a value in [0, k]. Spans that fit Int63n use it
// directly; wider ones assemble 64 bits from two draws and reject values
// above k.
func UniformUint64(rnd RandomSource, k uint64) uint64 {
	if k < math.MaxInt64 {
		return uint64(rnd.Int63n(int64(k) + 1))
	}
	for {
		u := uint64(rnd.Int63())<<1 | uint64(rnd.Int63())&1
		if u <= k {
			return u
		}
	}
}

// Clock supplies the current time for relative date resolution.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// FixedClock always returns t. Useful for reproducible relative dates.
func FixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}
