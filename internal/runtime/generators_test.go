package runtime_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/aretw0/seedbed/internal/runtime"
	"github.com/aretw0/seedbed/pkg/domain"
	"github.com/aretw0/seedbed/pkg/fake"
	"github.com/aretw0/seedbed/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 3, 1, 15, 30, 0, 0, time.UTC)

// stubRand replays fixed draws.
type stubRand struct {
	floats []float64
	ints   []int
}

func (s *stubRand) Float64() float64 {
	f := s.floats[0]
	s.floats = s.floats[1:]
	return f
}

func (s *stubRand) Intn(n int) int {
	if len(s.ints) == 0 {
		return 0
	}
	v := s.ints[0] % n
	s.ints = s.ints[1:]
	return v
}

func (s *stubRand) Int63n(n int64) int64 { return int64(s.Intn(int(n))) }
func (s *stubRand) Int63() int64         { return int64(s.Intn(1 << 30)) }

func newEnv(rnd ports.RandomSource) *runtime.Env {
	return &runtime.Env{
		Ctx:       context.Background(),
		Rand:      rnd,
		Clock:     ports.FixedClock(testNow),
		Providers: fake.NewRegistry(),
		Store:     runtime.NewRecordStore(nil, nil),
		Options:   map[string]any{},
	}
}

func TestChoose_NormalizesOverTotal(t *testing.T) {
	choices := []domain.Choice{
		{Probability: 60, Pick: domain.Literal("a")},
		{Probability: 20, Pick: domain.Literal("b")},
		{Probability: 60, Pick: domain.Literal("c")},
	}

	// u = draw * 140
	rnd := &stubRand{floats: []float64{0, 0.42, 0.44, 0.56, 0.58, 0.999}}
	var got []int
	for i := 0; i < 6; i++ {
		idx, err := runtime.Choose(rnd, choices)
		require.NoError(t, err)
		got = append(got, idx)
	}
	assert.Equal(t, []int{0, 0, 1, 1, 2, 2}, got)
}

func TestChoose_Frequencies(t *testing.T) {
	choices := []domain.Choice{{Probability: 60}, {Probability: 20}, {Probability: 60}}
	rnd := ports.NewSeededSource(99)

	counts := make([]int, 3)
	const draws = 14000
	for i := 0; i < draws; i++ {
		idx, err := runtime.Choose(rnd, choices)
		require.NoError(t, err)
		counts[idx]++
	}
	assert.InDelta(t, 6000, counts[0], 400)
	assert.InDelta(t, 2000, counts[1], 400)
	assert.InDelta(t, 6000, counts[2], 400)
}

func TestChoose_ZeroWeightNeverWins(t *testing.T) {
	choices := []domain.Choice{{Probability: 0}, {Probability: 1}, {Probability: 0}}
	rnd := &stubRand{floats: []float64{0, 0.5, 0.9999999}}
	for i := 0; i < 3; i++ {
		idx, err := runtime.Choose(rnd, choices)
		require.NoError(t, err)
		assert.Equal(t, 1, idx)
	}
}

func TestChoose_RejectsEmptyTotal(t *testing.T) {
	_, err := runtime.Choose(&stubRand{}, []domain.Choice{{Probability: 0}})
	assert.Error(t, err)
}

func TestRandomNumber(t *testing.T) {
	rnd := ports.NewSeededSource(3)
	for i := 0; i < 200; i++ {
		n, err := runtime.RandomNumber(rnd, domain.NumberRange{Min: 3, Max: 5})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 3)
		assert.LessOrEqual(t, n, 5)
	}

	for i := 0; i < 50; i++ {
		n, err := runtime.RandomNumber(rnd, domain.NumberRange{Min: 100, Max: 500, Step: 100})
		require.NoError(t, err)
		assert.Zero(t, n%100)
	}

	n, err := runtime.RandomNumber(rnd, domain.NumberRange{Min: 7, Max: 7})
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	_, err = runtime.RandomNumber(rnd, domain.NumberRange{Min: 5, Max: 1})
	var re *domain.RangeError
	assert.ErrorAs(t, err, &re)
}

func TestRandomNumber_WideRanges(t *testing.T) {
	rnd := ports.NewSeededSource(1)
	ranges := []domain.NumberRange{
		{Min: 0, Max: math.MaxInt, Step: 1},
		{Min: -9e18, Max: 9e18},
		{Min: math.MinInt, Max: math.MaxInt},
	}
	for _, r := range ranges {
		for i := 0; i < 500; i++ {
			n, err := runtime.RandomNumber(rnd, r)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, n, r.Min)
			assert.LessOrEqual(t, n, r.Max)
		}
	}
}

func TestParseDateBound(t *testing.T) {
	today := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	cases := map[string]time.Time{
		"today":      today,
		"-30d":       today.AddDate(0, 0, -30),
		"+2w":        today.AddDate(0, 0, 14),
		"6m":         today.AddDate(0, 6, 0),
		"-1y":        today.AddDate(-1, 0, 0),
		"10":         today.AddDate(0, 0, 10),
		"2023-12-25": time.Date(2023, 12, 25, 0, 0, 0, 0, time.UTC),
	}
	for in, want := range cases {
		got, err := runtime.ParseDateBound(in, testNow)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := runtime.ParseDateBound("next tuesday", testNow)
	assert.Error(t, err)
}

func TestDateBetween(t *testing.T) {
	rnd := ports.NewSeededSource(11)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 100; i++ {
		d, err := runtime.DateBetween(rnd, testNow, domain.DateRange{Start: "2024-01-01", End: "2024-01-10"})
		require.NoError(t, err)
		assert.False(t, d.Before(start) || d.After(end), "date %s out of range", d)
	}

	_, err := runtime.DateBetween(rnd, testNow, domain.DateRange{Start: "today", End: "-1d"})
	var de *domain.DateRangeError
	assert.ErrorAs(t, err, &de)
}

func TestDateBetween_LongSpan(t *testing.T) {
	rnd := ports.NewSeededSource(2)
	start := time.Date(1600, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)
	lo, hi := end, start
	for i := 0; i < 20000; i++ {
		d, err := runtime.DateBetween(rnd, testNow, domain.DateRange{Start: "1600-01-01", End: "2100-01-01"})
		require.NoError(t, err)
		require.False(t, d.Before(start) || d.After(end), "date %s out of range", d)
		if d.Before(lo) {
			lo = d
		}
		if d.After(hi) {
			hi = d
		}
	}
	assert.True(t, lo.Year() < 1650, "earliest draw %s", lo)
	assert.True(t, hi.Year() > 2050, "latest draw %s", hi)
}

func TestGenerate_Kinds(t *testing.T) {
	env := newEnv(ports.NewSeededSource(5))

	v, err := runtime.Generate(env, domain.Literal(42))
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = runtime.Generate(env, domain.Fake("first_name", nil))
	require.NoError(t, err)
	assert.NotEmpty(t, v)

	_, err = runtime.Generate(env, domain.Fake("favorite_color", nil))
	var upe *domain.UnknownProviderError
	assert.ErrorAs(t, err, &upe)

	v, err = runtime.Generate(env, domain.RandomChoice(
		domain.Choice{Probability: 1, Pick: domain.RandomNumber(10, 10)},
	))
	require.NoError(t, err)
	assert.Equal(t, 10, v, "a pick may itself be a generator")

	_, err = runtime.Generate(env, domain.Reference("bluth_co"))
	var ure *domain.UnresolvedReferenceError
	assert.True(t, errors.As(err, &ure))
}
