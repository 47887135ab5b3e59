package demand

import (
	"math"
	"math/rand"
	"sort"
)

// ValueSampler generates real-valued samples.
type ValueSampler interface {
	Sample(rng *rand.Rand) float64
}

// GaussianSampler produces clamped Gaussian values.
type GaussianSampler struct {
	mean, stdDev float64
	min, max     float64
}

// NewGaussianSampler creates a sampler for Normal(mean, stdDev) clamped to [min, max].
func NewGaussianSampler(mean, stdDev, min, max float64) *GaussianSampler {
	return &GaussianSampler{mean: mean, stdDev: stdDev, min: min, max: max}
}

func (s *GaussianSampler) Sample(rng *rand.Rand) float64 {
	val := rng.NormFloat64()*s.stdDev + s.mean
	return clamp(val, s.min, s.max)
}

// UniformSampler produces values uniformly in [lo, hi).
type UniformSampler struct {
	lo, hi float64
}

func (s *UniformSampler) Sample(rng *rand.Rand) float64 {
	return s.lo + rng.Float64()*(s.hi-s.lo)
}

// Categorical samples one of a fixed set of values by weight, using inverse CDF
// via binary search.
type Categorical[T any] struct {
	values []T
	cdf    []float64
}

// NewCategorical creates a sampler over values with the given weights.
// Weights are normalized; non-positive weights drop their value.
func NewCategorical[T any](values []T, weights []float64) *Categorical[T] {
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	c := &Categorical[T]{}
	cumulative := 0.0
	for i, v := range values {
		if i >= len(weights) || weights[i] <= 0 {
			continue
		}
		cumulative += weights[i] / total
		c.values = append(c.values, v)
		c.cdf = append(c.cdf, cumulative)
	}
	// Ensure last CDF entry is exactly 1.0
	if len(c.cdf) > 0 {
		c.cdf[len(c.cdf)-1] = 1.0
	}
	return c
}

// Sample draws one value. Always consumes exactly one Float64 from rng.
func (c *Categorical[T]) Sample(rng *rand.Rand) T {
	u := rng.Float64()
	var zero T
	if len(c.values) == 0 {
		return zero
	}
	idx := sort.SearchFloat64s(c.cdf, u)
	if idx >= len(c.values) {
		idx = len(c.values) - 1
	}
	// SearchFloat64s returns the first cdf >= u; u == cdf[i] belongs to the next bucket.
	if c.cdf[idx] == u && idx+1 < len(c.values) {
		idx++
	}
	return c.values[idx]
}

// Bernoulli returns true with probability p. Always consumes exactly one Float64 from rng.
func Bernoulli(rng *rand.Rand, p float64) bool {
	return rng.Float64() < p
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

// roundTo rounds v to the given number of decimals.
func roundTo(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}
