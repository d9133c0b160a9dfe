package domain

import (
	"fmt"
	"math"
)

// WeightTolerance is how far a weight vector's sum may drift from 1.0.
const WeightTolerance = 1e-6

// WeightVector holds one non-negative weight per asset, in a caller-defined asset order.
type WeightVector []float64

// Sum returns the total weight.
func (w WeightVector) Sum() float64 {
	sum := 0.0
	for _, v := range w {
		sum += v
	}
	return sum
}

// Validate checks the vector has n entries, each finite and non-negative, summing to 1.
func (w WeightVector) Validate(n int) error {
	if len(w) != n {
		return fmt.Errorf("%w: got %d weights for %d assets", ErrWeightMismatch, len(w), n)
	}
	for i, v := range w {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: weight %d is %v", ErrInvalidWeights, i, v)
		}
	}
	if sum := w.Sum(); math.Abs(sum-1.0) > WeightTolerance {
		return fmt.Errorf("%w: weights sum to %v", ErrInvalidWeights, sum)
	}
	return nil
}
