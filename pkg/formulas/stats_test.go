package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMean(t *testing.T) {
	tests := []struct {
		name string
		data []float64
		mean float64
	}{
		{name: "empty", data: nil, mean: 0},
		{name: "single value", data: []float64{3}, mean: 3},
		{name: "constant", data: []float64{0.01, 0.01, 0.01}, mean: 0.01},
		{name: "alternating", data: []float64{0.01, -0.01, 0.01, -0.01}, mean: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.mean, Mean(tt.data), 1e-12)
		})
	}
}

func TestAnnualizedMean(t *testing.T) {
	assert.InDelta(t, 0, AnnualizedMean([]float64{0.01, -0.01, 0.01, -0.01}, 252), 1e-12)
	assert.InDelta(t, 0.02*252, AnnualizedMean([]float64{0.02, 0.02, 0.02}, 252), 1e-12)
}

func TestSimpleReturn(t *testing.T) {
	tests := []struct {
		name  string
		prev  float64
		price float64
		want  float64
		ok    bool
	}{
		{name: "up", prev: 100, price: 110, want: 0.1, ok: true},
		{name: "down", prev: 100, price: 90, want: -0.1, ok: true},
		{name: "zero previous", prev: 0, price: 90, ok: false},
		{name: "negative price", prev: 100, price: -1, ok: false},
		{name: "nan", prev: math.NaN(), price: 100, ok: false},
		{name: "inf", prev: 100, price: math.Inf(1), ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SimpleReturn(tt.prev, tt.price)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-12)
			}
		})
	}
}

func TestCumulativeReturn(t *testing.T) {
	assert.InDelta(t, 0.5, CumulativeReturn([]float64{100, 120, 150}), 1e-12)
	assert.Equal(t, 0.0, CumulativeReturn([]float64{100}))
	assert.Equal(t, 0.0, CumulativeReturn([]float64{0, 100}))
}
