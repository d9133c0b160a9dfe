package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRollingVolatility(t *testing.T) {
	t.Run("too short", func(t *testing.T) {
		assert.Equal(t, 0.0, RollingVolatility([]float64{0.01, 0.02}, 21, 252))
	})

	t.Run("constant returns", func(t *testing.T) {
		returns := make([]float64, 30)
		for i := range returns {
			returns[i] = 0.001
		}
		assert.InDelta(t, 0.0, RollingVolatility(returns, 21, 252), 1e-9)
	})

	t.Run("alternating returns use trailing window", func(t *testing.T) {
		returns := make([]float64, 40)
		for i := range returns {
			if i%2 == 0 {
				returns[i] = 0.01
			} else {
				returns[i] = -0.01
			}
		}
		// Population std of an even-length +-1% window is exactly 1%.
		assert.InDelta(t, 0.01*math.Sqrt(252), RollingVolatility(returns, 20, 252), 1e-9)
	})
}
