package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
)

// RollingVolatility returns the annualized standard deviation of the last `window` returns.
// Uses go-talib's StdDev (population form), which is what the trailing-window diagnostics use.
// Returns 0 when there are fewer than window returns.
func RollingVolatility(periodReturns []float64, window, periodsPerYear int) float64 {
	if window < 2 || len(periodReturns) < window {
		return 0
	}

	sd := talib.StdDev(periodReturns, window, 1.0)
	last := sd[len(sd)-1]
	if !IsFinite(last) {
		return 0
	}
	return last * math.Sqrt(float64(periodsPerYear))
}
