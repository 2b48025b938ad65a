package optimization

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestMinimizeVarianceSymmetricCase(t *testing.T) {
	// Two uncorrelated assets with equal variance; the mid-point target
	// return is achieved by the 50/50 portfolio.
	mu := []float64{0.10, 0.20}
	sigma := mat.NewSymDense(2, []float64{
		0.04, 0,
		0, 0.04,
	})

	optimizer := NewOptimizer(zerolog.Nop())
	point, err := optimizer.MinimizeVariance(mu, sigma, 0.15)
	require.NoError(t, err)
	require.Len(t, point.Weights, 2)

	assert.InDelta(t, 0.5, point.Weights[0], 0.05)
	assert.InDelta(t, 0.5, point.Weights[1], 0.05)
	assert.InDelta(t, 0.15, point.Return, 1e-12)
	assert.Greater(t, point.Volatility, 0.0)

	var sum float64
	for _, w := range point.Weights {
		sum += w
		assert.GreaterOrEqual(t, w, 0.0)
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestEfficientFrontierDegenerateUniverse(t *testing.T) {
	// All expected returns equal within 1e-10: empty frontier.
	mu := []float64{0.10, 0.10 + 1e-12}
	sigma := mat.NewSymDense(2, []float64{
		0.04, 0.01,
		0.01, 0.03,
	})

	optimizer := NewOptimizer(zerolog.Nop())
	frontier := optimizer.EfficientFrontier(mu, sigma, 50)

	assert.Empty(t, frontier)
}

func TestEfficientFrontierProducesPoints(t *testing.T) {
	mu := []float64{0.08, 0.16}
	sigma := mat.NewSymDense(2, []float64{
		0.03, 0.005,
		0.005, 0.05,
	})

	optimizer := NewOptimizer(zerolog.Nop())
	frontier := optimizer.EfficientFrontier(mu, sigma, 10)

	require.NotEmpty(t, frontier)
	assert.LessOrEqual(t, len(frontier), 10)

	for _, point := range frontier {
		assert.Greater(t, point.Volatility, 0.0)
		assert.GreaterOrEqual(t, point.Return, mu[0]-1e-9)
		assert.LessOrEqual(t, point.Return, mu[1]+1e-9)
	}

	// Returns are sampled in ascending order.
	for i := 1; i < len(frontier); i++ {
		assert.Greater(t, frontier[i].Return, frontier[i-1].Return)
	}
}
