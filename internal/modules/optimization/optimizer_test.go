package optimization

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestMaxSharpeBasicProperties(t *testing.T) {
	tickers := []string{"A", "B"}
	mu := []float64{0.18, 0.08}
	sigma := mat.NewSymDense(2, []float64{
		0.04, 0.01,
		0.01, 0.03,
	})

	optimizer := NewOptimizer(zerolog.Nop())
	result, err := optimizer.MaxSharpe(tickers, mu, sigma, 0.05)
	require.NoError(t, err)
	require.Len(t, result.Weights, 2)

	var sum float64
	for _, w := range result.Weights {
		sum += w
		assert.GreaterOrEqual(t, w, -1e-9, "weights must be long-only")
	}
	assert.InDelta(t, 1.0, sum, 1e-9, "weights must be fully invested")

	// A strictly dominates on excess return; it should carry more weight.
	assert.Greater(t, result.Weights["A"], result.Weights["B"])
	assert.Greater(t, result.Sharpe, 0.0)
	assert.Greater(t, result.Volatility, 0.0)
}

func TestMaxSharpeZeroVolatilityFloor(t *testing.T) {
	tickers := []string{"A", "B"}
	mu := []float64{0.10, 0.10}
	sigma := mat.NewSymDense(2, []float64{
		0, 0,
		0, 0,
	})

	optimizer := NewOptimizer(zerolog.Nop())
	result, err := optimizer.MaxSharpe(tickers, mu, sigma, 0.05)
	require.NoError(t, err)

	// Volatility below the numerical floor defines Sharpe as 0 rather
	// than dividing by near-zero.
	assert.Zero(t, result.Sharpe)
	assert.Zero(t, result.Volatility)

	var sum float64
	for _, w := range result.Weights {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestMaxSharpeInputValidation(t *testing.T) {
	optimizer := NewOptimizer(zerolog.Nop())

	_, err := optimizer.MaxSharpe(nil, nil, mat.NewSymDense(1, []float64{1}), 0.05)
	assert.Error(t, err)

	_, err = optimizer.MaxSharpe([]string{"A"}, []float64{0.1, 0.2}, mat.NewSymDense(2, []float64{1, 0, 0, 1}), 0.05)
	assert.Error(t, err)
}

func TestMaxSharpePrefersHigherSharpeAsset(t *testing.T) {
	// Three uncorrelated assets, one clearly superior.
	tickers := []string{"GOOD", "MID", "BAD"}
	mu := []float64{0.20, 0.10, 0.02}
	sigma := mat.NewSymDense(3, []float64{
		0.02, 0, 0,
		0, 0.03, 0,
		0, 0, 0.05,
	})

	optimizer := NewOptimizer(zerolog.Nop())
	result, err := optimizer.MaxSharpe(tickers, mu, sigma, 0.05)
	require.NoError(t, err)

	assert.Greater(t, result.Weights["GOOD"], result.Weights["BAD"])
}
