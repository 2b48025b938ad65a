package optimization

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogReturns(t *testing.T) {
	history := PriceHistory{
		Tickers: []string{"A", "B"},
		Prices: [][]float64{
			{100, 50},
			{110, 45},
			{121, 54},
		},
	}

	returns, err := LogReturns(history)
	require.NoError(t, err)
	require.Len(t, returns, 2)

	assert.InDelta(t, math.Log(1.1), returns[0][0], 1e-12)
	assert.InDelta(t, math.Log(45.0/50.0), returns[0][1], 1e-12)
	assert.InDelta(t, math.Log(121.0/110.0), returns[1][0], 1e-12)
	assert.InDelta(t, math.Log(54.0/45.0), returns[1][1], 1e-12)
}

func TestLogReturnsInsufficientData(t *testing.T) {
	history := PriceHistory{
		Tickers: []string{"A"},
		Prices:  [][]float64{{100}},
	}

	_, err := LogReturns(history)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = LogReturns(PriceHistory{Tickers: []string{"A"}})
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestLogReturnsRejectsNonPositivePrices(t *testing.T) {
	history := PriceHistory{
		Tickers: []string{"A", "B"},
		Prices: [][]float64{
			{100, 50},
			{110, 0},
		},
	}

	_, err := LogReturns(history)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "B")
}

func TestExpectedReturnsAnnualization(t *testing.T) {
	// Constant 1% per-period return on asset A, flat asset B.
	returns := [][]float64{
		{0.01, 0.0},
		{0.01, 0.0},
		{0.01, 0.0},
	}

	mu := ExpectedReturns(returns, 252)
	require.Len(t, mu, 2)
	assert.InDelta(t, 2.52, mu[0], 1e-9)
	assert.Zero(t, mu[1])
}

func TestCovarianceMatrix(t *testing.T) {
	// Two observations, two assets; sample covariance has denominator n-1 = 1.
	returns := [][]float64{
		{0.01, -0.01},
		{0.03, 0.01},
	}

	sigma := CovarianceMatrix(returns, 252)
	require.NotNil(t, sigma)
	require.Equal(t, 2, sigma.SymmetricDim())

	// Var(A) = ((0.01-0.02)^2 + (0.03-0.02)^2) / 1 = 2e-4, annualized.
	assert.InDelta(t, 2e-4*252, sigma.At(0, 0), 1e-9)
	assert.InDelta(t, 2e-4*252, sigma.At(1, 1), 1e-9)
	// Cov(A,B) = ((-0.01)(-0.01) + (0.01)(0.01)) / 1 = 2e-4, annualized.
	assert.InDelta(t, 2e-4*252, sigma.At(0, 1), 1e-9)
	assert.InDelta(t, sigma.At(0, 1), sigma.At(1, 0), 1e-12)
}

func TestCovarianceMatrixEmpty(t *testing.T) {
	assert.Nil(t, CovarianceMatrix(nil, 252))
	assert.Nil(t, ExpectedReturns(nil, 252))
}
