// Package optimization computes mean-variance statistics, the efficient
// frontier and the maximum-Sharpe portfolio from historical prices.
package optimization

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ErrInsufficientData is returned when fewer than two price rows are
// supplied, making period-over-period returns undefined.
var ErrInsufficientData = errors.New("insufficient price data: need at least 2 rows")

// PriceHistory is a dates×tickers matrix of historical prices with no
// missing values. Rows are ordered oldest first; callers must pre-filter
// to a common date range.
type PriceHistory struct {
	Tickers []string
	Prices  [][]float64 // rows = dates ascending, cols = tickers
}

// LogReturns computes natural-log period-over-period returns, dropping the
// first (undefined) row. Non-positive prices make the log undefined and are
// rejected with an error naming the offending ticker.
func LogReturns(history PriceHistory) ([][]float64, error) {
	if len(history.Prices) < 2 {
		return nil, ErrInsufficientData
	}

	nAssets := len(history.Tickers)
	for i, row := range history.Prices {
		if len(row) != nAssets {
			return nil, fmt.Errorf("price row %d has %d columns, expected %d", i, len(row), nAssets)
		}
		for j, price := range row {
			if price <= 0 {
				return nil, fmt.Errorf("non-positive price for %s at row %d", history.Tickers[j], i)
			}
		}
	}

	returns := make([][]float64, len(history.Prices)-1)
	for i := 1; i < len(history.Prices); i++ {
		row := make([]float64, nAssets)
		for j := 0; j < nAssets; j++ {
			row[j] = math.Log(history.Prices[i][j] / history.Prices[i-1][j])
		}
		returns[i-1] = row
	}

	return returns, nil
}

// ExpectedReturns computes the annualized expected return vector μ: the mean
// of log returns per asset scaled by the annualization constant.
func ExpectedReturns(returns [][]float64, tradingPeriodsPerYear int) []float64 {
	if len(returns) == 0 {
		return nil
	}

	nAssets := len(returns[0])
	mu := make([]float64, nAssets)
	column := make([]float64, len(returns))
	for j := 0; j < nAssets; j++ {
		for i := range returns {
			column[i] = returns[i][j]
		}
		mu[j] = stat.Mean(column, nil) * float64(tradingPeriodsPerYear)
	}

	return mu
}

// CovarianceMatrix computes the annualized sample covariance matrix Σ of
// the log returns. The result is symmetric and positive semi-definite up
// to floating error.
func CovarianceMatrix(returns [][]float64, tradingPeriodsPerYear int) *mat.SymDense {
	if len(returns) == 0 {
		return nil
	}

	nObs := len(returns)
	nAssets := len(returns[0])

	data := make([]float64, 0, nObs*nAssets)
	for _, row := range returns {
		data = append(data, row...)
	}
	observations := mat.NewDense(nObs, nAssets, data)

	sigma := mat.NewSymDense(nAssets, nil)
	stat.CovarianceMatrix(sigma, observations, nil)
	for i := 0; i < nAssets; i++ {
		for j := i; j < nAssets; j++ {
			sigma.SetSym(i, j, sigma.At(i, j)*float64(tradingPeriodsPerYear))
		}
	}

	return sigma
}
