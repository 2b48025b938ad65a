package optimization

import (
	"fmt"

	"github.com/montanaflynn/stats"
)

// ReturnStats summarizes the raw (per-period, non-annualized) log returns
// of one asset over the lookback window.
type ReturnStats struct {
	Ticker string  `json:"ticker"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
}

// DescribeReturns computes descriptive statistics per asset from the log
// return matrix, in the same ticker order as the input history.
func DescribeReturns(tickers []string, returns [][]float64) ([]ReturnStats, error) {
	if len(returns) == 0 {
		return nil, ErrInsufficientData
	}

	result := make([]ReturnStats, 0, len(tickers))
	column := make([]float64, len(returns))
	for j, ticker := range tickers {
		for i := range returns {
			column[i] = returns[i][j]
		}

		mean, err := stats.Mean(column)
		if err != nil {
			return nil, fmt.Errorf("stats for %s: %w", ticker, err)
		}
		stdDev, err := stats.StandardDeviationSample(column)
		if err != nil {
			return nil, fmt.Errorf("stats for %s: %w", ticker, err)
		}
		minRet, err := stats.Min(column)
		if err != nil {
			return nil, fmt.Errorf("stats for %s: %w", ticker, err)
		}
		maxRet, err := stats.Max(column)
		if err != nil {
			return nil, fmt.Errorf("stats for %s: %w", ticker, err)
		}
		median, err := stats.Median(column)
		if err != nil {
			return nil, fmt.Errorf("stats for %s: %w", ticker, err)
		}

		result = append(result, ReturnStats{
			Ticker: ticker,
			Mean:   mean,
			StdDev: stdDev,
			Min:    minRet,
			Max:    maxRet,
			Median: median,
		})
	}

	return result, nil
}
