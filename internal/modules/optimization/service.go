package optimization

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Service runs the full optimization pipeline: log returns, annualized
// μ/Σ, max-Sharpe solve, efficient frontier and blended target suggestion.
type Service struct {
	optimizer          *Optimizer
	tradingPeriodsYear int
	log                zerolog.Logger
}

// NewService creates a new optimization service.
func NewService(tradingPeriodsPerYear int, log zerolog.Logger) *Service {
	return &Service{
		optimizer:          NewOptimizer(log),
		tradingPeriodsYear: tradingPeriodsPerYear,
		log:                log.With().Str("service", "optimization").Logger(),
	}
}

// RunResult is the outcome of one optimization pipeline run.
type RunResult struct {
	ExpectedReturns  map[string]float64 `json:"expected_returns"` // annualized μ per ticker
	Optimal          OptimalPortfolio   `json:"optimal"`
	Frontier         []FrontierPoint    `json:"frontier"`
	SuggestedTargets map[string]float64 `json:"suggested_targets"` // percentages
	Stats            []ReturnStats      `json:"stats"`
}

// Run executes the pipeline on a pre-filtered price history.
// currentTargets maps tickers to target weight percentages; the suggestion
// blends them with the max-Sharpe weights (also expressed as percentages)
// using blendFactor.
func (s *Service) Run(
	history PriceHistory,
	currentTargets map[string]float64,
	riskFreeRate float64,
	blendFactor float64,
	frontierPoints int,
) (*RunResult, error) {
	returns, err := LogReturns(history)
	if err != nil {
		return nil, fmt.Errorf("failed to compute log returns: %w", err)
	}

	mu := ExpectedReturns(returns, s.tradingPeriodsYear)
	sigma := CovarianceMatrix(returns, s.tradingPeriodsYear)

	optimal, err := s.optimizer.MaxSharpe(history.Tickers, mu, sigma, riskFreeRate)
	if err != nil {
		return nil, fmt.Errorf("max-Sharpe solve failed: %w", err)
	}

	frontier := s.optimizer.EfficientFrontier(mu, sigma, frontierPoints)

	optimalPct := make(map[string]float64, len(optimal.Weights))
	for ticker, weight := range optimal.Weights {
		optimalPct[ticker] = weight * 100.0
	}
	suggested := SuggestTargets(currentTargets, optimalPct, blendFactor)

	muByTicker := make(map[string]float64, len(history.Tickers))
	for i, ticker := range history.Tickers {
		muByTicker[ticker] = mu[i]
	}

	assetStats, err := DescribeReturns(history.Tickers, returns)
	if err != nil {
		return nil, fmt.Errorf("failed to compute return stats: %w", err)
	}

	s.log.Info().
		Int("assets", len(history.Tickers)).
		Int("observations", len(returns)).
		Int("frontier_points", len(frontier)).
		Float64("sharpe", optimal.Sharpe).
		Msg("Optimization pipeline complete")

	return &RunResult{
		ExpectedReturns:  muByTicker,
		Optimal:          optimal,
		Frontier:         frontier,
		SuggestedTargets: suggested,
		Stats:            assetStats,
	}, nil
}
