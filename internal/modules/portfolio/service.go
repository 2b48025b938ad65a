// Package portfolio derives per-asset and per-class weights and gaps from a
// portfolio snapshot, and persists positions.
package portfolio

import (
	"fmt"
	"math"

	"github.com/JoaoToni12/analise-investimentos/internal/domain"
)

// TargetWeightTolerance is the floating tolerance accepted when validating
// that target weights sum to at most 100%.
const TargetWeightTolerance = 1e-6

// PortfolioValue returns the total market value of all assets.
func PortfolioValue(assets []domain.Asset) float64 {
	var total float64
	for _, a := range assets {
		total += a.CurrentValue()
	}
	return total
}

// Weights computes the current weight (%) of each asset relative to total
// portfolio value. When total value is zero or negative every weight is 0.
func Weights(assets []domain.Asset) map[string]float64 {
	weights := make(map[string]float64, len(assets))
	total := PortfolioValue(assets)
	if total <= 0 {
		for _, a := range assets {
			weights[a.Ticker] = 0
		}
		return weights
	}
	for _, a := range assets {
		weights[a.Ticker] = a.CurrentValue() / total * 100.0
	}
	return weights
}

// ClassWeights aggregates current weights by asset class. Returns an empty
// map when total value is zero or negative.
func ClassWeights(assets []domain.Asset) map[domain.AssetClass]float64 {
	total := PortfolioValue(assets)
	if total <= 0 {
		return map[domain.AssetClass]float64{}
	}

	classValues := make(map[domain.AssetClass]float64)
	for _, a := range assets {
		classValues[a.AssetClass] += a.CurrentValue()
	}

	classWeights := make(map[domain.AssetClass]float64, len(classValues))
	for class, value := range classValues {
		classWeights[class] = value / total * 100.0
	}
	return classWeights
}

// Gaps returns target weight minus current weight per ticker. A positive gap
// means the asset is underweight (needs buying).
func Gaps(assets []domain.Asset) map[string]float64 {
	weights := Weights(assets)
	gaps := make(map[string]float64, len(assets))
	for _, a := range assets {
		gaps[a.Ticker] = a.TargetWeight - weights[a.Ticker]
	}
	return gaps
}

// WithWeights returns a new snapshot with CurrentWeight recomputed on every
// asset. The input slice is not modified; classification and order
// generation must run on the snapshot returned here whenever prices or
// quantities changed.
func WithWeights(assets []domain.Asset) []domain.Asset {
	weights := Weights(assets)
	enriched := make([]domain.Asset, len(assets))
	for i, a := range assets {
		a.CurrentWeight = weights[a.Ticker]
		enriched[i] = a
	}
	return enriched
}

// ValidateTargetWeights checks that target weights sum to at most 100%
// (small floating tolerance) and that every weight is within [0, 100].
func ValidateTargetWeights(assets []domain.Asset) error {
	var sum float64
	for _, a := range assets {
		if a.TargetWeight < 0 || a.TargetWeight > 100 {
			return fmt.Errorf("ticker %s: target weight %.2f outside [0, 100]", a.Ticker, a.TargetWeight)
		}
		sum += a.TargetWeight
	}
	if sum > 100+TargetWeightTolerance && !floatEquals(sum, 100) {
		return fmt.Errorf("target weights sum to %.4f%%, must not exceed 100%%", sum)
	}
	return nil
}

func floatEquals(a, b float64) bool {
	return math.Abs(a-b) < TargetWeightTolerance
}
