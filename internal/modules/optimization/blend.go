package optimization

// SuggestTargets blends current target weights with the optimizer's
// suggestion. blendFactor is clamped to [0, 1]: 0 reproduces the current
// targets exactly, 1 reproduces the optimizer's suggestion exactly. The
// result covers the union of tickers in either map; absent entries count
// as 0.
func SuggestTargets(current, optimal map[string]float64, blendFactor float64) map[string]float64 {
	if blendFactor < 0 {
		blendFactor = 0
	}
	if blendFactor > 1 {
		blendFactor = 1
	}

	result := make(map[string]float64, len(current)+len(optimal))
	for ticker, weight := range current {
		result[ticker] = weight * (1 - blendFactor)
	}
	for ticker, weight := range optimal {
		result[ticker] += weight * blendFactor
	}

	return result
}
