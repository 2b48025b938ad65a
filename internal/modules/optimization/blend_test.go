package optimization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestTargetsBlendExtremes(t *testing.T) {
	current := map[string]float64{"PETR4": 40, "HGLG11": 60}
	optimal := map[string]float64{"PETR4": 70, "HGLG11": 30}

	// blend 0 reproduces current exactly.
	result := SuggestTargets(current, optimal, 0)
	for ticker, weight := range current {
		assert.InDelta(t, weight, result[ticker], 1e-12)
	}

	// blend 1 reproduces the optimizer's suggestion exactly.
	result = SuggestTargets(current, optimal, 1)
	for ticker, weight := range optimal {
		assert.InDelta(t, weight, result[ticker], 1e-12)
	}
}

func TestSuggestTargetsMidBlend(t *testing.T) {
	current := map[string]float64{"A": 100}
	optimal := map[string]float64{"A": 0}

	result := SuggestTargets(current, optimal, 0.30)
	assert.InDelta(t, 70.0, result["A"], 1e-12)
}

func TestSuggestTargetsUnionOfTickers(t *testing.T) {
	current := map[string]float64{"ONLY_CURRENT": 50}
	optimal := map[string]float64{"ONLY_OPTIMAL": 50}

	result := SuggestTargets(current, optimal, 0.5)
	require.Len(t, result, 2)
	assert.InDelta(t, 25.0, result["ONLY_CURRENT"], 1e-12)
	assert.InDelta(t, 25.0, result["ONLY_OPTIMAL"], 1e-12)
}

func TestSuggestTargetsClampsBlendFactor(t *testing.T) {
	current := map[string]float64{"A": 40}
	optimal := map[string]float64{"A": 80}

	assert.InDelta(t, 40.0, SuggestTargets(current, optimal, -0.5)["A"], 1e-12)
	assert.InDelta(t, 80.0, SuggestTargets(current, optimal, 2.0)["A"], 1e-12)
}
