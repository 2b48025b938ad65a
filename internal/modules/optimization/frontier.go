package optimization

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// degenerateReturnSpread is the spread below which the return universe is
// considered degenerate and the frontier is empty.
const degenerateReturnSpread = 1e-10

// DefaultFrontierPoints is the number of target returns sampled along the
// frontier when the caller does not specify one.
const DefaultFrontierPoints = 50

// FrontierPoint is one minimum-variance portfolio on the efficient frontier.
type FrontierPoint struct {
	Weights    []float64 `json:"weights"`
	Return     float64   `json:"return"`
	Volatility float64   `json:"volatility"`
}

// MinimizeVariance finds the minimum-variance portfolio achieving the given
// target return, subject to Σw = 1 and 0 ≤ w ≤ 1. This is the frontier
// primitive; both equality constraints are penalty-enforced.
func (o *Optimizer) MinimizeVariance(mu []float64, sigma mat.Symmetric, targetReturn float64) (FrontierPoint, error) {
	n := len(mu)
	if n == 0 {
		return FrontierPoint{}, fmt.Errorf("no assets to optimize")
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			w := projectToUnitBounds(x)

			obj := quadraticForm(sigma, w)

			sum := sumOf(w)
			obj += penaltyWeight * (sum - 1.0) * (sum - 1.0)

			ret := dot(mu, w)
			obj += penaltyWeight * (ret - targetReturn) * (ret - targetReturn)

			return obj
		},
		Grad: func(grad, x []float64) {
			w := projectToUnitBounds(x)

			for i := 0; i < n; i++ {
				grad[i] = 0
				for j := 0; j < n; j++ {
					grad[i] += 2 * sigma.At(i, j) * w[j]
				}
			}

			sum := sumOf(w)
			for i := 0; i < n; i++ {
				grad[i] += 2 * penaltyWeight * (sum - 1.0)
			}

			ret := dot(mu, w)
			for i := 0; i < n; i++ {
				grad[i] += 2 * penaltyWeight * (ret - targetReturn) * mu[i]
			}
		},
	}

	initial := make([]float64, n)
	for i := range initial {
		initial[i] = 1.0 / float64(n)
	}

	result, err := optimize.Minimize(problem, initial, &optimize.Settings{}, &optimize.BFGS{})
	if err != nil || result == nil || !converged(result.Status) {
		result, err = optimize.Minimize(problem, initial, &optimize.Settings{}, &optimize.NelderMead{})
		if err != nil {
			return FrontierPoint{}, fmt.Errorf("minimum-variance solve failed at target %.6f: %w", targetReturn, err)
		}
	}

	weights := normalizeWeights(projectToUnitBounds(result.X))
	return FrontierPoint{
		Weights:    weights,
		Return:     targetReturn,
		Volatility: math.Sqrt(math.Max(quadraticForm(sigma, weights), 0)),
	}, nil
}

// EfficientFrontier samples nPoints target returns evenly between min(μ)
// and max(μ) and solves the minimum-variance problem at each. Targets whose
// sub-solve fails are dropped silently, as are points without strictly
// positive volatility; a degenerate universe (all expected returns equal)
// yields an empty frontier.
func (o *Optimizer) EfficientFrontier(mu []float64, sigma mat.Symmetric, nPoints int) []FrontierPoint {
	if len(mu) == 0 {
		return nil
	}
	if nPoints <= 0 {
		nPoints = DefaultFrontierPoints
	}

	minRet, maxRet := mu[0], mu[0]
	for _, r := range mu[1:] {
		minRet = math.Min(minRet, r)
		maxRet = math.Max(maxRet, r)
	}

	if maxRet-minRet < degenerateReturnSpread {
		o.log.Debug().Msg("Degenerate return universe, empty frontier")
		return []FrontierPoint{}
	}

	frontier := make([]FrontierPoint, 0, nPoints)
	step := (maxRet - minRet) / float64(nPoints-1)
	for i := 0; i < nPoints; i++ {
		target := minRet + float64(i)*step
		point, err := o.MinimizeVariance(mu, sigma, target)
		if err != nil {
			continue
		}
		if point.Volatility > 0 {
			frontier = append(frontier, point)
		}
	}

	o.log.Debug().
		Int("sampled", nPoints).
		Int("surviving", len(frontier)).
		Msg("Efficient frontier computed")

	return frontier
}
