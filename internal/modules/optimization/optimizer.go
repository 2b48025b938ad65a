package optimization

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// volatilityFloor is the numerical floor below which the Sharpe objective
// is defined as 0 instead of dividing by near-zero volatility.
const volatilityFloor = 1e-12

// penaltyWeight scales the quadratic penalties that enforce the equality
// constraints (fully invested, target return).
const penaltyWeight = 1000.0

// OptimalPortfolio is the solution of a max-Sharpe solve.
type OptimalPortfolio struct {
	Weights    map[string]float64 `json:"weights"`
	Return     float64            `json:"return"`
	Volatility float64            `json:"volatility"`
	Sharpe     float64            `json:"sharpe"`
}

// Optimizer performs mean-variance portfolio optimization.
type Optimizer struct {
	log zerolog.Logger
}

// NewOptimizer creates a new mean-variance optimizer.
func NewOptimizer(log zerolog.Logger) *Optimizer {
	return &Optimizer{
		log: log.With().Str("component", "optimizer").Logger(),
	}
}

// MaxSharpe solves for weights maximizing (w·μ − riskFreeRate) / sqrt(w·Σw)
// subject to w ≥ 0 (long-only) and Σw = 1 (fully invested).
//
// The equality constraint is enforced by a quadratic penalty and the bounds
// by projection, starting from the equal-weight vector. Solver
// non-convergence is not fatal: the last iterate is normalized and used.
func (o *Optimizer) MaxSharpe(tickers []string, mu []float64, sigma mat.Symmetric, riskFreeRate float64) (OptimalPortfolio, error) {
	n := len(mu)
	if n == 0 {
		return OptimalPortfolio{}, fmt.Errorf("no assets to optimize")
	}
	if len(tickers) != n || sigma.SymmetricDim() != n {
		return OptimalPortfolio{}, fmt.Errorf("dimension mismatch: %d tickers, %d returns, %d×%d covariance",
			len(tickers), n, sigma.SymmetricDim(), sigma.SymmetricDim())
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			w := projectToUnitBounds(x)

			ret := dot(mu, w)
			vol := math.Sqrt(math.Max(quadraticForm(sigma, w), 0))

			var sharpe float64
			if vol >= volatilityFloor {
				sharpe = (ret - riskFreeRate) / vol
			}

			obj := -sharpe
			sum := sumOf(w)
			obj += penaltyWeight * (sum - 1.0) * (sum - 1.0)
			return obj
		},
		Grad: func(grad, x []float64) {
			w := projectToUnitBounds(x)

			ret := dot(mu, w)
			variance := math.Max(quadraticForm(sigma, w), volatilityFloor)
			vol := math.Sqrt(variance)

			for i := 0; i < n; i++ {
				var dVariance float64
				for j := 0; j < n; j++ {
					dVariance += 2 * sigma.At(i, j) * w[j]
				}
				grad[i] = -mu[i]/vol + (ret-riskFreeRate)*dVariance/(2*vol*vol*vol)
			}

			sum := sumOf(w)
			for i := 0; i < n; i++ {
				grad[i] += 2 * penaltyWeight * (sum - 1.0)
			}
		},
	}

	weights := o.solve(problem, n)

	ret := dot(mu, weights)
	vol := math.Sqrt(math.Max(quadraticForm(sigma, weights), 0))
	var sharpe float64
	if vol >= volatilityFloor {
		sharpe = (ret - riskFreeRate) / vol
	}

	weightMap := make(map[string]float64, n)
	for i, ticker := range tickers {
		weightMap[ticker] = weights[i]
	}

	o.log.Debug().
		Float64("return", ret).
		Float64("volatility", vol).
		Float64("sharpe", sharpe).
		Msg("Max-Sharpe solve complete")

	return OptimalPortfolio{
		Weights:    weightMap,
		Return:     ret,
		Volatility: vol,
		Sharpe:     sharpe,
	}, nil
}

// solve minimizes the problem starting from the equal-weight vector, trying
// BFGS first and falling back to Nelder-Mead. Whatever iterate the solver
// last produced is projected and normalized; non-convergence is tolerated.
func (o *Optimizer) solve(problem optimize.Problem, n int) []float64 {
	initial := make([]float64, n)
	for i := range initial {
		initial[i] = 1.0 / float64(n)
	}

	result, err := optimize.Minimize(problem, initial, &optimize.Settings{}, &optimize.BFGS{})
	if err != nil || result == nil || !converged(result.Status) {
		if err != nil {
			o.log.Debug().Err(err).Msg("BFGS failed, retrying with Nelder-Mead")
		}
		nmResult, nmErr := optimize.Minimize(problem, initial, &optimize.Settings{}, &optimize.NelderMead{})
		if nmErr == nil && nmResult != nil {
			result = nmResult
		} else if result == nil {
			// Both solvers failed outright; the equal-weight start is the
			// best iterate available.
			return initial
		}
	}

	return normalizeWeights(projectToUnitBounds(result.X))
}

// converged reports whether the solver status counts as success.
func converged(status optimize.Status) bool {
	switch status {
	case optimize.Success, optimize.GradientThreshold, optimize.FunctionConvergence:
		return true
	}
	return false
}

// Helper functions

// projectToUnitBounds clamps each weight to [0, 1].
func projectToUnitBounds(x []float64) []float64 {
	proj := make([]float64, len(x))
	for i := range x {
		proj[i] = math.Max(0.0, math.Min(1.0, x[i]))
	}
	return proj
}

// normalizeWeights rescales non-negative weights to sum to 1.
func normalizeWeights(w []float64) []float64 {
	sum := sumOf(w)
	if sum <= 0 {
		equal := make([]float64, len(w))
		for i := range equal {
			equal[i] = 1.0 / float64(len(w))
		}
		return equal
	}
	normalized := make([]float64, len(w))
	for i := range w {
		normalized[i] = w[i] / sum
	}
	return normalized
}

func sumOf(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v
	}
	return sum
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// quadraticForm computes w·Σ·w.
func quadraticForm(sigma mat.Symmetric, w []float64) float64 {
	var total float64
	for i := range w {
		for j := range w {
			total += w[i] * w[j] * sigma.At(i, j)
		}
	}
	return total
}
