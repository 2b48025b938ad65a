// Package rebalancing turns deviations and a cash budget into a bounded,
// prioritized, rounding-correct list of buy/sell orders.
package rebalancing

import (
	"math"
	"sort"

	"github.com/JoaoToni12/analise-investimentos/internal/domain"
	"github.com/JoaoToni12/analise-investimentos/internal/modules/portfolio"
	"github.com/JoaoToni12/analise-investimentos/internal/modules/zones"
)

// buyZonePriorityBoost doubles the ranking weight of assets the classifier
// already flagged BUY, reflecting urgency beyond plain proportional gap.
const buyZonePriorityBoost = 2.0

// Plan is the outcome of one order-generation run. ResidualCash is never
// negative; sell proceeds fund it but never finance buys in the same pass.
type Plan struct {
	Orders       []domain.Order `json:"orders"`
	ResidualCash float64        `json:"residual_cash"`
}

// candidate is one underweight asset considered for a buy order.
type candidate struct {
	asset       domain.Asset
	delta       float64 // target value at projection minus current value
	relativeGap float64 // delta relative to target value; spikes for tiny targets are intentional
	priority    float64
}

// selection is the accumulator threaded through the selection, budget and
// sweep passes: the chosen candidates plus the cash not yet spent.
type selection struct {
	candidates    []candidate
	remainingCash float64
}

// GeneratePlan computes buy/sell orders for a portfolio snapshot, a cash
// injection and a zone classification. Buys are financed strictly from the
// injected cash and capped at maxOrders distinct tickers; sells fire only
// for zone-classified severe overweight, independent of the injection.
func GeneratePlan(
	assets []domain.Asset,
	cashInjection float64,
	classifications map[string]zones.Classification,
	maxOrders int,
) Plan {
	projectedValue := portfolio.PortfolioValue(assets) + cashInjection
	if projectedValue <= 0 {
		return Plan{Orders: []domain.Order{}, ResidualCash: cashInjection}
	}

	candidates := buyCandidates(assets, projectedValue, classifications)
	sel := selectCandidates(candidates, maxOrders, cashInjection)

	buyOrders, remainingCash := distributeCash(sel, cashInjection)
	buyOrders, remainingCash = sweepLeftover(sel.candidates, buyOrders, remainingCash)

	sellOrders, sellProceeds := sellOverflow(assets, projectedValue, classifications)

	orders := append(buyOrders, sellOrders...)
	residual := remainingCash + sellProceeds
	if residual < 0 {
		residual = 0
	}

	return Plan{Orders: orders, ResidualCash: residual}
}

// buyCandidates computes deltas against the projected portfolio value and
// ranks the underweight assets. Unpriced assets and zero-target assets are
// never buy candidates.
func buyCandidates(
	assets []domain.Asset,
	projectedValue float64,
	classifications map[string]zones.Classification,
) []candidate {
	var candidates []candidate
	for _, a := range assets {
		if a.CurrentPrice <= 0 || a.TargetWeight <= 0 {
			continue
		}

		targetValue := a.TargetWeight / 100.0 * projectedValue
		delta := targetValue - a.CurrentValue()
		if delta <= 0 {
			continue
		}

		relativeGap := delta / targetValue
		priority := relativeGap
		if classifications[a.Ticker].Status == domain.ZoneBuy {
			priority *= buyZonePriorityBoost
		}

		candidates = append(candidates, candidate{
			asset:       a,
			delta:       delta,
			relativeGap: relativeGap,
			priority:    priority,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].priority != candidates[j].priority {
			return candidates[i].priority > candidates[j].priority
		}
		return candidates[i].asset.Ticker < candidates[j].asset.Ticker
	})

	return candidates
}

// selectCandidates picks up to maxOrders candidates in two passes. Pass A
// takes the highest-priority candidate of each distinct asset class, which
// guarantees cross-class diversification when multiple classes are
// underweight; pass B fills any remaining slots in plain priority order.
func selectCandidates(candidates []candidate, maxOrders int, cashInjection float64) selection {
	sel := selection{remainingCash: cashInjection}
	if maxOrders <= 0 {
		return sel
	}

	taken := make(map[string]bool, maxOrders)
	classSeen := make(map[domain.AssetClass]bool)

	// Pass A: one slot per distinct asset class, in priority order.
	for _, c := range candidates {
		if len(sel.candidates) >= maxOrders {
			break
		}
		if classSeen[c.asset.AssetClass] {
			continue
		}
		classSeen[c.asset.AssetClass] = true
		taken[c.asset.Ticker] = true
		sel.candidates = append(sel.candidates, c)
	}

	// Pass B: fill remaining slots from the sorted list.
	for _, c := range candidates {
		if len(sel.candidates) >= maxOrders {
			break
		}
		if taken[c.asset.Ticker] {
			continue
		}
		taken[c.asset.Ticker] = true
		sel.candidates = append(sel.candidates, c)
	}

	return sel
}

// distributeCash splits the injection proportionally to priority across the
// selected set, flooring each budget to whole units.
func distributeCash(sel selection, cashInjection float64) ([]domain.Order, float64) {
	orders := []domain.Order{}
	remaining := sel.remainingCash

	if len(sel.candidates) == 0 {
		return orders, remaining
	}

	var totalPriority float64
	for _, c := range sel.candidates {
		totalPriority += c.priority
	}

	for _, c := range sel.candidates {
		share := 1.0 / float64(len(sel.candidates))
		if totalPriority > 0 {
			share = c.priority / totalPriority
		}

		budget := math.Min(cashInjection*share, remaining)
		qty := int64(math.Floor(budget / c.asset.CurrentPrice))
		if qty <= 0 {
			continue
		}

		orders = append(orders, domain.Order{
			Ticker:   c.asset.Ticker,
			Action:   domain.OrderActionBuy,
			Quantity: qty,
			Price:    c.asset.CurrentPrice,
		})
		remaining -= float64(qty) * c.asset.CurrentPrice
	}

	return orders, remaining
}

// sweepLeftover spends the fractional-unit remainders the proportional
// split left behind: while some selected candidate is still affordable,
// buy as many additional whole units as the leftover cash allows, merging
// into the ticker's existing order.
func sweepLeftover(candidates []candidate, orders []domain.Order, remaining float64) ([]domain.Order, float64) {
	orderIndex := make(map[string]int, len(orders))
	for i, o := range orders {
		orderIndex[o.Ticker] = i
	}

	for {
		bought := false
		for _, c := range candidates {
			price := c.asset.CurrentPrice
			if remaining < price {
				continue
			}

			qty := int64(math.Floor(remaining / price))
			remaining -= float64(qty) * price
			bought = true

			if i, ok := orderIndex[c.asset.Ticker]; ok {
				orders[i].Quantity += qty
			} else {
				orders = append(orders, domain.Order{
					Ticker:   c.asset.Ticker,
					Action:   domain.OrderActionBuy,
					Quantity: qty,
					Price:    price,
				})
				orderIndex[c.asset.Ticker] = len(orders) - 1
			}
		}
		if !bought {
			break
		}
	}

	return orders, remaining
}

// sellOverflow emits last-resort sell orders for assets classified SELL
// whose value exceeds the band's upper bound at the projected total. Sell
// proceeds fund residual cash only. Sells are deliberately not capped by
// maxOrders: the cap bounds discretionary buys, while sells are mandatory
// de-risking actions.
func sellOverflow(
	assets []domain.Asset,
	projectedValue float64,
	classifications map[string]zones.Classification,
) ([]domain.Order, float64) {
	var orders []domain.Order
	var proceeds float64

	for _, a := range assets {
		classification, ok := classifications[a.Ticker]
		if !ok || classification.Status != domain.ZoneSell {
			continue
		}
		if a.CurrentPrice <= 0 {
			continue
		}

		targetAtUpper := classification.Band.UpperBound / 100.0 * projectedValue
		excess := a.CurrentValue() - targetAtUpper
		if excess <= 0 {
			continue
		}

		qty := int64(math.Floor(excess / a.CurrentPrice))
		if qty <= 0 {
			continue
		}

		orders = append(orders, domain.Order{
			Ticker:   a.Ticker,
			Action:   domain.OrderActionSell,
			Quantity: qty,
			Price:    a.CurrentPrice,
		})
		proceeds += float64(qty) * a.CurrentPrice
	}

	return orders, proceeds
}
