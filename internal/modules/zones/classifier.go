// Package zones classifies each asset's deviation from target as actionable
// or tolerable using tolerance bands around target weights.
package zones

import (
	"github.com/JoaoToni12/analise-investimentos/internal/domain"
)

// Classification pairs an asset's zone status with the band that produced it.
type Classification struct {
	Status domain.ZoneStatus `json:"status"`
	Band   domain.Band       `json:"band"`
}

// ComputeBand derives the tolerance band for one target weight.
// relativePct is a fraction of the target (0.20 = ±20% of target),
// absolutePp is in percentage points (1.5 = ±1.5pp).
func ComputeBand(targetWeight, relativePct, absolutePp float64) domain.Band {
	return domain.NewBand(targetWeight, relativePct, absolutePp)
}

// ClassifyZone classifies a current weight against a band. Bands are closed
// intervals: weights exactly on a boundary are HOLD.
func ClassifyZone(currentWeight float64, band domain.Band) domain.ZoneStatus {
	if currentWeight < band.LowerBound {
		return domain.ZoneBuy
	}
	if currentWeight > band.UpperBound {
		return domain.ZoneSell
	}
	return domain.ZoneHold
}

// ClassifyAll classifies every asset against its own target weight using the
// same tolerance parameters. One independent band per asset; the asset's
// CurrentWeight must already be enriched (portfolio.WithWeights).
func ClassifyAll(assets []domain.Asset, relativePct, absolutePp float64) map[string]Classification {
	result := make(map[string]Classification, len(assets))
	for _, a := range assets {
		band := ComputeBand(a.TargetWeight, relativePct, absolutePp)
		result[a.Ticker] = Classification{
			Status: ClassifyZone(a.CurrentWeight, band),
			Band:   band,
		}
	}
	return result
}
