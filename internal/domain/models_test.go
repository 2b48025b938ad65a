package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssetClassFromString(t *testing.T) {
	tests := []struct {
		input    string
		expected AssetClass
	}{
		{"ACAO", AssetClassAcao},
		{"fii", AssetClassFII},
		{"  etf  ", AssetClassETF},
		{"BDR", AssetClassBDR},
		{"crypto", AssetClassCrypto},
		{"Tesouro", AssetClassTesouro},
		{"renda_fixa_privada", AssetClassRendaFixa},
		{"stock", AssetClassAcao}, // unknown falls back to ACAO
		{"", AssetClassAcao},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, AssetClassFromString(tt.input))
		})
	}
}

func TestAssetDerivedValues(t *testing.T) {
	a := Asset{
		Ticker:       "PETR4",
		AssetClass:   AssetClassAcao,
		Quantity:     10,
		AvgPrice:     30.0,
		CurrentPrice: 35.5,
	}

	assert.InDelta(t, 355.0, a.CurrentValue(), 1e-9)
	assert.InDelta(t, 300.0, a.CostBasis(), 1e-9)
	assert.InDelta(t, 55.0, a.Profit(), 1e-9)
}

func TestAssetUnpricedPosition(t *testing.T) {
	a := Asset{Ticker: "CDB_XPTO", Quantity: 5, AvgPrice: 100}

	assert.Zero(t, a.CurrentValue())
	assert.InDelta(t, -500.0, a.Profit(), 1e-9)
}

func TestNewBandContainsTarget(t *testing.T) {
	// Band must straddle the target for any non-negative tolerances.
	for _, target := range []float64{0, 0.5, 5, 10, 50, 100} {
		band := NewBand(target, 0.20, 1.5)
		assert.LessOrEqual(t, band.LowerBound, target)
		assert.GreaterOrEqual(t, band.UpperBound, target)
		assert.GreaterOrEqual(t, band.LowerBound, 0.0)
	}
}

func TestNewBandClampsLowerBound(t *testing.T) {
	band := NewBand(1.0, 0.20, 1.5)

	// 1 - 0.2 - 1.5 is negative, clamp to zero.
	assert.Zero(t, band.LowerBound)
	assert.InDelta(t, 2.7, band.UpperBound, 1e-9)
}

func TestNewBandZeroTarget(t *testing.T) {
	band := NewBand(0, 0.20, 1.5)

	assert.Zero(t, band.LowerBound)
	assert.InDelta(t, 1.5, band.UpperBound, 1e-9)
}

func TestOrderAmount(t *testing.T) {
	o := Order{Ticker: "HGLG11", Action: OrderActionBuy, Quantity: 3, Price: 160.25}

	assert.InDelta(t, 480.75, o.Amount(), 1e-9)
}
