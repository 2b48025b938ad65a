// Package domain provides core domain models and types.
package domain

import "strings"

// AssetClass represents the class of a portfolio position.
type AssetClass string

const (
	// AssetClassAcao represents Brazilian equities (ações).
	AssetClassAcao AssetClass = "ACAO"
	// AssetClassFII represents real estate investment funds (fundos imobiliários).
	AssetClassFII AssetClass = "FII"
	// AssetClassETF represents exchange traded funds.
	AssetClassETF AssetClass = "ETF"
	// AssetClassBDR represents Brazilian depositary receipts of foreign stocks.
	AssetClassBDR AssetClass = "BDR"
	// AssetClassCrypto represents crypto assets.
	AssetClassCrypto AssetClass = "CRYPTO"
	// AssetClassTesouro represents federal government bonds (Tesouro Direto).
	AssetClassTesouro AssetClass = "TESOURO"
	// AssetClassRendaFixa represents private fixed income (CDB, CRI, LCA, LCI).
	AssetClassRendaFixa AssetClass = "RENDA_FIXA_PRIVADA"
)

// AllAssetClasses lists every valid asset class.
var AllAssetClasses = []AssetClass{
	AssetClassAcao,
	AssetClassFII,
	AssetClassETF,
	AssetClassBDR,
	AssetClassCrypto,
	AssetClassTesouro,
	AssetClassRendaFixa,
}

// AssetClassFromString parses an asset class tag. Unknown values fall back
// to ACAO, matching the behaviour of spreadsheet imports where the class
// column is free text.
func AssetClassFromString(value string) AssetClass {
	normalized := AssetClass(strings.ToUpper(strings.TrimSpace(value)))
	for _, class := range AllAssetClasses {
		if normalized == class {
			return class
		}
	}
	return AssetClassAcao
}

// Valid reports whether the asset class is one of the known tags.
func (c AssetClass) Valid() bool {
	for _, class := range AllAssetClasses {
		if c == class {
			return true
		}
	}
	return false
}

// ZoneStatus classifies an asset's current weight against its tolerance band.
type ZoneStatus string

const (
	ZoneBuy  ZoneStatus = "BUY"
	ZoneHold ZoneStatus = "HOLD"
	ZoneSell ZoneStatus = "SELL"
)

// OrderAction represents the side of a recommended trade.
type OrderAction string

const (
	OrderActionBuy  OrderAction = "BUY"
	OrderActionSell OrderAction = "SELL"
)

// Asset represents one portfolio position.
//
// CurrentWeight is derived, not authoritative: it is only meaningful on
// snapshots produced by portfolio.WithWeights.
type Asset struct {
	Ticker        string     `json:"ticker"`
	AssetClass    AssetClass `json:"asset_class"`
	Quantity      float64    `json:"quantity"`
	AvgPrice      float64    `json:"avg_price"`
	CurrentPrice  float64    `json:"current_price"` // 0 means unknown/unpriced
	TargetWeight  float64    `json:"target_weight"` // percentage [0, 100]
	CurrentWeight float64    `json:"current_weight"`
}

// CurrentValue returns the market value of the position.
func (a Asset) CurrentValue() float64 {
	return a.Quantity * a.CurrentPrice
}

// CostBasis returns the total acquisition cost of the position.
func (a Asset) CostBasis() float64 {
	return a.Quantity * a.AvgPrice
}

// Profit returns the unrealized profit of the position.
func (a Asset) Profit() float64 {
	return a.CurrentValue() - a.CostBasis()
}

// Band is a tolerance interval around a target weight. Weights inside the
// band (boundaries included) require no action.
type Band struct {
	TargetWeight float64 `json:"target_weight"`
	RelativePct  float64 `json:"relative_pct"` // fraction of target, e.g. 0.20
	AbsolutePp   float64 `json:"absolute_pp"`  // percentage points, e.g. 1.5
	LowerBound   float64 `json:"lower_bound"`
	UpperBound   float64 `json:"upper_bound"`
}

// NewBand derives the tolerance interval from a target weight. The lower
// bound never goes below zero; a zero target yields [0, absolutePp].
func NewBand(targetWeight, relativePct, absolutePp float64) Band {
	lower := targetWeight - targetWeight*relativePct - absolutePp
	if lower < 0 {
		lower = 0
	}
	return Band{
		TargetWeight: targetWeight,
		RelativePct:  relativePct,
		AbsolutePp:   absolutePp,
		LowerBound:   lower,
		UpperBound:   targetWeight + targetWeight*relativePct + absolutePp,
	}
}

// Order is one recommended trade. Orders are a recommendation, not a
// transaction: they carry no execution state and are produced fresh on
// every rebalancing run.
type Order struct {
	Ticker   string      `json:"ticker"`
	Action   OrderAction `json:"action"`
	Quantity int64       `json:"quantity"` // whole units
	Price    float64     `json:"price"`    // unit price at computation time
}

// Amount returns the gross value of the order.
func (o Order) Amount() float64 {
	return float64(o.Quantity) * o.Price
}
