package rebalancing

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/JoaoToni12/analise-investimentos/internal/config"
	"github.com/JoaoToni12/analise-investimentos/internal/domain"
	"github.com/JoaoToni12/analise-investimentos/internal/modules/portfolio"
	"github.com/JoaoToni12/analise-investimentos/internal/modules/zones"
)

// PositionLister is the slice of the positions repository the planner needs.
type PositionLister interface {
	List() ([]domain.Asset, error)
}

// Service loads the current portfolio, classifies it and produces a
// persisted rebalancing plan.
type Service struct {
	positions PositionLister
	recs      *RecommendationRepository
	cfg       config.EngineConfig
	log       zerolog.Logger
}

func NewService(positions PositionLister, recs *RecommendationRepository, cfg config.EngineConfig, log zerolog.Logger) *Service {
	return &Service{
		positions: positions,
		recs:      recs,
		cfg:       cfg,
		log:       log.With().Str("service", "rebalancing").Logger(),
	}
}

// PlanOptions override the engine defaults for one run. Zero values fall
// back to the configured defaults; MaxOrders < 0 means no buy orders.
type PlanOptions struct {
	CashInjection float64  `json:"cash_injection"`
	MaxOrders     int      `json:"max_orders"`
	RelativeBand  *float64 `json:"relative_band"`
	AbsoluteBand  *float64 `json:"absolute_band"`
}

// Plan builds a rebalancing plan for the stored portfolio and records it.
func (s *Service) Plan(opts PlanOptions) (Recommendation, error) {
	assets, err := s.positions.List()
	if err != nil {
		return Recommendation{}, fmt.Errorf("loading positions: %w", err)
	}

	maxOrders := opts.MaxOrders
	if maxOrders == 0 {
		maxOrders = s.cfg.MaxOrders
	}
	relative := s.cfg.RelativeBand
	if opts.RelativeBand != nil {
		relative = *opts.RelativeBand
	}
	absolute := s.cfg.AbsoluteBand
	if opts.AbsoluteBand != nil {
		absolute = *opts.AbsoluteBand
	}

	enriched := portfolio.WithWeights(assets)
	classifications := zones.ClassifyAll(enriched, relative, absolute)
	plan := GeneratePlan(enriched, opts.CashInjection, classifications, maxOrders)

	rec, err := s.recs.Save(opts.CashInjection, plan)
	if err != nil {
		return Recommendation{}, fmt.Errorf("saving recommendation: %w", err)
	}

	s.log.Info().
		Str("recommendation_id", rec.ID).
		Float64("cash_injection", opts.CashInjection).
		Int("orders", len(plan.Orders)).
		Float64("residual_cash", plan.ResidualCash).
		Msg("rebalancing plan generated")

	return rec, nil
}

// History returns previously generated plans, newest first.
func (s *Service) History(limit int) ([]Recommendation, error) {
	return s.recs.List(limit)
}

// Get returns one stored plan by ID.
func (s *Service) Get(id string) (Recommendation, error) {
	return s.recs.Get(id)
}
