// Package handlers exposes the optimization pipeline over HTTP.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/JoaoToni12/analise-investimentos/internal/config"
	"github.com/JoaoToni12/analise-investimentos/internal/modules/history"
	"github.com/JoaoToni12/analise-investimentos/internal/modules/optimization"
	"github.com/JoaoToni12/analise-investimentos/internal/modules/portfolio"
)

// Handler handles optimization HTTP requests.
type Handler struct {
	service   *optimization.Service
	positions *portfolio.PositionRepository
	prices    *history.PriceStore
	cfg       config.EngineConfig
	log       zerolog.Logger
}

func NewHandler(
	service *optimization.Service,
	positions *portfolio.PositionRepository,
	prices *history.PriceStore,
	cfg config.EngineConfig,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		service:   service,
		positions: positions,
		prices:    prices,
		cfg:       cfg,
		log:       log.With().Str("handler", "optimization").Logger(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/optimization/run", h.HandleRun)
}

type runRequest struct {
	RiskFreeRate   *float64 `json:"risk_free_rate"`
	BlendFactor    *float64 `json:"blend_factor"`
	FrontierPoints int      `json:"frontier_points"`
	LookbackDays   int      `json:"lookback_days"`
}

// HandleRun assembles the price matrix for the stored portfolio and runs
// the optimization pipeline. Request fields override the engine defaults.
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	req := runRequest{FrontierPoints: optimization.DefaultFrontierPoints}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	riskFreeRate := h.cfg.RiskFreeRate
	if req.RiskFreeRate != nil {
		riskFreeRate = *req.RiskFreeRate
	}
	blendFactor := h.cfg.BlendFactor
	if req.BlendFactor != nil {
		blendFactor = *req.BlendFactor
	}
	if blendFactor < 0 || blendFactor > 1 {
		h.writeError(w, http.StatusBadRequest, "blend_factor must be in [0, 1]")
		return
	}
	lookback := h.cfg.LookbackDays
	if req.LookbackDays > 0 {
		lookback = req.LookbackDays
	}
	frontierPoints := req.FrontierPoints
	if frontierPoints <= 0 {
		frontierPoints = optimization.DefaultFrontierPoints
	}

	assets, err := h.positions.List()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(assets) == 0 {
		h.writeError(w, http.StatusBadRequest, "portfolio is empty")
		return
	}

	tickers := make([]string, 0, len(assets))
	currentTargets := make(map[string]float64, len(assets))
	for _, a := range assets {
		tickers = append(tickers, a.Ticker)
		currentTargets[a.Ticker] = a.TargetWeight
	}

	priceHistory, err := h.prices.PriceMatrix(tickers, lookback)
	if err != nil {
		if errors.Is(err, optimization.ErrInsufficientData) {
			h.writeError(w, http.StatusConflict, "not enough price history, run a history sync first")
			return
		}
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	result, err := h.service.Run(priceHistory, currentTargets, riskFreeRate, blendFactor, frontierPoints)
	if err != nil {
		if errors.Is(err, optimization.ErrInsufficientData) {
			h.writeError(w, http.StatusConflict, "not enough price history, run a history sync first")
			return
		}
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
