// Package handlers provides HTTP handlers for portfolio positions.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/JoaoToni12/analise-investimentos/internal/domain"
	"github.com/JoaoToni12/analise-investimentos/internal/ingestion"
	"github.com/JoaoToni12/analise-investimentos/internal/modules/portfolio"
)

// Handler handles portfolio HTTP requests.
type Handler struct {
	positions *portfolio.PositionRepository
	log       zerolog.Logger
}

func NewHandler(positions *portfolio.PositionRepository, log zerolog.Logger) *Handler {
	return &Handler{
		positions: positions,
		log:       log.With().Str("handler", "portfolio").Logger(),
	}
}

// RegisterRoutes mounts the portfolio endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/portfolio", h.HandleGetPortfolio)
	r.Put("/api/portfolio/positions", h.HandleReplacePositions)
	r.Post("/api/portfolio/import", h.HandleImportCSV)
	r.Delete("/api/portfolio/positions/{ticker}", h.HandleDeletePosition)
}

// HandleGetPortfolio returns all positions with derived weights and totals.
func (h *Handler) HandleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	assets, err := h.positions.List()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	enriched := portfolio.WithWeights(assets)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"positions":     enriched,
		"total_value":   portfolio.PortfolioValue(enriched),
		"class_weights": portfolio.ClassWeights(enriched),
	})
}

// HandleReplacePositions swaps the whole portfolio for the posted snapshot.
func (h *Handler) HandleReplacePositions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Positions []domain.Asset `json:"positions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.positions.ReplaceAll(req.Positions); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.log.Info().Int("positions", len(req.Positions)).Msg("portfolio replaced")
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"imported": len(req.Positions),
	})
}

// HandleImportCSV imports a broker CSV export, replacing the portfolio.
func (h *Handler) HandleImportCSV(w http.ResponseWriter, r *http.Request) {
	body := r.Body
	if file, _, err := r.FormFile("file"); err == nil {
		defer file.Close()
		body = file
	}

	assets, err := ingestion.LoadPositions(body)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.positions.ReplaceAll(assets); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.log.Info().Int("positions", len(assets)).Msg("portfolio imported from csv")
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"imported": len(assets),
	})
}

// HandleDeletePosition removes one position by ticker.
func (h *Handler) HandleDeletePosition(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	if err := h.positions.Delete(ticker); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"deleted": ticker})
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
