// Package handlers exposes the tolerance band classification over HTTP.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/JoaoToni12/analise-investimentos/internal/config"
	"github.com/JoaoToni12/analise-investimentos/internal/modules/portfolio"
	"github.com/JoaoToni12/analise-investimentos/internal/modules/zones"
)

// Handler handles zone classification HTTP requests.
type Handler struct {
	positions *portfolio.PositionRepository
	cfg       config.EngineConfig
	log       zerolog.Logger
}

func NewHandler(positions *portfolio.PositionRepository, cfg config.EngineConfig, log zerolog.Logger) *Handler {
	return &Handler{
		positions: positions,
		cfg:       cfg,
		log:       log.With().Str("handler", "zones").Logger(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/zones", h.HandleGetZones)
}

// HandleGetZones classifies every position against its tolerance band.
// The configured band widths can be overridden per request with the
// "relative" and "absolute" query parameters.
func (h *Handler) HandleGetZones(w http.ResponseWriter, r *http.Request) {
	relative := h.cfg.RelativeBand
	absolute := h.cfg.AbsoluteBand

	if raw := r.URL.Query().Get("relative"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 {
			h.writeError(w, http.StatusBadRequest, "relative must be a non-negative number")
			return
		}
		relative = parsed
	}
	if raw := r.URL.Query().Get("absolute"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 {
			h.writeError(w, http.StatusBadRequest, "absolute must be a non-negative number")
			return
		}
		absolute = parsed
	}

	assets, err := h.positions.List()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	enriched := portfolio.WithWeights(assets)
	classifications := zones.ClassifyAll(enriched, relative, absolute)

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"zones":         classifications,
		"relative_band": relative,
		"absolute_band": absolute,
	})
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
