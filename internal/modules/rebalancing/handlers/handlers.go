// Package handlers exposes rebalancing plan generation and history over HTTP.
package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/JoaoToni12/analise-investimentos/internal/modules/rebalancing"
)

// Handler handles rebalancing HTTP requests.
type Handler struct {
	service *rebalancing.Service
	log     zerolog.Logger
}

func NewHandler(service *rebalancing.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "rebalancing").Logger(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/rebalancing/plan", h.HandlePlan)
	r.Get("/api/rebalancing/history", h.HandleHistory)
	r.Get("/api/rebalancing/history/{id}", h.HandleGet)
}

// HandlePlan generates, persists and returns a rebalancing plan.
func (h *Handler) HandlePlan(w http.ResponseWriter, r *http.Request) {
	var opts rebalancing.PlanOptions
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}
	if opts.CashInjection < 0 {
		h.writeError(w, http.StatusBadRequest, "cash_injection must be >= 0")
		return
	}
	if opts.RelativeBand != nil && *opts.RelativeBand < 0 {
		h.writeError(w, http.StatusBadRequest, "relative_band must be >= 0")
		return
	}
	if opts.AbsoluteBand != nil && *opts.AbsoluteBand < 0 {
		h.writeError(w, http.StatusBadRequest, "absolute_band must be >= 0")
		return
	}

	rec, err := h.service.Plan(opts)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, rec)
}

// HandleHistory returns previously generated plans, newest first.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	recs, err := h.service.History(limit)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"recommendations": recs,
	})
}

// HandleGet returns one stored plan by ID.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := h.service.Get(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.writeError(w, http.StatusNotFound, "recommendation not found")
			return
		}
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, rec)
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
