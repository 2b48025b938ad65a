package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/JoaoToni12/analise-investimentos/internal/config"
	"github.com/JoaoToni12/analise-investimentos/internal/domain"
	"github.com/JoaoToni12/analise-investimentos/internal/modules/portfolio"
)

func TestHandleGetZones(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(portfolio.Schema)
	require.NoError(t, err)

	repo := portfolio.NewPositionRepository(db, zerolog.Nop())
	require.NoError(t, repo.ReplaceAll([]domain.Asset{
		{Ticker: "AAAA3", AssetClass: domain.AssetClassAcao, Quantity: 1, CurrentPrice: 100, TargetWeight: 50},
		{Ticker: "BBBB3", AssetClass: domain.AssetClassAcao, Quantity: 9, CurrentPrice: 100, TargetWeight: 50},
	}))

	r := chi.NewRouter()
	cfg := config.EngineConfig{RelativeBand: 0.10, AbsoluteBand: 1.0}
	NewHandler(repo, cfg, zerolog.Nop()).RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/api/zones", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Zones map[string]struct {
			Status string `json:"status"`
		} `json:"zones"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "BUY", resp.Zones["AAAA3"].Status)
	assert.Equal(t, "SELL", resp.Zones["BBBB3"].Status)
}

func TestHandleGetZonesQueryOverrides(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(portfolio.Schema)
	require.NoError(t, err)

	repo := portfolio.NewPositionRepository(db, zerolog.Nop())
	require.NoError(t, repo.ReplaceAll([]domain.Asset{
		{Ticker: "AAAA3", AssetClass: domain.AssetClassAcao, Quantity: 1, CurrentPrice: 100, TargetWeight: 50},
		{Ticker: "BBBB3", AssetClass: domain.AssetClassAcao, Quantity: 9, CurrentPrice: 100, TargetWeight: 50},
	}))

	r := chi.NewRouter()
	cfg := config.EngineConfig{RelativeBand: 0.10, AbsoluteBand: 1.0}
	NewHandler(repo, cfg, zerolog.Nop()).RegisterRoutes(r)

	// A band wide enough to cover every weight turns everything into HOLD.
	req := httptest.NewRequest(http.MethodGet, "/api/zones?relative=1&absolute=0", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Zones map[string]struct {
			Status string `json:"status"`
		} `json:"zones"`
		RelativeBand float64 `json:"relative_band"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1.0, resp.RelativeBand)
	assert.Equal(t, "HOLD", resp.Zones["AAAA3"].Status)
	assert.Equal(t, "HOLD", resp.Zones["BBBB3"].Status)
}

func TestHandleGetZonesRejectsBadParams(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(portfolio.Schema)
	require.NoError(t, err)

	repo := portfolio.NewPositionRepository(db, zerolog.Nop())

	r := chi.NewRouter()
	NewHandler(repo, config.EngineConfig{RelativeBand: 0.10, AbsoluteBand: 1.0}, zerolog.Nop()).RegisterRoutes(r)

	for _, target := range []string{"/api/zones?relative=-1", "/api/zones?absolute=abc"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}
