package brapi

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "test-token", zerolog.Nop())
	c.sleep = func(time.Duration) {}
	return c
}

func TestQuotable(t *testing.T) {
	assert.True(t, Quotable("PETR4"))
	assert.True(t, Quotable("MXRF11"))
	assert.False(t, Quotable("TESOURO_SELIC_2029"))
	assert.False(t, Quotable("CDB_INTER_2027"))
	assert.False(t, Quotable("lci_bradesco"))
	assert.False(t, Quotable("USDT"))
}

func TestGetQuotesBatchesAndFilters(t *testing.T) {
	var requests []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		symbols := strings.TrimPrefix(r.URL.Path, "/quote/")
		requests = append(requests, symbols)
		assert.Equal(t, "test-token", r.URL.Query().Get("token"))

		var results []string
		for _, s := range strings.Split(symbols, ",") {
			results = append(results, fmt.Sprintf(`{"symbol":%q,"regularMarketPrice":10.5}`, s))
		}
		fmt.Fprintf(w, `{"results":[%s]}`, strings.Join(results, ","))
	})

	// 22 quotable tickers plus two that must never reach the API.
	tickers := []string{"TESOURO_SELIC_2029", "CDB_XP_2026"}
	for i := 0; i < 22; i++ {
		tickers = append(tickers, fmt.Sprintf("TICK%d", i))
	}

	prices, err := c.GetQuotes(tickers)
	require.NoError(t, err)
	assert.Len(t, prices, 22)
	assert.Equal(t, 10.5, prices["TICK0"])

	require.Len(t, requests, 2)
	assert.Len(t, strings.Split(requests[0], ","), 20)
	assert.Len(t, strings.Split(requests[1], ","), 2)
	for _, req := range requests {
		assert.NotContains(t, req, "TESOURO_")
		assert.NotContains(t, req, "CDB_")
	}
}

func TestGetQuotesSkipsUnpricedSymbols(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":[{"symbol":"PETR4","regularMarketPrice":35.5},{"symbol":"DEAD3","regularMarketPrice":0}]}`)
	})

	prices, err := c.GetQuotes([]string{"PETR4", "DEAD3"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"PETR4": 35.5}, prices)
}

func TestFetchRetriesOnRateLimit(t *testing.T) {
	attempts := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"results":[{"symbol":"PETR4","regularMarketPrice":35.5}]}`)
	})

	prices, err := c.GetQuotes([]string{"PETR4"})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 35.5, prices["PETR4"])
}

func TestFetchGivesUpAfterMaxRetries(t *testing.T) {
	attempts := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.GetQuotes([]string{"PETR4"})
	require.Error(t, err)
	assert.Equal(t, maxRetries, attempts)
	assert.Contains(t, err.Error(), "server error")
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	attempts := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.GetQuotes([]string{"PETR4"})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestGetHistory(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2y", r.URL.Query().Get("range"))
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		fmt.Fprint(w, `{"results":[{"symbol":"PETR4","historicalDataPrice":[
			{"date":1767225600,"close":35.0},
			{"date":1767312000,"close":0},
			{"date":1767398400,"close":36.2}
		]}]}`)
	})

	points, err := c.GetHistory("PETR4", "2y")
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 35.0, points[0].Close)
	assert.Equal(t, 36.2, points[1].Close)
	assert.True(t, points[0].Date.Before(points[1].Date))
}

func TestGetHistoryRejectsNonQuotable(t *testing.T) {
	c := NewClient("http://unused", "", zerolog.Nop())
	_, err := c.GetHistory("TESOURO_IPCA_2035", "1y")
	assert.Error(t, err)
}
