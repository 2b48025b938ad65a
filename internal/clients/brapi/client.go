// Package brapi fetches B3 quotes and daily history from brapi.dev.
package brapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// batchSize is brapi.dev's maximum tickers per quote request.
	batchSize = 20

	maxRetries     = 3
	initialBackoff = 1 * time.Second
	backoffFactor  = 2
)

// nonQuotablePrefixes mark assets brapi has no quotes for: treasury bonds,
// private fixed income and stablecoin cash positions keep their manual price.
var nonQuotablePrefixes = []string{"TESOURO_", "CDB_", "CRI_", "LCA_", "LCI_", "USDT", "ALAB"}

// Quote is one ticker's latest market price.
type Quote struct {
	Ticker string
	Price  float64
}

// HistoricalPrice is one daily close from the history endpoint.
type HistoricalPrice struct {
	Date  time.Time
	Close float64
}

// Client talks to the brapi.dev REST API.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	log     zerolog.Logger

	// sleep is swapped out in tests to avoid real backoff waits.
	sleep func(time.Duration)
}

func NewClient(baseURL, token string, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://brapi.dev/api"
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
		log:     log.With().Str("client", "brapi").Logger(),
		sleep:   time.Sleep,
	}
}

// Quotable reports whether brapi can quote a ticker.
func Quotable(ticker string) bool {
	upper := strings.ToUpper(ticker)
	for _, prefix := range nonQuotablePrefixes {
		if strings.HasPrefix(upper, prefix) {
			return false
		}
	}
	return true
}

type quoteResult struct {
	Symbol              string  `json:"symbol"`
	RegularMarketPrice  float64 `json:"regularMarketPrice"`
	HistoricalDataPrice []struct {
		Date  int64   `json:"date"`
		Close float64 `json:"close"`
	} `json:"historicalDataPrice"`
}

type quoteResponse struct {
	Results []quoteResult `json:"results"`
}

// GetQuotes fetches latest prices for the quotable subset of tickers,
// batching requests. Missing or unpriced symbols are absent from the map.
func (c *Client) GetQuotes(tickers []string) (map[string]float64, error) {
	var quotable []string
	for _, tk := range tickers {
		if Quotable(tk) {
			quotable = append(quotable, strings.ToUpper(tk))
		}
	}
	if len(quotable) == 0 {
		return map[string]float64{}, nil
	}

	prices := make(map[string]float64, len(quotable))
	for start := 0; start < len(quotable); start += batchSize {
		end := start + batchSize
		if end > len(quotable) {
			end = len(quotable)
		}
		batch := quotable[start:end]

		resp, err := c.fetchQuote(strings.Join(batch, ","), nil)
		if err != nil {
			return nil, fmt.Errorf("fetching quotes for batch %v: %w", batch, err)
		}
		for _, r := range resp.Results {
			if r.RegularMarketPrice > 0 {
				prices[r.Symbol] = r.RegularMarketPrice
			}
		}
	}

	c.log.Info().Int("requested", len(quotable)).Int("priced", len(prices)).Msg("quotes fetched")
	return prices, nil
}

// GetHistory fetches a ticker's daily closes for the given range ("1y", "2y").
func (c *Client) GetHistory(ticker, rangeStr string) ([]HistoricalPrice, error) {
	if !Quotable(ticker) {
		return nil, fmt.Errorf("ticker %s is not quotable", ticker)
	}

	resp, err := c.fetchQuote(strings.ToUpper(ticker), url.Values{
		"range":    {rangeStr},
		"interval": {"1d"},
	})
	if err != nil {
		return nil, fmt.Errorf("fetching history for %s: %w", ticker, err)
	}
	if len(resp.Results) == 0 {
		return nil, fmt.Errorf("no history returned for %s", ticker)
	}

	var points []HistoricalPrice
	for _, p := range resp.Results[0].HistoricalDataPrice {
		if p.Close <= 0 {
			continue
		}
		points = append(points, HistoricalPrice{
			Date:  time.Unix(p.Date, 0).UTC(),
			Close: p.Close,
		})
	}
	return points, nil
}

// fetchQuote performs one GET against /quote/{symbols} with retry on
// transient failures. 429 and 5xx retry with exponential backoff; other
// HTTP errors fail immediately.
func (c *Client) fetchQuote(symbols string, params url.Values) (*quoteResponse, error) {
	if params == nil {
		params = url.Values{}
	}
	if c.token != "" {
		params.Set("token", c.token)
	}

	endpoint := fmt.Sprintf("%s/quote/%s", c.baseURL, symbols)
	if encoded := params.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	backoff := initialBackoff
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		resp, err := c.client.Get(endpoint)
		if err != nil {
			lastErr = err
			c.log.Warn().Err(err).Int("attempt", attempt).Str("symbols", symbols).Msg("request failed")
		} else {
			result, retry, err := decodeQuoteResponse(resp)
			if err == nil {
				return result, nil
			}
			lastErr = err
			if !retry {
				return nil, err
			}
			c.log.Warn().Err(err).Int("attempt", attempt).Str("symbols", symbols).Msg("retryable API error")
		}

		if attempt < maxRetries {
			c.sleep(backoff)
			backoff *= backoffFactor
		}
	}

	return nil, fmt.Errorf("after %d attempts: %w", maxRetries, lastErr)
}

func decodeQuoteResponse(resp *http.Response) (*quoteResponse, bool, error) {
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, true, fmt.Errorf("rate limited (429)")
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("server error (%d)", resp.StatusCode)
	default:
		return nil, false, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var result quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, false, fmt.Errorf("decoding response: %w", err)
	}
	return &result, false, nil
}
