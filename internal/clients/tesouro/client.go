// Package tesouro fetches treasury bond unit prices from the public
// Tesouro Direto API.
package tesouro

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultBaseURL = "https://www.tesourodireto.com.br/json/br/com/b3/tesourodireto/service/api"

// Bond is one tradeable treasury bond with its current redemption price.
type Bond struct {
	Name      string
	UnitPrice float64
}

// Client talks to the Tesouro Direto bond listing endpoint.
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

func NewClient(baseURL string, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
		log:     log.With().Str("client", "tesouro").Logger(),
	}
}

type bondsResponse struct {
	Response struct {
		TrsrBdTradgList []struct {
			TrsrBd struct {
				Nm         string  `json:"nm"`
				UntrRedVal float64 `json:"untrRedVal"`
			} `json:"TrsrBd"`
		} `json:"TrsrBdTradgList"`
	} `json:"response"`
}

// ListBonds fetches every bond currently listed, with redemption prices.
func (c *Client) ListBonds() ([]Bond, error) {
	resp, err := c.client.Get(c.baseURL + "/treasurybondsinfo.json")
	if err != nil {
		return nil, fmt.Errorf("fetching bond list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var result bondsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding bond list: %w", err)
	}

	bonds := make([]Bond, 0, len(result.Response.TrsrBdTradgList))
	for _, entry := range result.Response.TrsrBdTradgList {
		if entry.TrsrBd.UntrRedVal <= 0 {
			continue
		}
		bonds = append(bonds, Bond{Name: entry.TrsrBd.Nm, UnitPrice: entry.TrsrBd.UntrRedVal})
	}

	c.log.Info().Int("bonds", len(bonds)).Msg("bond list fetched")
	return bonds, nil
}

// PriceByName finds a bond whose name contains every word of the query,
// case-insensitively. Tickers like TESOURO_SELIC_2029 map onto listing
// names like "Tesouro Selic 2029".
func PriceByName(bonds []Bond, query string) (float64, bool) {
	words := strings.Fields(strings.ToLower(strings.NewReplacer("_", " ", "-", " ").Replace(query)))
	if len(words) == 0 {
		return 0, false
	}

	for _, b := range bonds {
		name := strings.ToLower(b.Name)
		matched := true
		for _, w := range words {
			if !strings.Contains(name, w) {
				matched = false
				break
			}
		}
		if matched {
			return b.UnitPrice, true
		}
	}
	return 0, false
}
