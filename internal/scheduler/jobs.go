package scheduler

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/JoaoToni12/analise-investimentos/internal/clients/brapi"
	"github.com/JoaoToni12/analise-investimentos/internal/clients/tesouro"
	"github.com/JoaoToni12/analise-investimentos/internal/domain"
	"github.com/JoaoToni12/analise-investimentos/internal/modules/history"
)

// QuoteFetcher fetches latest prices for a set of tickers.
type QuoteFetcher interface {
	GetQuotes(tickers []string) (map[string]float64, error)
}

// HistoryFetcher fetches a ticker's daily close series.
type HistoryFetcher interface {
	GetHistory(ticker, rangeStr string) ([]brapi.HistoricalPrice, error)
}

// BondLister fetches the treasury bond listing.
type BondLister interface {
	ListBonds() ([]tesouro.Bond, error)
}

// PositionStore is the slice of the positions repository the jobs need.
type PositionStore interface {
	List() ([]domain.Asset, error)
	UpdatePrices(prices map[string]float64) (int, error)
}

// SeriesSaver persists a ticker's daily close series.
type SeriesSaver interface {
	SaveSeries(ticker string, points []history.PricePoint) (int, error)
}

// QuoteRefreshJob updates position prices from brapi, with treasury bonds
// priced from the Tesouro Direto listing.
type QuoteRefreshJob struct {
	positions PositionStore
	quotes    QuoteFetcher
	bonds     BondLister
	log       zerolog.Logger
}

func NewQuoteRefreshJob(positions PositionStore, quotes QuoteFetcher, bonds BondLister, log zerolog.Logger) *QuoteRefreshJob {
	return &QuoteRefreshJob{
		positions: positions,
		quotes:    quotes,
		bonds:     bonds,
		log:       log.With().Str("job", "quote_refresh").Logger(),
	}
}

func (j *QuoteRefreshJob) Name() string { return "quote_refresh" }

func (j *QuoteRefreshJob) Run() error {
	assets, err := j.positions.List()
	if err != nil {
		return fmt.Errorf("loading positions: %w", err)
	}
	if len(assets) == 0 {
		return nil
	}

	tickers := make([]string, 0, len(assets))
	var treasuryTickers []string
	for _, a := range assets {
		if strings.HasPrefix(strings.ToUpper(a.Ticker), "TESOURO_") {
			treasuryTickers = append(treasuryTickers, a.Ticker)
			continue
		}
		tickers = append(tickers, a.Ticker)
	}

	prices, err := j.quotes.GetQuotes(tickers)
	if err != nil {
		return fmt.Errorf("fetching quotes: %w", err)
	}

	if len(treasuryTickers) > 0 && j.bonds != nil {
		bonds, err := j.bonds.ListBonds()
		if err != nil {
			// Equity quotes still land even when the bond feed is down.
			j.log.Warn().Err(err).Msg("bond listing unavailable, keeping stored bond prices")
		} else {
			for _, tk := range treasuryTickers {
				if price, ok := tesouro.PriceByName(bonds, tk); ok {
					prices[tk] = price
				}
			}
		}
	}

	updated, err := j.positions.UpdatePrices(prices)
	if err != nil {
		return fmt.Errorf("storing prices: %w", err)
	}

	j.log.Info().Int("updated", updated).Int("fetched", len(prices)).Msg("quotes refreshed")
	return nil
}

// HistorySyncJob backfills daily close history for every quotable position.
type HistorySyncJob struct {
	positions PositionStore
	fetcher   HistoryFetcher
	store     SeriesSaver
	rangeStr  string
	log       zerolog.Logger
}

func NewHistorySyncJob(positions PositionStore, fetcher HistoryFetcher, store SeriesSaver, rangeStr string, log zerolog.Logger) *HistorySyncJob {
	if rangeStr == "" {
		rangeStr = "2y"
	}
	return &HistorySyncJob{
		positions: positions,
		fetcher:   fetcher,
		store:     store,
		rangeStr:  rangeStr,
		log:       log.With().Str("job", "history_sync").Logger(),
	}
}

func (j *HistorySyncJob) Name() string { return "history_sync" }

// Run fetches and stores history per ticker. A single failing ticker does
// not abort the sweep; the error reports how many failed.
func (j *HistorySyncJob) Run() error {
	assets, err := j.positions.List()
	if err != nil {
		return fmt.Errorf("loading positions: %w", err)
	}

	failed := 0
	for _, a := range assets {
		if !brapi.Quotable(a.Ticker) {
			continue
		}

		points, err := j.fetcher.GetHistory(a.Ticker, j.rangeStr)
		if err != nil {
			failed++
			j.log.Warn().Err(err).Str("ticker", a.Ticker).Msg("history fetch failed")
			continue
		}

		series := make([]history.PricePoint, 0, len(points))
		for _, p := range points {
			series = append(series, history.PricePoint{Date: p.Date, Close: p.Close})
		}
		saved, err := j.store.SaveSeries(a.Ticker, series)
		if err != nil {
			failed++
			j.log.Warn().Err(err).Str("ticker", a.Ticker).Msg("history save failed")
			continue
		}
		j.log.Debug().Str("ticker", a.Ticker).Int("rows", saved).Msg("history synced")
	}

	if failed > 0 {
		return fmt.Errorf("history sync: %d tickers failed", failed)
	}
	return nil
}
