// Package history persists daily closing prices and assembles the aligned
// price matrices the optimizer consumes.
package history

import (
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/JoaoToni12/analise-investimentos/internal/modules/optimization"
)

// Schema creates the daily price table. Idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS daily_prices (
	ticker TEXT NOT NULL,
	date TEXT NOT NULL,
	close REAL NOT NULL,
	PRIMARY KEY (ticker, date)
);
CREATE INDEX IF NOT EXISTS idx_daily_prices_date ON daily_prices(date);
`

// PricePoint is one daily close for a ticker.
type PricePoint struct {
	Date  time.Time
	Close float64
}

// PriceStore reads and writes the daily close series backing optimization.
type PriceStore struct {
	db  *sql.DB
	log zerolog.Logger
}

func NewPriceStore(db *sql.DB, log zerolog.Logger) *PriceStore {
	return &PriceStore{
		db:  db,
		log: log.With().Str("repository", "price_store").Logger(),
	}
}

// SaveSeries upserts a ticker's daily closes. Non-positive closes are
// skipped since log returns cannot be taken over them.
func (s *PriceStore) SaveSeries(ticker string, points []PricePoint) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning price upsert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO daily_prices (ticker, date, close)
		VALUES (?, ?, ?)
		ON CONFLICT(ticker, date) DO UPDATE SET close = excluded.close`)
	if err != nil {
		return 0, fmt.Errorf("preparing price upsert: %w", err)
	}
	defer stmt.Close()

	saved := 0
	for _, p := range points {
		if p.Close <= 0 {
			continue
		}
		if _, err := stmt.Exec(ticker, p.Date.Format("2006-01-02"), p.Close); err != nil {
			return saved, fmt.Errorf("upserting price %s %s: %w", ticker, p.Date.Format("2006-01-02"), err)
		}
		saved++
	}

	if err := tx.Commit(); err != nil {
		return saved, fmt.Errorf("committing price upsert: %w", err)
	}

	s.log.Debug().Str("ticker", ticker).Int("saved", saved).Msg("price series saved")
	return saved, nil
}

// Series returns a ticker's closes in ascending date order, at most
// lookbackDays most recent rows.
func (s *PriceStore) Series(ticker string, lookbackDays int) ([]PricePoint, error) {
	rows, err := s.db.Query(`
		SELECT date, close FROM (
			SELECT date, close FROM daily_prices
			WHERE ticker = ?
			ORDER BY date DESC
			LIMIT ?
		) ORDER BY date ASC`, ticker, lookbackDays)
	if err != nil {
		return nil, fmt.Errorf("querying series for %s: %w", ticker, err)
	}
	defer rows.Close()

	var points []PricePoint
	for rows.Next() {
		var dateStr string
		var p PricePoint
		if err := rows.Scan(&dateStr, &p.Close); err != nil {
			return nil, fmt.Errorf("scanning price row: %w", err)
		}
		p.Date, err = time.Parse("2006-01-02", dateStr)
		if err != nil {
			return nil, fmt.Errorf("parsing price date %q: %w", dateStr, err)
		}
		points = append(points, p)
	}

	return points, rows.Err()
}

// PriceMatrix assembles an aligned matrix of closes for the given tickers
// over dates where every ticker has a close, capped at lookbackDays most
// recent common dates. Tickers with no rows at all are dropped so a stale
// or never-quoted asset cannot empty the whole matrix.
func (s *PriceStore) PriceMatrix(tickers []string, lookbackDays int) (optimization.PriceHistory, error) {
	series := make(map[string]map[string]float64)
	var kept []string

	for _, tk := range tickers {
		points, err := s.Series(tk, lookbackDays)
		if err != nil {
			return optimization.PriceHistory{}, err
		}
		if len(points) == 0 {
			s.log.Warn().Str("ticker", tk).Msg("no price history, excluding from matrix")
			continue
		}
		byDate := make(map[string]float64, len(points))
		for _, p := range points {
			byDate[p.Date.Format("2006-01-02")] = p.Close
		}
		series[tk] = byDate
		kept = append(kept, tk)
	}

	if len(kept) == 0 {
		return optimization.PriceHistory{}, fmt.Errorf("price matrix: %w", optimization.ErrInsufficientData)
	}

	// Intersect dates across the kept tickers.
	var common []string
	for date := range series[kept[0]] {
		present := true
		for _, tk := range kept[1:] {
			if _, ok := series[tk][date]; !ok {
				present = false
				break
			}
		}
		if present {
			common = append(common, date)
		}
	}
	sort.Strings(common)
	if len(common) > lookbackDays {
		common = common[len(common)-lookbackDays:]
	}

	prices := make([][]float64, len(common))
	for i, date := range common {
		row := make([]float64, len(kept))
		for j, tk := range kept {
			row[j] = series[tk][date]
		}
		prices[i] = row
	}

	return optimization.PriceHistory{Tickers: kept, Prices: prices}, nil
}

// Coverage reports how many rows each ticker has, for health endpoints.
func (s *PriceStore) Coverage() (map[string]int, error) {
	rows, err := s.db.Query(`SELECT ticker, COUNT(*) FROM daily_prices GROUP BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("querying coverage: %w", err)
	}
	defer rows.Close()

	coverage := make(map[string]int)
	for rows.Next() {
		var tk string
		var n int
		if err := rows.Scan(&tk, &n); err != nil {
			return nil, fmt.Errorf("scanning coverage row: %w", err)
		}
		coverage[tk] = n
	}
	return coverage, rows.Err()
}
