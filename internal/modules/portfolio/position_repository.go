package portfolio

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/JoaoToni12/analise-investimentos/internal/database"
	"github.com/JoaoToni12/analise-investimentos/internal/domain"
)

// Schema is the positions table definition, applied by the portfolio database.
const Schema = `
CREATE TABLE IF NOT EXISTS positions (
    ticker        TEXT PRIMARY KEY,
    asset_class   TEXT NOT NULL,
    quantity      REAL NOT NULL DEFAULT 0,
    avg_price     REAL NOT NULL DEFAULT 0,
    current_price REAL NOT NULL DEFAULT 0,
    target_weight REAL NOT NULL DEFAULT 0,
    updated_at    TEXT NOT NULL DEFAULT (datetime('now'))
);
`

// PositionRepository persists portfolio positions in the portfolio database.
type PositionRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewPositionRepository creates a new position repository.
func NewPositionRepository(db *sql.DB, log zerolog.Logger) *PositionRepository {
	return &PositionRepository{
		db:  db,
		log: log.With().Str("repository", "positions").Logger(),
	}
}

// List returns all stored positions ordered by ticker.
func (r *PositionRepository) List() ([]domain.Asset, error) {
	rows, err := r.db.Query(`
		SELECT ticker, asset_class, quantity, avg_price, current_price, target_weight
		FROM positions
		ORDER BY ticker
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var assets []domain.Asset
	for rows.Next() {
		var a domain.Asset
		var class string
		if err := rows.Scan(&a.Ticker, &class, &a.Quantity, &a.AvgPrice, &a.CurrentPrice, &a.TargetWeight); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		a.AssetClass = domain.AssetClassFromString(class)
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", err)
	}

	return assets, nil
}

// Upsert inserts or updates a single position.
func (r *PositionRepository) Upsert(asset domain.Asset) error {
	if asset.Ticker == "" {
		return fmt.Errorf("position ticker must not be empty")
	}
	if asset.Quantity < 0 {
		return fmt.Errorf("ticker %s: quantity must not be negative", asset.Ticker)
	}

	_, err := r.db.Exec(`
		INSERT INTO positions (ticker, asset_class, quantity, avg_price, current_price, target_weight, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, datetime('now'))
		ON CONFLICT(ticker) DO UPDATE SET
			asset_class   = excluded.asset_class,
			quantity      = excluded.quantity,
			avg_price     = excluded.avg_price,
			current_price = excluded.current_price,
			target_weight = excluded.target_weight,
			updated_at    = datetime('now')
	`, asset.Ticker, string(asset.AssetClass), asset.Quantity, asset.AvgPrice, asset.CurrentPrice, asset.TargetWeight)
	if err != nil {
		return fmt.Errorf("failed to upsert position %s: %w", asset.Ticker, err)
	}

	return nil
}

// ReplaceAll atomically replaces the stored portfolio with the given
// snapshot. Target weights are validated before anything is written.
func (r *PositionRepository) ReplaceAll(assets []domain.Asset) error {
	if err := ValidateTargetWeights(assets); err != nil {
		return err
	}

	seen := make(map[string]bool, len(assets))
	for _, a := range assets {
		if a.Ticker == "" {
			return fmt.Errorf("position ticker must not be empty")
		}
		if a.Quantity < 0 {
			return fmt.Errorf("ticker %s: quantity must not be negative", a.Ticker)
		}
		if seen[a.Ticker] {
			return fmt.Errorf("duplicate ticker %s in snapshot", a.Ticker)
		}
		seen[a.Ticker] = true
	}

	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM positions`); err != nil {
			return fmt.Errorf("failed to clear positions: %w", err)
		}
		for _, a := range assets {
			_, err := tx.Exec(`
				INSERT INTO positions (ticker, asset_class, quantity, avg_price, current_price, target_weight, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, datetime('now'))
			`, a.Ticker, string(a.AssetClass), a.Quantity, a.AvgPrice, a.CurrentPrice, a.TargetWeight)
			if err != nil {
				return fmt.Errorf("failed to insert position %s: %w", a.Ticker, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.log.Info().Int("positions", len(assets)).Msg("Portfolio snapshot replaced")
	return nil
}

// UpdatePrices writes the latest known price for each ticker present in the
// map. Tickers without a stored position are ignored.
func (r *PositionRepository) UpdatePrices(prices map[string]float64) (int, error) {
	updated := 0
	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		for ticker, price := range prices {
			if price <= 0 {
				continue
			}
			res, err := tx.Exec(`
				UPDATE positions SET current_price = ?, updated_at = datetime('now')
				WHERE ticker = ?
			`, price, ticker)
			if err != nil {
				return fmt.Errorf("failed to update price for %s: %w", ticker, err)
			}
			if n, err := res.RowsAffected(); err == nil {
				updated += int(n)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	r.log.Debug().Int("updated", updated).Msg("Prices updated")
	return updated, nil
}

// Delete removes a position by ticker.
func (r *PositionRepository) Delete(ticker string) error {
	res, err := r.db.Exec(`DELETE FROM positions WHERE ticker = ?`, ticker)
	if err != nil {
		return fmt.Errorf("failed to delete position %s: %w", ticker, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("position %s not found", ticker)
	}
	return nil
}
