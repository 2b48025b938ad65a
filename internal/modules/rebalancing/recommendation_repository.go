package rebalancing

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JoaoToni12/analise-investimentos/internal/domain"
)

// RecommendationSchema creates the plan history table. Idempotent.
const RecommendationSchema = `
CREATE TABLE IF NOT EXISTS recommendations (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	cash_injection REAL NOT NULL,
	residual_cash REAL NOT NULL,
	orders_json TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_recommendations_created_at ON recommendations(created_at);
`

// Recommendation is a persisted rebalancing plan with its inputs.
type Recommendation struct {
	ID            string         `json:"id"`
	CreatedAt     time.Time      `json:"created_at"`
	CashInjection float64        `json:"cash_injection"`
	ResidualCash  float64        `json:"residual_cash"`
	Orders        []domain.Order `json:"orders"`
}

// RecommendationRepository stores generated plans for later review.
type RecommendationRepository struct {
	db *sql.DB
}

func NewRecommendationRepository(db *sql.DB) *RecommendationRepository {
	return &RecommendationRepository{db: db}
}

// Save persists a plan and returns the stored record with its generated ID.
func (r *RecommendationRepository) Save(cashInjection float64, plan Plan) (Recommendation, error) {
	rec := Recommendation{
		ID:            uuid.New().String(),
		CreatedAt:     time.Now().UTC(),
		CashInjection: cashInjection,
		ResidualCash:  plan.ResidualCash,
		Orders:        plan.Orders,
	}

	ordersJSON, err := json.Marshal(rec.Orders)
	if err != nil {
		return Recommendation{}, fmt.Errorf("marshaling orders: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO recommendations (id, created_at, cash_injection, residual_cash, orders_json)
		VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.CreatedAt.Format(time.RFC3339Nano), rec.CashInjection, rec.ResidualCash, string(ordersJSON),
	)
	if err != nil {
		return Recommendation{}, fmt.Errorf("inserting recommendation: %w", err)
	}

	return rec, nil
}

// List returns the most recent recommendations, newest first.
func (r *RecommendationRepository) List(limit int) ([]Recommendation, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(`
		SELECT id, created_at, cash_injection, residual_cash, orders_json
		FROM recommendations
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recommendations: %w", err)
	}
	defer rows.Close()

	recs := []Recommendation{}
	for rows.Next() {
		var rec Recommendation
		var createdAt, ordersJSON string
		if err := rows.Scan(&rec.ID, &createdAt, &rec.CashInjection, &rec.ResidualCash, &ordersJSON); err != nil {
			return nil, fmt.Errorf("scanning recommendation: %w", err)
		}
		rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at for %s: %w", rec.ID, err)
		}
		if err := json.Unmarshal([]byte(ordersJSON), &rec.Orders); err != nil {
			return nil, fmt.Errorf("decoding orders for %s: %w", rec.ID, err)
		}
		recs = append(recs, rec)
	}

	return recs, rows.Err()
}

// Get fetches a single recommendation by ID.
func (r *RecommendationRepository) Get(id string) (Recommendation, error) {
	var rec Recommendation
	var createdAt, ordersJSON string

	err := r.db.QueryRow(`
		SELECT id, created_at, cash_injection, residual_cash, orders_json
		FROM recommendations
		WHERE id = ?`, id).Scan(&rec.ID, &createdAt, &rec.CashInjection, &rec.ResidualCash, &ordersJSON)
	if err != nil {
		return Recommendation{}, fmt.Errorf("fetching recommendation %s: %w", id, err)
	}

	rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Recommendation{}, fmt.Errorf("parsing created_at for %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(ordersJSON), &rec.Orders); err != nil {
		return Recommendation{}, fmt.Errorf("decoding orders for %s: %w", id, err)
	}

	return rec, nil
}
