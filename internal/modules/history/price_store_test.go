package history

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoaoToni12/analise-investimentos/internal/modules/optimization"
)

func setupStore(t *testing.T) *PriceStore {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(Schema)
	require.NoError(t, err)
	return NewPriceStore(db, zerolog.Nop())
}

func day(n int) time.Time {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestSaveSeriesSkipsNonPositiveCloses(t *testing.T) {
	store := setupStore(t)

	saved, err := store.SaveSeries("PETR4", []PricePoint{
		{Date: day(0), Close: 35.0},
		{Date: day(1), Close: 0},
		{Date: day(2), Close: -1},
		{Date: day(3), Close: 36.5},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, saved)

	points, err := store.Series("PETR4", 100)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 35.0, points[0].Close)
	assert.Equal(t, 36.5, points[1].Close)
	assert.True(t, points[0].Date.Before(points[1].Date))
}

func TestSaveSeriesUpsertsOnConflict(t *testing.T) {
	store := setupStore(t)

	_, err := store.SaveSeries("VALE3", []PricePoint{{Date: day(0), Close: 60.0}})
	require.NoError(t, err)
	_, err = store.SaveSeries("VALE3", []PricePoint{{Date: day(0), Close: 61.5}})
	require.NoError(t, err)

	points, err := store.Series("VALE3", 100)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, 61.5, points[0].Close)
}

func TestSeriesRespectsLookback(t *testing.T) {
	store := setupStore(t)

	var points []PricePoint
	for i := 0; i < 10; i++ {
		points = append(points, PricePoint{Date: day(i), Close: 10 + float64(i)})
	}
	_, err := store.SaveSeries("ITUB4", points)
	require.NoError(t, err)

	got, err := store.Series("ITUB4", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	// Most recent three, ascending.
	assert.Equal(t, 17.0, got[0].Close)
	assert.Equal(t, 19.0, got[2].Close)
}

func TestPriceMatrixAlignsOnCommonDates(t *testing.T) {
	store := setupStore(t)

	_, err := store.SaveSeries("PETR4", []PricePoint{
		{Date: day(0), Close: 10}, {Date: day(1), Close: 11}, {Date: day(2), Close: 12},
	})
	require.NoError(t, err)
	// VALE3 is missing day(1).
	_, err = store.SaveSeries("VALE3", []PricePoint{
		{Date: day(0), Close: 60}, {Date: day(2), Close: 62},
	})
	require.NoError(t, err)

	hist, err := store.PriceMatrix([]string{"PETR4", "VALE3"}, 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"PETR4", "VALE3"}, hist.Tickers)
	require.Len(t, hist.Prices, 2)
	assert.Equal(t, []float64{10, 60}, hist.Prices[0])
	assert.Equal(t, []float64{12, 62}, hist.Prices[1])
}

func TestPriceMatrixDropsEmptyTickers(t *testing.T) {
	store := setupStore(t)

	_, err := store.SaveSeries("PETR4", []PricePoint{
		{Date: day(0), Close: 10}, {Date: day(1), Close: 11},
	})
	require.NoError(t, err)

	hist, err := store.PriceMatrix([]string{"PETR4", "GHOST3"}, 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"PETR4"}, hist.Tickers)
	require.Len(t, hist.Prices, 2)
}

func TestPriceMatrixAllEmptyIsInsufficientData(t *testing.T) {
	store := setupStore(t)

	_, err := store.PriceMatrix([]string{"GHOST3"}, 100)
	assert.ErrorIs(t, err, optimization.ErrInsufficientData)
}

func TestCoverage(t *testing.T) {
	store := setupStore(t)

	_, err := store.SaveSeries("PETR4", []PricePoint{
		{Date: day(0), Close: 10}, {Date: day(1), Close: 11},
	})
	require.NoError(t, err)
	_, err = store.SaveSeries("VALE3", []PricePoint{{Date: day(0), Close: 60}})
	require.NoError(t, err)

	coverage, err := store.Coverage()
	require.NoError(t, err)
	assert.Equal(t, 2, coverage["PETR4"])
	assert.Equal(t, 1, coverage["VALE3"])
}
