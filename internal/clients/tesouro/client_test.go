package tesouro

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListBonds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/treasurybondsinfo.json", r.URL.Path)
		fmt.Fprint(w, `{"response":{"TrsrBdTradgList":[
			{"TrsrBd":{"nm":"Tesouro Selic 2029","untrRedVal":14850.12}},
			{"TrsrBd":{"nm":"Tesouro IPCA+ 2035","untrRedVal":3210.45}},
			{"TrsrBd":{"nm":"Tesouro Prefixado 2027","untrRedVal":0}}
		]}}`)
	}))
	defer srv.Close()

	bonds, err := NewClient(srv.URL, zerolog.Nop()).ListBonds()
	require.NoError(t, err)
	require.Len(t, bonds, 2)
	assert.Equal(t, "Tesouro Selic 2029", bonds[0].Name)
	assert.Equal(t, 14850.12, bonds[0].UnitPrice)
}

func TestListBondsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, zerolog.Nop()).ListBonds()
	assert.Error(t, err)
}

func TestPriceByName(t *testing.T) {
	bonds := []Bond{
		{Name: "Tesouro Selic 2029", UnitPrice: 14850.12},
		{Name: "Tesouro IPCA+ 2035", UnitPrice: 3210.45},
	}

	price, ok := PriceByName(bonds, "TESOURO_SELIC_2029")
	require.True(t, ok)
	assert.Equal(t, 14850.12, price)

	price, ok = PriceByName(bonds, "tesouro ipca 2035")
	require.True(t, ok)
	assert.Equal(t, 3210.45, price)

	_, ok = PriceByName(bonds, "TESOURO_SELIC_2031")
	assert.False(t, ok)

	_, ok = PriceByName(bonds, "")
	assert.False(t, ok)
}
