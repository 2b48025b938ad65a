// Package ingestion imports portfolio positions from broker CSV exports,
// tolerating the column names and number formats Brazilian brokers emit.
package ingestion

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"github.com/JoaoToni12/analise-investimentos/internal/domain"
)

// columnAliases maps the header names seen in broker exports onto the
// canonical column set. Matching is case- and accent-folded.
var columnAliases = map[string]string{
	"ticker": "ticker", "codigo": "ticker", "ativo": "ticker", "papel": "ticker", "symbol": "ticker",
	"quantidade": "quantidade", "qtd": "quantidade", "quantity": "quantidade", "qty": "quantidade",
	"preco_medio": "preco_medio", "pm": "preco_medio", "avg_price": "preco_medio", "average_price": "preco_medio",
	"preco_atual": "preco_atual", "cotacao": "preco_atual", "price": "preco_atual", "current_price": "preco_atual",
	"alvo": "alvo", "target": "alvo", "peso_alvo": "alvo", "target_weight": "alvo", "peso": "alvo",
	"classe": "classe", "class": "classe", "tipo": "classe", "categoria": "classe", "asset_class": "classe",
}

// money parses Brazilian-formatted numbers ("1.234,56", "R$ 35,50") as
// well as plain decimals.
type money struct {
	decimal.Decimal
}

func (m *money) UnmarshalCSV(s string) error {
	s = strings.TrimSpace(strings.ReplaceAll(s, "R$", ""))
	if s == "" {
		m.Decimal = decimal.Zero
		return nil
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("invalid number %q", s)
	}
	m.Decimal = d
	return nil
}

type positionRow struct {
	Ticker       string `csv:"ticker"`
	Classe       string `csv:"classe"`
	Quantidade   money  `csv:"quantidade"`
	PrecoMedio   money  `csv:"preco_medio"`
	PrecoAtual   money  `csv:"preco_atual"`
	TargetWeight money  `csv:"alvo"`
}

// LoadPositions parses a positions CSV into assets. The ticker and
// quantidade columns are required; missing optional columns default to
// zero values and the asset class falls back to ACAO. Errors name the
// offending row's ticker.
func LoadPositions(r io.Reader) ([]domain.Asset, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}

	normalized, err := normalizeCSV(raw)
	if err != nil {
		return nil, err
	}

	var rows []positionRow
	if err := gocsv.UnmarshalBytes(normalized, &rows); err != nil {
		return nil, fmt.Errorf("parsing csv: %w", err)
	}

	assets := make([]domain.Asset, 0, len(rows))
	for i, row := range rows {
		ticker := strings.ToUpper(strings.TrimSpace(row.Ticker))
		if ticker == "" {
			return nil, fmt.Errorf("row %d: missing ticker", i+2)
		}

		qty := row.Quantidade.InexactFloat64()
		if qty < 0 {
			return nil, fmt.Errorf("ticker %s: negative quantity", ticker)
		}
		target := row.TargetWeight.InexactFloat64()
		if target < 0 || target > 100 {
			return nil, fmt.Errorf("ticker %s: target weight %.2f outside [0, 100]", ticker, target)
		}

		assets = append(assets, domain.Asset{
			Ticker:       ticker,
			AssetClass:   domain.AssetClassFromString(row.Classe),
			Quantity:     qty,
			AvgPrice:     row.PrecoMedio.InexactFloat64(),
			CurrentPrice: row.PrecoAtual.InexactFloat64(),
			TargetWeight: target,
		})
	}

	if len(assets) == 0 {
		return nil, fmt.Errorf("csv contains no positions")
	}
	return assets, nil
}

// normalizeCSV detects the delimiter, folds header names through the alias
// table and re-emits a comma-delimited document with canonical headers.
func normalizeCSV(raw []byte) ([]byte, error) {
	reader := csv.NewReader(bytes.NewReader(raw))
	reader.Comma = detectDelimiter(raw)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv is empty")
	}

	header := records[0]
	hasTicker := false
	for i, col := range header {
		canonical, ok := columnAliases[foldHeader(col)]
		if !ok {
			// Unknown columns pass through untouched and are ignored
			// by the row struct.
			continue
		}
		header[i] = canonical
		if canonical == "ticker" {
			hasTicker = true
		}
	}
	if !hasTicker {
		return nil, fmt.Errorf("csv has no ticker column (accepted: ticker, codigo, ativo, papel)")
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.WriteAll(records); err != nil {
		return nil, fmt.Errorf("rewriting csv: %w", err)
	}
	return buf.Bytes(), nil
}

func detectDelimiter(raw []byte) rune {
	firstLine := raw
	if i := bytes.IndexByte(raw, '\n'); i >= 0 {
		firstLine = raw[:i]
	}
	if bytes.Count(firstLine, []byte(";")) > bytes.Count(firstLine, []byte(",")) {
		return ';'
	}
	return ','
}

// foldHeader lowercases a header name and strips the accents and spacing
// variants seen in broker files.
func foldHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	replacer := strings.NewReplacer(
		"ç", "c", "ã", "a", "á", "a", "â", "a", "é", "e", "ê", "e",
		"í", "i", "ó", "o", "ô", "o", "õ", "o", "ú", "u",
		" ", "_", "-", "_",
	)
	return replacer.Replace(s)
}
