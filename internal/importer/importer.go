// Package importer turns raw bank-statement CSV exports into normalized
// transaction candidates.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/korvarsson/bdget/internal/domain"
	"github.com/korvarsson/bdget/internal/money"
)

// The supported export carries a single fixed schema. Columns are matched by
// header name, not position; the header may be the English or the localized
// variant.
var columnAliases = map[string][]string{
	"date":        {"booking date", "дата операции"},
	"description": {"description", "описание"},
	"amount":      {"amount", "сумма"},
	"currency":    {"currency", "валюта"},
}

// Candidate is one normalized transaction parsed from a statement row. The
// caller assigns an id when it persists the record.
type Candidate struct {
	Date        civil.Date
	Description string
	Amount      float64
	Category    string
}

// Result reports one import run. Accepted preserves input row order; Skipped
// counts rows dropped for a missing field, currency mismatch or unparsable
// amount or date.
type Result struct {
	Accepted []Candidate
	Skipped  int
}

// Importer parses one bank's CSV export format.
type Importer struct {
	detector EncodingDetector
}

// New creates an importer. A nil detector falls back to the heuristic one.
func New(detector EncodingDetector) *Importer {
	if detector == nil {
		detector = HeuristicDetector{}
	}
	return &Importer{detector: detector}
}

// Import decodes raw statement bytes and parses them against the fixed
// export schema. Row-level problems skip the row and increment the count;
// only a statement that cannot be read at all is an error.
func (im *Importer) Import(raw []byte, targetCurrency string) (Result, error) {
	decoded, err := im.detector.Detect(raw).NewDecoder().Bytes(raw)
	if err != nil {
		// Misdecoded text degrades to garbled descriptions, not a failure.
		decoded = raw
	}

	r := csv.NewReader(bytes.NewReader(decoded))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return Result{}, fmt.Errorf("Import: read header: %w", err)
	}
	cols, err := mapColumns(header)
	if err != nil {
		return Result{}, fmt.Errorf("Import: %w", err)
	}

	var result Result
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Skipped++
			continue
		}

		c, ok := parseRow(row, cols, targetCurrency)
		if !ok {
			result.Skipped++
			continue
		}
		result.Accepted = append(result.Accepted, c)
	}

	return result, nil
}

// mapColumns resolves the four mandatory columns from the header row.
func mapColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(columnAliases))
	for i, cell := range header {
		name := strings.ToLower(strings.TrimSpace(cell))
		for key, aliases := range columnAliases {
			for _, alias := range aliases {
				if strings.Contains(name, alias) {
					cols[key] = i
				}
			}
		}
	}

	for key := range columnAliases {
		if _, ok := cols[key]; !ok {
			return nil, fmt.Errorf("unrecognized statement format: no %s column", key)
		}
	}
	return cols, nil
}

// parseRow normalizes one data row, reporting false when the row must be
// skipped.
func parseRow(row []string, cols map[string]int, targetCurrency string) (Candidate, bool) {
	field := func(key string) string {
		i := cols[key]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	dateStr := field("date")
	desc := field("description")
	amountStr := field("amount")
	currency := field("currency")

	if dateStr == "" || desc == "" || amountStr == "" || currency == "" {
		return Candidate{}, false
	}
	if !strings.EqualFold(currency, targetCurrency) {
		return Candidate{}, false
	}

	date, ok := parseBookingDate(dateStr)
	if !ok {
		return Candidate{}, false
	}

	amount, err := money.ParseAmount(strings.ReplaceAll(amountStr, " ", ""))
	if err != nil {
		return Candidate{}, false
	}

	return Candidate{
		Date:        date,
		Description: desc,
		Amount:      amount,
		Category:    domain.DefaultCategory,
	}, true
}

// parseBookingDate rewrites the export's dd.mm.yyyy dates to calendar dates;
// already-ISO dates pass through.
func parseBookingDate(s string) (civil.Date, bool) {
	for _, layout := range []string{"02.01.2006", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return civil.DateOf(t), true
		}
	}
	return civil.Date{}, false
}
