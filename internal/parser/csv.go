// Package parser decodes broker execution exports into raw executions.
// It is a structural decoder only: numbers must parse, but business rules
// (positive quantity, known side) are the matching engine's concern, and
// date/time strings pass through untouched so the engine can degrade on
// malformed timestamps instead of the import failing here.
package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/lotledger/lotledger/internal/domain"
)

// Required and optional CSV columns, matched case-insensitively against the
// header row. Extra columns are ignored.
var (
	requiredColumns = []string{"instrument", "side", "quantity", "price", "date"}
	optionalColumns = []string{"time", "commission", "execution_id"}
)

// ReadCSV decodes a broker CSV export into raw executions. The first row
// must be a header naming at least the required columns.
func ReadCSV(r io.Reader) ([]domain.RawExecution, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv: empty input")
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("csv: missing required column %q", name)
		}
	}

	field := func(record []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	execs := []domain.RawExecution{}
	for row := 2; ; row++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: row %d: %w", row, err)
		}

		quantity, err := strconv.ParseInt(field(record, "quantity"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("csv: row %d: quantity %q is not an integer", row, field(record, "quantity"))
		}
		price, err := decimal.NewFromString(field(record, "price"))
		if err != nil {
			return nil, fmt.Errorf("csv: row %d: price %q is not a number", row, field(record, "price"))
		}

		commission := decimal.Zero
		if raw := field(record, "commission"); raw != "" {
			commission, err = decimal.NewFromString(raw)
			if err != nil {
				return nil, fmt.Errorf("csv: row %d: commission %q is not a number", row, raw)
			}
		}

		execs = append(execs, domain.RawExecution{
			Instrument:  field(record, "instrument"),
			Side:        domain.Side(strings.ToUpper(field(record, "side"))),
			Quantity:    quantity,
			Price:       price,
			Time:        domain.ParseTradeTime(field(record, "date"), field(record, "time")),
			Commission:  commission,
			ExecutionID: field(record, "execution_id"),
		})
	}
	return execs, nil
}
