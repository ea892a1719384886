package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Side indicates whether an execution bought or sold the instrument.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// RawExecution is a single fill reported by an execution source (broker
// export or API). Field types are trusted; business validity is checked by
// Validate before any matching happens. The engine never mutates a
// RawExecution.
type RawExecution struct {
	Instrument  string
	Side        Side
	Quantity    int64
	Price       decimal.Decimal
	Time        TradeTime
	Commission  decimal.Decimal
	ExecutionID string // broker-assigned id, opaque; used as persistence key
}

// Validate checks the caller contract for one execution. A violation fails
// the whole batch (all-or-nothing), so the error identifies the offending
// record by its external id and position in the batch.
func (e *RawExecution) Validate(index int) error {
	fail := func(msg string) error {
		return &ValidationError{
			ExecutionID: e.ExecutionID,
			Index:       index,
			Message:     msg,
		}
	}

	if e.Instrument == "" {
		return fail("instrument must be non-empty")
	}
	if e.Side != SideBuy && e.Side != SideSell {
		return fail(fmt.Sprintf("side must be BUY or SELL, got %q", e.Side))
	}
	if e.Quantity <= 0 {
		return fail(fmt.Sprintf("quantity must be a positive integer, got %d", e.Quantity))
	}
	if e.Price.IsNegative() {
		return fail("price must be non-negative")
	}
	if e.Commission.IsNegative() {
		return fail("commission must be non-negative")
	}
	return nil
}
