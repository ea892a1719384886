package domain

import "github.com/shopspring/decimal"

// Lot is the matcher's mutable view of one execution: the original fill plus
// the quantity not yet consumed by a match. Lots live only for the duration
// of one matching run and are never persisted directly.
type Lot struct {
	Exec      RawExecution
	Remaining int64
}

// OpenLot is a lot left with remaining quantity after matching exhausted the
// opposite side of its instrument. It is the inventory carried forward to
// the next batch.
type OpenLot struct {
	Instrument  string
	Side        Side
	Time        TradeTime
	Price       decimal.Decimal
	Remaining   int64
	Commission  decimal.Decimal
	ExecutionID string
}

// Execution reconstructs the raw-execution view of the lot so it can seed
// the next run's queues. Quantity equals the remaining quantity; the lot's
// full commission is carried with it, per the charge-once-per-lot policy.
func (l *OpenLot) Execution() RawExecution {
	return RawExecution{
		Instrument:  l.Instrument,
		Side:        l.Side,
		Quantity:    l.Remaining,
		Price:       l.Price,
		Time:        l.Time,
		Commission:  l.Commission,
		ExecutionID: l.ExecutionID,
	}
}
