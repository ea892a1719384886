package engine

import (
	"github.com/shopspring/decimal"

	"github.com/lotledger/lotledger/internal/domain"
)

// matchInstrument runs the FIFO match loop for one instrument's book.
//
// While both queues are non-empty, the oldest buy lot is closed against the
// oldest sell lot for min(remaining) quantity; an exhausted lot is evicted.
// Every iteration strictly reduces total remaining quantity, so the loop
// terminates once either side empties. Whatever still rests on the book
// afterwards becomes open inventory.
func matchInstrument(book *LotBook) ([]*domain.MatchedRoundTrip, []*domain.OpenLot) {
	var trips []*domain.MatchedRoundTrip

	for {
		buy, ok := book.OldestBuy()
		if !ok {
			break
		}
		sell, ok := book.OldestSell()
		if !ok {
			break
		}

		// A zero-remaining lot should have been evicted the moment it was
		// consumed. Evicting here keeps the loop finite regardless.
		if buy.Lot.Remaining <= 0 {
			book.Drop(buy)
			continue
		}
		if sell.Lot.Remaining <= 0 {
			book.Drop(sell)
			continue
		}

		qty := min(buy.Lot.Remaining, sell.Lot.Remaining)
		trips = append(trips, closeTrip(book.instrument, buy.Lot, sell.Lot, qty))

		buy.Lot.Remaining -= qty
		sell.Lot.Remaining -= qty
		if buy.Lot.Remaining == 0 {
			book.Drop(buy)
		}
		if sell.Lot.Remaining == 0 {
			book.Drop(sell)
		}
	}

	return trips, book.DrainOpen()
}

// closeTrip emits one round trip for qty units of the given lots.
//
// Commission is the undivided sum of both legs' commission: a lot split
// across several partial matches contributes its full commission to each
// of them (charged once per lot, not per share). Profit is rounded to two
// places, half away from zero, only here — never mid-computation.
func closeTrip(instrument string, buy, sell *domain.Lot, qty int64) *domain.MatchedRoundTrip {
	commission := buy.Exec.Commission.Add(sell.Exec.Commission)
	profit := sell.Exec.Price.Sub(buy.Exec.Price).
		Mul(decimal.NewFromInt(qty)).
		Sub(commission).
		Round(2)

	trip := &domain.MatchedRoundTrip{
		Instrument:      instrument,
		Quantity:        qty,
		BuyPrice:        buy.Exec.Price,
		SellPrice:       sell.Exec.Price,
		OpenedAt:        buy.Exec.Time,
		ClosedAt:        sell.Exec.Time,
		Commission:      commission,
		Profit:          profit,
		BuyExecutionID:  buy.Exec.ExecutionID,
		SellExecutionID: sell.Exec.ExecutionID,
	}

	// Duration is reported only when both legs carry a full instant. A
	// missing or unparsable date or time leaves it absent, not zero.
	if opened, ok := buy.Exec.Time.Instant(); ok {
		if closed, ok := sell.Exec.Time.Instant(); ok {
			minutes := int64(closed.Sub(opened).Minutes())
			trip.HoldMinutes = &minutes
		}
	}

	return trip
}
