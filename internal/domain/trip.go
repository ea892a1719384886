package domain

import "github.com/shopspring/decimal"

// MatchedRoundTrip is the closure of one buy lot against one sell lot for a
// partial or full quantity. Created once by the matcher, immutable after.
//
// Commission is the full commission of both legs. When a lot is split across
// several partial matches, each match carries the lot's whole commission —
// charged once per lot, not per share.
type MatchedRoundTrip struct {
	Instrument      string
	Quantity        int64
	BuyPrice        decimal.Decimal
	SellPrice       decimal.Decimal
	OpenedAt        TradeTime // buy leg
	ClosedAt        TradeTime // sell leg
	Commission      decimal.Decimal
	Profit          decimal.Decimal // rounded to 2 places at emission
	HoldMinutes     *int64          // nil unless both legs carry a full instant
	BuyExecutionID  string
	SellExecutionID string
}

// MatchingResult is the aggregate output of one matching run. Round trips
// appear in first-seen instrument order, then match order within each
// instrument; open lots likewise.
type MatchingResult struct {
	Trips          []*MatchedRoundTrip
	OpenLots       []*OpenLot
	TotalMatched   int
	TotalUnmatched int
	NetProfit      decimal.Decimal // sum of trip profits, rounded to 2 places
}
