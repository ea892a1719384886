package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/lotledger/lotledger/internal/domain"
	"github.com/lotledger/lotledger/internal/store"
)

// OpenPosition is a user's aggregated open inventory for one instrument.
type OpenPosition struct {
	Instrument string
	Side       domain.Side
	Quantity   int64
}

// Summary is the per-user ledger overview.
type Summary struct {
	UserID        string
	TotalTrips    int
	NetProfit     decimal.Decimal
	OpenPositions []OpenPosition
}

// LedgerService is the read side of the ledger: round trips, open lots,
// and the per-user summary. Unknown users simply have empty ledgers.
type LedgerService struct {
	ledger *store.LedgerStore
}

// NewLedgerService creates a LedgerService on the given store.
func NewLedgerService(ledger *store.LedgerStore) *LedgerService {
	return &LedgerService{ledger: ledger}
}

// RoundTrips returns a page of the user's round trips, newest first, with
// an optional instrument filter. Page and limit are clamped to sane values.
func (s *LedgerService) RoundTrips(ctx context.Context, userID, instrument string, page, limit int) ([]*domain.MatchedRoundTrip, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	return s.ledger.ListTrips(ctx, userID, instrument, page, limit)
}

// OpenLots returns the user's open-lot inventory.
func (s *LedgerService) OpenLots(ctx context.Context, userID string) ([]*domain.OpenLot, error) {
	return s.ledger.ListOpenLots(ctx, userID)
}

// Summarize folds the user's ledger into totals: trip count, net realized
// profit, and open inventory aggregated per instrument and side.
func (s *LedgerService) Summarize(ctx context.Context, userID string) (*Summary, error) {
	net, count, err := s.ledger.ProfitSummary(ctx, userID)
	if err != nil {
		return nil, err
	}

	lots, err := s.ledger.ListOpenLots(ctx, userID)
	if err != nil {
		return nil, err
	}

	type key struct {
		instrument string
		side       domain.Side
	}
	totals := make(map[key]int64)
	var order []key
	for _, lot := range lots {
		k := key{lot.Instrument, lot.Side}
		if _, ok := totals[k]; !ok {
			order = append(order, k)
		}
		totals[k] += lot.Remaining
	}

	positions := make([]OpenPosition, 0, len(order))
	for _, k := range order {
		positions = append(positions, OpenPosition{
			Instrument: k.instrument,
			Side:       k.side,
			Quantity:   totals[k],
		})
	}

	return &Summary{
		UserID:        userID,
		TotalTrips:    count,
		NetProfit:     net,
		OpenPositions: positions,
	}, nil
}
