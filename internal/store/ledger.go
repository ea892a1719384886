package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/lotledger/lotledger/internal/domain"
)

// LedgerStore persists matching results per user.
//
// Round trips are keyed by (user_id, instrument, buy_execution_id,
// sell_execution_id) and upserted, so re-importing an overlapping batch
// overwrites rows instead of duplicating them. Open lots are keyed by
// (user_id, instrument, execution_id); since the engine's output open-lot
// set fully describes a user's inventory after a run, a save replaces the
// user's open lots wholesale.
type LedgerStore struct {
	db *DB
}

// NewLedgerStore creates a LedgerStore on the given database.
func NewLedgerStore(db *DB) *LedgerStore {
	return &LedgerStore{db: db}
}

// SaveImport writes one matching run's output in a single transaction:
// round trips are upserted and the user's open-lot inventory is replaced.
func (s *LedgerStore) SaveImport(ctx context.Context, userID string, result *domain.MatchingResult) error {
	tx, err := s.db.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	const upsertTrip = `
		INSERT INTO round_trips
		(user_id, instrument, buy_execution_id, sell_execution_id, quantity,
		 buy_price, sell_price, opened_day, opened_clock, closed_day, closed_clock,
		 commission, profit, hold_minutes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, instrument, buy_execution_id, sell_execution_id)
		DO UPDATE SET
			quantity = excluded.quantity,
			buy_price = excluded.buy_price,
			sell_price = excluded.sell_price,
			opened_day = excluded.opened_day,
			opened_clock = excluded.opened_clock,
			closed_day = excluded.closed_day,
			closed_clock = excluded.closed_clock,
			commission = excluded.commission,
			profit = excluded.profit,
			hold_minutes = excluded.hold_minutes`

	for _, trip := range result.Trips {
		_, err := tx.ExecContext(ctx, upsertTrip,
			userID, trip.Instrument, trip.BuyExecutionID, trip.SellExecutionID,
			trip.Quantity, trip.BuyPrice.String(), trip.SellPrice.String(),
			trip.OpenedAt.DayString(), nullClock(trip.OpenedAt),
			trip.ClosedAt.DayString(), nullClock(trip.ClosedAt),
			trip.Commission.String(), trip.Profit.String(), trip.HoldMinutes,
		)
		if err != nil {
			return fmt.Errorf("upsert round trip: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM open_lots WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear open lots: %w", err)
	}
	const insertLot = `
		INSERT INTO open_lots
		(user_id, instrument, execution_id, side, trade_day, trade_clock,
		 price, remaining, commission)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, lot := range result.OpenLots {
		_, err := tx.ExecContext(ctx, insertLot,
			userID, lot.Instrument, lot.ExecutionID, string(lot.Side),
			lot.Time.DayString(), nullClock(lot.Time),
			lot.Price.String(), lot.Remaining, lot.Commission.String(),
		)
		if err != nil {
			return fmt.Errorf("insert open lot: %w", err)
		}
	}

	return tx.Commit()
}

// ListTrips returns a user's round trips, newest closing day first, with
// 1-based pagination and an optional instrument filter (empty = all). The
// second return value is the total count before pagination.
func (s *LedgerStore) ListTrips(ctx context.Context, userID, instrument string, page, limit int) ([]*domain.MatchedRoundTrip, int, error) {
	where := `WHERE user_id = ?`
	args := []any{userID}
	if instrument != "" {
		where += ` AND instrument = ?`
		args = append(args, instrument)
	}

	var total int
	if err := s.db.sql.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM round_trips `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count round trips: %w", err)
	}

	query := `
		SELECT instrument, buy_execution_id, sell_execution_id, quantity,
		       buy_price, sell_price, opened_day, opened_clock,
		       closed_day, closed_clock, commission, profit, hold_minutes
		FROM round_trips ` + where + `
		ORDER BY closed_day DESC, rowid DESC
		LIMIT ? OFFSET ?`
	args = append(args, limit, (page-1)*limit)

	rows, err := s.db.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list round trips: %w", err)
	}
	defer rows.Close()

	trips := []*domain.MatchedRoundTrip{}
	for rows.Next() {
		var (
			t                        domain.MatchedRoundTrip
			buyPrice, sellPrice      string
			commission, profit       string
			openedDay, closedDay     string
			openedClock, closedClock sql.NullString
			holdMinutes              sql.NullInt64
		)
		err := rows.Scan(&t.Instrument, &t.BuyExecutionID, &t.SellExecutionID,
			&t.Quantity, &buyPrice, &sellPrice, &openedDay, &openedClock,
			&closedDay, &closedClock, &commission, &profit, &holdMinutes)
		if err != nil {
			return nil, 0, fmt.Errorf("scan round trip: %w", err)
		}
		if t.BuyPrice, err = decimal.NewFromString(buyPrice); err != nil {
			return nil, 0, fmt.Errorf("decode buy price: %w", err)
		}
		if t.SellPrice, err = decimal.NewFromString(sellPrice); err != nil {
			return nil, 0, fmt.Errorf("decode sell price: %w", err)
		}
		if t.Commission, err = decimal.NewFromString(commission); err != nil {
			return nil, 0, fmt.Errorf("decode commission: %w", err)
		}
		if t.Profit, err = decimal.NewFromString(profit); err != nil {
			return nil, 0, fmt.Errorf("decode profit: %w", err)
		}
		t.OpenedAt = domain.ParseTradeTime(openedDay, openedClock.String)
		t.ClosedAt = domain.ParseTradeTime(closedDay, closedClock.String)
		if holdMinutes.Valid {
			m := holdMinutes.Int64
			t.HoldMinutes = &m
		}
		trips = append(trips, &t)
	}
	return trips, total, rows.Err()
}

// ListOpenLots returns a user's open-lot inventory ordered by instrument,
// then trade day, then insertion order — the order the engine expects
// carried inventory in.
func (s *LedgerStore) ListOpenLots(ctx context.Context, userID string) ([]*domain.OpenLot, error) {
	rows, err := s.db.sql.QueryContext(ctx, `
		SELECT instrument, execution_id, side, trade_day, trade_clock,
		       price, remaining, commission
		FROM open_lots
		WHERE user_id = ?
		ORDER BY instrument, trade_day, rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("list open lots: %w", err)
	}
	defer rows.Close()

	lots := []*domain.OpenLot{}
	for rows.Next() {
		var (
			l                 domain.OpenLot
			side              string
			day               string
			clock             sql.NullString
			price, commission string
		)
		err := rows.Scan(&l.Instrument, &l.ExecutionID, &side, &day, &clock,
			&price, &l.Remaining, &commission)
		if err != nil {
			return nil, fmt.Errorf("scan open lot: %w", err)
		}
		l.Side = domain.Side(side)
		l.Time = domain.ParseTradeTime(day, clock.String)
		if l.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("decode price: %w", err)
		}
		if l.Commission, err = decimal.NewFromString(commission); err != nil {
			return nil, fmt.Errorf("decode commission: %w", err)
		}
		lots = append(lots, &l)
	}
	return lots, rows.Err()
}

// ProfitSummary returns the sum of a user's round-trip profits and the
// trip count. Profits are summed as decimals in Go — SQL aggregation over
// the TEXT column would go through floats.
func (s *LedgerStore) ProfitSummary(ctx context.Context, userID string) (decimal.Decimal, int, error) {
	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT profit FROM round_trips WHERE user_id = ?`, userID)
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("query profits: %w", err)
	}
	defer rows.Close()

	net := decimal.Zero
	count := 0
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return decimal.Zero, 0, fmt.Errorf("scan profit: %w", err)
		}
		p, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Zero, 0, fmt.Errorf("decode profit: %w", err)
		}
		net = net.Add(p)
		count++
	}
	return net.Round(2), count, rows.Err()
}

// nullClock renders a TradeTime's time-of-day as a nullable column value.
func nullClock(t domain.TradeTime) any {
	if !t.HasClock {
		return nil
	}
	return t.ClockString()
}
