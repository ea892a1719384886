package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/lotledger/lotledger/internal/domain"
)

// fill creates a dated execution with zero commission.
func fill(id, instrument string, side domain.Side, qty int64, price, day string) domain.RawExecution {
	return fillAt(id, instrument, side, qty, price, day, "")
}

// fillAt creates an execution with an explicit time-of-day.
func fillAt(id, instrument string, side domain.Side, qty int64, price, day, clock string) domain.RawExecution {
	return domain.RawExecution{
		Instrument:  instrument,
		Side:        side,
		Quantity:    qty,
		Price:       decimal.RequireFromString(price),
		Time:        domain.ParseTradeTime(day, clock),
		Commission:  decimal.Zero,
		ExecutionID: id,
	}
}

func withCommission(e domain.RawExecution, c string) domain.RawExecution {
	e.Commission = decimal.RequireFromString(c)
	return e
}

// runMatch executes a batch against a fresh engine and fails the test on error.
func runMatch(t *testing.T, execs []domain.RawExecution, carried []*domain.OpenLot) *domain.MatchingResult {
	t.Helper()
	result, err := New(2).Match(context.Background(), Batch{Executions: execs, Carried: carried})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return result
}

func wantDecimal(t *testing.T, got decimal.Decimal, want string, label string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("%s: expected %s, got %s", label, want, got)
	}
}

func TestMatch_PartialFillLeavesOpenLot(t *testing.T) {
	result := runMatch(t, []domain.RawExecution{
		fill("b1", "X", domain.SideBuy, 100, "10", "2024-01-01"),
		fill("b2", "X", domain.SideBuy, 50, "12", "2024-01-02"),
		fill("s1", "X", domain.SideSell, 120, "15", "2024-01-03"),
	}, nil)

	if len(result.Trips) != 2 {
		t.Fatalf("expected 2 round trips, got %d", len(result.Trips))
	}

	first := result.Trips[0]
	if first.Quantity != 100 || first.BuyExecutionID != "b1" || first.SellExecutionID != "s1" {
		t.Errorf("first trip should close b1 fully against s1: %+v", first)
	}
	wantDecimal(t, first.Profit, "500", "first trip profit")

	second := result.Trips[1]
	if second.Quantity != 20 || second.BuyExecutionID != "b2" {
		t.Errorf("second trip should close 20 units of b2: %+v", second)
	}
	wantDecimal(t, second.Profit, "60", "second trip profit")

	if len(result.OpenLots) != 1 {
		t.Fatalf("expected 1 open lot, got %d", len(result.OpenLots))
	}
	open := result.OpenLots[0]
	if open.Side != domain.SideBuy || open.Remaining != 30 || open.ExecutionID != "b2" {
		t.Errorf("expected open BUY lot of 30 from b2, got %+v", open)
	}
	wantDecimal(t, open.Price, "12", "open lot price")

	if result.TotalMatched != 2 || result.TotalUnmatched != 1 {
		t.Errorf("expected counts (2, 1), got (%d, %d)", result.TotalMatched, result.TotalUnmatched)
	}
	wantDecimal(t, result.NetProfit, "560", "net profit")
}

func TestMatch_ShortThenCover(t *testing.T) {
	result := runMatch(t, []domain.RawExecution{
		fill("s1", "X", domain.SideSell, 50, "20", "2024-01-01"),
		fill("b1", "X", domain.SideBuy, 50, "18", "2024-01-02"),
	}, nil)

	if len(result.Trips) != 1 {
		t.Fatalf("expected 1 round trip, got %d", len(result.Trips))
	}
	trip := result.Trips[0]
	if trip.BuyExecutionID != "b1" || trip.SellExecutionID != "s1" {
		t.Errorf("buy leg must be the BUY and sell leg the SELL: %+v", trip)
	}
	wantDecimal(t, trip.Profit, "100", "short cover profit")

	// Opening is always the buy leg, even when it is the later fill.
	if trip.OpenedAt.DayString() != "2024-01-02" || trip.ClosedAt.DayString() != "2024-01-01" {
		t.Errorf("expected opened 2024-01-02 / closed 2024-01-01, got %s / %s",
			trip.OpenedAt.DayString(), trip.ClosedAt.DayString())
	}
	if len(result.OpenLots) != 0 {
		t.Errorf("expected no open lots, got %d", len(result.OpenLots))
	}
}

func TestMatch_EmptyInput(t *testing.T) {
	result := runMatch(t, nil, nil)
	if len(result.Trips) != 0 || len(result.OpenLots) != 0 {
		t.Errorf("expected empty result, got %d trips, %d open lots", len(result.Trips), len(result.OpenLots))
	}
	if !result.NetProfit.IsZero() {
		t.Errorf("expected zero net profit, got %s", result.NetProfit)
	}
}

func TestMatch_ZeroQuantityFailsBatch(t *testing.T) {
	_, err := New(1).Match(context.Background(), Batch{Executions: []domain.RawExecution{
		fill("good", "X", domain.SideBuy, 10, "5", "2024-01-01"),
		fill("bad", "X", domain.SideSell, 0, "5", "2024-01-02"),
	}})
	if err == nil {
		t.Fatal("expected validation error")
	}
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *domain.ValidationError, got %T", err)
	}
	if verr.ExecutionID != "bad" {
		t.Errorf("error should identify execution 'bad', got %q", verr.ExecutionID)
	}
}

func TestMatch_FIFOOldestBuyFirst(t *testing.T) {
	result := runMatch(t, []domain.RawExecution{
		fill("b2", "X", domain.SideBuy, 10, "11", "2024-01-02"),
		fill("b1", "X", domain.SideBuy, 10, "10", "2024-01-01"),
		fill("s1", "X", domain.SideSell, 20, "12", "2024-01-03"),
	}, nil)

	if len(result.Trips) != 2 {
		t.Fatalf("expected 2 trips, got %d", len(result.Trips))
	}
	if result.Trips[0].BuyExecutionID != "b1" {
		t.Errorf("oldest buy must match first, got %s", result.Trips[0].BuyExecutionID)
	}
	if result.Trips[1].BuyExecutionID != "b2" {
		t.Errorf("second buy must match second, got %s", result.Trips[1].BuyExecutionID)
	}
}

func TestMatch_SameDayTieKeepsInputOrder(t *testing.T) {
	result := runMatch(t, []domain.RawExecution{
		fill("first", "X", domain.SideBuy, 5, "10", "2024-01-01"),
		fill("second", "X", domain.SideBuy, 5, "11", "2024-01-01"),
		fill("s1", "X", domain.SideSell, 5, "12", "2024-01-02"),
	}, nil)

	if len(result.Trips) != 1 {
		t.Fatalf("expected 1 trip, got %d", len(result.Trips))
	}
	if result.Trips[0].BuyExecutionID != "first" {
		t.Errorf("same-day lots must keep input order, got %s", result.Trips[0].BuyExecutionID)
	}
}

func TestMatch_CommissionChargedOncePerLot(t *testing.T) {
	result := runMatch(t, []domain.RawExecution{
		withCommission(fill("b1", "X", domain.SideBuy, 100, "10", "2024-01-01"), "2"),
		withCommission(fill("s1", "X", domain.SideSell, 60, "15", "2024-01-02"), "1"),
		withCommission(fill("s2", "X", domain.SideSell, 40, "15", "2024-01-03"), "1"),
	}, nil)

	if len(result.Trips) != 2 {
		t.Fatalf("expected 2 trips, got %d", len(result.Trips))
	}
	// The buy lot's full commission appears in both of its partial matches.
	wantDecimal(t, result.Trips[0].Commission, "3", "first trip commission")
	wantDecimal(t, result.Trips[0].Profit, "297", "first trip profit")
	wantDecimal(t, result.Trips[1].Commission, "3", "second trip commission")
	wantDecimal(t, result.Trips[1].Profit, "197", "second trip profit")
}

func TestMatch_ProfitRoundsHalfAwayFromZero(t *testing.T) {
	up := runMatch(t, []domain.RawExecution{
		fill("b", "X", domain.SideBuy, 1, "10.000", "2024-01-01"),
		fill("s", "X", domain.SideSell, 1, "10.505", "2024-01-02"),
	}, nil)
	wantDecimal(t, up.Trips[0].Profit, "0.51", "positive half rounds up")

	down := runMatch(t, []domain.RawExecution{
		fill("b", "X", domain.SideBuy, 1, "10.505", "2024-01-01"),
		fill("s", "X", domain.SideSell, 1, "10.000", "2024-01-02"),
	}, nil)
	wantDecimal(t, down.Trips[0].Profit, "-0.51", "negative half rounds away from zero")
}

func TestMatch_DurationPresentOnlyWithBothClocks(t *testing.T) {
	timed := runMatch(t, []domain.RawExecution{
		fillAt("b", "X", domain.SideBuy, 1, "10", "2024-01-01", "09:30:00"),
		fillAt("s", "X", domain.SideSell, 1, "11", "2024-01-01", "11:00:00"),
	}, nil)
	if timed.Trips[0].HoldMinutes == nil {
		t.Fatal("expected hold duration when both legs carry a time")
	}
	if *timed.Trips[0].HoldMinutes != 90 {
		t.Errorf("expected 90 minutes, got %d", *timed.Trips[0].HoldMinutes)
	}

	untimed := runMatch(t, []domain.RawExecution{
		fillAt("b", "X", domain.SideBuy, 1, "10", "2024-01-01", "09:30:00"),
		fill("s", "X", domain.SideSell, 1, "11", "2024-01-01"),
	}, nil)
	if untimed.Trips[0].HoldMinutes != nil {
		t.Errorf("expected absent duration, got %d", *untimed.Trips[0].HoldMinutes)
	}
}

func TestMatch_MalformedDateDegradesWithoutError(t *testing.T) {
	result := runMatch(t, []domain.RawExecution{
		fillAt("b", "X", domain.SideBuy, 1, "10", "not-a-date", "09:30:00"),
		fillAt("s", "X", domain.SideSell, 1, "11", "2024-01-01", "10:00:00"),
	}, nil)

	if len(result.Trips) != 1 {
		t.Fatalf("expected the batch to match despite the bad date, got %d trips", len(result.Trips))
	}
	if result.Trips[0].HoldMinutes != nil {
		t.Error("duration must be absent when a leg's date is unknown")
	}
}

func TestMatch_InstrumentsNeverCross(t *testing.T) {
	result := runMatch(t, []domain.RawExecution{
		fill("bx", "X", domain.SideBuy, 10, "10", "2024-01-01"),
		fill("sy", "Y", domain.SideSell, 10, "20", "2024-01-02"),
	}, nil)

	if len(result.Trips) != 0 {
		t.Fatalf("lots must never match across instruments, got %d trips", len(result.Trips))
	}
	if len(result.OpenLots) != 2 {
		t.Fatalf("expected 2 open lots, got %d", len(result.OpenLots))
	}
	// First-seen instrument order.
	if result.OpenLots[0].Instrument != "X" || result.OpenLots[1].Instrument != "Y" {
		t.Errorf("open lots must follow first-seen instrument order: %+v", result.OpenLots)
	}
}

func TestMatch_CarriedLotsContinueAcrossBatches(t *testing.T) {
	first := runMatch(t, []domain.RawExecution{
		fill("b1", "X", domain.SideBuy, 100, "10", "2024-01-01"),
		fill("s1", "X", domain.SideSell, 70, "12", "2024-01-02"),
	}, nil)
	if len(first.OpenLots) != 1 || first.OpenLots[0].Remaining != 30 {
		t.Fatalf("expected 30 units carried, got %+v", first.OpenLots)
	}

	second := runMatch(t, []domain.RawExecution{
		fill("s2", "X", domain.SideSell, 30, "14", "2024-01-05"),
	}, first.OpenLots)

	if len(second.Trips) != 1 {
		t.Fatalf("expected carried lot to close, got %d trips", len(second.Trips))
	}
	trip := second.Trips[0]
	if trip.BuyExecutionID != "b1" || trip.Quantity != 30 {
		t.Errorf("expected 30 units of b1 closed, got %+v", trip)
	}
	wantDecimal(t, trip.Profit, "120", "carried lot profit")
	if len(second.OpenLots) != 0 {
		t.Errorf("expected no inventory left, got %d", len(second.OpenLots))
	}
}

func TestMatch_CarriedLotsWinDateTies(t *testing.T) {
	carried := []*domain.OpenLot{{
		Instrument:  "X",
		Side:        domain.SideBuy,
		Time:        domain.ParseTradeTime("2024-01-05", ""),
		Price:       decimal.RequireFromString("10"),
		Remaining:   10,
		Commission:  decimal.Zero,
		ExecutionID: "carried",
	}}

	result := runMatch(t, []domain.RawExecution{
		fill("fresh", "X", domain.SideBuy, 10, "20", "2024-01-05"),
		fill("s1", "X", domain.SideSell, 10, "30", "2024-01-05"),
	}, carried)

	if len(result.Trips) != 1 {
		t.Fatalf("expected 1 trip, got %d", len(result.Trips))
	}
	if result.Trips[0].BuyExecutionID != "carried" {
		t.Errorf("carried inventory must be consumed before same-day batch lots, got %s",
			result.Trips[0].BuyExecutionID)
	}
}
