// Package engine reduces a trader's raw buy/sell executions to closed round
// trips and remaining open inventory using strict chronological FIFO lot
// accounting. The engine is a pure function of its input: it performs no
// I/O, holds no state across runs, and produces byte-identical results for
// identical batches.
package engine

import (
	"context"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/lotledger/lotledger/internal/domain"
)

// Batch is one matching invocation's input: a single user's raw executions
// plus the open lots carried over from a previous run. Carried lots are
// treated as older than the new batch on date ties — they are genuinely
// older unresolved inventory. The batch must belong to exactly one user;
// multi-user input has to be pre-split by the caller.
type Batch struct {
	Executions []domain.RawExecution
	Carried    []*domain.OpenLot
}

// Engine runs FIFO lot matching. Instruments are independent, so a run fans
// out across at most `workers` goroutines; aggregation order stays fixed at
// first-seen instrument order regardless of completion order.
type Engine struct {
	workers int
}

// New creates an Engine that matches up to workers instruments concurrently.
func New(workers int) *Engine {
	if workers < 1 {
		workers = 1
	}
	return &Engine{workers: workers}
}

// Match validates the batch, partitions it by instrument, matches each
// instrument's lot queues, and aggregates the results.
//
// Validation is all-or-nothing: the first contract violation fails the run
// with a *domain.ValidationError naming the offending execution, and no
// partial result is returned. Unparsable dates and times are not errors —
// they only degrade sorting to input order and suppress durations.
func (e *Engine) Match(ctx context.Context, batch Batch) (*domain.MatchingResult, error) {
	for i := range batch.Executions {
		if err := batch.Executions[i].Validate(i); err != nil {
			return nil, err
		}
	}

	books := make(map[string]*LotBook)
	var order []string
	ensure := func(instrument string) *LotBook {
		book, ok := books[instrument]
		if !ok {
			book = NewLotBook(instrument)
			books[instrument] = book
			order = append(order, instrument)
		}
		return book
	}

	// Carried-over inventory is enqueued first so it wins date ties against
	// the new batch.
	for _, lot := range batch.Carried {
		ensure(lot.Instrument).Push(&domain.Lot{
			Exec:      lot.Execution(),
			Remaining: lot.Remaining,
		})
	}

	part := partitionByInstrument(batch.Executions)
	for _, instrument := range part.order {
		book := ensure(instrument)
		for _, exec := range part.byInstrument[instrument] {
			book.Push(&domain.Lot{Exec: exec, Remaining: exec.Quantity})
		}
	}

	type instrumentResult struct {
		trips []*domain.MatchedRoundTrip
		open  []*domain.OpenLot
	}
	results := make([]instrumentResult, len(order))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, instrument := range order {
		i := i
		book := books[instrument]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			trips, open := matchInstrument(book)
			results[i] = instrumentResult{trips: trips, open: open}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &domain.MatchingResult{
		Trips:    []*domain.MatchedRoundTrip{},
		OpenLots: []*domain.OpenLot{},
	}
	for _, r := range results {
		result.Trips = append(result.Trips, r.trips...)
		result.OpenLots = append(result.OpenLots, r.open...)
	}
	result.TotalMatched = len(result.Trips)
	result.TotalUnmatched = len(result.OpenLots)

	net := decimal.Zero
	for _, trip := range result.Trips {
		net = net.Add(trip.Profit)
	}
	result.NetProfit = net.Round(2)

	return result, nil
}
