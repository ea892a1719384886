package engine

import (
	"github.com/google/btree"

	"github.com/lotledger/lotledger/internal/domain"
)

// LotEntry is a single lot resting on one side of a LotBook.
type LotEntry struct {
	Seq int64 // insertion order within the run; unique per book
	Lot *domain.Lot
}

// lotLess orders a side by trade day ascending, then insertion sequence.
// The sequence tiebreak is what makes the ordering a stable sort of the
// input: same-day lots (and lots whose day is unknown, which carry a zero
// day and therefore sort first) keep their relative input order. Seq is
// unique, so the order is total.
func lotLess(a, b LotEntry) bool {
	if !a.Lot.Exec.Time.Day.Equal(b.Lot.Exec.Time.Day) {
		return a.Lot.Exec.Time.Day.Before(b.Lot.Exec.Time.Day)
	}
	return a.Seq < b.Seq
}

// LotBook holds the buy and sell lot queues for one instrument in FIFO
// priority: oldest trade day first, input order within a day. Min() of a
// side is the front of that queue. A book belongs to a single matching run
// and a single goroutine, so it carries no lock.
type LotBook struct {
	instrument string
	buys       *btree.BTreeG[LotEntry]
	sells      *btree.BTreeG[LotEntry]
	seq        int64
}

// NewLotBook creates an empty book for the given instrument.
func NewLotBook(instrument string) *LotBook {
	const degree = 32
	return &LotBook{
		instrument: instrument,
		buys:       btree.NewG[LotEntry](degree, lotLess),
		sells:      btree.NewG[LotEntry](degree, lotLess),
	}
}

// Push enqueues a lot on the side given by its execution, assigning the
// next sequence number. Carried-over inventory must be pushed before the
// new batch so it wins date ties.
func (lb *LotBook) Push(l *domain.Lot) {
	entry := LotEntry{Seq: lb.seq, Lot: l}
	lb.seq++
	if l.Exec.Side == domain.SideBuy {
		lb.buys.ReplaceOrInsert(entry)
	} else {
		lb.sells.ReplaceOrInsert(entry)
	}
}

// OldestBuy returns the front of the buy queue.
func (lb *LotBook) OldestBuy() (LotEntry, bool) {
	return lb.buys.Min()
}

// OldestSell returns the front of the sell queue.
func (lb *LotBook) OldestSell() (LotEntry, bool) {
	return lb.sells.Min()
}

// Drop removes an entry from its side of the book. Mutating a lot's
// remaining quantity does not move it in the tree — the keys are day and
// sequence — so eviction is the only structural change during matching.
func (lb *LotBook) Drop(e LotEntry) {
	if e.Lot.Exec.Side == domain.SideBuy {
		lb.buys.Delete(e)
	} else {
		lb.sells.Delete(e)
	}
}

// BuyCount returns the number of lots resting on the buy side.
func (lb *LotBook) BuyCount() int {
	return lb.buys.Len()
}

// SellCount returns the number of lots resting on the sell side.
func (lb *LotBook) SellCount() int {
	return lb.sells.Len()
}

// DrainOpen converts every lot still resting on the book into an OpenLot,
// buys first, each side in queue order. Lots are not merged even when they
// share a date and price.
func (lb *LotBook) DrainOpen() []*domain.OpenLot {
	open := make([]*domain.OpenLot, 0, lb.buys.Len()+lb.sells.Len())
	collect := func(e LotEntry) bool {
		if e.Lot.Remaining > 0 {
			open = append(open, &domain.OpenLot{
				Instrument:  lb.instrument,
				Side:        e.Lot.Exec.Side,
				Time:        e.Lot.Exec.Time,
				Price:       e.Lot.Exec.Price,
				Remaining:   e.Lot.Remaining,
				Commission:  e.Lot.Exec.Commission,
				ExecutionID: e.Lot.Exec.ExecutionID,
			})
		}
		return true
	}
	lb.buys.Ascend(collect)
	lb.sells.Ascend(collect)
	return open
}
