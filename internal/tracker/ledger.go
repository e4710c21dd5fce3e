package tracker

import (
	"sync"
	"time"

	"github.com/qepting91/pricewatch/internal/domain"
)

// DefaultHistoryLimit bounds the per-product history kept for the dashboard.
const DefaultHistoryLimit = 500

// Point is one entry of a product's price history.
type Point struct {
	Price float64   `json:"price"`
	At    time.Time `json:"at"`
}

// Entry is a copy of one ledger row.
type Entry struct {
	Product domain.Product
	State   State
	History []Point
}

// Ledger is the ordered set of tracked products. The checking loop is its
// only writer; the mutex lets the dashboard read snapshots.
type Ledger struct {
	mu           sync.RWMutex
	entries      []Entry
	historyLimit int
}

// NewLedger keeps products in declaration order.
func NewLedger(products []domain.Product) *Ledger {
	entries := make([]Entry, len(products))
	for i, p := range products {
		entries[i] = Entry{Product: p, State: Unobserved()}
	}
	return &Ledger{entries: entries, historyLimit: DefaultHistoryLimit}
}

// Len returns the number of tracked products.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Product returns the i-th product.
func (l *Ledger) Product(i int) domain.Product {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.entries[i].Product
}

// Apply evaluates an observation for the i-th product, stores the new state
// and returns the event to send, if any.
func (l *Ledger) Apply(i int, obs domain.Observation, firstPass bool) *domain.Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := &l.entries[i]
	out := Evaluate(Input{
		State:     e.State,
		Target:    e.Product.TargetPrice,
		Current:   obs.Current,
		ListPrice: obs.ListPrice,
		FirstPass: firstPass,
		Now:       obs.At,
	})
	e.State = out.State
	e.History = append(e.History, Point{Price: obs.Current, At: obs.At})
	if over := len(e.History) - l.historyLimit; over > 0 {
		e.History = append([]Point(nil), e.History[over:]...)
	}

	if out.Event != nil {
		out.Event.Product = e.Product
	}
	return out.Event
}

// Snapshot copies every entry in order.
func (l *Ledger) Snapshot() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Entry, len(l.entries))
	for i, e := range l.entries {
		out[i] = Entry{
			Product: e.Product,
			State:   e.State,
			History: append([]Point(nil), e.History...),
		}
	}
	return out
}
