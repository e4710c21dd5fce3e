// Package tracker holds the in-memory product ledger and decides when a
// price change is worth a notification.
package tracker

import (
	"time"

	"github.com/qepting91/pricewatch/internal/domain"
	"github.com/qepting91/pricewatch/internal/price"
)

// State is either unobserved or the last observed price with its time.
type State struct {
	observed bool
	price    float64
	at       time.Time
}

// Unobserved is the state of a product before its first successful check.
func Unobserved() State { return State{} }

// Observed records a successful check.
func Observed(p float64, at time.Time) State {
	return State{observed: true, price: p, at: at}
}

// Last returns the last observed price and check time.
func (s State) Last() (p float64, at time.Time, ok bool) {
	return s.price, s.at, s.observed
}

// Input is everything the evaluator looks at for one check.
type Input struct {
	State     State
	Target    float64
	Current   float64
	ListPrice float64 // 0 when the page shows none
	FirstPass bool
	Now       time.Time
}

// Outcome is the next state plus the event to send, if any.
// Event.Product is left for the caller to fill in.
type Outcome struct {
	State State
	Event *domain.Event
}

// Evaluate applies one successful observation to a product state.
// A drop wins over a target crossing; the target event is edge-triggered.
// Any reading that crosses the target from above is also lower than the last
// price, so crossings surface as drops with CrossedTarget set.
func Evaluate(in Input) Outcome {
	out := Outcome{State: Observed(in.Current, in.Now)}

	last, _, ok := in.State.Last()
	if !ok {
		if in.FirstPass && in.ListPrice > in.Current {
			out.Event = dropEvent(in.Current, in.ListPrice, in.Now)
		}
		return out
	}

	switch {
	case in.Current < last:
		out.Event = dropEvent(in.Current, last, in.Now)
		out.Event.CrossedTarget = in.Current <= in.Target && last > in.Target
	case in.Current <= in.Target && last > in.Target:
		out.Event = &domain.Event{
			Kind:         domain.EventTargetReached,
			CurrentPrice: in.Current,
			OldPrice:     in.ListPrice,
			At:           in.Now,
		}
	}
	return out
}

func dropEvent(current, old float64, now time.Time) *domain.Event {
	return &domain.Event{
		Kind:            domain.EventPriceDrop,
		CurrentPrice:    current,
		OldPrice:        old,
		DiscountPercent: price.DiscountPercent(old, current),
		At:              now,
	}
}
