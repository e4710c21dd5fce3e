package domain

import (
	"context"
	"strings"
	"time"
)

// Store selects the extraction strategy for a product page
type Store string

const (
	StoreZara     Store = "zara"
	StorePullBear Store = "pull&bear"
)

// ParseStore normalizes a configured store tag. Unknown tags are returned
// as-is so the poll loop can warn about them every cycle.
func ParseStore(tag string) Store {
	return Store(strings.ToLower(strings.TrimSpace(tag)))
}

// Supported reports whether an extraction strategy exists for the store
func (s Store) Supported() bool {
	switch s {
	case StoreZara, StorePullBear:
		return true
	}
	return false
}

// Product is a tracked product as declared in the configuration
type Product struct {
	URL         string  `json:"url"`
	TargetPrice float64 `json:"target_price"`
	Store       Store   `json:"store"`
}

// RawPrice is what a store page yields before parsing.
// List is empty when the page shows no crossed-out list price.
type RawPrice struct {
	Current      string
	List         string
	DecimalComma bool
}

// Observation is a parsed price reading for one product
type Observation struct {
	Current   float64
	ListPrice float64 // 0 when unknown
	At        time.Time
}

// EventKind tells which notification fired
type EventKind string

const (
	EventPriceDrop     EventKind = "price_drop"
	EventTargetReached EventKind = "target_reached"
)

// Event is a triggered notification
type Event struct {
	Kind            EventKind `json:"kind"`
	Product         Product   `json:"product"`
	CurrentPrice    float64   `json:"current_price"`
	OldPrice        float64   `json:"old_price,omitempty"`
	DiscountPercent float64   `json:"discount_percent,omitempty"`
	CrossedTarget   bool      `json:"crossed_target,omitempty"`
	At              time.Time `json:"at"`
}

// HasOldPrice reports whether an old price accompanies the event
func (e Event) HasOldPrice() bool {
	return e.OldPrice > 0
}

// Extractor defines the interface for reading a price off a product page
type Extractor interface {
	Extract(ctx context.Context, url string) (RawPrice, error)
}

// Notifier delivers a triggered event to the owner
type Notifier interface {
	Notify(ctx context.Context, e Event) error
}
