// Package notify formats price events and delivers them by mail.
package notify

import (
	"fmt"
	"strings"

	"github.com/qepting91/pricewatch/internal/domain"
	"github.com/qepting91/pricewatch/internal/price"
)

const (
	SubjectPriceDrop     = "Price dropped! - Discount alert"
	SubjectTargetReached = "Target price reached! - Price alert"

	timeLayout = "2006-01-02 15:04:05"
)

// Message is a composed notification.
type Message struct {
	Subject string
	Body    string
}

// Compose renders the subject and plain-text body for an event.
func Compose(e domain.Event, currency string) Message {
	amount := func(v float64) string {
		if currency == "" {
			return price.Format2(v)
		}
		return price.Format2(v) + " " + currency
	}

	var lines []string
	var subject string
	switch e.Kind {
	case domain.EventPriceDrop:
		subject = SubjectPriceDrop
		lines = append(lines,
			"Product: "+e.Product.URL,
			"Current price: "+amount(e.CurrentPrice),
		)
		if e.HasOldPrice() {
			lines = append(lines,
				"Previous price: "+amount(e.OldPrice),
				fmt.Sprintf("Discount: %%%s", price.Format2(e.DiscountPercent)),
			)
		}
		if e.CrossedTarget {
			lines = append(lines, "Target price reached.")
		}
	default:
		subject = SubjectTargetReached
		lines = append(lines,
			"Product: "+e.Product.URL,
			"Current price: "+amount(e.CurrentPrice)+" (target price reached)",
		)
	}
	lines = append(lines,
		"Target price: "+amount(e.Product.TargetPrice),
		"Checked at: "+e.At.Format(timeLayout),
	)

	return Message{Subject: subject, Body: strings.Join(lines, "\n")}
}
