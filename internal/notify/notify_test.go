package notify

import (
	"context"
	"errors"
	"net/textproto"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qepting91/pricewatch/internal/domain"
)

var checkedAt = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

func product() domain.Product {
	return domain.Product{URL: "https://www.zara.com/tr/en/coat-p1.html", TargetPrice: 1500, Store: domain.StoreZara}
}

func TestCompose_PriceDrop(t *testing.T) {
	msg := Compose(domain.Event{
		Kind:            domain.EventPriceDrop,
		Product:         product(),
		CurrentPrice:    1599.95,
		OldPrice:        1999.95,
		DiscountPercent: 20.0,
		At:              checkedAt,
	}, "TL")

	assert.Equal(t, SubjectPriceDrop, msg.Subject)
	assert.Equal(t, `Product: https://www.zara.com/tr/en/coat-p1.html
Current price: 1599.95 TL
Previous price: 1999.95 TL
Discount: %20.00
Target price: 1500.00 TL
Checked at: 2025-03-01 09:30:00`, msg.Body)
}

func TestCompose_PriceDropWithoutOldPrice(t *testing.T) {
	msg := Compose(domain.Event{Kind: domain.EventPriceDrop, Product: product(), CurrentPrice: 100, At: checkedAt}, "TL")

	assert.NotContains(t, msg.Body, "Previous price")
	assert.NotContains(t, msg.Body, "Discount")
}

func TestCompose_PriceDropCrossingTarget(t *testing.T) {
	msg := Compose(domain.Event{
		Kind: domain.EventPriceDrop, Product: product(), CurrentPrice: 1400, OldPrice: 1600,
		DiscountPercent: 12.5, CrossedTarget: true, At: checkedAt,
	}, "TL")

	assert.Contains(t, msg.Body, "Discount: %12.50")
	assert.Contains(t, msg.Body, "Target price reached.")
}

func TestCompose_TargetReached(t *testing.T) {
	msg := Compose(domain.Event{
		Kind: domain.EventTargetReached, Product: product(), CurrentPrice: 1450, OldPrice: 1999.95, At: checkedAt,
	}, "")

	assert.Equal(t, SubjectTargetReached, msg.Subject)
	assert.Equal(t, `Product: https://www.zara.com/tr/en/coat-p1.html
Current price: 1450.00 (target price reached)
Target price: 1500.00
Checked at: 2025-03-01 09:30:00`, msg.Body)
}

func TestMailer_Failures(t *testing.T) {
	ev := domain.Event{Kind: domain.EventPriceDrop, Product: product(), CurrentPrice: 10, At: checkedAt}

	t.Run("bad sender address", func(t *testing.T) {
		err := NewMailer(MailerConfig{Address: "not an address"}).Notify(context.Background(), ev)
		assert.ErrorContains(t, err, "sender address")
	})

	t.Run("unreachable server", func(t *testing.T) {
		m := NewMailer(MailerConfig{
			Host:     "127.0.0.1",
			Port:     1,
			Address:  "owner@example.com",
			Password: "secret",
			Timeout:  2 * time.Second,
		})
		err := m.Notify(context.Background(), ev)
		assert.ErrorContains(t, err, "notify: send")
	})
}

func TestIsAuthError(t *testing.T) {
	assert.True(t, isAuthError(&textproto.Error{Code: 535, Msg: "5.7.8 Username and Password not accepted"}))
	assert.True(t, isAuthError(errors.New("smtp: Authentication failed")))
	assert.False(t, isAuthError(errors.New("dial tcp: connection refused")))
}

func TestLogNotifier(t *testing.T) {
	err := LogNotifier{Currency: "TL"}.Notify(context.Background(), domain.Event{Kind: domain.EventTargetReached, Product: product()})
	require.NoError(t, err)
}
