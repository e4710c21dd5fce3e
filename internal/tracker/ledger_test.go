package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qepting91/pricewatch/internal/domain"
)

func testProducts() []domain.Product {
	return []domain.Product{
		{URL: "https://shop.example/a", TargetPrice: 95, Store: domain.StoreZara},
		{URL: "https://shop.example/b", TargetPrice: 40, Store: domain.StorePullBear},
	}
}

func TestLedger_KeepsDeclarationOrder(t *testing.T) {
	l := NewLedger(testProducts())

	require.Equal(t, 2, l.Len())
	assert.Equal(t, "https://shop.example/a", l.Product(0).URL)
	assert.Equal(t, "https://shop.example/b", l.Product(1).URL)

	for _, e := range l.Snapshot() {
		_, _, ok := e.State.Last()
		assert.False(t, ok)
		assert.Empty(t, e.History)
	}
}

func TestLedger_Apply(t *testing.T) {
	l := NewLedger(testProducts())

	ev := l.Apply(0, domain.Observation{Current: 100, At: t0}, true)
	assert.Nil(t, ev)

	ev = l.Apply(0, domain.Observation{Current: 90, At: t0.Add(time.Minute)}, false)
	require.NotNil(t, ev)
	assert.Equal(t, domain.EventPriceDrop, ev.Kind)
	assert.Equal(t, l.Product(0), ev.Product)
	assert.Equal(t, 100.0, ev.OldPrice)

	snap := l.Snapshot()
	p, at, ok := snap[0].State.Last()
	require.True(t, ok)
	assert.Equal(t, 90.0, p)
	assert.Equal(t, t0.Add(time.Minute), at)
	assert.Len(t, snap[0].History, 2)

	_, _, ok = snap[1].State.Last()
	assert.False(t, ok, "other products are untouched")
}

func TestLedger_HistoryIsBounded(t *testing.T) {
	l := NewLedger(testProducts())
	l.historyLimit = 3

	for i := 0; i < 5; i++ {
		l.Apply(1, domain.Observation{Current: float64(50 + i), At: t0.Add(time.Duration(i) * time.Minute)}, false)
	}

	h := l.Snapshot()[1].History
	require.Len(t, h, 3)
	assert.Equal(t, 52.0, h[0].Price)
	assert.Equal(t, 54.0, h[2].Price)
}

func TestLedger_SnapshotIsACopy(t *testing.T) {
	l := NewLedger(testProducts())
	l.Apply(0, domain.Observation{Current: 100, At: t0}, true)

	snap := l.Snapshot()
	snap[0].History[0].Price = 1

	assert.Equal(t, 100.0, l.Snapshot()[0].History[0].Price)
}
