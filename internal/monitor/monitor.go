// Package monitor runs the polling loop: check every tracked product in
// order, sleep, repeat until the context is cancelled.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/qepting91/pricewatch/internal/domain"
	"github.com/qepting91/pricewatch/internal/metrics"
	"github.com/qepting91/pricewatch/internal/price"
	"github.com/qepting91/pricewatch/internal/storage"
	"github.com/qepting91/pricewatch/internal/tracker"
)

var (
	errUnsupportedStore = errors.New("unsupported store")
	errNonPositivePrice = errors.New("non-positive price")
)

// Config wires the loop. Browser and Journal are optional.
type Config struct {
	Ledger     *tracker.Ledger
	Extractors map[domain.Store]domain.Extractor
	Notifier   domain.Notifier
	Browser    io.Closer
	Journal    chan<- storage.Record
	Interval   time.Duration
}

type Monitor struct {
	cfg       Config
	now       func() time.Time
	running   atomic.Bool
	closeOnce sync.Once
}

func New(cfg Config) *Monitor {
	return &Monitor{cfg: cfg, now: time.Now}
}

// Running reports whether Run is in progress.
func (m *Monitor) Running() bool {
	return m.running.Load()
}

// Run blocks until ctx is cancelled. Cancellation is seen between products,
// while sleeping and by extractors still waiting to navigate; a page fetch
// or notification already under way is finished. The browser is released
// exactly once on return.
func (m *Monitor) Run(ctx context.Context) error {
	m.running.Store(true)
	defer m.running.Store(false)
	defer m.release()

	slog.Info("Price monitoring started", "products", m.cfg.Ledger.Len(), "interval", m.cfg.Interval)

	firstPass := true
	for {
		for i := 0; i < m.cfg.Ledger.Len(); i++ {
			if ctx.Err() != nil {
				slog.Info("Price monitoring stopped")
				return nil
			}
			m.check(ctx, i, firstPass)
		}
		firstPass = false
		metrics.CyclesTotal.Inc()

		slog.Info("Waiting for next cycle", "interval", m.cfg.Interval)
		timer := time.NewTimer(m.cfg.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			slog.Info("Price monitoring stopped")
			return nil
		case <-timer.C:
		}
	}
}

func (m *Monitor) check(ctx context.Context, i int, firstPass bool) {
	p := m.cfg.Ledger.Product(i)
	log := slog.With("url", p.URL, "store", p.Store)
	log.Info("Checking product")

	start := m.now()

	obs, err := m.observe(ctx, p)
	metrics.RecordCheck(string(p.Store), status(err), time.Since(start).Seconds())
	if err != nil {
		log.Warn("Price not available", "err", err)
		m.journal(storage.Record{Kind: storage.KindFailure, At: start, URL: p.URL, Store: p.Store, Error: err.Error()})
		return
	}

	ev := m.cfg.Ledger.Apply(i, obs, firstPass)
	metrics.LastPrice.WithLabelValues(p.URL).Set(obs.Current)
	log.Info("Price observed", "current", obs.Current, "list", obs.ListPrice, "target", p.TargetPrice)
	m.journal(storage.Record{Kind: storage.KindObservation, At: obs.At, URL: p.URL, Store: p.Store, Price: obs.Current, ListPrice: obs.ListPrice})

	if ev == nil {
		return
	}
	log.Info("Price event", "kind", ev.Kind, "current", ev.CurrentPrice, "old", ev.OldPrice, "discount", ev.DiscountPercent)
	m.journal(storage.Record{Kind: storage.KindEvent, At: ev.At, URL: p.URL, Store: p.Store, Price: ev.CurrentPrice, Event: ev})

	if err := m.cfg.Notifier.Notify(context.WithoutCancel(ctx), *ev); err != nil {
		log.Error("Notification failed", "kind", ev.Kind, "err", err)
		metrics.RecordNotification(string(ev.Kind), "failed")
		return
	}
	metrics.RecordNotification(string(ev.Kind), "sent")
}

// observe extracts and parses the price of one product.
func (m *Monitor) observe(ctx context.Context, p domain.Product) (domain.Observation, error) {
	ex, ok := m.cfg.Extractors[p.Store]
	if !ok || !p.Store.Supported() {
		return domain.Observation{}, fmt.Errorf("%w: %q", errUnsupportedStore, p.Store)
	}

	raw, err := ex.Extract(ctx, p.URL)
	if err != nil {
		return domain.Observation{}, err
	}

	format := price.DotDecimal
	if raw.DecimalComma {
		format = price.CommaDecimal
	}

	current, err := price.Parse(raw.Current, format)
	if err != nil {
		return domain.Observation{}, err
	}
	if current <= 0 {
		return domain.Observation{}, fmt.Errorf("%w: %q", errNonPositivePrice, raw.Current)
	}

	obs := domain.Observation{Current: current, At: m.now()}
	if raw.List != "" {
		list, err := price.Parse(raw.List, format)
		if err != nil {
			slog.Warn("List price ignored", "url", p.URL, "raw", raw.List, "err", err)
		} else {
			obs.ListPrice = list
		}
	}
	return obs, nil
}

func (m *Monitor) journal(r storage.Record) {
	if m.cfg.Journal != nil {
		m.cfg.Journal <- r
	}
}

func (m *Monitor) release() {
	m.closeOnce.Do(func() {
		if m.cfg.Browser == nil {
			return
		}
		if err := m.cfg.Browser.Close(); err != nil {
			slog.Error("Closing browser failed", "err", err)
		}
	})
}

func status(err error) string {
	var perr *price.ParseError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, errUnsupportedStore):
		return "unsupported"
	case errors.As(err, &perr), errors.Is(err, errNonPositivePrice):
		return "parse_error"
	default:
		return "extract_error"
	}
}
