package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/qepting91/pricewatch/internal/domain"
	"github.com/qepting91/pricewatch/internal/price"
	"github.com/qepting91/pricewatch/internal/tracker"
)

// Options feeds the dashboard from the running monitor.
type Options struct {
	Ledger   *tracker.Ledger
	Running  func() bool
	Interval time.Duration
	Currency string
}

// ProductStatus is one row of the /status response.
type ProductStatus struct {
	URL          string       `json:"url"`
	Store        domain.Store `json:"store"`
	TargetPrice  float64      `json:"target_price"`
	LastPrice    *float64     `json:"last_price"`
	LastCheck    *time.Time   `json:"last_check"`
	Observations int          `json:"observations"`
}

// Status is the /status response.
type Status struct {
	Running       bool            `json:"running"`
	CheckInterval int             `json:"check_interval"`
	Products      []ProductStatus `json:"products"`
}

// NewHandler serves charts on /, a JSON snapshot on /status and Prometheus
// metrics on /metrics.
func NewHandler(o Options) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		renderCharts(w, o)
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(snapshot(o)); err != nil {
			slog.Error("Encoding status failed", "err", err)
		}
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// StartServer serves h on addr until ctx is cancelled.
func StartServer(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Dashboard shutdown failed", "err", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func snapshot(o Options) Status {
	st := Status{CheckInterval: int(o.Interval / time.Second)}
	if o.Running != nil {
		st.Running = o.Running()
	}
	for _, e := range o.Ledger.Snapshot() {
		ps := ProductStatus{
			URL:          e.Product.URL,
			Store:        e.Product.Store,
			TargetPrice:  e.Product.TargetPrice,
			Observations: len(e.History),
		}
		if p, at, ok := e.State.Last(); ok {
			ps.LastPrice = &p
			ps.LastCheck = &at
		}
		st.Products = append(st.Products, ps)
	}
	return st
}

func renderCharts(w http.ResponseWriter, o Options) {
	page := components.NewPage().SetPageTitle("pricewatch")

	for _, e := range o.Ledger.Snapshot() {
		if len(e.History) == 0 {
			continue
		}

		line := charts.NewLine()
		line.SetGlobalOptions(
			charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
			charts.WithTitleOpts(opts.Title{
				Title:    e.Product.URL,
				Subtitle: "Target " + price.Format2(e.Product.TargetPrice) + " " + o.Currency,
			}),
		)

		var x []string
		var prices, target []opts.LineData
		for _, pt := range e.History {
			x = append(x, pt.At.Format("01-02 15:04"))
			prices = append(prices, opts.LineData{Value: pt.Price})
			target = append(target, opts.LineData{Value: e.Product.TargetPrice})
		}
		line.SetXAxis(x).
			AddSeries("Price", prices).
			AddSeries("Target", target)
		page.AddCharts(line)
	}

	if len(page.Charts) == 0 {
		empty := charts.NewLine()
		empty.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "No observations yet"}))
		page.AddCharts(empty)
	}

	if err := page.Render(w); err != nil {
		slog.Error("Rendering charts failed", "err", err)
	}
}
