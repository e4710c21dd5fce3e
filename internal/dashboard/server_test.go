package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qepting91/pricewatch/internal/domain"
	"github.com/qepting91/pricewatch/internal/tracker"
)

func testLedger() *tracker.Ledger {
	l := tracker.NewLedger([]domain.Product{
		{URL: "https://shop.example/a", TargetPrice: 95, Store: domain.StoreZara},
		{URL: "https://shop.example/b", TargetPrice: 40, Store: domain.StorePullBear},
	})
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	l.Apply(0, domain.Observation{Current: 100, At: at}, true)
	l.Apply(0, domain.Observation{Current: 97.5, At: at.Add(5 * time.Minute)}, false)
	return l
}

func TestStatusEndpoint(t *testing.T) {
	h := NewHandler(Options{
		Ledger:   testLedger(),
		Running:  func() bool { return true },
		Interval: 300 * time.Second,
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var st Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.True(t, st.Running)
	assert.Equal(t, 300, st.CheckInterval)
	require.Len(t, st.Products, 2)

	a := st.Products[0]
	assert.Equal(t, "https://shop.example/a", a.URL)
	require.NotNil(t, a.LastPrice)
	assert.Equal(t, 97.5, *a.LastPrice)
	require.NotNil(t, a.LastCheck)
	assert.Equal(t, 2, a.Observations)

	b := st.Products[1]
	assert.Equal(t, domain.StorePullBear, b.Store)
	assert.Nil(t, b.LastPrice)
	assert.Nil(t, b.LastCheck)
}

func TestChartsEndpoint(t *testing.T) {
	for name, ledger := range map[string]*tracker.Ledger{
		"with history": testLedger(),
		"empty":        tracker.NewLedger([]domain.Product{{URL: "u", TargetPrice: 1, Store: domain.StoreZara}}),
	} {
		t.Run(name, func(t *testing.T) {
			h := NewHandler(Options{Ledger: ledger, Currency: "TL"})
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), "echarts")
		})
	}
}

func TestChartsEndpoint_SingleDocument(t *testing.T) {
	ledger := testLedger()
	ledger.Apply(1, domain.Observation{Current: 45, At: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}, true)

	h := NewHandler(Options{Ledger: ledger, Currency: "TL"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Equal(t, 1, strings.Count(body, "<html"))
	assert.Equal(t, 1, strings.Count(body, "</html>"))
	assert.Contains(t, body, "https://shop.example/a")
	assert.Contains(t, body, "https://shop.example/b")
	assert.Contains(t, body, "westeros")
}

func TestUnknownPath(t *testing.T) {
	h := NewHandler(Options{Ledger: testLedger()})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/favicon.ico", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := NewHandler(Options{Ledger: testLedger()})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestStartServer_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- StartServer(ctx, "127.0.0.1:0", http.NotFoundHandler()) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
