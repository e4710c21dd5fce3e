package collector

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/qepting91/pricewatch/internal/domain"
)

// MockExtractor implements domain.Extractor with a random walk per URL.
type MockExtractor struct {
	mu      sync.Mutex
	rng     *rand.Rand
	prices  map[string]float64
	latency time.Duration
}

func NewMockExtractor() *MockExtractor {
	return &MockExtractor{
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		prices:  make(map[string]float64),
		latency: 500 * time.Millisecond,
	}
}

func (mc *MockExtractor) Extract(ctx context.Context, url string) (domain.RawPrice, error) {
	select {
	case <-ctx.Done():
		return domain.RawPrice{}, ctx.Err()
	case <-time.After(mc.latency):
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	p, ok := mc.prices[url]
	if !ok {
		p = float64(100 + mc.rng.Intn(900))
	} else {
		p *= 1 + (mc.rng.Float64()*0.2 - 0.1) // +-10%
	}
	mc.prices[url] = p

	raw := domain.RawPrice{Current: fmt.Sprintf("%.2f TL", p)}
	if mc.rng.Intn(4) == 0 {
		raw.List = fmt.Sprintf("%.2f TL", p*1.25)
	}
	return raw, nil
}
