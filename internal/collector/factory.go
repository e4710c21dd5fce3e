package collector

import (
	"fmt"
	"io"
	"os"

	"github.com/qepting91/pricewatch/internal/domain"
)

// ForStores binds every supported store to its strategy over one renderer.
func ForStores(r Renderer) map[domain.Store]domain.Extractor {
	return map[domain.Store]domain.Extractor{
		domain.StoreZara:     NewZara(r),
		domain.StorePullBear: NewPullBear(r),
	}
}

// NewExtractors selects the implementation based on EXTRACTOR_MODE.
// The returned closer owns the browser, if one was started, and may be nil.
func NewExtractors(cfg SessionConfig) (map[domain.Store]domain.Extractor, io.Closer, error) {
	mode := os.Getenv("EXTRACTOR_MODE")

	switch mode {
	case "", "browser":
		if bin := os.Getenv("CHROME_BIN"); bin != "" {
			cfg.BrowserBin = bin
		}
		s, err := NewSession(cfg)
		if err != nil {
			return nil, nil, err
		}
		return ForStores(s), s, nil
	case "http":
		return ForStores(NewHTTPRenderer(cfg.UserAgent, cfg.MinGap)), nil, nil
	case "mock":
		m := NewMockExtractor()
		return map[domain.Store]domain.Extractor{
			domain.StoreZara:     m,
			domain.StorePullBear: m,
		}, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown EXTRACTOR_MODE: %s (use 'browser', 'http', or 'mock')", mode)
	}
}
