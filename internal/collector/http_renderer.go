package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// HTTPRenderer fetches pages without a browser. It only works for pages that
// render prices server-side, but needs no Chrome install.
type HTTPRenderer struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
}

func NewHTTPRenderer(userAgent string, minGap time.Duration) *HTTPRenderer {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &HTTPRenderer{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(minGap), 1),
		userAgent:  userAgent,
	}
}

// Render ignores ready selectors; the response is all there is.
func (hr *HTTPRenderer) Render(ctx context.Context, url string, _ ...string) (string, error) {
	if err := hr.limiter.Wait(ctx); err != nil {
		return "", err
	}

	// the request itself is not interrupted by shutdown
	req, err := http.NewRequestWithContext(context.WithoutCancel(ctx), http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", hr.userAgent)
	req.Header.Set("Accept-Language", "tr-TR,tr;q=0.9,en;q=0.8")

	resp, err := hr.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", url, err)
	}
	return string(body), nil
}
