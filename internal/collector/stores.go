package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/qepting91/pricewatch/internal/domain"
)

// ErrPriceNotFound means the page loaded but no price element matched.
var ErrPriceNotFound = errors.New("price element not found")

const (
	zaraCurrentSelector = `span[data-qa-qualifier="price-amount-current"] .money-amount__main`
	zaraOldSelector     = `span[data-qa-qualifier="price-amount-old"] .money-amount__main`

	pullBearCurrentSelector  = `.price-current-price`
	pullBearFallbackSelector = `.price span`
)

// PageParser reads a price off rendered HTML.
type PageParser func(html string) (domain.RawPrice, error)

// StoreExtractor renders a page and applies a store-specific parser.
type StoreExtractor struct {
	store    domain.Store
	renderer Renderer
	ready    []string
	parse    PageParser
}

// NewZara waits for either price element and prefers the discounted one.
func NewZara(r Renderer) *StoreExtractor {
	return &StoreExtractor{
		store:    domain.StoreZara,
		renderer: r,
		ready:    []string{zaraCurrentSelector, zaraOldSelector},
		parse:    ParseZara,
	}
}

// NewPullBear reads the single current price.
func NewPullBear(r Renderer) *StoreExtractor {
	return &StoreExtractor{
		store:    domain.StorePullBear,
		renderer: r,
		ready:    []string{pullBearCurrentSelector, pullBearFallbackSelector},
		parse:    ParsePullBear,
	}
}

func (e *StoreExtractor) Extract(ctx context.Context, url string) (domain.RawPrice, error) {
	html, err := e.renderer.Render(ctx, url, e.ready...)
	if err != nil {
		return domain.RawPrice{}, fmt.Errorf("%s: %w", e.store, err)
	}
	raw, err := e.parse(html)
	if err != nil {
		return domain.RawPrice{}, fmt.Errorf("%s %s: %w", e.store, url, err)
	}
	return raw, nil
}

// ParseZara returns the discounted price with the crossed-out list price,
// or the regular price alone when the product is not on sale.
func ParseZara(html string) (domain.RawPrice, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return domain.RawPrice{}, err
	}
	current := firstText(doc, zaraCurrentSelector)
	old := firstText(doc, zaraOldSelector)

	switch {
	case current != "":
		return domain.RawPrice{Current: current, List: old, DecimalComma: true}, nil
	case old != "":
		return domain.RawPrice{Current: old, DecimalComma: true}, nil
	}
	return domain.RawPrice{}, ErrPriceNotFound
}

// ParsePullBear tries the current-price element, then the generic price span.
func ParsePullBear(html string) (domain.RawPrice, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return domain.RawPrice{}, err
	}
	for _, sel := range []string{pullBearCurrentSelector, pullBearFallbackSelector} {
		if text := firstText(doc, sel); text != "" {
			return domain.RawPrice{Current: text, DecimalComma: true}, nil
		}
	}
	return domain.RawPrice{}, ErrPriceNotFound
}

func firstText(doc *goquery.Document, selector string) string {
	return strings.TrimSpace(doc.Find(selector).First().Text())
}
