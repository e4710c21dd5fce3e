package ingest

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/qepting91/pricewatch/internal/domain"
)

const (
	DefaultCheckInterval = 300 * time.Second
	DefaultCurrency      = "TL"
)

// ErrNoProducts is returned when no product declaration survives validation.
var ErrNoProducts = errors.New("no valid products configured")

// Config is the validated run configuration.
type Config struct {
	Email         string
	AppPassword   string
	CheckInterval time.Duration
	Currency      string
	Products      []domain.Product
}

type rawConfig struct {
	Email         string            `json:"email"`
	AppPassword   string            `json:"app_password"`
	CheckInterval float64           `json:"check_interval"`
	Currency      *string           `json:"currency"`
	Products      []json.RawMessage `json:"products"`
}

// LoadConfig reads and validates the JSON configuration file.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := ParseConfig(stripBOM(f))
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes a configuration. Malformed product declarations are
// skipped with a warning (fail-soft); an empty result is an error.
func ParseConfig(r io.Reader) (*Config, error) {
	var raw rawConfig
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	cfg := &Config{
		Email:         strings.TrimSpace(raw.Email),
		AppPassword:   raw.AppPassword,
		CheckInterval: DefaultCheckInterval,
		Currency:      DefaultCurrency,
	}
	if raw.CheckInterval > 0 {
		cfg.CheckInterval = time.Duration(raw.CheckInterval * float64(time.Second))
	}
	if raw.Currency != nil {
		cfg.Currency = strings.TrimSpace(*raw.Currency)
	}

	for i, msg := range raw.Products {
		p, err := parseProduct(msg)
		if err != nil {
			slog.Warn("Skipping invalid product", "index", i, "err", err, "raw", string(msg))
			continue
		}
		cfg.Products = append(cfg.Products, p)
	}

	if len(cfg.Products) == 0 {
		return nil, ErrNoProducts
	}
	return cfg, nil
}

// ApplyEnv lets PRICEWATCH_EMAIL and PRICEWATCH_APP_PASSWORD override the file.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("PRICEWATCH_EMAIL"); v != "" {
		c.Email = v
	}
	if v := os.Getenv("PRICEWATCH_APP_PASSWORD"); v != "" {
		c.AppPassword = v
	}
}

func parseProduct(msg json.RawMessage) (domain.Product, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(msg, &fields); err != nil {
		return domain.Product{}, fmt.Errorf("not an object: %w", err)
	}

	var url, store string
	if err := stringField(fields, "url", &url); err != nil {
		return domain.Product{}, err
	}
	if err := stringField(fields, "store", &store); err != nil {
		return domain.Product{}, err
	}

	target, ok := fields["target_price"]
	if !ok {
		target, ok = fields["targetPrice"]
	}
	if !ok {
		return domain.Product{}, errors.New("missing target_price")
	}
	price, err := number(target)
	if err != nil {
		return domain.Product{}, fmt.Errorf("target_price: %w", err)
	}

	return domain.Product{
		URL:         url,
		TargetPrice: price,
		Store:       domain.ParseStore(store),
	}, nil
}

func stringField(fields map[string]json.RawMessage, key string, dst *string) error {
	v, ok := fields[key]
	if !ok {
		return fmt.Errorf("missing %s", key)
	}
	if err := json.Unmarshal(v, dst); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = strings.TrimSpace(*dst)
	if *dst == "" {
		return fmt.Errorf("empty %s", key)
	}
	return nil
}

// number accepts 1250, 1250.5 or "1250.5".
func number(v json.RawMessage) (float64, error) {
	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return 0, fmt.Errorf("not a number: %s", string(v))
	}
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

func stripBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	rdr, _, err := br.ReadRune()
	if err != nil {
		return br
	}
	if rdr != '\uFEFF' {
		br.UnreadRune()
	}
	return br
}
