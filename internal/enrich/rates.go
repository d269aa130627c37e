package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
)

// DefaultRatesURL is a free historical exchange rate API (ECB reference rates).
const DefaultRatesURL = "https://api.frankfurter.app"

// RateSource provides the exchange rate from a currency into the base
// currency on a given date.
type RateSource interface {
	// Rate returns the rate to base currency for (currency, isoDate)
	Rate(ctx context.Context, currency, isoDate string) (decimal.Decimal, error)
}

// HTTPRateSource fetches historical rates over HTTP and memoizes them per
// (currency, date), so re-runs over the same batch do not repeat lookups.
type HTTPRateSource struct {
	baseURL      string
	baseCurrency string
	httpClient   *http.Client
	cache        *cache.Cache
}

// NewHTTPRateSource creates a rate source against a frankfurter-style API.
func NewHTTPRateSource(baseURL, baseCurrency string) *HTTPRateSource {
	return &HTTPRateSource{
		baseURL:      baseURL,
		baseCurrency: baseCurrency,
		httpClient:   &http.Client{Timeout: 20 * time.Second},
		cache:        cache.New(cache.NoExpiration, 0),
	}
}

type ratesResponse struct {
	Rates map[string]float64 `json:"rates"`
}

// Rate returns the historical rate from currency into the base currency on
// the given ISO date.
func (s *HTTPRateSource) Rate(ctx context.Context, currency, isoDate string) (decimal.Decimal, error) {
	key := currency + "@" + isoDate
	if cached, ok := s.cache.Get(key); ok {
		return cached.(decimal.Decimal), nil
	}

	url := fmt.Sprintf("%s/%s?from=%s&to=%s", s.baseURL, isoDate, currency, s.baseCurrency)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("building rate request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetching rate for %s on %s: %w", currency, isoDate, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("rate service returned %d for %s on %s", resp.StatusCode, currency, isoDate)
	}

	var body ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("decoding rate response: %w", err)
	}

	rate, ok := body.Rates[s.baseCurrency]
	if !ok {
		return decimal.Zero, fmt.Errorf("no %s rate for %s on %s", s.baseCurrency, currency, isoDate)
	}

	d := decimal.NewFromFloat(rate)
	s.cache.Set(key, d, cache.NoExpiration)
	return d, nil
}
