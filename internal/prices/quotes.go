// Package prices serves commodity, input and freight quotes with a short-lived cache.
package prices

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Quote is one price line. Only the fields a source reports are set.
type Quote struct {
	PriceRSc   float64 `json:"price_r_sc,omitempty"`
	PriceRT    float64 `json:"price_r_t,omitempty"`
	Maturity   string  `json:"maturity,omitempty"`
	Route      string  `json:"route,omitempty"`
	DistanceKm float64 `json:"distance_km,omitempty"`
	Source     string  `json:"source"`
	Timestamp  string  `json:"timestamp"`
}

const (
	KeySoybeanSpot     = "soybean.spot"
	KeySoybeanContract = "soybean.contract"
	KeyFertilizerNPK   = "fertilizer.npk_10_10_10"
	KeyFreight         = "freight"
)

// Provider fetches a single quote from an upstream JSON endpoint. Static is served
// when URL is empty or the upstream fails.
type Provider struct {
	Key    string
	Label  string
	URL    string
	Static Quote
}

// DefaultProviders returns the four quote sources with their reference values.
func DefaultProviders(cepea, b3, fertilizer, freight string) []Provider {
	return []Provider{
		{Key: KeySoybeanSpot, Label: "CEPEA/ESALQ", URL: cepea,
			Static: Quote{PriceRSc: 185.50, PriceRT: 3108.33, Source: "CEPEA/ESALQ"}},
		{Key: KeySoybeanContract, Label: "B3", URL: b3,
			Static: Quote{PriceRSc: 188.20, Maturity: "2025-03", Source: "B3"}},
		{Key: KeyFertilizerNPK, Label: "ANDA", URL: fertilizer,
			Static: Quote{PriceRT: 3450.00, Source: "ANDA"}},
		{Key: KeyFreight, Label: "AgroFreight API", URL: freight,
			Static: Quote{PriceRT: 85.00, Route: "Fazenda → Port", DistanceKm: 120, Source: "AgroFreight API"}},
	}
}

var errNotConfigured = errors.New("upstream not configured")

// UpstreamError is returned for non-2xx upstream replies.
type UpstreamError struct {
	StatusCode int
	Provider   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: upstream status %d", e.Provider, e.StatusCode)
}

func (p Provider) fetch(ctx context.Context, client *http.Client) (Quote, error) {
	if p.URL == "" {
		return Quote{}, errNotConfigured
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return Quote{}, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("%s: %w", p.Label, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Quote{}, &UpstreamError{StatusCode: resp.StatusCode, Provider: p.Label}
	}
	var q Quote
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&q); err != nil {
		return Quote{}, fmt.Errorf("%s: decode: %w", p.Label, err)
	}
	if q.PriceRSc <= 0 && q.PriceRT <= 0 {
		return Quote{}, fmt.Errorf("%s: quote without price", p.Label)
	}
	if q.Source == "" {
		q.Source = p.Label
	}
	if q.Timestamp == "" {
		q.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	return q, nil
}
