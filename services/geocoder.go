package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/nyodera1-source/allivanfresh-whatsapp-bot/location"
)

// NominatimGeocoder implements location.Geocoder against a
// Nominatim-style search endpoint.
type NominatimGeocoder struct {
	BaseURL string
	ShopLat float64
	ShopLon float64
	// ViewboxDeg is the half-width in degrees of the biased bounding
	// box around the shop (~0.9 deg covers the trusted 100 km radius).
	ViewboxDeg float64
	Client     *http.Client
}

func NewNominatimGeocoder(baseURL string, shopLat, shopLon float64, timeout time.Duration) *NominatimGeocoder {
	return &NominatimGeocoder{
		BaseURL:    baseURL,
		ShopLat:    shopLat,
		ShopLon:    shopLon,
		ViewboxDeg: 0.9,
		Client:     &http.Client{Timeout: timeout},
	}
}

type nominatimResult struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

// Search queries the geocoder for up to 5 candidates. A bounded search
// restricts results to the viewbox around the shop.
func (g *NominatimGeocoder) Search(ctx context.Context, query string, bounded bool) ([]location.Candidate, error) {
	params := url.Values{}
	params.Set("q", query+", Kenya")
	params.Set("format", "json")
	params.Set("limit", "5")
	if bounded {
		params.Set("viewbox", fmt.Sprintf("%f,%f,%f,%f",
			g.ShopLon-g.ViewboxDeg, g.ShopLat+g.ViewboxDeg,
			g.ShopLon+g.ViewboxDeg, g.ShopLat-g.ViewboxDeg))
		params.Set("bounded", "1")
	}

	req, err := http.NewRequestWithContext(ctx, "GET", g.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "allivanfresh-whatsapp-bot/1.0")

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoder request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode geocoder response: %w", err)
	}

	var candidates []location.Candidate
	for _, r := range results {
		lat, latErr := strconv.ParseFloat(r.Lat, 64)
		lon, lonErr := strconv.ParseFloat(r.Lon, 64)
		if latErr != nil || lonErr != nil {
			continue
		}
		candidates = append(candidates, location.Candidate{
			Name: r.DisplayName,
			Lat:  lat,
			Lon:  lon,
		})
	}
	return candidates, nil
}
