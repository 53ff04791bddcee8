package location

import (
	"context"
	"log"
	"strings"
)

// Candidate is one geocoder result.
type Candidate struct {
	Name string
	Lat  float64
	Lon  float64
}

// Geocoder searches for a place name. When bounded is true the search
// is biased to a bounding box around the shop. Errors and empty results
// are equivalent to the resolver: both mean no candidates.
type Geocoder interface {
	Search(ctx context.Context, query string, bounded bool) ([]Candidate, error)
}

// Resolved is a successfully resolved delivery location.
type Resolved struct {
	Name       string
	DistanceKm float64
}

// Resolver turns free text or GPS coordinates into a road distance from
// the shop. Strategy, in order: gazetteer, geocoder biased around the
// shop, geocoder unbiased. Geocoded straight-line distances are scaled
// by RoadFactor; gazetteer distances already are road distances.
type Resolver struct {
	Geo          Geocoder
	ShopLat      float64
	ShopLon      float64
	RoadFactor   float64
	MaxGeocodeKm float64
}

// Resolve resolves free text. It never returns an error: any failure,
// including geocoder outage, is a not-found.
func (r *Resolver) Resolve(ctx context.Context, text string) (Resolved, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Resolved{}, false
	}

	// Road filler is stripped before the gazetteer scan so "Kondele
	// junction on Kakamega road" matches kondele, not kakamega.
	cleaned := StripRoadFiller(text)
	if name, km, ok := GazetteerLookup(cleaned); ok {
		return Resolved{Name: name, DistanceKm: km}, true
	}

	query := NormalizeForGeocoder(text)
	if query == "" {
		return Resolved{}, false
	}

	if res, ok := r.geocode(ctx, query, true); ok {
		return res, true
	}
	// Broader retry without the bounding box, same sanity checks.
	return r.geocode(ctx, query, false)
}

// ResolveGPS bypasses text resolution entirely and computes the road
// distance for a shared location pin.
func (r *Resolver) ResolveGPS(lat, lon float64) Resolved {
	km := Haversine(r.ShopLat, r.ShopLon, lat, lon) * r.RoadFactor
	return Resolved{Name: "shared location", DistanceKm: km}
}

func (r *Resolver) geocode(ctx context.Context, query string, bounded bool) (Resolved, bool) {
	candidates, err := r.Geo.Search(ctx, query, bounded)
	if err != nil {
		log.Printf("geocoder search failed for %q (bounded=%t): %v", query, bounded, err)
		return Resolved{}, false
	}
	if len(candidates) == 0 {
		return Resolved{}, false
	}

	// Pick the candidate closest to the shop; geocoders happily return
	// a namesake on another continent first.
	best := candidates[0]
	bestKm := Haversine(r.ShopLat, r.ShopLon, best.Lat, best.Lon)
	for _, c := range candidates[1:] {
		km := Haversine(r.ShopLat, r.ShopLon, c.Lat, c.Lon)
		if km < bestKm {
			best = c
			bestKm = km
		}
	}

	if bestKm > r.MaxGeocodeKm {
		log.Printf("geocoder result %q is %.0f km away, beyond trusted radius", best.Name, bestKm)
		return Resolved{}, false
	}

	return Resolved{Name: best.Name, DistanceKm: bestKm * r.RoadFactor}, true
}
