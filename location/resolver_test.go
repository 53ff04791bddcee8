package location

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	shopLat = -0.0917
	shopLon = 34.7680
)

type fakeGeocoder struct {
	bounded   []Candidate
	unbounded []Candidate
	err       error
	calls     int
}

func (f *fakeGeocoder) Search(ctx context.Context, query string, bounded bool) ([]Candidate, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if bounded {
		return f.bounded, nil
	}
	return f.unbounded, nil
}

func newResolver(geo Geocoder) *Resolver {
	return &Resolver{
		Geo:          geo,
		ShopLat:      shopLat,
		ShopLon:      shopLon,
		RoadFactor:   1.3,
		MaxGeocodeKm: 100,
	}
}

func TestResolveGazetteerHitSkipsGeocoder(t *testing.T) {
	geo := &fakeGeocoder{}
	r := newResolver(geo)

	res, ok := r.Resolve(context.Background(), "near Kondele junction on Kakamega road")
	require.True(t, ok)
	assert.Equal(t, "kondele", res.Name)
	assert.Equal(t, 4.0, res.DistanceKm)
	assert.Equal(t, 0, geo.calls, "gazetteer hit must not call the geocoder")
}

func TestResolvePicksNearestCandidate(t *testing.T) {
	// A namesake far away must lose to the nearby candidate.
	geo := &fakeGeocoder{bounded: []Candidate{
		{Name: "Rabour, Nairobi", Lat: -1.28, Lon: 36.82},
		{Name: "Rabour, Kisumu", Lat: -0.15, Lon: 34.85},
	}}
	r := newResolver(geo)

	res, ok := r.Resolve(context.Background(), "rabour")
	require.True(t, ok)
	assert.Equal(t, "Rabour, Kisumu", res.Name)
	// straight-line distance scaled by the road factor
	straight := Haversine(shopLat, shopLon, -0.15, 34.85)
	assert.InDelta(t, straight*1.3, res.DistanceKm, 0.01)
}

func TestResolveRejectsBeyondTrustedRadius(t *testing.T) {
	// Only candidate is ~270 km away: treated exactly like no result.
	far := []Candidate{{Name: "Somewhere, Nairobi", Lat: -1.28, Lon: 36.82}}
	geo := &fakeGeocoder{bounded: far, unbounded: far}
	r := newResolver(geo)

	_, ok := r.Resolve(context.Background(), "someplace")
	assert.False(t, ok)
}

func TestResolveRetriesUnbiasedWhenBiasedEmpty(t *testing.T) {
	geo := &fakeGeocoder{
		bounded:   nil,
		unbounded: []Candidate{{Name: "Koru", Lat: -0.13, Lon: 35.27}},
	}
	r := newResolver(geo)

	res, ok := r.Resolve(context.Background(), "koru")
	require.True(t, ok)
	assert.Equal(t, "Koru", res.Name)
	assert.Equal(t, 2, geo.calls)
}

func TestResolveGeocoderFailureIsNotFound(t *testing.T) {
	geo := &fakeGeocoder{err: errors.New("connection refused")}
	r := newResolver(geo)

	_, ok := r.Resolve(context.Background(), "someplace far off the map")
	assert.False(t, ok)
}

func TestResolveGPSBypassesLookups(t *testing.T) {
	geo := &fakeGeocoder{}
	r := newResolver(geo)

	res := r.ResolveGPS(-0.15, 34.85)
	straight := Haversine(shopLat, shopLon, -0.15, 34.85)
	assert.InDelta(t, straight*1.3, res.DistanceKm, 0.01)
	assert.Equal(t, 0, geo.calls)
}

func TestParseExplicitKm(t *testing.T) {
	tests := []struct {
		text   string
		wantKm float64
		wantOK bool
	}{
		{"we are about 12 km from town", 12, true},
		{"roughly 7.5km out", 7.5, true},
		{"25 kilometres along the highway", 25, true},
		{"no distance here", 0, false},
		{"0 km away", 0, false},
		{"-5 km", 5, true}, // the sign is not captured; 5 km is the stated figure
		{"999 km from here", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			km, ok := ParseExplicitKm(tt.text)
			require.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.wantKm, km)
			}
		})
	}
}

func TestStripRoadFiller(t *testing.T) {
	assert.Equal(t, "near Kondele junction", StripRoadFiller("near Kondele junction on Kakamega road"))
	assert.Equal(t, "Ahero", StripRoadFiller("Ahero towards Kericho"))
}

func TestNormalizeForGeocoder(t *testing.T) {
	assert.Equal(t, "Kondele", NormalizeForGeocoder("near Kondele junction on Kakamega road"))
	assert.Equal(t, "Riat", NormalizeForGeocoder("Riat stage"))
}

func TestHaversineKnownDistance(t *testing.T) {
	// Kisumu to Nairobi is roughly 265 km as the crow flies.
	d := Haversine(shopLat, shopLon, -1.2864, 36.8172)
	assert.InDelta(t, 265, d, 15)
}
