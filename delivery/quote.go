// Package delivery prices deliveries from a resolved road distance and
// the cart's composition. The fee policy is a pure function of the two,
// independent of how the distance was obtained.
package delivery

import (
	"math"

	"github.com/nyodera1-source/allivanfresh-whatsapp-bot/models"
)

// Rules holds the tunable fee policy constants.
type Rules struct {
	TownRadiusKm    float64
	NearbyRadiusKm  float64
	NearbyFlatFee   float64
	FarPerKmRate    float64
	VegOnlyFlatFee  float64
	FarZoneMinOrder float64
}

// Composition classifies a cart for fee purposes.
type Composition struct {
	HasAnchor bool // fish or poultry present: free town delivery
	VegOnly   bool // nothing but vegetables
}

// Classify derives the composition of a cart given the catalog entries
// of its products. Products missing from the lookup are ignored.
func Classify(cart []models.CartLine, products map[string]*models.Product) Composition {
	comp := Composition{VegOnly: len(cart) > 0}
	for _, line := range cart {
		p, ok := products[line.ProductID.String()]
		if !ok {
			continue
		}
		if models.IsAnchorCategory(p.Category) {
			comp.HasAnchor = true
		}
		if p.Category != models.CategoryVegetables {
			comp.VegOnly = false
		}
	}
	return comp
}

// Zone buckets a road distance.
func (r Rules) Zone(distanceKm float64) string {
	switch {
	case distanceKm <= r.TownRadiusKm:
		return models.ZoneTown
	case distanceKm <= r.NearbyRadiusKm:
		return models.ZoneNearby
	default:
		return models.ZoneFar
	}
}

// Quote prices a delivery. Precedence: free anchor delivery in town,
// then the vegetables-only town flat rate, then distance-based pricing.
// Far-zone quotes carry the minimum order amount; enforcement is left
// to the conversation layer so the customer can be negotiated with
// rather than silently rejected.
func (r Rules) Quote(locationName string, distanceKm float64, comp Composition) models.DeliveryQuote {
	q := models.DeliveryQuote{
		LocationName: locationName,
		DistanceKm:   distanceKm,
		Zone:         r.Zone(distanceKm),
	}

	switch {
	case q.Zone == models.ZoneTown && comp.HasAnchor:
		q.Fee = 0
		q.FeeReason = models.FeeReasonFreeAnchor
	case q.Zone == models.ZoneTown && comp.VegOnly:
		q.Fee = r.VegOnlyFlatFee
		q.FeeReason = models.FeeReasonVegOnlyFlat
	default:
		q.FeeReason = models.FeeReasonDistanceBased
		if q.Zone == models.ZoneFar {
			q.Fee = math.Round(distanceKm * r.FarPerKmRate)
		} else {
			// Town and nearby share the flat rate, keeping the fee
			// monotonic in distance.
			q.Fee = r.NearbyFlatFee
		}
	}

	if q.Zone == models.ZoneFar {
		q.MinimumOrder = r.FarZoneMinOrder
	}
	return q
}
