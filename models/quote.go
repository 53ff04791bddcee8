package models

// Delivery zones by road distance from the shop.
const (
	ZoneTown   = "town"
	ZoneNearby = "nearby"
	ZoneFar    = "far"
)

// Reasons a delivery fee was chosen.
const (
	FeeReasonFreeAnchor    = "free_anchor"
	FeeReasonVegOnlyFlat   = "veg_only_flat"
	FeeReasonDistanceBased = "distance_based"
)

// DeliveryQuote is computed per request and persisted only as a snapshot
// on the session once the customer's location resolves.
type DeliveryQuote struct {
	LocationName    string  `json:"location_name"`
	DistanceKm      float64 `json:"distance_km"`
	Fee             float64 `json:"fee"`
	Zone            string  `json:"zone"`
	FeeReason       string  `json:"fee_reason"`
	MinimumOrder    float64 `json:"minimum_order,omitempty"`
}
