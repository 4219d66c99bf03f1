// Package geo prices deliveries by great-circle distance between the
// business and the customer.
package geo

import (
	"fmt"
	"math"

	"github.com/waconnect/storefront-backend/models"
)

const earthRadiusKm = 6371

// Quote is the delivery decision for one customer location.
type Quote struct {
	DistanceKm           float64 `json:"distance_km"`
	DeliveryCharge       float64 `json:"delivery_charge"`
	IsDeliverable        bool    `json:"is_deliverable"`
	FreeDeliveryRadiusKm float64 `json:"free_delivery_radius_km"`
	Message              string  `json:"message"`
}

// Haversine returns the great-circle distance in km between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// QuoteDelivery computes the delivery charge for a customer location against
// the business's delivery policy. The distance is rounded to two decimals
// before any threshold comparison; the rounded value is the one the policy
// applies to, so e.g. a true 5.004 km still counts as inside a 5 km radius.
func QuoteDelivery(b *models.Business, customerLat, customerLon float64) Quote {
	if b.BusinessLatitude == nil || b.BusinessLongitude == nil {
		return Quote{
			DistanceKm:           0,
			DeliveryCharge:       b.DeliveryCharges,
			IsDeliverable:        true,
			FreeDeliveryRadiusKm: b.FreeDeliveryRadiusKm,
			Message:              "Delivery available. Standard delivery charges apply.",
		}
	}

	distance := Haversine(*b.BusinessLatitude, *b.BusinessLongitude, customerLat, customerLon)
	distance = math.Round(distance*100) / 100

	q := Quote{
		DistanceKm:           distance,
		FreeDeliveryRadiusKm: b.FreeDeliveryRadiusKm,
	}

	switch {
	case b.MaxDeliveryRadiusKm != nil && distance > *b.MaxDeliveryRadiusKm:
		q.IsDeliverable = false
		q.DeliveryCharge = 0
		q.Message = fmt.Sprintf("Sorry, we don't deliver beyond %.1f km. You are %.2f km away.",
			*b.MaxDeliveryRadiusKm, distance)
	case distance <= b.FreeDeliveryRadiusKm:
		q.IsDeliverable = true
		q.DeliveryCharge = 0
		q.Message = fmt.Sprintf("Free delivery! You are %.2f km away.", distance)
	default:
		q.IsDeliverable = true
		q.DeliveryCharge = b.DeliveryChargeBeyondRadius
		q.Message = fmt.Sprintf("Delivery charge: ₹%.0f (you are %.2f km away, free delivery within %.1f km).",
			b.DeliveryChargeBeyondRadius, distance, b.FreeDeliveryRadiusKm)
	}
	return q
}
