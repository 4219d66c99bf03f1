package models

import "time"

// Business is the tenant record. The payment core reads the per-gateway
// credential columns and the delivery policy; everything else belongs to the
// storefront CRUD, which lives outside this service.
type Business struct {
	ID          string `gorm:"primaryKey" json:"id"`
	UserID      string `gorm:"index" json:"user_id"`
	Name        string `json:"name"`
	Subdomain   string `gorm:"uniqueIndex" json:"subdomain"`
	Description string `json:"description,omitempty"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`

	// Selected processor for checkout. One of the Gateway* constants.
	PaymentGateway string `json:"payment_gateway,omitempty"`

	// Only the public-facing keys carry JSON tags; secrets never serialize.
	RazorpayKeyID        string `json:"razorpay_key_id,omitempty"`
	RazorpayKeySecret    string `json:"-"`
	StripePublishableKey string `json:"stripe_publishable_key,omitempty"`
	StripeSecretKey      string `json:"-"`
	PayUMerchantKey      string `json:"-"`
	PayUSalt             string `json:"-"`
	PhonePeMerchantID    string `json:"-"`
	PhonePeSaltKey       string `json:"-"`
	PhonePeSaltIndex     string `json:"-"`

	// Flat charge applied when no coordinates are configured.
	DeliveryCharges            float64  `json:"delivery_charges"`
	MinOrderForFreeDelivery    float64  `json:"min_order_for_free_delivery"`
	BusinessLatitude           *float64 `json:"business_latitude,omitempty"`
	BusinessLongitude          *float64 `json:"business_longitude,omitempty"`
	FreeDeliveryRadiusKm       float64  `gorm:"default:5" json:"free_delivery_radius_km"`
	DeliveryChargeBeyondRadius float64  `json:"delivery_charge_beyond_radius"`
	MaxDeliveryRadiusKm        *float64 `json:"max_delivery_radius_km,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
