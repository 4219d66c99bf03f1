package models

import (
	"time"

	"gorm.io/datatypes"
)

// Transaction statuses. Terminal states never transition again.
const (
	StatusPending = "pending"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Supported payment gateways.
const (
	GatewayRazorpay = "razorpay"
	GatewayStripe   = "stripe"
	GatewayPayU     = "payu"
	GatewayPhonePe  = "phonepe"
)

// PaymentTransaction is one payment attempt for an order. An order may
// accumulate several attempts across retries and gateways; the processor's
// order reference (GatewayOrderID) is the join key used by callbacks and
// polls to find the attempt they belong to.
type PaymentTransaction struct {
	ID         string `gorm:"primaryKey" json:"id"`
	BusinessID string `gorm:"index" json:"business_id"`
	OrderID    string `gorm:"index" json:"order_id"`

	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Gateway  string  `json:"gateway"`

	GatewayOrderID   string `gorm:"uniqueIndex" json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id,omitempty"`
	Status           string `gorm:"index" json:"status"`

	// Customer snapshot taken at creation time; never re-fetched.
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`

	Meta datatypes.JSONMap `gorm:"type:jsonb" json:"meta,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Terminal reports whether the transaction has reached a final state.
func (t *PaymentTransaction) Terminal() bool {
	return t.Status == StatusSuccess || t.Status == StatusFailed
}
