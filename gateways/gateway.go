// Package gateways contains the payment processor adapters. Each adapter
// builds the processor's create-payment request and interprets its
// verification/status responses; all wire formats stay inside this package.
package gateways

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/waconnect/storefront-backend/models"
)

// Customer is the contact snapshot attached to a payment attempt.
type Customer struct {
	Name  string
	Email string
	Phone string
}

// Credentials is the per-tenant credential material, loaded from the
// business record for every call. Adapters read only their own fields.
type Credentials struct {
	RazorpayKeyID        string
	RazorpayKeySecret    string
	StripeSecretKey      string
	StripePublishableKey string
	PayUMerchantKey      string
	PayUSalt             string
	PhonePeMerchantID    string
	PhonePeSaltKey       string
	PhonePeSaltIndex     string
}

// CredentialsFor projects the business's stored credential columns.
func CredentialsFor(b *models.Business) Credentials {
	return Credentials{
		RazorpayKeyID:        b.RazorpayKeyID,
		RazorpayKeySecret:    b.RazorpayKeySecret,
		StripeSecretKey:      b.StripeSecretKey,
		StripePublishableKey: b.StripePublishableKey,
		PayUMerchantKey:      b.PayUMerchantKey,
		PayUSalt:             b.PayUSalt,
		PhonePeMerchantID:    b.PhonePeMerchantID,
		PhonePeSaltKey:       b.PhonePeSaltKey,
		PhonePeSaltIndex:     b.PhonePeSaltIndex,
	}
}

// CreateRequest carries everything an adapter needs to start a payment.
type CreateRequest struct {
	OrderID    string
	BusinessID string
	Subdomain  string
	Amount     float64
	Currency   string
	Customer   Customer
}

// CreateResult is the outcome of starting a payment attempt.
// Client is returned to the storefront unmodified: a remote order id plus
// public key, a hosted checkout URL, or redirect form/payload data.
type CreateResult struct {
	GatewayOrderID string
	Client         map[string]interface{}
}

// VerifyInput is a callback or poll handed to an adapter for verification.
// GatewayOrderID locates the transaction; the remaining fields are
// gateway-specific and may be empty.
type VerifyInput struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
	Body             []byte            // raw payload for checksum recomputation
	Fields           map[string]string // posted form fields
}

// VerifyResult reports the processor's decision. Success=false with a nil
// error is the expected mismatch/declined outcome, not a system fault.
// Pending means the processor has not decided yet (an open, unpaid Stripe
// session); the transaction must not move to a terminal state.
type VerifyResult struct {
	Success          bool
	Pending          bool
	GatewayPaymentID string
	Details          map[string]interface{}
}

// Adapter is implemented once per processor.
type Adapter interface {
	Name() string
	Create(ctx context.Context, creds Credentials, req CreateRequest) (*CreateResult, error)
	Verify(ctx context.Context, creds Credentials, in VerifyInput) (*VerifyResult, error)
}

// ConfigError means the business has not configured the gateway (or a
// required credential is missing). Nothing was persisted or sent.
type ConfigError struct {
	Gateway string
	Reason  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s not configured: %s", e.Gateway, e.Reason)
}

// GatewayError is a network failure or non-success response from the
// processor. The call is not retried; the client must re-initiate.
type GatewayError struct {
	Gateway    string
	HTTPStatus int
	Message    string
}

func (e *GatewayError) Error() string {
	if e.HTTPStatus != 0 {
		return fmt.Sprintf("%s returned HTTP %d: %s", e.Gateway, e.HTTPStatus, e.Message)
	}
	return fmt.Sprintf("%s request failed: %s", e.Gateway, e.Message)
}

// ErrUnknownGateway is returned when dispatch is asked for a processor that
// has no adapter.
var ErrUnknownGateway = errors.New("unknown payment gateway")

// MinorUnits converts a major-unit amount to integer minor units,
// round(amount × 100) exactly.
func MinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// MajorUnits formats a major-unit amount with two decimals, as the
// form-based processors expect it.
func MajorUnits(amount float64) string {
	return decimal.NewFromFloat(amount).StringFixed(2)
}
