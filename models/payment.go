package models

// CheckoutRequest is the payload from the storefront to initiate a payment
// for an existing order.
type CheckoutRequest struct {
	OrderID         string  `json:"order_id"`
	Amount          float64 `json:"amount"`
	Currency        string  `json:"currency,omitempty"` // defaults to INR
	CustomerName    string  `json:"customer_name"`
	CustomerEmail   string  `json:"customer_email"`
	CustomerPhone   string  `json:"customer_phone"`
	CustomerAddress string  `json:"customer_address,omitempty"`
}

// RazorpayVerifyRequest is the browser-posted confirmation after the
// Razorpay checkout widget completes.
type RazorpayVerifyRequest struct {
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	Signature        string `json:"signature"`
}

// DeliveryRequest asks for a delivery quote for a customer location.
type DeliveryRequest struct {
	CustomerLatitude  *float64 `json:"customer_latitude"`
	CustomerLongitude *float64 `json:"customer_longitude"`
}
