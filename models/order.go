package models

import "time"

// Order statuses the payment core cares about.
const (
	OrderStatusPending = "pending"
	OrderStatusPaid    = "paid"
)

// Order is the external collaborator record this service settles against.
// The payment core only ever writes Status and PaymentReference.
type Order struct {
	ID               string  `gorm:"primaryKey" json:"id"`
	BusinessID       string  `gorm:"index" json:"business_id"`
	CustomerName     string  `json:"customer_name"`
	CustomerPhone    string  `json:"customer_phone"`
	CustomerAddress  string  `json:"customer_address,omitempty"`
	TotalAmount      float64 `json:"total_amount"`
	Status           string  `gorm:"index" json:"status"`
	PaymentReference string  `json:"payment_reference,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
