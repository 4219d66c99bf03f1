package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/waconnect/storefront-backend/models"
)

// OrderStore settles orders once a payment attempt succeeds. It is the
// only writer of Order.status and the payment reference from this service.
type OrderStore struct {
	DB *gorm.DB
}

func NewOrderStore(db *gorm.DB) *OrderStore {
	return &OrderStore{DB: db}
}

// MarkPaid records the successful payment against the order. The caller
// guarantees at-most-once invocation per transaction; the write itself is
// still a plain idempotent update so a replayed call cannot corrupt state.
func (s *OrderStore) MarkPaid(ctx context.Context, orderID, paymentRef string) error {
	res := s.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"status":            models.OrderStatusPaid,
			"payment_reference": paymentRef,
			"updated_at":        time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
