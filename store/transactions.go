// Package store persists payment transactions and applies order settlement.
package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/waconnect/storefront-backend/models"
)

// ErrNotFound is returned when no record matches a lookup key.
var ErrNotFound = errors.New("record not found")

// TransactionStore persists PaymentTransaction records, keyed by internal
// id and by the processor-assigned order id.
type TransactionStore interface {
	Create(ctx context.Context, tx *models.PaymentTransaction) error
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.PaymentTransaction, error)
	// FindByAnyID matches either the internal id or the gateway order id.
	FindByAnyID(ctx context.Context, key string) (*models.PaymentTransaction, error)
	// MarkTerminal moves a pending transaction to a terminal status as a
	// single conditional write. It reports false when the transaction was
	// already terminal, which makes racing verify calls lose cleanly.
	// A non-empty meta is stored as the callback snapshot for the attempt.
	MarkTerminal(ctx context.Context, gatewayOrderID, status, gatewayPaymentID string, meta datatypes.JSONMap) (bool, error)
}

// GormTransactionStore is the postgres-backed TransactionStore.
type GormTransactionStore struct {
	DB *gorm.DB
}

func NewGormTransactionStore(db *gorm.DB) *GormTransactionStore {
	return &GormTransactionStore{DB: db}
}

func (s *GormTransactionStore) Create(ctx context.Context, tx *models.PaymentTransaction) error {
	return s.DB.WithContext(ctx).Create(tx).Error
}

func (s *GormTransactionStore) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.PaymentTransaction, error) {
	var tx models.PaymentTransaction
	err := s.DB.WithContext(ctx).Where("gateway_order_id = ?", gatewayOrderID).First(&tx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (s *GormTransactionStore) FindByAnyID(ctx context.Context, key string) (*models.PaymentTransaction, error) {
	var tx models.PaymentTransaction
	err := s.DB.WithContext(ctx).Where("id = ? OR gateway_order_id = ?", key, key).First(&tx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (s *GormTransactionStore) MarkTerminal(ctx context.Context, gatewayOrderID, status, gatewayPaymentID string, meta datatypes.JSONMap) (bool, error) {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if gatewayPaymentID != "" {
		updates["gateway_payment_id"] = gatewayPaymentID
	}
	if len(meta) > 0 {
		updates["meta"] = meta
	}
	res := s.DB.WithContext(ctx).Model(&models.PaymentTransaction{}).
		Where("gateway_order_id = ? AND status = ?", gatewayOrderID, models.StatusPending).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
