package store

import (
	"context"
	"sync"
	"time"

	"gorm.io/datatypes"

	"github.com/waconnect/storefront-backend/models"
)

// MemoryTransactionStore is a mutex-guarded in-memory TransactionStore,
// used by tests and local development without postgres.
type MemoryTransactionStore struct {
	mu  sync.Mutex
	txs map[string]*models.PaymentTransaction // keyed by gateway order id
}

func NewMemoryTransactionStore() *MemoryTransactionStore {
	return &MemoryTransactionStore{txs: make(map[string]*models.PaymentTransaction)}
}

func (s *MemoryTransactionStore) Create(ctx context.Context, tx *models.PaymentTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	tx.CreatedAt, tx.UpdatedAt = now, now
	cp := *tx
	s.txs[tx.GatewayOrderID] = &cp
	return nil
}

func (s *MemoryTransactionStore) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.PaymentTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tx, ok := s.txs[gatewayOrderID]; ok {
		cp := *tx
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryTransactionStore) FindByAnyID(ctx context.Context, key string) (*models.PaymentTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range s.txs {
		if tx.ID == key || tx.GatewayOrderID == key {
			cp := *tx
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryTransactionStore) MarkTerminal(ctx context.Context, gatewayOrderID, status, gatewayPaymentID string, meta datatypes.JSONMap) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.txs[gatewayOrderID]
	if !ok {
		return false, ErrNotFound
	}
	if tx.Status != models.StatusPending {
		return false, nil
	}
	tx.Status = status
	if gatewayPaymentID != "" {
		tx.GatewayPaymentID = gatewayPaymentID
	}
	if len(meta) > 0 {
		tx.Meta = meta
	}
	tx.UpdatedAt = time.Now()
	return true, nil
}
