// Package payments drives the payment transaction state machine: it
// creates attempts through the configured gateway adapter, applies
// verification results, and settles the originating order exactly once.
package payments

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/waconnect/storefront-backend/events"
	"github.com/waconnect/storefront-backend/gateways"
	"github.com/waconnect/storefront-backend/models"
	"github.com/waconnect/storefront-backend/store"
)

// ErrVerificationFailed marks a signature/checksum mismatch or a declined
// payment. The transaction has already been moved to failed when this is
// returned.
var ErrVerificationFailed = errors.New("payment verification failed")

// ErrInvalidAmount rejects non-positive checkout amounts.
var ErrInvalidAmount = errors.New("amount must be greater than zero")

// OrderSettlement is the collaborator that marks the originating order as
// paid. It is invoked at most once per transaction.
type OrderSettlement interface {
	MarkPaid(ctx context.Context, orderID, paymentRef string) error
}

// Orchestrator coordinates adapters, the transaction store, and settlement.
// All cross-call coordination goes through the persisted record; the
// orchestrator itself holds no mutable state.
type Orchestrator struct {
	store      store.TransactionStore
	adapters   map[string]gateways.Adapter
	settlement OrderSettlement
	producer   *events.Producer
}

func NewOrchestrator(s store.TransactionStore, settlement OrderSettlement, producer *events.Producer, adapters ...gateways.Adapter) *Orchestrator {
	byName := make(map[string]gateways.Adapter, len(adapters))
	for _, a := range adapters {
		byName[a.Name()] = a
	}
	return &Orchestrator{store: s, adapters: byName, settlement: settlement, producer: producer}
}

// Adapter looks up the adapter registered for a gateway name.
func (o *Orchestrator) Adapter(gateway string) (gateways.Adapter, error) {
	a, ok := o.adapters[gateway]
	if !ok {
		return nil, fmt.Errorf("%w: %q", gateways.ErrUnknownGateway, gateway)
	}
	return a, nil
}

// Create starts a payment attempt for an order: it drives the adapter,
// persists the pending transaction under the processor's order reference,
// and returns a copy of the adapter's client-facing payload with the
// internal transaction id added.
func (o *Orchestrator) Create(ctx context.Context, biz *models.Business, gateway string, req models.CheckoutRequest) (map[string]interface{}, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if gateway == "" {
		gateway = biz.PaymentGateway
	}
	adapter, err := o.Adapter(gateway)
	if err != nil {
		return nil, err
	}

	currency := req.Currency
	if currency == "" {
		currency = "INR"
	}
	customer := gateways.Customer{Name: req.CustomerName, Email: req.CustomerEmail, Phone: req.CustomerPhone}

	result, err := adapter.Create(ctx, gateways.CredentialsFor(biz), gateways.CreateRequest{
		OrderID:    req.OrderID,
		BusinessID: biz.ID,
		Subdomain:  biz.Subdomain,
		Amount:     req.Amount,
		Currency:   currency,
		Customer:   customer,
	})
	if err != nil {
		return nil, err
	}

	tx := &models.PaymentTransaction{
		ID:             uuid.NewString(),
		BusinessID:     biz.ID,
		OrderID:        req.OrderID,
		Amount:         req.Amount,
		Currency:       currency,
		Gateway:        gateway,
		GatewayOrderID: result.GatewayOrderID,
		Status:         models.StatusPending,
		CustomerName:   req.CustomerName,
		CustomerEmail:  req.CustomerEmail,
		CustomerPhone:  req.CustomerPhone,
	}
	if err := o.store.Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("persist transaction: %w", err)
	}

	// Copy the adapter payload before augmenting it so the adapter's own
	// map stays untouched.
	payload := make(map[string]interface{}, len(result.Client)+1)
	for k, v := range result.Client {
		payload[k] = v
	}
	payload["transaction_id"] = tx.ID
	return payload, nil
}

// Verify applies a callback or poll result to the transaction identified by
// the gateway order id inside the input. Repeated calls for the same input
// are no-ops once the transaction is terminal; the settlement side effect
// fires only for the call that wins the pending→success transition.
// The adapter's VerifyResult is returned alongside the transaction when the
// adapter was consulted (nil on the terminal short-circuit).
func (o *Orchestrator) Verify(ctx context.Context, biz *models.Business, gateway string, in gateways.VerifyInput) (*models.PaymentTransaction, *gateways.VerifyResult, error) {
	adapter, err := o.Adapter(gateway)
	if err != nil {
		return nil, nil, err
	}

	tx, err := o.store.FindByGatewayOrderID(ctx, in.GatewayOrderID)
	if err != nil {
		return nil, nil, err
	}
	if tx.Terminal() {
		return tx, nil, nil
	}

	result, err := adapter.Verify(ctx, gateways.CredentialsFor(biz), in)
	if err != nil {
		return nil, nil, err
	}

	if result.Pending {
		return tx, result, nil
	}

	// The callback snapshot rides along on the terminal write.
	snap := snapshot(result)

	if !result.Success {
		applied, err := o.store.MarkTerminal(ctx, tx.GatewayOrderID, models.StatusFailed, "", snap)
		if err != nil {
			return nil, nil, fmt.Errorf("mark failed: %w", err)
		}
		if applied {
			tx.Status = models.StatusFailed
			tx.Meta = snap
			o.publish(tx)
		} else {
			tx = o.reload(ctx, tx)
		}
		return tx, result, ErrVerificationFailed
	}

	applied, err := o.store.MarkTerminal(ctx, tx.GatewayOrderID, models.StatusSuccess, result.GatewayPaymentID, snap)
	if err != nil {
		return nil, nil, fmt.Errorf("mark success: %w", err)
	}
	if !applied {
		// Lost the race to another verify call; the stored record is the
		// truth now, whatever status it carries.
		return o.reload(ctx, tx), result, nil
	}

	tx.Status = models.StatusSuccess
	tx.GatewayPaymentID = result.GatewayPaymentID
	tx.Meta = snap

	if err := o.settlement.MarkPaid(ctx, tx.OrderID, result.GatewayPaymentID); err != nil {
		// The transaction is settled; order reconciliation can replay
		// from it. Do not fail the verify back to the processor.
		log.Printf("payments: settle order=%s txn=%s: %v", tx.OrderID, tx.ID, err)
	}
	o.publish(tx)
	return tx, result, nil
}

// reload fetches the stored record after a lost terminal write, falling back
// to the stale copy if the read fails.
func (o *Orchestrator) reload(ctx context.Context, tx *models.PaymentTransaction) *models.PaymentTransaction {
	stored, err := o.store.FindByGatewayOrderID(ctx, tx.GatewayOrderID)
	if err != nil {
		return tx
	}
	return stored
}

func snapshot(result *gateways.VerifyResult) datatypes.JSONMap {
	if len(result.Details) == 0 {
		return nil
	}
	return datatypes.JSONMap(result.Details)
}

// GetStatus looks up a transaction by internal id or gateway order id.
func (o *Orchestrator) GetStatus(ctx context.Context, key string) (*models.PaymentTransaction, error) {
	return o.store.FindByAnyID(ctx, key)
}

func (o *Orchestrator) publish(tx *models.PaymentTransaction) {
	o.producer.Publish(events.PaymentEvent{
		TransactionID:    tx.ID,
		BusinessID:       tx.BusinessID,
		OrderID:          tx.OrderID,
		Gateway:          tx.Gateway,
		GatewayOrderID:   tx.GatewayOrderID,
		GatewayPaymentID: tx.GatewayPaymentID,
		Status:           tx.Status,
		Amount:           tx.Amount,
		Currency:         tx.Currency,
	})
}
