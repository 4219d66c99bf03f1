// Package events publishes payment lifecycle events to Kafka so downstream
// services (notifications, analytics) can react without polling the store.
package events

import (
	"encoding/json"
	"log"
	"time"

	"github.com/IBM/sarama"
)

const PaymentEventsTopic = "payment.events"

// PaymentEvent is emitted whenever a transaction reaches a terminal state.
type PaymentEvent struct {
	TransactionID    string    `json:"transaction_id"`
	BusinessID       string    `json:"business_id"`
	OrderID          string    `json:"order_id"`
	Gateway          string    `json:"gateway"`
	GatewayOrderID   string    `json:"gateway_order_id"`
	GatewayPaymentID string    `json:"gateway_payment_id,omitempty"`
	Status           string    `json:"status"`
	Amount           float64   `json:"amount"`
	Currency         string    `json:"currency"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// Producer wraps a sarama sync producer. A nil Producer is valid and
// publishes nothing, so a missing broker never blocks settlement.
type Producer struct {
	producer sarama.SyncProducer
}

func NewProducer(brokers []string) (*Producer, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForLocal
	p, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	return &Producer{producer: p}, nil
}

// Publish sends the event keyed by gateway order id. Failures are logged,
// not propagated: the persisted transaction remains the source of truth.
func (p *Producer) Publish(ev PaymentEvent) {
	if p == nil || p.producer == nil {
		return
	}
	ev.OccurredAt = time.Now()
	value, err := json.Marshal(ev)
	if err != nil {
		log.Printf("events: marshal payment event: %v", err)
		return
	}
	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: PaymentEventsTopic,
		Key:   sarama.StringEncoder(ev.GatewayOrderID),
		Value: sarama.ByteEncoder(value),
	})
	if err != nil {
		log.Printf("events: publish payment event txn=%s: %v", ev.TransactionID, err)
	}
}

func (p *Producer) Close() error {
	if p == nil || p.producer == nil {
		return nil
	}
	return p.producer.Close()
}
