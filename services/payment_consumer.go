package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/edn-commerce/storefront-core/models"
)

// PaymentConsumer drives order payment-status transitions from gateway
// events on Kafka. Delivery is at-least-once; the invoice and loyalty side
// effects behind MarkPaymentStatus are idempotent per order, so replays are
// harmless.
type PaymentConsumer struct {
	reader *kafkago.Reader
	orders *OrderService
	log    *zap.Logger
}

func NewPaymentConsumer(brokers []string, topic, groupID string, orders *OrderService, log *zap.Logger) *PaymentConsumer {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1e3,
		MaxBytes: 10e6,
	})
	return &PaymentConsumer{reader: r, orders: orders, log: log}
}

// Start consumes until the context is cancelled.
func (pc *PaymentConsumer) Start(ctx context.Context) {
	pc.log.Info("payment consumer listening")
	for {
		m, err := pc.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			pc.log.Error("payment consumer read error", zap.Error(err))
			continue
		}
		pc.handle(ctx, m.Value)
	}
}

func (pc *PaymentConsumer) handle(ctx context.Context, payload []byte) {
	var evt models.PaymentEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		pc.log.Warn("invalid payment event payload", zap.Error(err))
		return
	}
	applyPaymentEvent(ctx, pc.orders, evt, pc.log)
}

func (pc *PaymentConsumer) Close() error {
	return pc.reader.Close()
}

// applyPaymentEvent is shared between the Kafka and SQS consumers.
func applyPaymentEvent(ctx context.Context, orders *OrderService, evt models.PaymentEvent, log *zap.Logger) {
	if evt.OrderID == "" || evt.Type == "" {
		log.Warn("payment event missing fields",
			zap.String("order_id", evt.OrderID),
			zap.String("type", evt.Type))
		return
	}
	orderID, err := uuid.Parse(evt.OrderID)
	if err != nil {
		log.Warn("payment event has invalid order id", zap.String("order_id", evt.OrderID))
		return
	}

	var next models.PaymentStatus
	switch evt.Type {
	case "payment_succeeded":
		next = models.PaymentStatusPaid
	case "payment_failed":
		next = models.PaymentStatusFailed
	case "payment_refunded":
		next = models.PaymentStatusRefunded
	default:
		log.Warn("unknown payment event type", zap.String("type", evt.Type))
		return
	}

	if _, err := orders.MarkPaymentStatus(ctx, orderID, next); err != nil {
		log.Error("failed to apply payment event", zap.Error(err),
			zap.String("order_id", evt.OrderID),
			zap.String("type", evt.Type))
	}
}
