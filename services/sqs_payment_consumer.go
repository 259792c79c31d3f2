package services

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/edn-commerce/storefront-core/models"
	awspkg "github.com/edn-commerce/storefront-core/pkg/aws"
)

// SQSPaymentConsumer consumes payment events from SQS, unwrapping the SNS
// envelope when the queue is subscribed to a topic.
type SQSPaymentConsumer struct {
	consumer *awspkg.SQSConsumer
	orders   *OrderService
	log      *zap.Logger
}

func NewSQSPaymentConsumer(consumer *awspkg.SQSConsumer, orders *OrderService, log *zap.Logger) *SQSPaymentConsumer {
	return &SQSPaymentConsumer{consumer: consumer, orders: orders, log: log}
}

// Start polls the queue until the context is cancelled.
func (c *SQSPaymentConsumer) Start(ctx context.Context) {
	c.log.Info("sqs payment consumer polling")
	err := c.consumer.StartPolling(ctx, c.handleMessage)
	if err != nil && err != context.Canceled {
		c.log.Error("sqs payment consumer stopped", zap.Error(err))
	}
}

func (c *SQSPaymentConsumer) handleMessage(ctx context.Context, body string) error {
	var envelope struct {
		Message string `json:"Message"`
	}
	if err := json.Unmarshal([]byte(body), &envelope); err == nil && envelope.Message != "" {
		body = envelope.Message
	}

	var evt models.PaymentEvent
	if err := json.Unmarshal([]byte(body), &evt); err != nil {
		// Malformed payloads are dropped, not retried.
		c.log.Warn("invalid sqs payment event payload", zap.Error(err))
		return nil
	}

	applyPaymentEvent(ctx, c.orders, evt, c.log)
	return nil
}
