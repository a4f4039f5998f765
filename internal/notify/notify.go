package notify

import (
	"context"
	"encoding/json"
	"time"

	"kantinku-be/internal/logger"
	"kantinku-be/internal/order"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const noticeTopic = "order-notices"

// Notice is the payload the push-notification workers consume. Delivery
// mechanics past the topic are out of scope here.
type Notice struct {
	Recipient   string    `json:"recipient"` // "CAFETERIA" or "CUSTOMER"
	OrderID     string    `json:"order_id"`
	CafeteriaID uint      `json:"cafeteria_id"`
	CustomerID  uint      `json:"customer_id"`
	Reason      string    `json:"reason"`
	CancelledBy string    `json:"cancelled_by"`
	SentAt      time.Time `json:"sent_at"`
}

// KafkaDispatcher publishes cancellation notices onto the notice topic.
type KafkaDispatcher struct {
	writer *kafka.Writer
}

func NewKafkaDispatcher(brokers []string) *KafkaDispatcher {
	if len(brokers) == 0 {
		return nil
	}
	return &KafkaDispatcher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    noticeTopic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (d *KafkaDispatcher) NotifyCafeteria(ctx context.Context, o *order.Order, reason string) error {
	return d.send(ctx, "CAFETERIA", o, reason)
}

func (d *KafkaDispatcher) NotifyCustomer(ctx context.Context, o *order.Order, reason string) error {
	return d.send(ctx, "CUSTOMER", o, reason)
}

func (d *KafkaDispatcher) send(ctx context.Context, recipient string, o *order.Order, reason string) error {
	cancelledBy := ""
	if o.CancelledBy != nil {
		cancelledBy = string(*o.CancelledBy)
	}

	notice := Notice{
		Recipient:   recipient,
		OrderID:     o.ID.String(),
		CafeteriaID: o.CafeteriaID,
		CustomerID:  o.CustomerID,
		Reason:      reason,
		CancelledBy: cancelledBy,
		SentAt:      time.Now().UTC(),
	}

	data, err := json.Marshal(notice)
	if err != nil {
		return err
	}

	return d.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(notice.OrderID),
		Value: data,
	})
}

func (d *KafkaDispatcher) Close() {
	if d != nil && d.writer != nil {
		_ = d.writer.Close()
	}
}

// LogDispatcher is the no-broker fallback: notices land in the log only.
type LogDispatcher struct{}

func (LogDispatcher) NotifyCafeteria(ctx context.Context, o *order.Order, reason string) error {
	logger.FromCtx(ctx).Info("cancellation notice for cafeteria",
		zap.String("order_id", o.ID.String()),
		zap.Uint("cafeteria_id", o.CafeteriaID),
		zap.String("reason", reason),
	)
	return nil
}

func (LogDispatcher) NotifyCustomer(ctx context.Context, o *order.Order, reason string) error {
	logger.FromCtx(ctx).Info("cancellation notice for customer",
		zap.String("order_id", o.ID.String()),
		zap.Uint("customer_id", o.CustomerID),
		zap.String("reason", reason),
	)
	return nil
}
