package realtime

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"kantinku-be/internal/logger"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const changeTopic = "order-changes"

// ChangeEvent is what lands on the broker topic. Consumers must not treat it
// as source of truth; it only says which cafeteria to re-read.
type ChangeEvent struct {
	CafeteriaID uint      `json:"cafeteria_id"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// KafkaBridge mirrors hub publishes onto a Kafka topic so dashboard
// instances on other hosts see the change too.
type KafkaBridge struct {
	writer *kafka.Writer
}

func NewKafkaBridge(brokers []string) *KafkaBridge {
	if len(brokers) == 0 {
		return nil
	}
	return &KafkaBridge{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        changeTopic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (b *KafkaBridge) Publish(cafeteriaID uint) {
	if b == nil {
		return
	}

	// Best-effort: the store write already succeeded, a delivery failure is
	// logged and dropped.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		event := ChangeEvent{CafeteriaID: cafeteriaID, OccurredAt: time.Now().UTC()}
		data, err := json.Marshal(event)
		if err != nil {
			logger.L().Warn("failed to encode change event", zap.Error(err))
			return
		}

		err = b.writer.WriteMessages(ctx, kafka.Message{
			Key:   []byte(strconv.FormatUint(uint64(cafeteriaID), 10)),
			Value: data,
		})
		if err != nil {
			logger.L().Warn("failed to publish change event",
				zap.Uint("cafeteria_id", cafeteriaID),
				zap.Error(err),
			)
		}
	}()
}

func (b *KafkaBridge) Close() {
	if b != nil && b.writer != nil {
		_ = b.writer.Close()
	}
}

// Fanout publishes to every configured transport in order. Nil entries are
// skipped so the kafka bridge can stay unconfigured in development.
type Fanout []interface{ Publish(cafeteriaID uint) }

func (f Fanout) Publish(cafeteriaID uint) {
	for _, p := range f {
		if p != nil {
			p.Publish(cafeteriaID)
		}
	}
}
