package notice

import (
	"context"

	"MacroPulse/internal/domain/models"
	drepo "MacroPulse/internal/domain/repository"
	pkgkafka "MacroPulse/pkg/kafka"
)

// Kafka mirrors refresh notices to a Kafka topic so downstream consumers can
// react to snapshot publishes without holding a WebSocket open.
type Kafka struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafka(producer *pkgkafka.Producer, topic string) *Kafka {
	return &Kafka{producer: producer, topic: topic}
}

var _ drepo.NoticePublisher = (*Kafka)(nil)

// Publish sends one notice keyed by status, so compacted topics retain the
// latest success and the latest error.
func (k *Kafka) Publish(ctx context.Context, n *models.UpdateNotice) error {
	return k.producer.Publish(ctx, k.topic, []byte(n.Status), n)
}

func (k *Kafka) Close() error {
	return k.producer.Close()
}
