package repository

import (
	"context"
	"encoding/json"
	"time"

	"ForexPulse/internal/domain/models"
)

// producer is the part of pkg/kafka.Producer the publisher needs.
type producer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// snapshotMessage is the value written to the snapshot topic.
type snapshotMessage struct {
	Kind models.Kind     `json:"kind"`
	At   time.Time       `json:"at"`
	Data json.RawMessage `json:"data"`
}

// KafkaSnapshotPublisher exports committed snapshots to a topic keyed by kind,
// so every kind stays ordered within its partition.
type KafkaSnapshotPublisher struct {
	producer producer
	topic    string
	now      func() time.Time
}

func NewKafkaSnapshotPublisher(p producer, topic string) *KafkaSnapshotPublisher {
	return &KafkaSnapshotPublisher{producer: p, topic: topic, now: time.Now}
}

func (p *KafkaSnapshotPublisher) Name() string { return "kafka" }

func (p *KafkaSnapshotPublisher) Publish(ctx context.Context, kind models.Kind, payload []byte) error {
	return p.producer.Publish(ctx, p.topic, []byte(kind), snapshotMessage{
		Kind: kind,
		At:   p.now().UTC(),
		Data: json.RawMessage(payload),
	})
}

func (p *KafkaSnapshotPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
