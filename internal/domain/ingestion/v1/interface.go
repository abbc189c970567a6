// Package ingestionv1 defines the event-stream contract the mirror's
// ingestion loop reads from: a single envelope type wrapping either an
// order record or an order-action record, and the reader interface that
// decodes envelopes off a Kafka topic.
package ingestionv1

import (
	"context"

	orderv1 "github.com/driftmirror/dlob-mirror/internal/domain/order/v1"
	"github.com/segmentio/kafka-go"
)

// EventType distinguishes the two envelope payload shapes the mirror
// ingests.
type EventType string

const (
	EventTypeOrderRecord       EventType = "order_record"
	EventTypeOrderActionRecord EventType = "order_action_record"
)

// OrderEventEnvelope wraps exactly one of OrderRecord or OrderActionRecord,
// tagged by Type, plus the slot the event was observed at.
type OrderEventEnvelope struct {
	Type              EventType
	Slot              uint64
	OrderRecord       *orderv1.OrderRecord
	OrderActionRecord *orderv1.OrderActionRecord
}

// OrderEventReader decodes order/order-action envelopes off a Kafka topic,
// one message at a time, and commits offsets once the caller has applied
// them.
//
//go:generate mockgen -source interface.go -destination=mock/interface_mock.go -package=ingestionv1_mock
type OrderEventReader interface {
	// ReadMessage reads the next message and decodes it into an envelope.
	ReadMessage(ctx context.Context) (kafka.Message, *OrderEventEnvelope, error)
	// SetOffset sets the reader's starting offset.
	SetOffset(offset int64) error
	// CommitMessages commits messages once they have been applied.
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	// Close releases the underlying Kafka connection.
	Close() error
}
