// Package ingestion implements ingestionv1.OrderEventReader against a Kafka
// topic of order and order-action envelopes.
package ingestion

import (
	"context"
	"encoding/json"

	ingestionv1 "github.com/driftmirror/dlob-mirror/internal/domain/ingestion/v1"
	"github.com/driftmirror/dlob-mirror/pkg/errors"
	"github.com/driftmirror/dlob-mirror/pkg/logger"
	"github.com/segmentio/kafka-go"
)

// Config is the Kafka consumer configuration for the event-ingestion reader.
type Config struct {
	Brokers []string `env:"BROKER,required" envSeparator:","`
	Topic   string   `env:"TOPIC,required"`
	GroupID string   `env:"GROUP_ID" envDefault:"dlob-mirror"`
}

// Reader is a Kafka-backed ingestionv1.OrderEventReader.
type Reader struct {
	kafkaReader *kafka.Reader
	logger      *logger.Logger
}

// NewReader constructs a Reader consuming order/order-action envelopes from
// the configured topic as a member of the configured consumer group.
func NewReader(cfg Config, log *logger.Logger) *Reader {
	kafkaReader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		GroupID:     cfg.GroupID,
		Partition:   0,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.FirstOffset,
	})

	return &Reader{
		kafkaReader: kafkaReader,
		logger:      log,
	}
}

func (r *Reader) logError(err error, operation string) {
	r.logger.Error(errors.TracerFromError(err),
		logger.Field{Key: "operation", Value: operation},
	)
}

// SetOffset sets the reader's starting offset.
func (r *Reader) SetOffset(offset int64) error {
	if err := r.kafkaReader.SetOffset(offset); err != nil {
		r.logError(err, "SetOffset")
		return errors.NewTracer("ingestion_set_offset_error").Wrap(err)
	}
	return nil
}

// ReadMessage fetches the next Kafka message and decodes it into an
// envelope. It does not commit the offset; see CommitMessages.
func (r *Reader) ReadMessage(ctx context.Context) (kafka.Message, *ingestionv1.OrderEventEnvelope, error) {
	msg, err := r.kafkaReader.FetchMessage(ctx)
	if err != nil {
		r.logError(err, "ReadMessage")
		return kafka.Message{}, nil, errors.NewTracer("ingestion_read_error").Wrap(err)
	}

	var envelope ingestionv1.OrderEventEnvelope
	if err := json.Unmarshal(msg.Value, &envelope); err != nil {
		r.logError(err, "DecodeEnvelope")
		return msg, nil, errors.NewTracer("ingestion_decode_error").Wrap(err)
	}

	r.logger.Debug("read order event envelope",
		logger.Field{Key: "type", Value: envelope.Type},
		logger.Field{Key: "slot", Value: envelope.Slot},
		logger.Field{Key: "offset", Value: msg.Offset},
	)

	return msg, &envelope, nil
}

// CommitMessages commits messages to Kafka after the caller has applied
// them. Unlike a read-only mirror that trails behind the book of record,
// this reader commits for real: the ingestion loop calls this only after
// HandleOrderRecord/HandleOrderActionRecord has returned, so a crash
// between apply and commit is recovered by Kafka re-delivering the message
// on restart rather than silently skipping it.
func (r *Reader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	if err := r.kafkaReader.CommitMessages(ctx, msgs...); err != nil {
		r.logError(err, "CommitMessages")
		return errors.NewTracer("ingestion_commit_error").Wrap(err)
	}
	return nil
}

// Close releases the underlying Kafka connection.
func (r *Reader) Close() error {
	if err := r.kafkaReader.Close(); err != nil {
		r.logError(err, "Close")
		return errors.NewTracer("ingestion_close_error").Wrap(err)
	}
	return nil
}

var _ ingestionv1.OrderEventReader = (*Reader)(nil)
