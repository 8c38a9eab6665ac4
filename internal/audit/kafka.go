package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

const emitBuffer = 256

// KafkaPublisher ships audit events to a Kafka topic. Events are handed to a
// buffered channel and produced by a background worker so request paths never
// wait on the broker; when the buffer is full the event is dropped and
// counted in the log.
type KafkaPublisher struct {
	logger *slog.Logger
	client *kgo.Client
	topic  string
	inbox  chan Event
	done   chan struct{}
}

// NewKafkaPublisher connects to the brokers, ensures the topic exists, and
// starts the produce worker.
func NewKafkaPublisher(ctx context.Context, logger *slog.Logger, brokers []string, topic string) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}

	admin := kadm.NewClient(client)
	resp, err := admin.CreateTopic(ctx, 1, 1, nil, topic)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("ensure audit topic: %w", err)
	}
	// An existing topic is fine; anything else is fatal at boot.
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		client.Close()
		return nil, fmt.Errorf("ensure audit topic: %w", resp.Err)
	}

	p := &KafkaPublisher{
		logger: logger,
		client: client,
		topic:  topic,
		inbox:  make(chan Event, emitBuffer),
		done:   make(chan struct{}),
	}
	go p.run()
	return p, nil
}

// Emit queues an event for publication. Never blocks.
func (p *KafkaPublisher) Emit(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case p.inbox <- event:
	default:
		p.logger.WarnContext(ctx, "audit buffer full, dropping event",
			"action", event.Action,
			"subject_id", event.SubjectID,
		)
	}
}

func (p *KafkaPublisher) run() {
	defer close(p.done)
	for event := range p.inbox {
		payload, err := json.Marshal(event)
		if err != nil {
			p.logger.Error("audit event marshal failed", "error", err)
			continue
		}
		record := &kgo.Record{
			Topic: p.topic,
			Key:   []byte(event.SubjectID),
			Value: payload,
		}
		p.client.Produce(context.Background(), record, func(_ *kgo.Record, err error) {
			if err != nil {
				p.logger.Error("audit produce failed", "error", err, "action", event.Action)
			}
		})
	}
	p.client.Flush(context.Background())
}

// Close stops the worker and flushes pending records.
func (p *KafkaPublisher) Close() {
	close(p.inbox)
	<-p.done
	p.client.Close()
}
