// Package events publishes ingestion outcomes to RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// SlotsIngested is emitted after a source was ingested successfully.
type SlotsIngested struct {
	SourceID    string    `json:"source_id"`
	URL         string    `json:"url"`
	GymID       string    `json:"gym_id"`
	Extractor   string    `json:"extractor"`
	SlotsAdded  int       `json:"slots_added"`
	SlotsFailed int       `json:"slots_failed"`
	IngestedAt  time.Time `json:"ingested_at"`
}

type Publisher interface {
	PublishSlotsIngested(ctx context.Context, ev SlotsIngested) error
}

// NewPublisher returns an AMQP publisher, or a no-op one when url is empty.
func NewPublisher(url, queue string, logger *slog.Logger) Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	if url == "" {
		logger.Info("events.disabled", "reason", "AMQP_URL not set")
		return NopPublisher{}
	}
	if queue == "" {
		queue = "slots.ingested"
	}
	return &AMQPPublisher{url: url, queue: queue, logger: logger}
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) PublishSlotsIngested(context.Context, SlotsIngested) error { return nil }

// AMQPPublisher dials the broker per message and publishes persistent JSON
// messages to a durable queue on the default exchange.
type AMQPPublisher struct {
	url    string
	queue  string
	logger *slog.Logger
}

func (p *AMQPPublisher) PublishSlotsIngested(ctx context.Context, ev SlotsIngested) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.logger.Error("events.dial_failed", "error", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.logger.Error("events.channel_failed", "error", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		p.logger.Error("events.queue_declare_failed", "queue", p.queue, "error", err)
		return err
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		p.logger.Error("events.publish_failed", "queue", p.queue, "error", err)
		return err
	}
	p.logger.Info("events.published", "queue", p.queue, "source_id", ev.SourceID, "slots_added", ev.SlotsAdded)
	return nil
}
