package service

import (
	"context"
	"encoding/json"
	"time"

	charmlog "github.com/charmbracelet/log"
	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/iliyamo/writing-practice-api/internal/queue"
)

// EventPublisher delivers domain events.  Implementations must not block the
// request that produced the event for longer than a short publish.
type EventPublisher interface {
	PublishTextSubmitted(ctx context.Context, event q.TextSubmittedEvent) error
}

// NopPublisher drops every event.  Used when EVENTS_ENABLED=false.
type NopPublisher struct{}

func (NopPublisher) PublishTextSubmitted(context.Context, q.TextSubmittedEvent) error { return nil }

// AMQPPublisher publishes events to RabbitMQ, one connection per message.
// Errors are logged and returned so the caller can choose to ignore them.
type AMQPPublisher struct {
	url     string
	log     *charmlog.Logger
	timeout time.Duration
}

func NewAMQPPublisher(url string, log *charmlog.Logger) *AMQPPublisher {
	return &AMQPPublisher{url: url, log: log, timeout: 5 * time.Second}
}

// PublishTextSubmitted sends event to the text.submitted queue as a
// persistent JSON message.
func (p *AMQPPublisher) PublishTextSubmitted(ctx context.Context, event q.TextSubmittedEvent) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(p.timeout),
	})
	if err != nil {
		p.log.Warn("rabbitmq: dial failed", "err", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn("rabbitmq: channel open failed", "err", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		q.TextSubmittedQueue, // name
		true,                 // durable
		false,                // autoDelete
		false,                // exclusive
		false,                // noWait
		nil,                  // args
	); err != nil {
		p.log.Warn("rabbitmq: queue declare failed", "err", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx,
		"",                   // default exchange
		q.TextSubmittedQueue, // routing key = queue name
		false,                // mandatory
		false,                // immediate
		pub,
	); err != nil {
		p.log.Warn("rabbitmq: publish failed", "err", err)
		return err
	}
	return nil
}
