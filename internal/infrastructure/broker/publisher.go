package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	domain "refdatasync/internal/domain/entity/refdata"
)

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends reference data change events to a topic exchange, routed
// by event type.
type Publisher struct {
	conn     *amqp.Connection
	channel  channel
	exchange string
	logger   *logrus.Entry
	now      func() time.Time
	mu       sync.Mutex
}

// Dial connects to RabbitMQ and declares the events exchange.
func Dial(url, exchange string, logger *logrus.Logger) (*Publisher, error) {
	if url == "" {
		return nil, errors.New("rabbitmq url is required")
	}
	if exchange == "" {
		return nil, errors.New("exchange name cannot be empty")
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("create channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	p := newPublisher(ch, exchange, logger)
	p.conn = conn
	return p, nil
}

func newPublisher(ch channel, exchange string, logger *logrus.Logger) *Publisher {
	return &Publisher{
		channel:  ch,
		exchange: exchange,
		logger:   logger.WithField("component", "event_publisher"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (p *Publisher) Close() {
	if p == nil {
		return
	}
	if err := p.channel.Close(); err != nil {
		p.logger.Errorf("close rabbitmq channel: %v", err)
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			p.logger.Errorf("close rabbitmq connection: %v", err)
		}
	}
}

func (p *Publisher) PublishAssetInserted(ctx context.Context, runID string, asset domain.InsertedAsset) error {
	return p.publish(ctx, Event{Type: EventAssetInserted, RunID: runID, Asset: &asset})
}

func (p *Publisher) PublishSymbolInserted(ctx context.Context, runID string, exchange string, symbol domain.InsertedSymbol) error {
	return p.publish(ctx, Event{Type: EventSymbolInserted, RunID: runID, Exchange: exchange, Symbol: &symbol})
}

func (p *Publisher) PublishSymbolStateChanged(ctx context.Context, runID string, exchange string, transition domain.Transition) error {
	return p.publish(ctx, Event{Type: EventSymbolStateChanged, RunID: runID, Exchange: exchange, Transition: &transition})
}

func (p *Publisher) publish(ctx context.Context, event Event) error {
	event.OccurredAt = p.now()
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return p.channel.PublishWithContext(ctx, p.exchange, string(event.Type), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.OccurredAt,
		Type:         string(event.Type),
		Body:         body,
	})
}
