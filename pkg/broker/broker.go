package broker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ikkim/restaurant-pos/config"
	"github.com/ikkim/restaurant-pos/pkg/logger"
	amqp "github.com/rabbitmq/amqp091-go"
)

var ErrClosed = errors.New("broker: publisher closed")

// Publisher publishes JSON messages to fanout exchanges over one AMQP
// channel. A dropped connection is re-dialled on the next Publish.
type Publisher struct {
	url string

	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	declared map[string]bool
	closed   bool
}

func Dial(cfg *config.RabbitMQConfig) (*Publisher, error) {
	p := &Publisher{
		url:      cfg.URL(),
		declared: make(map[string]bool),
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.connect(); err != nil {
		return nil, err
	}
	if err := p.declare(cfg.Exchange); err != nil {
		p.closeLocked()
		return nil, err
	}

	logger.Info("RabbitMQ connection established", map[string]interface{}{
		"host":     cfg.Host,
		"exchange": cfg.Exchange,
	})
	return p, nil
}

func (p *Publisher) connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open rabbitmq channel: %w", err)
	}
	p.conn, p.ch = conn, ch
	p.declared = make(map[string]bool)
	return nil
}

func (p *Publisher) declare(exchange string) error {
	if p.declared[exchange] {
		return nil
	}
	err := p.ch.ExchangeDeclare(
		exchange, // name
		"fanout", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	p.declared[exchange] = true
	return nil
}

// Publish sends payload to the fanout exchange.
func (p *Publisher) Publish(ctx context.Context, exchange string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	if p.conn == nil || p.conn.IsClosed() || p.ch == nil || p.ch.IsClosed() {
		logger.Warn("RabbitMQ connection lost, reconnecting", map[string]interface{}{
			"exchange": exchange,
		})
		if err := p.connect(); err != nil {
			return err
		}
	}
	if err := p.declare(exchange); err != nil {
		return err
	}

	return p.ch.PublishWithContext(ctx,
		exchange, // exchange
		"",       // routing key
		false,    // mandatory
		false,    // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         payload,
			Timestamp:    time.Now(),
		})
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return p.closeLocked()
}

func (p *Publisher) closeLocked() error {
	var errs []error
	if p.ch != nil && !p.ch.IsClosed() {
		errs = append(errs, p.ch.Close())
	}
	if p.conn != nil && !p.conn.IsClosed() {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}
