package rabbitmq

//go:generate go run go.uber.org/mock/mockgen -source=./rabbitmq.go -destination=./mocks/rabbitmq_mock.go -package=mocks

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"venue/config"
	"venue/shared/constant"
	"venue/shared/timezone"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

const exchangeKind = "topic"

type Client interface {
	PublishJSON(ctx context.Context, routingKey string, value any) error
	Close() error
}

type rabbitClientImpl struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// New dials the broker and declares a durable topic exchange.
func New(config *config.Config) (Client, error) {
	conn, err := amqp.Dial(config.RabbitMQ.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()

		return nil, fmt.Errorf("failed to open rabbitmq channel: %w", err)
	}

	if err = channel.ExchangeDeclare(config.RabbitMQ.Exchange, exchangeKind, true, false, false, false, nil); err != nil {
		_ = channel.Close()
		_ = conn.Close()

		return nil, fmt.Errorf("failed to declare rabbitmq exchange: %w", err)
	}

	log.Info().Str("exchange", config.RabbitMQ.Exchange).Msg("RabbitMQ client initialized")

	return &rabbitClientImpl{
		conn:     conn,
		channel:  channel,
		exchange: config.RabbitMQ.Exchange,
	}, nil
}

// PublishJSON sends a persistent JSON message. Channels are not safe for
// concurrent publishing, so calls are serialized.
func (r *rabbitClientImpl) PublishJSON(ctx context.Context, routingKey string, value any) error {
	body, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal rabbitmq message: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	err = r.channel.PublishWithContext(ctx, r.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  constant.ContentTypeJSON,
		DeliveryMode: amqp.Persistent,
		Timestamp:    timezone.Now(),
		Body:         body,
	})
	if err != nil {
		log.Error().Err(err).Str("routing_key", routingKey).Msg("Failed to publish message to RabbitMQ.")

		return fmt.Errorf("failed to publish rabbitmq message: %w", err)
	}

	return nil
}

func (r *rabbitClientImpl) Close() error {
	if err := r.channel.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close rabbitmq channel")
	}

	if err := r.conn.Close(); err != nil {
		return fmt.Errorf("failed to close rabbitmq connection: %w", err)
	}

	return nil
}
