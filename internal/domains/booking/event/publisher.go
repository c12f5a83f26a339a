package event

//go:generate go run go.uber.org/mock/mockgen -source=./publisher.go -destination=../mocks/publisher_mock.go -package=mocks

import (
	"context"
	"fmt"
	"strings"
	"venue/config"
	"venue/infras/kafka"
	"venue/infras/otel"
	"venue/infras/rabbitmq"
	"venue/internal/domains/booking/model"
	"venue/shared/constant"

	"github.com/rs/zerolog/log"
)

const (
	defaultTopic    = "venue.bookings"
	headerEventType = "event_type"
)

// Publisher forwards committed lifecycle events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, events ...model.Event) error
}

// New picks the transport configured in EVENTS_DRIVER. Anything other than
// kafka or rabbitmq disables publishing.
func New(cfg *config.Config, otel otel.Otel) (Publisher, func(), error) {
	topic := cfg.Events.Topic
	if topic == constant.Empty {
		topic = defaultTopic
	}

	switch strings.ToLower(cfg.Events.Driver) {
	case constant.EventsDriverKafka:
		client := kafka.New(cfg)

		return NewKafka(client, topic, otel), closer("kafka", client.Close), nil
	case constant.EventsDriverRabbitMQ:
		client, err := rabbitmq.New(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create rabbitmq publisher: %w", err)
		}

		return NewRabbitMQ(client, otel), closer("rabbitmq", client.Close), nil
	default:
		log.Info().Str("driver", cfg.Events.Driver).Msg("booking events disabled")

		return None{}, func() {}, nil
	}
}

func closer(name string, fn func() error) func() {
	return func() {
		if err := fn(); err != nil {
			log.Error().Err(err).Str("driver", name).Msg("failed to close event publisher")
		}
	}
}

type kafkaPublisher struct {
	client kafka.Client
	topic  string
	otel   otel.Otel
}

func NewKafka(client kafka.Client, topic string, otel otel.Otel) Publisher {
	return &kafkaPublisher{client: client, topic: topic, otel: otel}
}

// Publish keys every message by booking id and tags it with the event type.
func (p *kafkaPublisher) Publish(ctx context.Context, events ...model.Event) (err error) {
	ctx, scope := p.otel.NewScope(ctx, constant.OtelEventScopeName, constant.OtelEventScopeName+".kafka.Publish")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	messages := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		messages = append(messages, kafka.Message{
			Key:     e.BookingID,
			Value:   e,
			Headers: map[string]string{headerEventType: string(e.Type)},
		})
	}

	if err = p.client.SendMessages(ctx, p.topic, messages...); err != nil {
		return fmt.Errorf("failed to publish booking events: %w", err)
	}

	return nil
}

type rabbitPublisher struct {
	client rabbitmq.Client
	otel   otel.Otel
}

func NewRabbitMQ(client rabbitmq.Client, otel otel.Otel) Publisher {
	return &rabbitPublisher{client: client, otel: otel}
}

// Publish routes every event by its type.
func (p *rabbitPublisher) Publish(ctx context.Context, events ...model.Event) (err error) {
	ctx, scope := p.otel.NewScope(ctx, constant.OtelEventScopeName, constant.OtelEventScopeName+".rabbitmq.Publish")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	for _, e := range events {
		if err = p.client.PublishJSON(ctx, string(e.Type), e); err != nil {
			return fmt.Errorf("failed to publish booking event %s: %w", e.ID, err)
		}
	}

	return nil
}

type None struct{}

func (None) Publish(context.Context, ...model.Event) error {
	return nil
}
