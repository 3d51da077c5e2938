// Package events publishes and consumes order lifecycle events over
// RabbitMQ or Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"unishop/internal/config"
	"unishop/internal/models"
	"unishop/pkg/kafka"
	"unishop/pkg/rabbitmq"

	"github.com/shopspring/decimal"
)

// Event types.
const (
	TypeOrderCreated       = "order.created"
	TypeOrderStatusUpdated = "order.status_updated"
)

// OrderEvent describes a placed order or an applied order change.
type OrderEvent struct {
	Type             string             `json:"type"`
	OrderID          string             `json:"orderId"`
	UserID           string             `json:"userId"`
	Status           models.OrderStatus `json:"status"`
	PreviousStatus   models.OrderStatus `json:"previousStatus,omitempty"`
	AssignedDealerID *string            `json:"assignedDealerId"`
	TotalAmount      decimal.Decimal    `json:"totalAmount"`
	ActorID          string             `json:"actorId"`
	ActorRole        models.Role        `json:"actorRole"`
	OccurredAt       time.Time          `json:"occurredAt"`
}

// NewOrderEvent builds an event of eventType from the current state of order.
func NewOrderEvent(eventType string, order *models.Order, previous models.OrderStatus, actorID string, actorRole models.Role) OrderEvent {
	return OrderEvent{
		Type:             eventType,
		OrderID:          order.ID,
		UserID:           order.UserID,
		Status:           order.Status,
		PreviousStatus:   previous,
		AssignedDealerID: order.AssignedDealerID,
		TotalAmount:      order.TotalAmount,
		ActorID:          actorID,
		ActorRole:        actorRole,
		OccurredAt:       time.Now().UTC(),
	}
}

// Publisher delivers order events to a broker.
type Publisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
	Close() error
}

// NewPublisher returns the publisher selected by cfg.EventsDriver.
func NewPublisher(cfg *config.Config) (Publisher, error) {
	switch cfg.EventsDriver {
	case config.EventsRabbitMQ:
		client, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Queue: cfg.RabbitMQQueue})
		if err != nil {
			return nil, err
		}
		return NewRabbitPublisher(client), nil
	case config.EventsKafka:
		if len(cfg.KafkaBrokers) == 0 {
			return nil, fmt.Errorf("KAFKA_BROKERS is empty")
		}
		if err := kafka.CreateTopics(cfg.KafkaBrokers[0], kafka.Topics); err != nil {
			log.Printf("Warning: could not create Kafka topics: %v", err)
		}
		return NewKafkaPublisher(kafka.NewKafkaWriter(cfg.KafkaBrokers)), nil
	case config.EventsNone, "":
		return NopPublisher{}, nil
	}
	return nil, fmt.Errorf("unsupported events driver %q", cfg.EventsDriver)
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) PublishOrderEvent(context.Context, OrderEvent) error { return nil }
func (NopPublisher) Close() error { return nil }

// RabbitSender is the part of *rabbitmq.Client a RabbitPublisher uses.
type RabbitSender interface {
	Publish(eventType string, body []byte) error
	Close() error
}

// RabbitPublisher sends events to the order queue.
type RabbitPublisher struct {
	client RabbitSender
}

// NewRabbitPublisher publishes through client.
func NewRabbitPublisher(client RabbitSender) *RabbitPublisher {
	return &RabbitPublisher{client: client}
}

// PublishOrderEvent implements Publisher.
func (p *RabbitPublisher) PublishOrderEvent(_ context.Context, event OrderEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event.Type, err)
	}
	return p.client.Publish(event.Type, body)
}

// Client exposes the underlying connection so a consumer can share it. It
// is nil when the publisher was built over another sender.
func (p *RabbitPublisher) Client() *rabbitmq.Client {
	client, _ := p.client.(*rabbitmq.Client)
	return client
}

// Close implements Publisher.
func (p *RabbitPublisher) Close() error { return p.client.Close() }

// KafkaWriter is the part of *kafkago.Writer a KafkaPublisher uses.
type KafkaWriter interface {
	kafka.MessageWriter
	Close() error
}

// KafkaPublisher writes events keyed by order id.
type KafkaPublisher struct {
	writer KafkaWriter
}

// NewKafkaPublisher publishes through writer.
func NewKafkaPublisher(writer KafkaWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

// TopicFor maps an event type to its Kafka topic.
func TopicFor(eventType string) string {
	if eventType == TypeOrderCreated {
		return kafka.TopicOrderCreated
	}
	return kafka.TopicOrderStatusUpdated
}

// PublishOrderEvent implements Publisher.
func (p *KafkaPublisher) PublishOrderEvent(ctx context.Context, event OrderEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event.Type, err)
	}
	return kafka.WriteMessage(ctx, p.writer, TopicFor(event.Type), []byte(event.OrderID), body)
}

// Close implements Publisher.
func (p *KafkaPublisher) Close() error { return p.writer.Close() }
