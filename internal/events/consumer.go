package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"unishop/internal/config"
	"unishop/pkg/kafka"
	"unishop/pkg/rabbitmq"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/streadway/amqp"
)

// Handler processes one decoded event.
type Handler func(ctx context.Context, event OrderEvent) error

// LogEvent is the default handler: it writes the event to the log.
func LogEvent(_ context.Context, event OrderEvent) error {
	dealer := "none"
	if event.AssignedDealerID != nil {
		dealer = *event.AssignedDealerID
	}
	log.Printf("Order event %s: order=%s status=%q previous=%q dealer=%s actor=%s(%s)",
		event.Type, event.OrderID, event.Status, event.PreviousStatus, dealer, event.ActorID, event.ActorRole)
	return nil
}

// Decode parses a JSON encoded event.
func Decode(body []byte) (OrderEvent, error) {
	var event OrderEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return OrderEvent{}, fmt.Errorf("failed to unmarshal order event: %w", err)
	}
	if event.Type == "" || event.OrderID == "" {
		return OrderEvent{}, fmt.Errorf("order event is missing type or order id")
	}
	return event, nil
}

// DeliveryHandler adapts handler to RabbitMQ deliveries. Undecodable
// messages are logged and acknowledged so they do not block the queue.
func DeliveryHandler(ctx context.Context, handler Handler) func(amqp.Delivery) error {
	return func(msg amqp.Delivery) error {
		event, err := Decode(msg.Body)
		if err != nil {
			log.Printf("Dropping message %d: %v", msg.DeliveryTag, err)
			return nil
		}
		return handler(ctx, event)
	}
}

// StartConsumer starts consuming order events from the broker selected by
// cfg until ctx is cancelled. The returned function waits for the consumer
// goroutines to finish. With no broker configured it does nothing.
func StartConsumer(ctx context.Context, cfg *config.Config, publisher Publisher, handler Handler) (func(), error) {
	switch cfg.EventsDriver {
	case config.EventsRabbitMQ:
		// Reuse the publisher's connection when there is one.
		var client *rabbitmq.Client
		if rp, ok := publisher.(*RabbitPublisher); ok && rp.Client() != nil {
			client = rp.Client()
		} else {
			c, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Queue: cfg.RabbitMQQueue})
			if err != nil {
				return nil, err
			}
			client = c
			go func() {
				<-ctx.Done()
				client.Close()
			}()
		}
		if err := client.ConsumeOrderEvents(DeliveryHandler(ctx, handler)); err != nil {
			return nil, err
		}
		return func() {}, nil

	case config.EventsKafka:
		var wg sync.WaitGroup
		for _, topic := range kafka.Topics {
			reader := kafka.NewKafkaReader(cfg.KafkaBrokers, topic, "unishop-order-log")
			wg.Add(1)
			go func(r *kafkago.Reader) {
				defer wg.Done()
				defer r.Close()
				consumeKafka(ctx, r, handler)
			}(reader)
			log.Printf("Started listener for topic: %s", topic)
		}
		return wg.Wait, nil
	}
	return func() {}, nil
}

// Read retries back off between these bounds.
const (
	readRetryMin = 100 * time.Millisecond
	readRetryMax = 5 * time.Second
)

// messageReader is the part of *kafkago.Reader the consumer uses.
type messageReader interface {
	ReadMessage(ctx context.Context) (kafkago.Message, error)
	Config() kafkago.ReaderConfig
}

func consumeKafka(ctx context.Context, r messageReader, handler Handler) {
	backoff := readRetryMin
	for {
		msg, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return
			}
			log.Printf("Error reading message from %s, retrying in %s: %v", r.Config().Topic, backoff, err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, readRetryMax)
			continue
		}
		backoff = readRetryMin
		event, err := Decode(msg.Value)
		if err != nil {
			log.Printf("Dropping message at offset %d: %v", msg.Offset, err)
			continue
		}
		if err := handler(ctx, event); err != nil {
			log.Printf("Error handling %s for order %s: %v", event.Type, event.OrderID, err)
		}
	}
}
