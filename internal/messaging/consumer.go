package messaging

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const reconnectDelay = 5 * time.Second

// Consumer serves token validation and revocation for services that talk
// over the message broker instead of HTTP. Every running instance binds
// its own exclusive queue to a shared fanout exchange, so each instance
// sees every request. Replies go through the default exchange to the
// queue named in the message's ReplyTo, carrying its CorrelationId.
type Consumer struct {
	url      string
	exchange string
	handler  *Handler
}

func NewConsumer(url, exchange string, engine Authorizer) *Consumer {
	return &Consumer{url: url, exchange: exchange, handler: NewHandler(engine)}
}

// Run consumes messages until the context is cancelled, redialing with a
// fixed delay whenever the broker connection drops.
func (c *Consumer) Run(ctx context.Context) {
	for {
		if err := c.consume(ctx); err != nil {
			log.Printf("messaging: connection lost: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func (c *Consumer) consume(ctx context.Context) error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return err
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(c.exchange, "fanout", false, false, false, false, nil); err != nil {
		return err
	}
	queue, err := ch.QueueDeclare(c.exchange+"#"+uuid.NewString(), false, true, true, false, nil)
	if err != nil {
		return err
	}
	if err := ch.QueueBind(queue.Name, "", c.exchange, false, nil); err != nil {
		return err
	}

	deliveries, err := ch.Consume(queue.Name, "", false, true, false, false, nil)
	if err != nil {
		return err
	}
	log.Printf("messaging: consuming queue %q on exchange %q", queue.Name, c.exchange)

	for {
		select {
		case <-ctx.Done():
			return nil
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			c.handleDelivery(ctx, ch, delivery)
		}
	}
}

func (c *Consumer) handleDelivery(ctx context.Context, ch *amqp.Channel, delivery amqp.Delivery) {
	reply := c.handler.Handle(ctx, delivery.Body)
	if err := delivery.Ack(false); err != nil {
		log.Printf("messaging: ack: %v", err)
	}
	// Without a reply queue the outcome has no recipient.
	if delivery.ReplyTo == "" {
		return
	}
	err := ch.PublishWithContext(ctx, "", delivery.ReplyTo, false, false, amqp.Publishing{
		ContentType:   "application/json",
		CorrelationId: delivery.CorrelationId,
		AppId:         "authorization-service",
		Body:          reply,
	})
	if err != nil {
		log.Printf("messaging: publish reply: %v", err)
	}
}
