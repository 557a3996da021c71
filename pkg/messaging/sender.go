package messaging

import (
	"context"
	"fmt"

	"github.com/motoshop/catalog/pkg/common/jsoncompat"
	amqp "github.com/rabbitmq/amqp091-go"
)

// DefineTopic declares the durable topic exchange and queue for the topic.
func DefineTopic(ch *amqp.Channel, prefix string, topic ChangeTopic) error {
	name := getName(prefix, topic)
	if err := ch.ExchangeDeclare(
		name,    // name
		"topic", // type
		true,    // durable
		false,   // auto-delete
		false,   // internal
		false,   // noWait
		nil,     // arguments
	); err != nil {
		return fmt.Errorf("declare exchange %s: %w", name, err)
	}
	if _, err := ch.QueueDeclare(
		name,  // name of the queue
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // noWait
		nil,   // arguments
	); err != nil {
		return fmt.Errorf("declare queue %s: %w", name, err)
	}
	return nil
}

func getName(prefix string, topic ChangeTopic) string {
	if prefix == "" {
		return string(topic)
	}
	return fmt.Sprintf("%s_%s", prefix, topic)
}

// Publisher is the part of an amqp channel used for sending.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

func Publish[V any](ctx context.Context, ch Publisher, prefix string, topic ChangeTopic, data V) error {
	bytes, err := jsoncompat.Marshal(data)
	if err != nil {
		return err
	}
	name := getName(prefix, topic)
	return ch.PublishWithContext(ctx,
		name,
		name,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        bytes,
		},
	)
}

// SendChange publishes data on a short lived channel of the connection.
func SendChange[V any](ctx context.Context, c *amqp.Connection, prefix string, topic ChangeTopic, data V) error {
	ch, err := c.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()
	return Publish(ctx, ch, prefix, topic, data)
}
