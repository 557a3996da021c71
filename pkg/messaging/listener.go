package messaging

import (
	"context"
	"fmt"

	"github.com/motoshop/catalog/pkg/common/jsoncompat"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

func DeclareBindAndConsume(ch *amqp.Channel, prefix string, topic ChangeTopic) (<-chan amqp.Delivery, error) {
	name := getName(prefix, topic)
	q, err := ch.QueueDeclare(
		"",    // name
		false, // durable
		false, // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return nil, err
	}
	if err = ch.QueueBind(q.Name, name, name, false, nil); err != nil {
		return nil, err
	}
	return ch.Consume(
		q.Name,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
}

// Decode reads a JSON message body.
func Decode[V any](d amqp.Delivery) (V, error) {
	var v V
	if err := jsoncompat.Unmarshal(d.Body, &v); err != nil {
		return v, fmt.Errorf("decode %s message: %w", d.Exchange, err)
	}
	return v, nil
}

// ListenToTopic consumes the topic until ctx is done or the channel closes. A handler
// error rejects the message without requeue; the listener keeps running.
func ListenToTopic(ctx context.Context, ch *amqp.Channel, prefix string, topic ChangeTopic, logger *zap.Logger, handler func(context.Context, amqp.Delivery) error) error {
	msgs, err := DeclareBindAndConsume(ch, prefix, topic)
	if err != nil {
		return err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	go func() {
		defer ch.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-msgs:
				if !ok {
					logger.Warn("topic channel closed", zap.String("topic", string(topic)))
					return
				}
				if err := handler(ctx, d); err != nil {
					logger.Error("error processing message", zap.String("topic", string(topic)), zap.Error(err))
					_ = d.Nack(false, false)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()
	return nil
}
