package queue

import (
	"context"
	"encoding/json"

	"lms-realtime/internal/models"
	"lms-realtime/internal/services"
	"lms-realtime/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Consumer feeds notification payloads from the platform's queue into the
// fan-out service. REST workers publish to the queue instead of calling
// the HTTP ingress when they run on other hosts.
type Consumer struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string

	notificationService *services.NotificationService
}

func NewConsumer(url, queue string, notificationService *services.NotificationService) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	return &Consumer{
		conn:                conn,
		ch:                  ch,
		queue:               queue,
		notificationService: notificationService,
	}, nil
}

// Start consumes until the context is cancelled or the channel closes.
func (c *Consumer) Start(ctx context.Context) error {
	deliveries, err := c.ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				c.handle(d)
			}
		}
	}()

	logger.Info("Notification consumer started, queue=%s", c.queue)
	return nil
}

func (c *Consumer) handle(d amqp.Delivery) {
	var notification models.Notification
	if err := json.Unmarshal(d.Body, &notification); err != nil {
		logger.Error("Bad notification payload: %v", err)
		_ = d.Nack(false, false)
		return
	}

	if err := c.notificationService.Dispatch(notification); err != nil {
		// Unknown recipient types will never succeed; drop them.
		logger.Error("Error dispatching notification %s: %v", notification.ID, err)
		_ = d.Nack(false, false)
		return
	}

	_ = d.Ack(false)
}

func (c *Consumer) Close() error {
	if err := c.ch.Close(); err != nil {
		_ = c.conn.Close()
		return err
	}
	return c.conn.Close()
}
