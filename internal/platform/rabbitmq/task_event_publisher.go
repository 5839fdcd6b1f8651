package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"todo-api/internal/app"
)

type TaskEventPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewTaskEventPublisher(conn *amqp.Connection, queueName string) *TaskEventPublisher {
	return &TaskEventPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *TaskEventPublisher) Publish(ctx context.Context, event app.TaskEvent) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal task event failed: %w", err)
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Type:         string(event.Type),
			Timestamp:    event.OccurredAt,
			Body:         payload,
			DeliveryMode: amqp.Persistent,
		},
	); err != nil {
		return fmt.Errorf("publish task event failed: %w", err)
	}
	return nil
}
