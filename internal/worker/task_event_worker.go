package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"todo-api/internal/app"
)

// TaskEventWorker consumes task events and writes them to the audit log.
type TaskEventWorker struct {
	conn      *amqp.Connection
	queueName string
	audit     zerolog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewTaskEventWorker(conn *amqp.Connection, queueName string) *TaskEventWorker {
	return &TaskEventWorker{
		conn:      conn,
		queueName: queueName,
		audit:     log.Logger.With().Str("component", "audit").Logger(),
	}
}

func (w *TaskEventWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				if err := w.handle(d.Body); err != nil {
					w.audit.Error().Err(err).Msg("drop task event")
					_ = d.Nack(false, false)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

func (w *TaskEventWorker) handle(body []byte) error {
	var event app.TaskEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("decode task event failed: %w", err)
	}
	if event.Type == "" || event.TaskID == 0 {
		return fmt.Errorf("incomplete task event %q", body)
	}

	w.audit.Info().
		Str("event", string(event.Type)).
		Uint("task_id", event.TaskID).
		Str("actor", event.Actor).
		Bool("completed", event.Completed).
		Time("occurred_at", event.OccurredAt).
		Msg("task event")
	return nil
}

func (w *TaskEventWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
