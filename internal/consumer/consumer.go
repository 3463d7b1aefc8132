// internal/consumer/consumer.go
package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"message-board/internal/metrics"
	"message-board/internal/model"
	"message-board/internal/worker"
)

// Saver is the part of the message service the ingestion path uses.
type Saver interface {
	Save(ctx context.Context, message model.Message) (model.Message, error)
}

// Consumer feeds deliveries from one queue into a worker pool.
type Consumer struct {
	Queue       string
	Channel     *amqp.Channel
	ConsumerTag string
	Pool        *worker.WorkerPool
	log         *slog.Logger
}

// StartConsumer opens a dedicated channel on conn and starts consuming queue
// with the given number of workers.
func StartConsumer(conn *amqp.Connection, queue string, workers int, handler worker.Handler, log *slog.Logger) (*Consumer, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("queue %s: failed to open channel: %w", queue, err)
	}

	if err := ch.Qos(workers, 0, false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("queue %s: failed to set prefetch: %w", queue, err)
	}

	consumerTag := fmt.Sprintf("consumer-%s", queue)
	msgs, err := ch.Consume(
		queue,
		consumerTag,
		false, // autoAck: false to handle manually
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("queue %s: failed to start consuming: %w", queue, err)
	}

	c := &Consumer{
		Queue:       queue,
		Channel:     ch,
		ConsumerTag: consumerTag,
		Pool:        worker.NewWorkerPool(queue, msgs, handler, workers, log),
		log:         log,
	}
	c.Pool.Start()

	log.Info("Started consumer", "queue", queue, "workers", workers)
	return c, nil
}

// Stop cancels the subscription, drains the workers and closes the channel
func (c *Consumer) Stop() {
	_ = c.Channel.Cancel(c.ConsumerTag, false)
	c.Pool.Stop()
	_ = c.Channel.Close()
	c.log.Info("Stopped consumer", "queue", c.Queue)
}

func (c *Consumer) Workers() int {
	return c.Pool.Workers()
}

// SetWorkerCount resizes the pool and raises the channel prefetch to match
func (c *Consumer) SetWorkerCount(n int) {
	if err := c.Channel.Qos(n, 0, false); err != nil {
		c.log.Warn("Failed to update prefetch", "queue", c.Queue, "error", err)
	}
	c.Pool.SetWorkerCount(n)
}

// SaveHandler decodes a {id?, text} JSON body and stores it through svc.
func SaveHandler(svc Saver, log *slog.Logger) worker.Handler {
	return func(ctx context.Context, d amqp.Delivery) error {
		var m model.Message
		if err := json.Unmarshal(d.Body, &m); err != nil {
			return fmt.Errorf("decode delivery: %w", err)
		}

		saved, err := svc.Save(ctx, m)
		if err != nil {
			return err
		}

		metrics.MessagesSaved.WithLabelValues("amqp").Inc()
		log.Debug("Ingested message", "id", saved.ID)
		return nil
	}
}
