// internal/messaging/rabbit.go
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/streadway/amqp"

	"message-board/internal/metrics"
	"message-board/internal/model"
)

const (
	IngestQueue = "messages.ingest"
	IngestDLQ   = "messages.ingest.dlq"
	EventsQueue = "messages.events"

	EventMessageSaved = "message.saved"
)

// SavedEvent is published on EventsQueue after every successful save.
type SavedEvent struct {
	Type    string        `json:"type"`
	Message model.Message `json:"message"`
	At      time.Time     `json:"at"`
}

// queueSpecs lists every queue the service owns, dead-letter targets first so
// that the x-dead-letter-routing-key of a later queue always resolves.
var queueSpecs = []struct {
	name       string
	deadLetter string
}{
	{name: IngestDLQ},
	{name: IngestQueue, deadLetter: IngestDLQ},
	{name: EventsQueue},
}

type RabbitClient struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	log     *slog.Logger

	// mu serialises use of channel, which amqp does not allow concurrently.
	mu sync.Mutex
}

// NewRabbitClient dials rawURL and opens the channel used for publishing and
// queue inspection. Consumers open their own channels on GetConnection.
func NewRabbitClient(rawURL string, log *slog.Logger) (*RabbitClient, error) {
	conn, err := amqp.Dial(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	log.Info("[Rabbit] Connected", "host", brokerHost(rawURL))
	return &RabbitClient{
		conn:    conn,
		channel: ch,
		log:     log,
	}, nil
}

// brokerHost strips credentials and path so the broker address can be logged.
func brokerHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}

func (r *RabbitClient) GetChannel() *amqp.Channel {
	return r.channel
}

func (r *RabbitClient) GetConnection() *amqp.Connection {
	return r.conn
}

// DeclareQueues creates the durable ingest queue, its dead-letter queue and
// the events queue
func (r *RabbitClient) DeclareQueues() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, q := range queueSpecs {
		var args amqp.Table
		if q.deadLetter != "" {
			args = amqp.Table{
				"x-dead-letter-exchange":    "",
				"x-dead-letter-routing-key": q.deadLetter,
			}
		}
		if _, err := r.channel.QueueDeclare(q.name, true, false, false, false, args); err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
	}

	r.log.Info("[Rabbit] Queues declared", "ingest", IngestQueue, "events", EventsQueue)
	return nil
}

// Publish sends a JSON body to the named queue on the default exchange
func (r *RabbitClient) Publish(queue string, body []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.channel.Publish(
		"",    // default exchange
		queue, // routing key (queue name)
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to queue %s: %w", queue, err)
	}
	return nil
}

// PublishSaved emits a message.saved event for m
func (r *RabbitClient) PublishSaved(_ context.Context, m model.Message) error {
	body, err := json.Marshal(SavedEvent{
		Type:    EventMessageSaved,
		Message: m,
		At:      time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return r.Publish(EventsQueue, body)
}

// Close closes the channel and then the connection, reporting both failures.
func (r *RabbitClient) Close() error {
	return errors.Join(r.channel.Close(), r.conn.Close())
}

func (r *RabbitClient) UpdateQueueDepth(queue string) {
	r.mu.Lock()
	q, err := r.channel.QueueInspect(queue)
	r.mu.Unlock()
	if err != nil {
		r.log.Warn("[Rabbit] Failed to inspect queue", "queue", queue, "error", err)
		return
	}

	metrics.QueueDepth.WithLabelValues(queue).Set(float64(q.Messages))
}
