package queue

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
)

// Enqueuer schedules a job for asynchronous execution and returns its id.
type Enqueuer interface {
	Enqueue(ctx context.Context, job Job) (string, error)
}

// Publisher publishes jobs to the task exchange.
type Publisher struct {
	mu sync.Mutex
	b  *Broker
	ch *amqp.Channel
}

// NewPublisher creates a publisher on the broker connection.
func NewPublisher(b *Broker) *Publisher {
	return &Publisher{b: b}
}

// Compile-time interface check.
var _ Enqueuer = (*Publisher)(nil)

// Enqueue publishes the job as a persistent message and returns the job id.
func (p *Publisher) Enqueue(_ context.Context, job Job) (string, error) {
	id := uuid.NewString()

	env, err := NewEnvelope(job, id, 1)
	if err != nil {
		return "", err
	}
	body, err := env.Encode()
	if err != nil {
		return "", err
	}

	if err := p.publish(TaskExchange, job.Queue(), amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    id,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}); err != nil {
		return "", fmt.Errorf("publish %s: %w", job.Type(), err)
	}

	return id, nil
}

// publishRetry re-publishes an envelope to the queue's wait queue with a
// per-message TTL. On expiry the broker dead-letters it back into the work
// queue, which delivers the delayed retry.
func (p *Publisher) publishRetry(env *Envelope, workQueue string, delay time.Duration) error {
	body, err := env.Encode()
	if err != nil {
		return err
	}

	// The default exchange routes directly to the wait queue by name.
	return p.publish("", workQueue+retrySuffix, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    env.ID,
		Timestamp:    time.Now().UTC(),
		Expiration:   strconv.FormatInt(delay.Milliseconds(), 10),
		Body:         body,
	})
}

// publish lazily opens a channel and sends one message, reopening the
// channel once if the cached one has gone stale.
func (p *Publisher) publish(exchange, key string, msg amqp.Publishing) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil {
		ch, err := p.b.Channel()
		if err != nil {
			return err
		}
		p.ch = ch
	}

	if err := p.ch.Publish(exchange, key, false, false, msg); err != nil {
		p.ch = nil
		ch, chErr := p.b.Channel()
		if chErr != nil {
			return err
		}
		p.ch = ch
		return p.ch.Publish(exchange, key, false, false, msg)
	}
	return nil
}

// Close releases the cached channel.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil {
		err := p.ch.Close()
		p.ch = nil
		return err
	}
	return nil
}
