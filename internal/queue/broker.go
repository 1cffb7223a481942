package queue

import (
	"fmt"

	"github.com/streadway/amqp"
)

// TaskExchange is the direct exchange all jobs flow through.
const TaskExchange = "tasks"

// retrySuffix names the per-queue TTL wait queue. Messages published there
// carry a per-message expiration and dead-letter back into the work queue.
const retrySuffix = ".retry"

// Queues lists every work queue, in declaration order.
func Queues() []string {
	return []string{QueuePriceUpdates, QueueWalletMonitoring}
}

// Broker holds the AMQP connection shared by publishers and workers.
type Broker struct {
	conn *amqp.Connection
}

// NewBroker dials the AMQP broker and declares the task topology.
func NewBroker(url string) (*Broker, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}

	b := &Broker{conn: conn}
	if err := b.declareTopology(); err != nil {
		conn.Close()
		return nil, err
	}

	return b, nil
}

// declareTopology declares the exchange, work queues, and retry wait
// queues. Declarations are idempotent, so both the beat and the workers
// can run this on startup.
func (b *Broker) declareTopology() error {
	ch, err := b.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(TaskExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", TaskExchange, err)
	}

	for _, q := range Queues() {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", q, err)
		}
		if err := ch.QueueBind(q, q, TaskExchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", q, err)
		}

		// Wait queue: expired messages dead-letter back to the work queue.
		waitArgs := amqp.Table{
			"x-dead-letter-exchange":    TaskExchange,
			"x-dead-letter-routing-key": q,
		}
		if _, err := ch.QueueDeclare(q+retrySuffix, true, false, false, false, waitArgs); err != nil {
			return fmt.Errorf("declare retry queue %s: %w", q+retrySuffix, err)
		}
	}

	return nil
}

// Channel opens a new channel on the shared connection.
func (b *Broker) Channel() (*amqp.Channel, error) {
	ch, err := b.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	return ch, nil
}

func (b *Broker) openChannel() (sessionChannel, error) {
	return b.Channel()
}

// Close terminates the broker connection.
func (b *Broker) Close() error {
	return b.conn.Close()
}
