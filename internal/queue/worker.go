package queue

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/streadway/amqp"

	"github.com/mannyAndem/crypto-clone/internal/observability"
)

func outcomeLabel(status OutcomeStatus) string {
	switch status {
	case StatusRetry:
		return "retry"
	case StatusFail:
		return "fail"
	default:
		return "done"
	}
}

// Handler executes one job invocation. attempt is 1-based.
type Handler func(ctx context.Context, job Job, attempt int) Outcome

// sessionChannel is the slice of amqp.Channel a consume session uses.
type sessionChannel interface {
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

// channelOpener opens consume channels. *Broker implements it.
type channelOpener interface {
	openChannel() (sessionChannel, error)
}

// retryPublisher re-publishes an envelope for delayed redelivery.
// *Publisher implements it.
type retryPublisher interface {
	publishRetry(env *Envelope, workQueue string, delay time.Duration) error
}

// Compile-time interface checks.
var (
	_ sessionChannel = (*amqp.Channel)(nil)
	_ channelOpener  = (*Broker)(nil)
	_ retryPublisher = (*Publisher)(nil)
)

// PoolOptions configures a worker pool.
type PoolOptions struct {
	// Workers is the number of concurrent consumers. Defaults to 4.
	Workers int

	// MaxJobsPerWorker recycles a worker's channel after this many jobs,
	// bounding the blast radius of any slow resource leak. Defaults to
	// 1000. Zero or negative keeps the default.
	MaxJobsPerWorker int

	Logger *log.Logger
}

// Pool consumes the work queues and dispatches jobs to handlers.
//
// Delivery is at-least-once: each worker takes one message at a time and
// acknowledges only after its handler returns, so messages held by a
// crashed worker are redelivered. Handlers must therefore be idempotent.
type Pool struct {
	channels  channelOpener
	publisher retryPublisher
	handlers  map[string]Handler
	queues    []string

	workers int
	maxJobs int
	logger  *log.Logger

	wg sync.WaitGroup
}

// NewPool creates a pool consuming every work queue.
func NewPool(broker *Broker, publisher *Publisher, opts PoolOptions) *Pool {
	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}
	maxJobs := opts.MaxJobsPerWorker
	if maxJobs <= 0 {
		maxJobs = 1000
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Pool{
		channels:  broker,
		publisher: publisher,
		handlers:  make(map[string]Handler),
		queues:    Queues(),
		workers:   workers,
		maxJobs:   maxJobs,
		logger:    logger,
	}
}

// Register binds a handler to a job type. Must be called before Run.
func (p *Pool) Register(jobType string, h Handler) {
	p.handlers[jobType] = h
}

// Run starts the workers and blocks until ctx is cancelled and all
// in-flight jobs have finished.
func (p *Pool) Run(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			p.workerLoop(ctx, id)
		}(i)
	}
	p.wg.Wait()
}

// workerLoop runs consume sessions back to back. A session ends when the
// worker hits its job quota (recycling) or its channel dies; the loop
// exits when ctx is cancelled.
func (p *Pool) workerLoop(ctx context.Context, id int) {
	for {
		if ctx.Err() != nil {
			return
		}

		err := p.consumeSession(ctx, id)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			p.logger.Printf("worker %d: session ended: %v, restarting", id, err)
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return
			}
		}
	}
}

// consumeSession opens a channel, consumes all work queues with prefetch
// 1, and processes up to maxJobs messages before returning for recycle.
func (p *Pool) consumeSession(ctx context.Context, id int) error {
	ch, err := p.channels.openChannel()
	if err != nil {
		return err
	}
	defer ch.Close()

	// Global prefetch: at most one unacked message across both queue
	// consumers, so a hung worker holds exactly one job.
	if err := ch.Qos(1, 0, true); err != nil {
		return err
	}

	// Buffered so the fan-in forwarders can flush their last delivery and
	// exit once the session returns and the channel closes.
	deliveries := make(chan amqp.Delivery, len(p.queues))
	var consumeWG sync.WaitGroup
	for _, q := range p.queues {
		msgs, err := ch.Consume(q, "", false, false, false, false, nil)
		if err != nil {
			return err
		}
		consumeWG.Add(1)
		go func(src <-chan amqp.Delivery) {
			defer consumeWG.Done()
			for d := range src {
				deliveries <- d
			}
		}(msgs)
	}
	go func() {
		consumeWG.Wait()
		close(deliveries)
	}()

	handled := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			p.handle(ctx, d)
			handled++
			if handled >= p.maxJobs {
				p.logger.Printf("worker %d: recycling after %d jobs", id, handled)
				return nil
			}
		}
	}
}

// handle runs one delivery through its handler and settles the message
// according to the outcome. Every path acknowledges: retries are carried
// by the freshly published wait-queue copy, and permanent failures are
// logged and dropped so the next scheduled cycle covers the work.
func (p *Pool) handle(ctx context.Context, d amqp.Delivery) {
	env, err := DecodeEnvelope(d.Body)
	if err != nil {
		p.logger.Printf("dropping undecodable message: %v", err)
		if nackErr := d.Reject(false); nackErr != nil {
			p.logger.Printf("reject: %v", nackErr)
		}
		return
	}

	job, err := env.Job()
	if err != nil {
		p.logger.Printf("dropping job %s: %v", env.ID, err)
		if nackErr := d.Reject(false); nackErr != nil {
			p.logger.Printf("reject: %v", nackErr)
		}
		return
	}

	handler, ok := p.handlers[env.Type]
	if !ok {
		p.logger.Printf("dropping job %s: no handler for type %s", env.ID, env.Type)
		if nackErr := d.Reject(false); nackErr != nil {
			p.logger.Printf("reject: %v", nackErr)
		}
		return
	}

	started := time.Now()
	outcome := handler(ctx, job, env.Attempt)
	observability.RecordJob(env.Type, outcomeLabel(outcome.Status), time.Since(started).Seconds())

	switch outcome.Status {
	case StatusRetry:
		retry := &Envelope{
			Type:    env.Type,
			ID:      env.ID,
			Attempt: env.Attempt + 1,
			Payload: env.Payload,
		}
		if err := p.publisher.publishRetry(retry, job.Queue(), outcome.Delay); err != nil {
			// Keep the original message so redelivery preserves the job.
			p.logger.Printf("job %s: retry publish failed: %v, requeueing original", env.ID, err)
			if nackErr := d.Reject(true); nackErr != nil {
				p.logger.Printf("reject: %v", nackErr)
			}
			return
		}
		p.logger.Printf("job %s (%s): attempt %d failed, retrying in %s: %v",
			env.ID, env.Type, env.Attempt, outcome.Delay, outcome.Err)

	case StatusFail:
		p.logger.Printf("job %s (%s): attempt %d failed permanently: %v",
			env.ID, env.Type, env.Attempt, outcome.Err)

	case StatusDone:
	}

	if err := d.Ack(false); err != nil {
		p.logger.Printf("job %s: ack failed: %v", env.ID, err)
	}
}
