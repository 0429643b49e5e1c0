package notify

import (
	"context"
	"sync"
	"time"

	"credential_service/internal/metrics"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// Dispatcher hands messages to a pool of workers so that mail delivery
// never blocks or fails the operation that requested it.
type Dispatcher struct {
	sender      Sender
	log         *zap.Logger
	queue       chan Message
	workers     int
	sendTimeout time.Duration
	backoff     func() retry.Backoff

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// DispatcherOption configures a Dispatcher
type DispatcherOption func(*Dispatcher)

// WithWorkers sets the number of delivery goroutines
func WithWorkers(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithQueueSize sets how many messages may wait for a worker
func WithQueueSize(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n >= 0 {
			d.queue = make(chan Message, n)
		}
	}
}

// WithSendTimeout bounds a single delivery including its retries
func WithSendTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) { d.sendTimeout = timeout }
}

// WithBackoff replaces the retry policy. The factory is called once per delivery.
func WithBackoff(factory func() retry.Backoff) DispatcherOption {
	return func(d *Dispatcher) { d.backoff = factory }
}

// NewDispatcher creates a Dispatcher and starts its workers
func NewDispatcher(sender Sender, log *zap.Logger, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		sender:      sender,
		log:         log,
		queue:       make(chan Message, 100),
		workers:     2,
		sendTimeout: 30 * time.Second,
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(3, retry.NewExponential(250*time.Millisecond))
		},
	}
	for _, opt := range opts {
		opt(d)
	}

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.run()
	}
	return d
}

// Dispatch enqueues a message without blocking. Messages are dropped, and
// logged, when the queue is full or the dispatcher is closed.
func (d *Dispatcher) Dispatch(msg Message) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(msg, "dispatcher closed")
		return
	}

	select {
	case d.queue <- msg:
	default:
		d.drop(msg, "queue full")
	}
}

// Close stops accepting messages and waits for queued ones to be delivered
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for msg := range d.queue {
		d.deliver(msg)
	}
}

func (d *Dispatcher) deliver(msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), d.sendTimeout)
	defer cancel()

	attempts := 0
	err := retry.Do(ctx, d.backoff(), func(ctx context.Context) error {
		attempts++
		if err := d.sender.Send(ctx, msg); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		d.log.Warn("notification delivery failed",
			zap.String("kind", string(msg.Kind)),
			zap.String("email", msg.Email),
			zap.Int("attempts", attempts),
			zap.Error(err))
		metrics.RecordNotification(string(msg.Kind), metrics.OutcomeFailure)
		return
	}

	d.log.Debug("notification delivered",
		zap.String("kind", string(msg.Kind)),
		zap.String("email", msg.Email))
	metrics.RecordNotification(string(msg.Kind), metrics.OutcomeSuccess)
}

func (d *Dispatcher) drop(msg Message, reason string) {
	d.log.Warn("notification dropped",
		zap.String("kind", string(msg.Kind)),
		zap.String("email", msg.Email),
		zap.String("reason", reason))
	metrics.RecordNotification(string(msg.Kind), metrics.OutcomeDropped)
}
