package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var ErrQueueClosed = errors.New("notification queue closed")

var (
	notificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "livemart",
		Name:      "notifications_sent_total",
		Help:      "Notifications delivered, by kind.",
	}, []string{"kind"})

	notificationsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "livemart",
		Name:      "notifications_failed_total",
		Help:      "Notifications that failed or were dropped, by kind and reason.",
	}, []string{"kind", "reason"})
)

const defaultSendTimeout = 10 * time.Second

// Dispatcher queues notifications and delivers them from a fixed pool of
// workers. Enqueueing never blocks: a full queue drops the message. Delivery
// runs detached from the caller's context.
type Dispatcher struct {
	sender  Sender
	queue   chan Message
	timeout time.Duration
	log     zerolog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(sender Sender, workers, queueSize int, log zerolog.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	d := &Dispatcher{
		sender:  sender,
		queue:   make(chan Message, queueSize),
		timeout: defaultSendTimeout,
		log:     log.With().Str("component", "notify").Logger(),
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go func(id int) {
			defer d.wg.Done()
			d.workerLoop(id)
		}(i)
	}
	return d
}

func (d *Dispatcher) workerLoop(id int) {
	for msg := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)

		if err := d.sender.Send(ctx, msg); err != nil {
			notificationsFailed.WithLabelValues(string(msg.Kind), "send").Inc()
			d.log.Error().Err(err).Int("worker", id).Str("id", msg.ID).Str("kind", string(msg.Kind)).
				Str("to", msg.To).Msg("failed to deliver notification")
		} else {
			notificationsSent.WithLabelValues(string(msg.Kind)).Inc()
			d.log.Debug().Int("worker", id).Str("id", msg.ID).Str("kind", string(msg.Kind)).Msg("notification delivered")
		}

		cancel()
	}
}

// Enqueue hands msg to the workers. It returns ErrQueueClosed after Close;
// a full queue drops the message and logs it without returning an error.
func (d *Dispatcher) Enqueue(msg Message) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrQueueClosed
	}

	select {
	case d.queue <- msg:
	default:
		notificationsFailed.WithLabelValues(string(msg.Kind), "queue_full").Inc()
		d.log.Warn().Str("id", msg.ID).Str("kind", string(msg.Kind)).Str("to", msg.To).Msg("notification queue full, dropping")
	}
	return nil
}

// Close stops accepting messages and waits for the queued ones to be delivered.
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

func (d *Dispatcher) SendOrderConfirmation(ctx context.Context, email string, orderID int64, amount float64) error {
	return d.Enqueue(OrderConfirmation(email, orderID, amount))
}

func (d *Dispatcher) SendOrderStatusUpdate(ctx context.Context, email string, orderID int64, status string) error {
	return d.Enqueue(OrderStatusUpdate(email, orderID, status))
}

func (d *Dispatcher) SendOTP(ctx context.Context, email, otp string) error {
	return d.Enqueue(OTP(email, otp))
}
