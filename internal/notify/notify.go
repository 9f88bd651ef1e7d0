// Package notify delivers booking emails in the background. Callers enqueue
// and move on; delivery failures are logged and never reported back.
package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	TemplateBookingConfirmation = "booking-confirmation"
	TemplateBookingNotification = "booking-notification"
	TemplateStatusUpdateBuyer   = "booking-status-update"
	TemplateStatusUpdateSeller  = "booking-status-update-seller"
)

const defaultSendTimeout = 30 * time.Second

var ErrClosed = errors.New("dispatcher closed")

// Message is one email to render and send.
type Message struct {
	Template  string            `json:"template"`
	Recipient string            `json:"recipient"`
	Variables map[string]string `json:"variables"`
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Dispatcher fans queued messages out to a fixed pool of workers.
type Dispatcher struct {
	sender      Sender
	logger      *zap.Logger
	queue       chan Message
	sendTimeout time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

type Option func(*Dispatcher)

// WithSendTimeout bounds each delivery attempt. Defaults to 30s.
func WithSendTimeout(d time.Duration) Option {
	return func(disp *Dispatcher) {
		if d > 0 {
			disp.sendTimeout = d
		}
	}
}

func NewDispatcher(sender Sender, queueSize, workers int, logger *zap.Logger, opts ...Option) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 1
	}

	if workers <= 0 {
		workers = 1
	}

	d := &Dispatcher{
		sender:      sender,
		logger:      logger,
		queue:       make(chan Message, queueSize),
		sendTimeout: defaultSendTimeout,
	}

	for _, opt := range opts {
		opt(d)
	}

	d.wg.Add(workers)

	for range workers {
		go d.work()
	}

	return d
}

// Enqueue never blocks. A full or closed queue drops the message.
func (d *Dispatcher) Enqueue(msg Message) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Warn("notification dropped, dispatcher closed",
			zap.String("template", msg.Template), zap.String("recipient", msg.Recipient))

		return
	}

	if msg.Recipient == "" {
		d.logger.Warn("notification dropped, no recipient", zap.String("template", msg.Template))
		return
	}

	select {
	case d.queue <- msg:
	default:
		d.logger.Warn("notification dropped, queue full",
			zap.String("template", msg.Template), zap.String("recipient", msg.Recipient))
	}
}

func (d *Dispatcher) work() {
	defer d.wg.Done()

	for msg := range d.queue {
		if err := d.send(msg); err != nil {
			d.logger.Error("failed to send notification",
				zap.String("template", msg.Template),
				zap.String("recipient", msg.Recipient),
				zap.Error(err),
			)

			continue
		}

		d.logger.Debug("notification sent",
			zap.String("template", msg.Template), zap.String("recipient", msg.Recipient))
	}
}

func (d *Dispatcher) send(msg Message) error {
	ctx, cancel := context.WithTimeout(context.Background(), d.sendTimeout)
	defer cancel()

	return d.sender.Send(ctx, msg)
}

// Close stops accepting messages and waits for queued ones to be sent,
// or for ctx to expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}

	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LogSender writes messages to the log instead of sending them.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("notification",
		zap.String("template", msg.Template),
		zap.String("recipient", msg.Recipient),
		zap.Any("variables", msg.Variables),
	)

	return nil
}
