package notification

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sender delivers one message to a set of recipients.
type Sender interface {
	Send(ctx context.Context, recipients []string, subject, text, html string) error
}

type Message struct {
	To      []string
	Subject string
	Text    string
	HTML    string
}

// Dispatcher sends messages from a buffered queue on a background worker.
// A full queue drops the message; failures are logged and never returned.
type Dispatcher struct {
	sender  Sender
	log     *zap.Logger
	queue   chan Message
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewDispatcher(sender Sender, log *zap.Logger, buffer int) *Dispatcher {
	if buffer <= 0 {
		buffer = 100
	}
	d := &Dispatcher{
		sender:  sender,
		log:     log,
		queue:   make(chan Message, buffer),
		timeout: 30 * time.Second,
		done:    make(chan struct{}),
	}

	go d.worker()
	return d
}

func (d *Dispatcher) worker() {
	defer close(d.done)

	for msg := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		if err := d.sender.Send(ctx, msg.To, msg.Subject, msg.Text, msg.HTML); err != nil {
			d.log.Error("notification send failed",
				zap.Strings("to", msg.To),
				zap.String("subject", msg.Subject),
				zap.Error(err),
			)
		}
		cancel()
	}
}

func (d *Dispatcher) Dispatch(msg Message) {
	if len(msg.To) == 0 {
		return
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.log.Warn("notification dispatcher closed, dropping message", zap.String("subject", msg.Subject))
		return
	}

	select {
	case d.queue <- msg:
	default:
		d.log.Warn("notification queue full, dropping message", zap.String("subject", msg.Subject))
	}
}

// Close stops accepting messages and waits for the queue to drain.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	<-d.done
}
