// Package notify implements best-effort, at-least-once notification fan-out.
// Delivery is an explicit async hand-off: the triggering operation enqueues
// and returns; insert failures are logged and swallowed, never surfaced.
package notify

import (
	"encoding/json"
	"sync"

	"github.com/lexportal/collabsync/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Message is one fan-out request: the same typed payload queued for every
// recipient. No cross-recipient ordering is guaranteed.
type Message struct {
	Recipients []string
	Type       string
	Payload    models.JSON
}

// Dispatcher writes one Notification row per recipient off a buffered
// queue. When the queue is full the write happens synchronously on the
// caller's goroutine, so a burst degrades latency instead of dropping
// deliveries.
type Dispatcher struct {
	db    *gorm.DB
	log   *zap.Logger
	queue chan Message

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
	done      chan struct{}
	drained   chan struct{}
}

// NewDispatcher starts the delivery worker. queueSize 0 makes every
// Enqueue synchronous.
func NewDispatcher(db *gorm.DB, logger *zap.Logger, queueSize int) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dispatcher{
		db:      db,
		log:     logger,
		queue:   make(chan Message, queueSize),
		done:    make(chan struct{}),
		drained: make(chan struct{}),
	}
	go d.run()
	return d
}

// Enqueue queues a notification for each recipient. payload is marshaled
// once; a marshal failure is logged and the message dropped, since an
// unserializable payload can never be delivered.
func (d *Dispatcher) Enqueue(recipients []string, msgType string, payload interface{}) {
	if d == nil || len(recipients) == 0 {
		return
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		d.log.Error("notification payload marshal failed",
			zap.String("type", msgType), zap.Error(err))
		return
	}

	msg := Message{Recipients: recipients, Type: msgType, Payload: models.NewJSON(raw)}

	// The read lock pins the closed flag across the buffer attempt: a
	// message queued while the flag is down is queued before Close flips
	// it, so the worker's drain pass still picks it up.
	d.mu.RLock()
	if d.closed {
		d.mu.RUnlock()
		// Shutting down; deliver inline so nothing is lost.
		d.deliver(msg)
		return
	}
	select {
	case d.queue <- msg:
		d.mu.RUnlock()
	default:
		d.mu.RUnlock()
		d.deliver(msg)
	}
}

func (d *Dispatcher) run() {
	defer close(d.drained)
	for {
		select {
		case msg := <-d.queue:
			d.deliver(msg)
		case <-d.done:
			// Drain what is already queued before exiting.
			for {
				select {
				case msg := <-d.queue:
					d.deliver(msg)
				default:
					return
				}
			}
		}
	}
}

// deliver inserts one row per recipient. A failed insert for one recipient
// never blocks the others.
func (d *Dispatcher) deliver(msg Message) {
	for _, recipient := range msg.Recipients {
		row := models.Notification{
			UserID:  recipient,
			Type:    msg.Type,
			Payload: msg.Payload,
		}
		if err := d.db.Create(&row).Error; err != nil {
			d.log.Error("notification insert failed",
				zap.String("recipient", recipient),
				zap.String("type", msg.Type),
				zap.Error(err))
		}
	}
}

// Close stops the worker after draining the queue.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		d.mu.Unlock()
		close(d.done)
		<-d.drained
	})
}
