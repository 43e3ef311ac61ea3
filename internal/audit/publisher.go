package audit

import (
	"context"
	"time"
)

// Sink persists audit events.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Publisher buffers events in memory so request paths never wait on the
// sink. A Worker drains the buffer.
type Publisher struct {
	buf  *RingBuffer
	wake chan struct{}
}

func NewPublisher(capacity int) *Publisher {
	return &Publisher{
		buf:  NewRingBuffer(capacity),
		wake: make(chan struct{}, 1),
	}
}

// Emit queues an event. It never blocks; under sustained backpressure the
// oldest queued events are dropped.
func (p *Publisher) Emit(_ context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	p.buf.Enqueue(event)
	select {
	case p.wake <- struct{}{}:
	default:
	}
	return nil
}

func (p *Publisher) Pending() int {
	return p.buf.Len()
}

func (p *Publisher) Dropped() int64 {
	return p.buf.Dropped()
}
