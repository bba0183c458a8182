// Package bus provides the in-memory message queues between channel
// supervisors and the agent loop: inbound user events flow one way, outbound
// replies the other. Both queues are bounded; publishing never blocks.
package bus

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrQueueFull is returned by a publish when the queue buffer is full.
	ErrQueueFull = errors.New("queue is full")
	// ErrClosed is returned after Close: by every publish, and by consumes
	// once the remaining buffered messages are drained.
	ErrClosed = errors.New("bus is closed")
)

// Inbound is one user message normalized from a channel event.
type Inbound struct {
	SenderID   string            `json:"sender_id"`
	ChatID     string            `json:"chat_id"`
	Content    string            `json:"content"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	ReceivedAt time.Time         `json:"received_at"`
}

// Outbound is one reply the agent wants delivered to a chat. ReplyTo carries
// the id of the inbound message being answered; empty means a proactive send.
type Outbound struct {
	ChatID   string            `json:"chat_id"`
	Content  string            `json:"content"`
	ReplyTo  string            `json:"reply_to,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type options struct {
	inboundBuffer  int
	outboundBuffer int
}

// Option configures a Bus.
type Option func(*options)

// WithInboundBuffer sets the inbound queue capacity (default 64).
func WithInboundBuffer(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.inboundBuffer = n
		}
	}
}

// WithOutboundBuffer sets the outbound queue capacity (default 64).
func WithOutboundBuffer(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.outboundBuffer = n
		}
	}
}

// Bus carries messages between supervisors and the agent loop. Publishing is
// non-blocking (a full queue is the publisher's signal to drop and log);
// consuming blocks until a message, context cancellation, or Close.
type Bus struct {
	inbound  chan Inbound
	outbound chan Outbound
	done     chan struct{}
	mu       sync.Mutex
}

// DefaultBuffer is the queue capacity used when no buffer option is given.
const DefaultBuffer = 64

// New creates a Bus with bounded queues in both directions.
func New(opts ...Option) *Bus {
	o := options{inboundBuffer: DefaultBuffer, outboundBuffer: DefaultBuffer}
	for _, opt := range opts {
		opt(&o)
	}
	return &Bus{
		inbound:  make(chan Inbound, o.inboundBuffer),
		outbound: make(chan Outbound, o.outboundBuffer),
		done:     make(chan struct{}),
	}
}

// PublishInbound enqueues msg without blocking. Returns ErrQueueFull when the
// buffer is full and ErrClosed after Close.
func (b *Bus) PublishInbound(msg Inbound) error {
	if b.isClosed() {
		return ErrClosed
	}
	select {
	case b.inbound <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// PublishOutbound enqueues msg without blocking. Returns ErrQueueFull when the
// buffer is full and ErrClosed after Close.
func (b *Bus) PublishOutbound(msg Outbound) error {
	if b.isClosed() {
		return ErrClosed
	}
	select {
	case b.outbound <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// ConsumeInbound blocks until a message is available, ctx ends, or the bus is
// closed and drained. Buffered messages remain consumable after Close.
func (b *Bus) ConsumeInbound(ctx context.Context) (Inbound, error) {
	// Drain before reporting closed.
	select {
	case msg := <-b.inbound:
		return msg, nil
	default:
	}
	select {
	case msg := <-b.inbound:
		return msg, nil
	case <-ctx.Done():
		return Inbound{}, ctx.Err()
	case <-b.done:
		return Inbound{}, ErrClosed
	}
}

// ConsumeOutbound blocks until a message is available, ctx ends, or the bus is
// closed and drained. Buffered messages remain consumable after Close.
func (b *Bus) ConsumeOutbound(ctx context.Context) (Outbound, error) {
	select {
	case msg := <-b.outbound:
		return msg, nil
	default:
	}
	select {
	case msg := <-b.outbound:
		return msg, nil
	case <-ctx.Done():
		return Outbound{}, ctx.Err()
	case <-b.done:
		return Outbound{}, ErrClosed
	}
}

// InboundLen returns the number of buffered inbound messages.
func (b *Bus) InboundLen() int { return len(b.inbound) }

// OutboundLen returns the number of buffered outbound messages.
func (b *Bus) OutboundLen() int { return len(b.outbound) }

// Close stops the bus. Later publishes fail with ErrClosed; consumers drain
// the buffers and then receive ErrClosed. A second Close returns ErrClosed.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	select {
	case <-b.done:
		return ErrClosed
	default:
		close(b.done)
		return nil
	}
}

func (b *Bus) isClosed() bool {
	select {
	case <-b.done:
		return true
	default:
		return false
	}
}
