package testutil

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/skosovsky/botsy/channel"
)

// MockConnection scripts a channel.Connection. Open consumes scripted errors
// until they run out, then succeeds and stores the receive callback for
// EmitEvent. Wait blocks until BreakLink delivers an error or the context
// ends. Deliveries are recorded for inspection.
//
// DeliverErr, when set before the test runs, is returned by every Deliver.
type MockConnection struct {
	DeliverErr error

	mu         sync.Mutex
	openErrs   []error
	opens      int
	receive    func(channel.Event)
	deliveries []channel.Delivery
	waitCh     chan error
}

// NewMockConnection returns a connection whose Open succeeds immediately.
func NewMockConnection() *MockConnection {
	return &MockConnection{waitCh: make(chan error, 8)}
}

// ScriptOpenError queues errors for the next Open calls, in order.
func (c *MockConnection) ScriptOpenError(errs ...error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.openErrs = append(c.openErrs, errs...)
}

// Open pops the next scripted error, or succeeds and retains receive.
func (c *MockConnection) Open(_ context.Context, receive func(channel.Event)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opens++
	if len(c.openErrs) > 0 {
		err := c.openErrs[0]
		c.openErrs = c.openErrs[1:]
		return err
	}
	c.receive = receive
	return nil
}

// Wait blocks until BreakLink supplies a terminal error or ctx ends.
func (c *MockConnection) Wait(ctx context.Context) error {
	select {
	case err := <-c.waitCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Deliver records the delivery and returns DeliverErr.
func (c *MockConnection) Deliver(_ context.Context, d channel.Delivery) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deliveries = append(c.deliveries, d)
	return c.DeliverErr
}

// EmitEvent feeds an inbound event through the receive callback, synchronously.
// It is a no-op until Open has succeeded.
func (c *MockConnection) EmitEvent(ev channel.Event) {
	c.mu.Lock()
	receive := c.receive
	c.mu.Unlock()
	if receive != nil {
		receive(ev)
	}
}

// BreakLink makes the pending (or next) Wait return err.
func (c *MockConnection) BreakLink(err error) {
	c.waitCh <- err
}

// OpenCalls reports how many times Open ran.
func (c *MockConnection) OpenCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opens
}

// Deliveries returns a copy of everything delivered so far.
func (c *MockConnection) Deliveries() []channel.Delivery {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]channel.Delivery, len(c.deliveries))
	copy(out, c.deliveries)
	return out
}

// MockGracefulConnection is a MockConnection that also counts graceful closes.
// CloseErr, when set before the test runs, is returned by CloseGracefully.
type MockGracefulConnection struct {
	*MockConnection
	CloseErr error

	graceful atomic.Int32
}

// NewMockGracefulConnection returns a connection implementing
// channel.GracefulCloser.
func NewMockGracefulConnection() *MockGracefulConnection {
	return &MockGracefulConnection{MockConnection: NewMockConnection()}
}

// CloseGracefully counts the call and returns CloseErr.
func (c *MockGracefulConnection) CloseGracefully(context.Context) error {
	c.graceful.Add(1)
	return c.CloseErr
}

// GracefulCloses reports how many times CloseGracefully ran.
func (c *MockGracefulConnection) GracefulCloses() int { return int(c.graceful.Load()) }

// MockTransportConnection is a MockConnection that also counts transport
// closes. CloseErr, when set before the test runs, is returned by
// CloseTransport.
type MockTransportConnection struct {
	*MockConnection
	CloseErr error

	closes atomic.Int32
}

// NewMockTransportConnection returns a connection implementing
// channel.TransportCloser.
func NewMockTransportConnection() *MockTransportConnection {
	return &MockTransportConnection{MockConnection: NewMockConnection()}
}

// CloseTransport counts the call and returns CloseErr.
func (c *MockTransportConnection) CloseTransport() error {
	c.closes.Add(1)
	return c.CloseErr
}

// TransportCloses reports how many times CloseTransport ran.
func (c *MockTransportConnection) TransportCloses() int { return int(c.closes.Load()) }

var (
	_ channel.Connection      = (*MockConnection)(nil)
	_ channel.GracefulCloser  = (*MockGracefulConnection)(nil)
	_ channel.TransportCloser = (*MockTransportConnection)(nil)
)
