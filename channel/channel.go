// Package channel supervises one platform connection: it keeps the link up
// with a fixed reconnect backoff, deduplicates and filters inbound events
// before they reach the message bus, and stamps outbound replies with a
// per-conversation sequence.
package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/skosovsky/botsy/bus"
)

// ErrAlreadyRunning is returned by Start when the supervisor's loop is
// already active.
var ErrAlreadyRunning = errors.New("supervisor is already running")

// teardownTimeout bounds the graceful close attempted by Stop.
const teardownTimeout = 5 * time.Second

// State is the supervisor's connection lifecycle state.
type State int32

const (
	StateStopped State = iota
	StateStarting
	StateConnected
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// InboundSink receives normalized inbound messages. *bus.Bus satisfies it.
type InboundSink interface {
	PublishInbound(msg bus.Inbound) error
}

// Supervisor owns one Connection and the per-channel state around it: a
// Deduplicator for inbound ids and a Sequencer for outbound ordering. The
// lifecycle is one-shot: after Stop the supervisor does not restart; create
// a new one.
type Supervisor struct {
	conn      Connection
	sink      InboundSink
	graceful  GracefulCloser  // nil when the connection has no graceful close
	transport TransportCloser // nil when the connection cannot drop transport

	dedup   *Deduplicator
	seq     *Sequencer
	logger  *slog.Logger
	backoff time.Duration

	state    atomic.Int32
	running  atomic.Bool
	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates a Supervisor for conn publishing inbound messages to sink.
// Teardown capabilities are resolved here, once, by interface assertion.
func New(conn Connection, sink InboundSink, opts ...Option) (*Supervisor, error) {
	if conn == nil {
		return nil, fmt.Errorf("connection must not be nil")
	}
	if sink == nil {
		return nil, fmt.Errorf("inbound sink must not be nil")
	}
	o := options{
		backoff:       DefaultBackoff,
		dedupCapacity: DefaultDedupCapacity,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	dedup, err := NewDeduplicator(o.dedupCapacity)
	if err != nil {
		return nil, err
	}
	graceful, _ := conn.(GracefulCloser)
	transport, _ := conn.(TransportCloser)
	return &Supervisor{
		conn:      conn,
		sink:      sink,
		graceful:  graceful,
		transport: transport,
		dedup:     dedup,
		seq:       NewSequencer(),
		logger:    o.logger,
		backoff:   o.backoff,
		stopCh:    make(chan struct{}),
	}, nil
}

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	return State(s.state.Load())
}

// Start runs the connection loop until Stop or ctx cancellation: open the
// link, hand events to the receive pipeline, and on any link failure wait the
// fixed backoff and retry. Stop during a connect or backoff wait terminates
// the loop with no further attempt. Returns ErrAlreadyRunning on concurrent
// use, nil after Stop, and ctx.Err() when ctx ends. Cancelling ctx does not
// tear down the connection; call Stop for that.
func (s *Supervisor) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer s.running.Store(false)
	defer s.setState(StateStopped)

	// Stop wakes blocked Open/Wait calls through this derived context.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-s.stopCh:
			cancel()
		case <-runCtx.Done():
		}
	}()

	for {
		select {
		case <-s.stopCh:
			return nil
		default:
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		s.setState(StateStarting)
		err := s.conn.Open(runCtx, s.receive)
		if err == nil {
			s.setState(StateConnected)
			s.logger.Info("channel connected")
			err = s.conn.Wait(runCtx)
		}

		if !s.running.Load() {
			return nil
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}

		s.logger.Error("channel link lost", "error", err, "retry_in", s.backoff)
		s.setState(StateReconnecting)
		select {
		case <-time.After(s.backoff):
		case <-s.stopCh:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Stop terminates the loop and tears the connection down. The running flag is
// cleared first so no reconnect follows; then, best effort, the connection is
// closed gracefully when it supports that, else the transport is dropped.
// Teardown failures are logged and swallowed. Idempotent.
func (s *Supervisor) Stop() {
	s.stopOnce.Do(func() {
		s.running.Store(false)
		close(s.stopCh)
		s.teardown()
	})
}

func (s *Supervisor) teardown() {
	switch {
	case s.graceful != nil:
		ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
		defer cancel()
		if err := s.graceful.CloseGracefully(ctx); err != nil {
			s.logger.Error("channel teardown failed", "mode", "graceful", "error", err)
		}
	case s.transport != nil:
		if err := s.transport.CloseTransport(); err != nil {
			s.logger.Error("channel teardown failed", "mode", "transport", "error", err)
		}
	}
}

// receive is the inbound pipeline: duplicate ids are dropped silently, events
// without an addressable sender or any text are dropped, everything else is
// normalized and published to the sink. The message id rides along in the
// metadata so a reply can thread back to it (see Send). A full sink drops the
// event with a log line; receive never blocks the connection's goroutines.
func (s *Supervisor) receive(ev Event) {
	if s.dedup.Seen(ev.MessageID) {
		return
	}
	if ev.SenderID == "" || strings.TrimSpace(ev.Content) == "" {
		return
	}
	md := ev.Metadata
	if ev.MessageID != "" {
		md = make(map[string]string, len(ev.Metadata)+1)
		maps.Copy(md, ev.Metadata)
		md["message_id"] = ev.MessageID
	}
	msg := bus.Inbound{
		SenderID:   ev.SenderID,
		ChatID:     ev.ChatID,
		Content:    ev.Content,
		Metadata:   md,
		ReceivedAt: time.Now(),
	}
	if err := s.sink.PublishInbound(msg); err != nil {
		s.logger.Error("inbound event dropped", "chat", ev.ChatID, "error", err)
	}
}

// Send stamps msg with the next sequence number for its conversation and
// delivers it. An explicit ReplyTo names the conversation; without one, the
// message id carried in the metadata (stamped by the inbound pipeline) is
// used, so replying with the inbound metadata threads automatically. Delivery
// failures are logged and returned wrapped; the supervisor keeps running
// either way.
func (s *Supervisor) Send(ctx context.Context, msg bus.Outbound) error {
	replyTo := msg.ReplyTo
	if replyTo == "" {
		replyTo = msg.Metadata["message_id"]
	}
	seq := s.seq.Next(msg.ChatID, replyTo)
	d := Delivery{
		Recipient: msg.ChatID,
		Content:   msg.Content,
		ReplyTo:   replyTo,
		Sequence:  seq,
	}
	if err := s.conn.Deliver(ctx, d); err != nil {
		s.logger.Error("delivery failed", "chat", msg.ChatID, "seq", seq, "error", err)
		return fmt.Errorf("deliver to %s: %w", msg.ChatID, err)
	}
	return nil
}

func (s *Supervisor) setState(st State) {
	s.state.Store(int32(st))
}
