package channel

import "context"

// Event is one raw message arriving over the platform link.
type Event struct {
	MessageID string
	SenderID  string
	ChatID    string
	Content   string
	Metadata  map[string]string
}

// Delivery is one outbound payload handed to the transport, already stamped
// with its conversation sequence.
type Delivery struct {
	Recipient string
	Content   string
	ReplyTo   string
	Sequence  int
}

// Connection is the transport a Supervisor drives. Open establishes the link
// and returns once it is ready to receive; from then on events are handed to
// receive, possibly from the connection's own goroutines. Wait blocks until
// the open link fails or ctx ends. Deliver sends one payload over the open
// link.
//
// Implementations advertise teardown support through GracefulCloser and
// TransportCloser; the supervisor resolves both once, at construction.
type Connection interface {
	Open(ctx context.Context, receive func(Event)) error
	Wait(ctx context.Context) error
	Deliver(ctx context.Context, d Delivery) error
}

// GracefulCloser is implemented by connections that support an orderly
// shutdown (close handshake, pending flushes).
type GracefulCloser interface {
	CloseGracefully(ctx context.Context) error
}

// TransportCloser is implemented by connections that can drop the underlying
// transport outright.
type TransportCloser interface {
	CloseTransport() error
}
