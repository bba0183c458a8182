// Package wsconn adapts a websocket endpoint to channel.Connection: frames in
// both directions are JSON, inbound ones decode to channel.Event, outbound
// deliveries encode as {chat, content, reply_to, seq}.
package wsconn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/skosovsky/botsy/channel"
)

// ErrNotOpen is returned by Deliver and Wait when no websocket is up.
var ErrNotOpen = errors.New("wsconn: connection is not open")

const (
	writeTimeout = 10 * time.Second
	closeTimeout = 5 * time.Second
)

// Config locates and authenticates the websocket endpoint.
type Config struct {
	// URL is the ws:// or wss:// endpoint.
	URL string
	// Token, when set, is sent as "Authorization: Bearer <Token>" on dial.
	Token string
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// inboundFrame is one platform message on the wire.
type inboundFrame struct {
	MessageID string            `json:"message_id"`
	Sender    string            `json:"sender"`
	Chat      string            `json:"chat"`
	Content   string            `json:"content"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// outboundFrame is one delivery on the wire.
type outboundFrame struct {
	Chat    string `json:"chat"`
	Content string `json:"content"`
	ReplyTo string `json:"reply_to,omitempty"`
	Seq     int    `json:"seq"`
}

// session is the state of one Open..link-loss cycle.
type session struct {
	ws     *websocket.Conn
	waitCh chan error
	done   chan struct{}
}

// Conn is a channel.Connection over a single websocket. Each Open starts one
// read pump; after the link drops the supervisor redials by calling Open
// again. Conn implements channel.GracefulCloser with a proper close
// handshake.
type Conn struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex // guards sess
	sess    *session
	writeMu sync.Mutex // gorilla allows one concurrent writer
}

// New validates cfg and returns an unopened Conn.
func New(cfg Config) (*Conn, error) {
	if cfg.URL == "" {
		return nil, errors.New("wsconn: endpoint URL is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Conn{cfg: cfg, logger: logger}, nil
}

// Open dials the endpoint and starts the read pump. The receive callback runs
// on the pump goroutine, one event at a time.
func (c *Conn) Open(ctx context.Context, receive func(channel.Event)) error {
	header := http.Header{}
	if c.cfg.Token != "" {
		header.Set("Authorization", "Bearer "+c.cfg.Token)
	}
	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, c.cfg.URL, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial %s: %w (HTTP %d)", c.cfg.URL, err, resp.StatusCode)
		}
		return fmt.Errorf("dial %s: %w", c.cfg.URL, err)
	}

	s := &session{ws: ws, waitCh: make(chan error, 1), done: make(chan struct{})}

	c.mu.Lock()
	if c.sess != nil {
		c.mu.Unlock()
		_ = ws.Close()
		return errors.New("wsconn: already open")
	}
	c.sess = s
	c.mu.Unlock()

	go c.readPump(s, receive)
	return nil
}

// readPump decodes frames until the socket fails, then reports the terminal
// error to Wait. Malformed frames are logged and skipped so one bad payload
// cannot drop the link.
func (c *Conn) readPump(s *session, receive func(channel.Event)) {
	defer close(s.done)
	for {
		_, data, err := s.ws.ReadMessage()
		if err != nil {
			c.mu.Lock()
			if c.sess == s {
				c.sess = nil
			}
			c.mu.Unlock()
			_ = s.ws.Close()
			s.waitCh <- err
			return
		}
		var f inboundFrame
		if err := json.Unmarshal(data, &f); err != nil {
			c.logger.Warn("skipping malformed frame", "error", err)
			continue
		}
		if receive != nil {
			receive(channel.Event{
				MessageID: f.MessageID,
				SenderID:  f.Sender,
				ChatID:    f.Chat,
				Content:   f.Content,
				Metadata:  f.Metadata,
			})
		}
	}
}

// Wait blocks until the read pump ends and returns its terminal error, or
// ctx's error when the caller gives up first.
func (c *Conn) Wait(ctx context.Context) error {
	c.mu.Lock()
	s := c.sess
	c.mu.Unlock()
	if s == nil {
		return ErrNotOpen
	}
	select {
	case err := <-s.waitCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Deliver writes one outbound frame under the write mutex.
func (c *Conn) Deliver(ctx context.Context, d channel.Delivery) error {
	c.mu.Lock()
	s := c.sess
	c.mu.Unlock()
	if s == nil {
		return ErrNotOpen
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	deadline := time.Now().Add(writeTimeout)
	if dl, ok := ctx.Deadline(); ok {
		deadline = dl
	}
	_ = s.ws.SetWriteDeadline(deadline)
	return s.ws.WriteJSON(outboundFrame{
		Chat:    d.Recipient,
		Content: d.Content,
		ReplyTo: d.ReplyTo,
		Seq:     d.Sequence,
	})
}

// CloseGracefully runs the websocket close handshake: send a close frame,
// give the peer until the deadline to acknowledge (the pump exits when the
// acknowledgement arrives), then release the socket. Safe to call when the
// connection never opened.
func (c *Conn) CloseGracefully(ctx context.Context) error {
	c.mu.Lock()
	s := c.sess
	c.mu.Unlock()
	if s == nil {
		return nil
	}

	deadline := time.Now().Add(closeTimeout)
	if dl, ok := ctx.Deadline(); ok {
		deadline = dl
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")

	c.writeMu.Lock()
	err := s.ws.WriteControl(websocket.CloseMessage, msg, deadline)
	c.writeMu.Unlock()
	if err != nil {
		_ = s.ws.Close()
		return fmt.Errorf("close handshake: %w", err)
	}

	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()
	select {
	case <-s.done:
		// The pump saw the acknowledgement and already released the socket.
		return nil
	case <-timer.C:
	case <-ctx.Done():
	}
	return s.ws.Close()
}

var (
	_ channel.Connection     = (*Conn)(nil)
	_ channel.GracefulCloser = (*Conn)(nil)
)
