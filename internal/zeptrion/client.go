package zeptrion

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/zeptrion/internal/logging"
)

// DefaultMessageBuffer is the default capacity of the Messages stream
const DefaultMessageBuffer = 64

// closeReasonLocal is reported when Close ends the connection
const closeReasonLocal = "closed by client"

// Client talks to one Zeptrion device. Commands go out as HTTP POSTs and the
// push WebSocket is tracked for state and raw messages.
//
// The WebSocket is dialed once, on construction. There is no reconnection:
// after a close or error the Client stays CLOSED and must be replaced.
type Client struct {
	address  string
	http     HTTPDoer
	dialer   Dialer
	onResult func(Result)

	state    atomic.Int32
	messages chan []byte
	opened   chan struct{}
	done     chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	// connMu guards conn and closing, and serializes writes
	connMu  sync.Mutex
	conn    Conn
	closing bool

	inflight sync.WaitGroup
}

// NewClient creates a client for the device at address (host or host:port)
// and starts connecting the push WebSocket.
func NewClient(address string) *Client {
	return NewClientWithTransport(address, Transport{})
}

// NewClientWithTransport creates a client using the given capabilities.
func NewClientWithTransport(address string, t Transport) *Client {
	if t.HTTP == nil {
		t.HTTP = &http.Client{}
	}
	if t.Dialer == nil {
		t.Dialer = WebSocketDialer{}
	}
	if t.MessageBuffer <= 0 {
		t.MessageBuffer = DefaultMessageBuffer
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		address:  address,
		http:     t.HTTP,
		dialer:   t.Dialer,
		onResult: t.OnResult,
		messages: make(chan []byte, t.MessageBuffer),
		opened:   make(chan struct{}),
		done:     make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
	c.state.Store(int32(StateConnecting))

	logging.LogConnection(address, "connecting", zap.String("url", c.WebSocketURL()))
	go c.run()

	return c
}

// Address returns the device address
func (c *Client) Address() string {
	return c.address
}

// URL returns the HTTP URL for a device path
func (c *Client) URL(path string) string {
	return "http://" + c.address + path
}

// WebSocketURL returns the push endpoint
func (c *Client) WebSocketURL() string {
	return "ws://" + c.address
}

// State returns the current connection state
func (c *Client) State() ConnState {
	return ConnState(c.state.Load())
}

// Messages streams raw push payloads. It is closed when the connection ends.
// Payloads are dropped when the buffer is full.
func (c *Client) Messages() <-chan []byte {
	return c.messages
}

// Done is closed once the connection has reached CLOSED
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// WaitOpen blocks until the WebSocket is open, the connection ends, or ctx expires.
func (c *Client) WaitOpen(ctx context.Context) error {
	select {
	case <-c.opened:
		if c.State() == StateOpen {
			return nil
		}
		return NewNotConnectedError(c.address, c.State())
	case <-c.done:
		return NewNotConnectedError(c.address, c.State())
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until every dispatched HTTP command has completed
func (c *Client) Wait() {
	c.inflight.Wait()
}

// Close shuts the push WebSocket. The client is CLOSED afterwards and
// cannot be reopened.
func (c *Client) Close() error {
	c.connMu.Lock()
	c.closing = true
	conn := c.conn
	var err error
	if conn != nil {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		err = conn.Close()
	}
	c.connMu.Unlock()

	c.cancel()
	return err
}

func (c *Client) isClosing() bool {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	return c.closing
}

// run dials the WebSocket and feeds lifecycle events to the handlers until
// the connection ends.
func (c *Client) run() {
	defer c.finish()

	conn, err := c.dialer.Dial(c.ctx, c.WebSocketURL())
	if err != nil {
		if c.isClosing() {
			c.handleClose(websocket.CloseNormalClosure, closeReasonLocal)
			return
		}
		c.handleError(err)
		return
	}

	c.connMu.Lock()
	if c.closing {
		c.connMu.Unlock()
		_ = conn.Close()
		c.handleClose(websocket.CloseNormalClosure, closeReasonLocal)
		return
	}
	c.conn = conn
	c.connMu.Unlock()

	c.handleOpen()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			switch {
			case errors.As(err, &closeErr):
				c.handleClose(closeErr.Code, closeErr.Text)
			case c.isClosing():
				c.handleClose(websocket.CloseNormalClosure, closeReasonLocal)
			default:
				c.handleError(err)
			}
			return
		}
		c.handleMessage(messageType, data)
	}
}

func (c *Client) finish() {
	c.state.Store(int32(StateClosed))

	c.connMu.Lock()
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.connMu.Unlock()

	c.cancel()
	close(c.messages)
	close(c.done)
}

func (c *Client) handleOpen() {
	c.state.Store(int32(StateOpen))
	close(c.opened)
	logging.LogConnection(c.address, "open")
}

func (c *Client) handleClose(code int, reason string) {
	c.state.Store(int32(StateClosed))
	logging.LogConnection(c.address, "closed",
		zap.Int("code", code),
		zap.String("reason", reason),
	)
}

func (c *Client) handleError(err error) {
	c.state.Store(int32(StateClosed))
	logging.LogConnection(c.address, "error", zap.Error(ClassifyNetworkError(err, c.address)))
}

func (c *Client) handleMessage(messageType int, data []byte) {
	logging.LogWebSocketMessage(c.address, "received", messageType, data)

	select {
	case c.messages <- data:
	default:
		logging.Debug("Dropped push message, subscriber too slow",
			zap.String("address", c.address),
			zap.Int("length", len(data)),
		)
	}
}
