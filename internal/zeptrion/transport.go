package zeptrion

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
)

// HTTPDoer issues HTTP requests. *http.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Conn is the subset of *websocket.Conn the client uses.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Dialer opens the push WebSocket.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// WebSocketDialer dials with gorilla/websocket
type WebSocketDialer struct {
	// Dialer is the underlying dialer (nil = websocket.DefaultDialer)
	Dialer *websocket.Dialer
}

// Dial implements Dialer
func (d WebSocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Transport bundles the capabilities a Client needs. Zero fields get defaults.
type Transport struct {
	// HTTP issues command requests (default: &http.Client{}, no timeout)
	HTTP HTTPDoer

	// Dialer opens the push WebSocket (default: WebSocketDialer{})
	Dialer Dialer

	// OnResult, when set, receives the outcome of every dispatch.
	// It runs on the dispatching goroutine.
	OnResult func(Result)

	// MessageBuffer is the capacity of the Messages stream (default: DefaultMessageBuffer)
	MessageBuffer int
}

// Request describes one outbound HTTP command. No headers are set; the
// device accepts bodies without a Content-Type.
type Request struct {
	URL    string
	Method string
	Body   string
}

// HTTPRequest converts the descriptor into an *http.Request
func (r Request) HTTPRequest() (*http.Request, error) {
	return http.NewRequest(r.Method, r.URL, strings.NewReader(r.Body))
}

// Result is the outcome of one fire-and-forget dispatch
type Result struct {
	Request    Request
	StatusCode int    // zero when no response was received
	Body       []byte // response body, if any
	Err        error  // transport or HTTP status error, never a validation error
}

// OK reports whether the dispatch reached the device and got a 2xx answer
func (r Result) OK() bool {
	return r.Err == nil
}
