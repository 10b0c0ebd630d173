package zeptrion

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/muurk/zeptrion/internal/logging"
)

type frame struct {
	messageType int
	data        []byte
	err         error
}

// fakeConn feeds scripted frames to ReadMessage and records writes
type fakeConn struct {
	incoming  chan frame
	closed    chan struct{}
	closeOnce sync.Once

	mu      sync.Mutex
	written []frame
	failW   error
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		incoming: make(chan frame, 16),
		closed:   make(chan struct{}),
	}
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case fr := <-f.incoming:
		return fr.messageType, fr.data, fr.err
	case <-f.closed:
		return 0, nil, errors.New("use of closed network connection")
	}
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failW != nil {
		return f.failW
	}
	f.written = append(f.written, frame{messageType: messageType, data: append([]byte(nil), data...)})
	return nil
}

func (f *fakeConn) Close() error {
	f.closeOnce.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) writes() []frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]frame(nil), f.written...)
}

// fakeDialer hands out one connection, optionally after gate is closed
type fakeDialer struct {
	conn  *fakeConn
	err   error
	gate  chan struct{}
	calls atomic.Int32
	url   atomic.Value
}

func (d *fakeDialer) Dial(ctx context.Context, url string) (Conn, error) {
	d.calls.Add(1)
	d.url.Store(url)
	if d.gate != nil {
		select {
		case <-d.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if d.err != nil {
		return nil, d.err
	}
	return d.conn, nil
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func waitState(t *testing.T, c *Client, want ConnState) {
	t.Helper()
	waitFor(t, "state "+want.String(), func() bool { return c.State() == want })
}

// startClient creates a client that is closed, and its read goroutine
// drained, when the test ends so no lifecycle log outlives the test.
func startClient(t *testing.T, address string, tr Transport) *Client {
	t.Helper()
	c := NewClientWithTransport(address, tr)
	t.Cleanup(func() {
		_ = c.Close()
		<-c.Done()
	})
	return c
}

func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	logging.SetLogger(zap.New(core))
	t.Cleanup(func() { logging.SetLogger(nil) })
	return logs
}

func TestNewClient_StartsConnecting(t *testing.T) {
	dialer := &fakeDialer{conn: newFakeConn(), gate: make(chan struct{})}
	c := startClient(t, "192.168.1.132", Transport{Dialer: dialer})

	if c.State() != StateConnecting {
		t.Errorf("State() = %v, want CONNECTING", c.State())
	}
	if c.Address() != "192.168.1.132" {
		t.Errorf("Address() = %q", c.Address())
	}

	close(dialer.gate)
	waitState(t, c, StateOpen)

	if got := dialer.url.Load(); got != "ws://192.168.1.132" {
		t.Errorf("dialed %v, want ws://192.168.1.132", got)
	}
}

func TestClient_CloseLogDoesNotOutliveTest(t *testing.T) {
	t.Run("open client", func(t *testing.T) {
		c := startClient(t, "192.168.1.140", Transport{Dialer: &fakeDialer{conn: newFakeConn()}})
		waitState(t, c, StateOpen)
	})

	logs := observeLogs(t)
	time.Sleep(20 * time.Millisecond)
	if n := logs.FilterField(zap.String("address", "192.168.1.140")).Len(); n != 0 {
		t.Errorf("got %d log entries after the client was cleaned up, want 0", n)
	}
}

func TestClient_CloseEventFromDevice(t *testing.T) {
	logs := observeLogs(t)
	conn := newFakeConn()
	c := startClient(t, "10.0.0.5:8080", Transport{Dialer: &fakeDialer{conn: conn}})
	waitState(t, c, StateOpen)

	conn.incoming <- frame{err: &websocket.CloseError{Code: websocket.CloseGoingAway, Text: "rebooting"}}

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Done() not closed after device close")
	}
	if c.State() != StateClosed {
		t.Errorf("State() = %v, want CLOSED", c.State())
	}

	closed := logs.
		FilterField(zap.String("address", "10.0.0.5:8080")).
		FilterField(zap.String("event", "closed")).
		All()
	if len(closed) != 1 {
		t.Fatalf("got %d close log entries, want 1", len(closed))
	}
	fields := closed[0].ContextMap()
	if fields["address"] != "10.0.0.5:8080" {
		t.Errorf("address = %v", fields["address"])
	}
	if fields["code"] != int64(websocket.CloseGoingAway) {
		t.Errorf("code = %v, want %d", fields["code"], websocket.CloseGoingAway)
	}
	if fields["reason"] != "rebooting" {
		t.Errorf("reason = %v, want rebooting", fields["reason"])
	}
}

func TestClient_DialErrorIsErrorEvent(t *testing.T) {
	logs := observeLogs(t)
	c := startClient(t, "10.0.0.9", Transport{
		Dialer: &fakeDialer{err: errors.New("connection refused")},
	})

	<-c.Done()
	if c.State() != StateClosed {
		t.Errorf("State() = %v, want CLOSED", c.State())
	}
	if n := logs.FilterField(zap.String("address", "10.0.0.9")).FilterField(zap.String("event", "error")).Len(); n != 1 {
		t.Errorf("got %d error log entries, want 1", n)
	}
	if _, ok := <-c.Messages(); ok {
		t.Error("Messages() should be closed after the connection ends")
	}
}

func TestClient_ReadErrorAfterOpen(t *testing.T) {
	conn := newFakeConn()
	c := startClient(t, "10.0.0.5", Transport{Dialer: &fakeDialer{conn: conn}})
	waitState(t, c, StateOpen)

	conn.incoming <- frame{err: errors.New("connection reset by peer")}
	<-c.Done()

	if c.State() != StateClosed {
		t.Errorf("State() = %v, want CLOSED", c.State())
	}
}

func TestClient_ErrorWhileConnecting(t *testing.T) {
	dialer := &fakeDialer{err: errors.New("no route to host"), gate: make(chan struct{})}
	c := startClient(t, "10.0.0.5", Transport{Dialer: dialer})

	if c.State() != StateConnecting {
		t.Fatalf("State() = %v, want CONNECTING", c.State())
	}
	close(dialer.gate)
	waitState(t, c, StateClosed)
}

func TestClient_NoReconnect(t *testing.T) {
	conn := newFakeConn()
	dialer := &fakeDialer{conn: conn}
	c := startClient(t, "10.0.0.5", Transport{Dialer: dialer})
	waitState(t, c, StateOpen)

	conn.incoming <- frame{err: &websocket.CloseError{Code: websocket.CloseAbnormalClosure}}
	<-c.Done()
	time.Sleep(20 * time.Millisecond)

	if n := dialer.calls.Load(); n != 1 {
		t.Errorf("Dial called %d times, want 1", n)
	}
	if c.State() != StateClosed {
		t.Errorf("State() = %v, want CLOSED", c.State())
	}
}

func TestClient_Messages(t *testing.T) {
	logs := observeLogs(t)
	conn := newFakeConn()
	c := startClient(t, "10.0.0.5", Transport{Dialer: &fakeDialer{conn: conn}})
	waitState(t, c, StateOpen)

	conn.incoming <- frame{messageType: websocket.TextMessage, data: []byte(`{"eid1":{"val":100}}`)}

	select {
	case msg := <-c.Messages():
		if string(msg) != `{"eid1":{"val":100}}` {
			t.Errorf("message = %s", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}

	if c.State() != StateOpen {
		t.Errorf("a message must not change state, got %v", c.State())
	}
	if n := logs.FilterMessage("WebSocket message").FilterField(zap.String("address", "10.0.0.5")).Len(); n != 1 {
		t.Errorf("got %d message log entries, want 1", n)
	}
}

func TestClient_MessagesDroppedWhenFull(t *testing.T) {
	conn := newFakeConn()
	c := startClient(t, "10.0.0.5", Transport{Dialer: &fakeDialer{conn: conn}, MessageBuffer: 1})
	waitState(t, c, StateOpen)

	for i := 0; i < 3; i++ {
		conn.incoming <- frame{messageType: websocket.TextMessage, data: []byte{byte('a' + i)}}
	}
	conn.incoming <- frame{err: &websocket.CloseError{Code: websocket.CloseNormalClosure}}
	<-c.Done()

	var got []string
	for msg := range c.Messages() {
		got = append(got, string(msg))
	}
	if len(got) != 1 || got[0] != "a" {
		t.Errorf("buffered messages = %v, want [a]", got)
	}
}

func TestClient_InstancesAreIndependent(t *testing.T) {
	connA := newFakeConn()
	a := startClient(t, "10.0.0.1", Transport{Dialer: &fakeDialer{conn: connA}})
	b := startClient(t, "10.0.0.2", Transport{Dialer: &fakeDialer{conn: newFakeConn(), gate: make(chan struct{})}})

	waitState(t, a, StateOpen)
	if b.State() != StateConnecting {
		t.Errorf("b.State() = %v, want CONNECTING", b.State())
	}

	connA.incoming <- frame{err: &websocket.CloseError{Code: websocket.CloseGoingAway}}
	<-a.Done()
	if b.State() != StateConnecting {
		t.Errorf("closing a changed b to %v", b.State())
	}
}

func TestClient_Close(t *testing.T) {
	conn := newFakeConn()
	c := startClient(t, "10.0.0.5", Transport{Dialer: &fakeDialer{conn: conn}})
	waitState(t, c, StateOpen)

	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	<-c.Done()

	if c.State() != StateClosed {
		t.Errorf("State() = %v, want CLOSED", c.State())
	}
	w := conn.writes()
	if len(w) != 1 || w[0].messageType != websocket.CloseMessage {
		t.Errorf("writes = %+v, want a single close frame", w)
	}
}

func TestClient_CloseWhileConnecting(t *testing.T) {
	dialer := &fakeDialer{conn: newFakeConn(), gate: make(chan struct{})}
	c := startClient(t, "10.0.0.5", Transport{Dialer: dialer})

	_ = c.Close()
	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Close() did not abort the pending dial")
	}
	if c.State() != StateClosed {
		t.Errorf("State() = %v, want CLOSED", c.State())
	}
}

func TestClient_WaitOpen(t *testing.T) {
	dialer := &fakeDialer{conn: newFakeConn(), gate: make(chan struct{})}
	c := startClient(t, "10.0.0.5", Transport{Dialer: dialer})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := c.WaitOpen(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitOpen() error = %v, want deadline exceeded", err)
	}

	close(dialer.gate)
	if err := c.WaitOpen(context.Background()); err != nil {
		t.Errorf("WaitOpen() error = %v", err)
	}
}

func TestClient_WaitOpenAfterFailure(t *testing.T) {
	c := startClient(t, "10.0.0.5", Transport{Dialer: &fakeDialer{err: errors.New("refused")}})
	if err := c.WaitOpen(context.Background()); !IsNotConnectedError(err) {
		t.Errorf("WaitOpen() error = %v, want not connected", err)
	}
}

func TestSetButton(t *testing.T) {
	conn := newFakeConn()
	dialer := &fakeDialer{conn: conn, gate: make(chan struct{})}
	var results []Result
	var mu sync.Mutex
	c := startClient(t, "10.0.0.5", Transport{
		Dialer: dialer,
		OnResult: func(r Result) {
			mu.Lock()
			results = append(results, r)
			mu.Unlock()
		},
	})

	if err := c.SetButton(5, true); !errors.Is(err, ErrNotConnected) {
		t.Errorf("SetButton() while connecting error = %v, want ErrNotConnected", err)
	}

	close(dialer.gate)
	waitState(t, c, StateOpen)

	for _, idx := range []int{0, 10} {
		if err := c.SetButton(idx, true); !errors.Is(err, ErrButtonRange) {
			t.Errorf("SetButton(%d) error = %v, want ErrButtonRange", idx, err)
		}
	}

	if err := c.SetButton(5, true); err != nil {
		t.Fatalf("SetButton(5, true) error = %v", err)
	}
	if err := c.SetButton(5, false); err != nil {
		t.Fatalf("SetButton(5, false) error = %v", err)
	}

	w := conn.writes()
	if len(w) != 2 {
		t.Fatalf("got %d writes, want 2", len(w))
	}
	if w[0].messageType != websocket.TextMessage {
		t.Errorf("messageType = %d, want text", w[0].messageType)
	}
	if string(w[0].data) != `{"pid2":{"bta":"....P...."}}` {
		t.Errorf("payload = %s", w[0].data)
	}
	if string(w[1].data) != `{"pid2":{"bta":"........."}}` {
		t.Errorf("payload = %s", w[1].data)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(results) != 2 || !results[0].OK() {
		t.Errorf("results = %+v, want two successful sends", results)
	}
}

func TestSetButton_AfterClose(t *testing.T) {
	conn := newFakeConn()
	c := startClient(t, "10.0.0.5", Transport{Dialer: &fakeDialer{conn: conn}})
	waitState(t, c, StateOpen)

	conn.incoming <- frame{err: &websocket.CloseError{Code: websocket.CloseGoingAway}}
	<-c.Done()

	if err := c.SetButton(1, true); !IsNotConnectedError(err) {
		t.Errorf("SetButton() after close error = %v, want not connected", err)
	}
	if n := len(conn.writes()); n != 0 {
		t.Errorf("got %d writes after close, want 0", n)
	}
}

func TestSetButton_WriteFailureIsNotReturned(t *testing.T) {
	conn := newFakeConn()
	conn.failW = errors.New("broken pipe")
	var got Result
	c := startClient(t, "10.0.0.5", Transport{
		Dialer:   &fakeDialer{conn: conn},
		OnResult: func(r Result) { got = r },
	})
	waitState(t, c, StateOpen)

	if err := c.SetButton(3, true); err != nil {
		t.Errorf("SetButton() error = %v, want nil", err)
	}
	if got.OK() || !IsNetworkError(got.Err) {
		t.Errorf("result error = %v, want network error", got.Err)
	}
}

func TestConnState_String(t *testing.T) {
	tests := map[ConnState]string{
		StateConnecting: "CONNECTING",
		StateOpen:       "OPEN",
		StateClosed:     "CLOSED",
		ConnState(7):    "ConnState(7)",
	}
	for s, want := range tests {
		if s.String() != want {
			t.Errorf("String() = %q, want %q", s.String(), want)
		}
	}
}
