package simulator

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/muurk/zeptrion/internal/logging"
	"github.com/muurk/zeptrion/internal/zeptrion"
)

const (
	// Time allowed to write a message to a client
	writeWait = 5 * time.Second

	// Maximum message size accepted from a client
	maxMessageSize = 4096

	// Channel values pushed to clients
	valueOn  = 100
	valueOff = 0
)

// Command is one request the simulated device received
type Command struct {
	Time   time.Time `json:"time"`
	Source string    `json:"source"` // "http" or "websocket"
	Method string    `json:"method"`
	Path   string    `json:"path"`
	Body   string    `json:"body"`
}

// ChannelEvent is pushed to WebSocket clients when a channel changes
type ChannelEvent struct {
	Channel int `json:"ch"`
	Value   int `json:"val"`
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(messageType, data)
}

// Device is an in-memory Zeptrion device. It answers the system, channel
// and LED endpoints, accepts button messages on its WebSocket and pushes a
// ChannelEvent to every client after each channel change.
type Device struct {
	upgrader websocket.Upgrader

	mu       sync.Mutex
	channels map[int]bool
	leds     map[int]string
	buttons  string
	commands []Command
	clients  map[*client]struct{}
}

// NewDevice creates a device with every channel off and no LED colors
func NewDevice() *Device {
	return &Device{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		channels: make(map[int]bool),
		leds:     make(map[int]string),
		buttons:  strings.Repeat(string(zeptrion.ButtonPlaceholder), zeptrion.MaxButton),
		clients:  make(map[*client]struct{}),
	}
}

// Handler returns the HTTP handler serving the device API and WebSocket
func (d *Device) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(zeptrion.PathSys, d.handleSys)
	mux.HandleFunc(zeptrion.PathChCtrl, d.handleChCtrl)
	mux.HandleFunc(zeptrion.PathSmartFrontLED, d.handleLED)
	for path := range zeptrion.KnownPaths {
		switch path {
		case zeptrion.PathSys, zeptrion.PathChCtrl, zeptrion.PathSmartFrontLED:
			continue
		}
		mux.HandleFunc(path, d.handleUnimplemented)
	}
	mux.HandleFunc("/", d.handleRoot)
	return mux
}

func (d *Device) record(source, method, path, body string) {
	d.mu.Lock()
	d.commands = append(d.commands, Command{
		Time:   time.Now(),
		Source: source,
		Method: method,
		Path:   path,
		Body:   body,
	})
	d.mu.Unlock()
}

// readCommand reads a POST body and records it. It writes the error
// response itself and returns ok=false when the request is unusable.
func (d *Device) readCommand(w http.ResponseWriter, r *http.Request) (string, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return "", false
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxMessageSize))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return "", false
	}
	body := string(data)
	d.record("http", r.Method, r.URL.Path, body)
	logging.Info("Command received",
		zap.String("remote_addr", r.RemoteAddr),
		zap.String("path", r.URL.Path),
		zap.String("body", body),
	)
	return body, true
}

func (d *Device) handleSys(w http.ResponseWriter, r *http.Request) {
	body, ok := d.readCommand(w, r)
	if !ok {
		return
	}

	switch body {
	case zeptrion.CmdReboot:
		w.WriteHeader(http.StatusOK)
		d.CloseClients(websocket.CloseGoingAway, "reboot")
	case zeptrion.CmdFactoryDefault, zeptrion.CmdNetworkDefault:
		w.WriteHeader(http.StatusOK)
		d.reset()
		d.CloseClients(websocket.CloseGoingAway, strings.TrimPrefix(body, "cmd="))
	default:
		http.Error(w, fmt.Sprintf("unknown system command %q", body), http.StatusBadRequest)
	}
}

func (d *Device) handleChCtrl(w http.ResponseWriter, r *http.Request) {
	body, ok := d.readCommand(w, r)
	if !ok {
		return
	}

	cmds, err := ParseChannelBody(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	d.mu.Lock()
	for _, c := range cmds {
		d.channels[c.ID] = c.On
	}
	d.mu.Unlock()

	w.WriteHeader(http.StatusOK)

	for _, c := range cmds {
		d.pushChannel(c)
	}
}

func (d *Device) handleLED(w http.ResponseWriter, r *http.Request) {
	body, ok := d.readCommand(w, r)
	if !ok {
		return
	}

	var cmds []struct {
		ID int    `json:"id"`
		BG string `json:"bg"`
	}
	if err := json.Unmarshal([]byte(body), &cmds); err != nil {
		http.Error(w, "invalid LED body: "+err.Error(), http.StatusBadRequest)
		return
	}

	d.mu.Lock()
	for _, c := range cmds {
		d.leds[c.ID] = c.BG
	}
	d.mu.Unlock()

	w.WriteHeader(http.StatusOK)
}

func (d *Device) handleUnimplemented(w http.ResponseWriter, r *http.Request) {
	d.record("http", r.Method, r.URL.Path, "")
	http.Error(w, "not implemented by simulator", http.StatusNotImplemented)
}

func (d *Device) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" || !websocket.IsWebSocketUpgrade(r) {
		http.NotFound(w, r)
		return
	}

	conn, err := d.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}
	conn.SetReadLimit(maxMessageSize)

	c := &client{conn: conn}
	d.mu.Lock()
	d.clients[c] = struct{}{}
	d.mu.Unlock()

	logging.LogConnection(r.RemoteAddr, "websocket_upgraded")
	go d.serveClient(r.RemoteAddr, c)
}

// serveClient reads button messages until the client goes away
func (d *Device) serveClient(remoteAddr string, c *client) {
	defer func() {
		d.mu.Lock()
		delete(d.clients, c)
		d.mu.Unlock()
		_ = c.conn.Close()
		logging.LogConnection(remoteAddr, "websocket_closed")
	}()

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		logging.LogWebSocketMessage(remoteAddr, "received", messageType, data)
		d.record("websocket", "SEND", "/", string(data))

		field, err := ParseButtonPayload(data)
		if err != nil {
			logging.Warn("Ignoring malformed button message",
				zap.String("remote_addr", remoteAddr),
				zap.Error(err),
			)
			logging.LogRawBytes("Malformed button message", data)
			continue
		}

		d.mu.Lock()
		d.buttons = field
		d.mu.Unlock()
	}
}

func (d *Device) pushChannel(cmd zeptrion.ChannelCommand) {
	value := valueOff
	if cmd.On {
		value = valueOn
	}
	payload, err := json.Marshal(map[string]ChannelEvent{
		"eid1": {Channel: cmd.ID, Value: value},
	})
	if err != nil {
		return
	}
	d.Broadcast(payload)
}

// Broadcast sends a text message to every connected WebSocket client
func (d *Device) Broadcast(payload []byte) {
	for _, c := range d.snapshotClients() {
		if err := c.write(websocket.TextMessage, payload); err != nil {
			logging.Debug("Push to client failed", zap.Error(err))
		}
	}
}

// CloseClients sends a close frame to every client and drops them, the way
// the real device does when it reboots.
func (d *Device) CloseClients(code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	for _, c := range d.snapshotClients() {
		c.mu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		_ = c.conn.Close()
		c.mu.Unlock()
	}
}

func (d *Device) snapshotClients() []*client {
	d.mu.Lock()
	defer d.mu.Unlock()
	return lo.Keys(d.clients)
}

func (d *Device) reset() {
	d.mu.Lock()
	d.channels = make(map[int]bool)
	d.leds = make(map[int]string)
	d.buttons = strings.Repeat(string(zeptrion.ButtonPlaceholder), zeptrion.MaxButton)
	d.mu.Unlock()
}

// Channel returns the state of channel id and whether it was ever set
func (d *Device) Channel(id int) (on bool, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	on, ok = d.channels[id]
	return on, ok
}

// LED returns the background color of LED id ("" if never set)
func (d *Device) LED(id int) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.leds[id]
}

// Buttons returns the last 9-character button field received
func (d *Device) Buttons() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.buttons
}

// Commands returns a copy of every command received so far
func (d *Device) Commands() []Command {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Command(nil), d.commands...)
}

// ClientCount returns the number of connected WebSocket clients
func (d *Device) ClientCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.clients)
}

// Snapshot is the device state in a form suitable for printing
type Snapshot struct {
	Channels map[int]bool   `json:"channels"`
	LEDs     map[int]string `json:"leds"`
	Buttons  string         `json:"buttons"`
}

// Snapshot copies the current state
func (d *Device) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := Snapshot{
		Channels: make(map[int]bool, len(d.channels)),
		LEDs:     make(map[int]string, len(d.leds)),
		Buttons:  d.buttons,
	}
	for k, v := range d.channels {
		s.Channels[k] = v
	}
	for k, v := range d.leds {
		s.LEDs[k] = v
	}
	return s
}

// String renders the snapshot one line per channel and LED
func (s Snapshot) String() string {
	var b strings.Builder
	ids := lo.Keys(s.Channels)
	sort.Ints(ids)
	for _, id := range ids {
		state := "off"
		if s.Channels[id] {
			state = "on"
		}
		fmt.Fprintf(&b, "channel %d: %s\n", id, state)
	}

	ids = lo.Keys(s.LEDs)
	sort.Ints(ids)
	for _, id := range ids {
		fmt.Fprintf(&b, "led %d: %s\n", id, s.LEDs[id])
	}
	fmt.Fprintf(&b, "buttons: %s", s.Buttons)
	return b.String()
}

// ParseChannelBody decodes "cmd1=on&cmd3=off" keeping term order.
func ParseChannelBody(body string) ([]zeptrion.ChannelCommand, error) {
	if body == "" {
		return nil, fmt.Errorf("empty channel body")
	}

	terms := strings.Split(body, "&")
	cmds := make([]zeptrion.ChannelCommand, 0, len(terms))
	for _, term := range terms {
		key, value, found := strings.Cut(term, "=")
		if !found || !strings.HasPrefix(key, "cmd") {
			return nil, fmt.Errorf("malformed channel term %q", term)
		}
		id, err := strconv.Atoi(strings.TrimPrefix(key, "cmd"))
		if err != nil {
			return nil, fmt.Errorf("malformed channel id in %q", term)
		}
		switch value {
		case "on":
			cmds = append(cmds, zeptrion.ChannelCommand{ID: id, On: true})
		case "off":
			cmds = append(cmds, zeptrion.ChannelCommand{ID: id, On: false})
		default:
			return nil, fmt.Errorf("unknown channel value %q", value)
		}
	}
	return cmds, nil
}

// ParseButtonPayload extracts the press field from a pid2 message
func ParseButtonPayload(data []byte) (string, error) {
	var msg struct {
		PID2 *struct {
			BTA string `json:"bta"`
		} `json:"pid2"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		return "", fmt.Errorf("invalid button message: %w", err)
	}
	if msg.PID2 == nil {
		return "", fmt.Errorf("button message has no pid2 object")
	}
	if len(msg.PID2.BTA) != zeptrion.MaxButton {
		return "", fmt.Errorf("button field has %d characters, want %d", len(msg.PID2.BTA), zeptrion.MaxButton)
	}
	return msg.PID2.BTA, nil
}
