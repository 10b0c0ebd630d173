package zeptrion

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/zeptrion/internal/logging"
)

// Reboot restarts the device. The push WebSocket drops with it; create a
// new Client once the device is back.
func (c *Client) Reboot() {
	c.post(PathSys, CmdReboot)
}

// HardReset restores factory defaults. The device forgets its network
// settings and has to be set up again by hand.
func (c *Client) HardReset() {
	c.post(PathSys, CmdFactoryDefault)
}

// NetworkReset restores the default network settings. The device leaves the
// current network and has to be reconnected by hand.
func (c *Client) NetworkReset() {
	c.post(PathSys, CmdNetworkDefault)
}

// SetChannels switches channelIDs[i] on or off according to values[i].
// Nothing is sent when the slices differ in length.
func (c *Client) SetChannels(channelIDs []int, values []bool) error {
	cmds, err := ChannelCommands(channelIDs, values)
	if err != nil {
		return err
	}
	c.post(PathChCtrl, ChannelBody(cmds))
	return nil
}

// SetLeds sets the background of ledIDs[i] to colors[i] ('#RRGGBB').
// Nothing is sent when the slices differ in length.
func (c *Client) SetLeds(ledIDs []int, colors []string) error {
	cmds, err := LedCommands(ledIDs, colors)
	if err != nil {
		return err
	}
	c.post(PathSmartFrontLED, LedBody(cmds))
	return nil
}

// SetButton sets the press state of button index (1-9) over the WebSocket.
// It fails with a NotConnected error unless the connection is OPEN.
// Write failures are logged, not returned.
func (c *Client) SetButton(index int, pressed bool) error {
	payload, err := ButtonPayload(ButtonCommand{Index: index, Pressed: pressed})
	if err != nil {
		return err
	}

	res, err := c.send(payload)
	if err != nil {
		return err
	}
	if c.onResult != nil {
		c.onResult(res)
	}
	return nil
}

// send writes one text message while holding the connection lock
func (c *Client) send(payload []byte) (Result, error) {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.State() != StateOpen || c.conn == nil || c.closing {
		return Result{}, NewNotConnectedError(c.address, c.State())
	}

	res := Result{
		Request: Request{URL: c.WebSocketURL(), Method: "SEND", Body: string(payload)},
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		res.Err = ClassifyNetworkError(err, c.address)
		logging.Warn("WebSocket send failed",
			zap.String("address", c.address),
			zap.Error(res.Err),
		)
		return res, nil
	}

	logging.LogWebSocketMessage(c.address, "sent", websocket.TextMessage, payload)
	return res, nil
}

// NewRequest builds the descriptor for a command on path
func (c *Client) NewRequest(path, method, body string) Request {
	return Request{
		URL:    c.URL(path),
		Method: method,
		Body:   body,
	}
}

func (c *Client) post(path, body string) {
	c.dispatch(c.NewRequest(path, http.MethodPost, body))
}

// dispatch sends req in the background and reports the outcome through
// complete. It never blocks on the device.
func (c *Client) dispatch(req Request) {
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		c.complete(c.do(req))
	}()
}

func (c *Client) do(req Request) Result {
	res := Result{Request: req}

	httpReq, err := req.HTTPRequest()
	if err != nil {
		res.Err = &DeviceError{
			Type:    ErrTypeNetwork,
			Message: "failed to create request",
			Err:     err,
			Address: c.address,
		}
		return res
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		res.Err = ClassifyNetworkError(err, c.address)
		return res
	}
	defer func() { _ = resp.Body.Close() }()

	res.StatusCode = resp.StatusCode
	body, err := io.ReadAll(resp.Body)
	res.Body = body
	if err != nil {
		res.Err = ClassifyNetworkError(err, c.address)
		return res
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		res.Err = NewHTTPError(c.address, resp.StatusCode,
			fmt.Sprintf("%s %s returned status %d", req.Method, req.URL, resp.StatusCode))
	}

	return res
}

func (c *Client) complete(res Result) {
	logging.LogDispatch(res.Request.Method, res.Request.URL, res.StatusCode, res.Body, res.Err)
	if c.onResult != nil {
		c.onResult(res)
	}
}
