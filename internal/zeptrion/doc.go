// Package zeptrion is a client for Zeptrion lighting and switch controllers.
//
// A device exposes an HTTP API under the ZRAP and ZAPI path namespaces and a
// WebSocket at its root that pushes state. The Client formats commands for
// the HTTP API and tracks the WebSocket lifecycle.
//
// # Connection
//
// NewClient dials ws://<address> immediately. The connection moves through
// CONNECTING, OPEN and CLOSED. There is no reconnection: once CLOSED (device
// closed, error, reboot, reset) the Client has to be replaced.
//
//	c := zeptrion.NewClient("192.168.1.132")
//	for msg := range c.Messages() {
//	    fmt.Println(string(msg))
//	}
//
// # Commands
//
// HTTP commands are fire-and-forget. Each one issues a single POST in the
// background; the outcome is logged and, when Transport.OnResult is set,
// reported there. Only argument errors are returned:
//
//	err := c.SetChannels([]int{1, 3}, []bool{true, false}) // cmd1=on&cmd3=off
//	err = c.SetLeds([]int{2}, []string{zeptrion.Yellow})   // [{"id":2,"bg":"#FFFF00"}]
//	c.Reboot()
//	c.Wait() // only needed by short-lived processes
//
// Buttons are set over the WebSocket and need an OPEN connection:
//
//	err = c.SetButton(5, true) // {"pid2":{"bta":"....P...."}}
//
// # Errors
//
// Argument errors are *DeviceError values that match ErrLengthMismatch,
// ErrButtonRange and ErrNotConnected with errors.Is. Transport failures are
// classified with ClassifyNetworkError and only ever logged or passed to
// OnResult.
//
// # Concurrency
//
// State is read atomically and WebSocket writes are serialized. HTTP
// commands are independent: they are neither ordered nor deduplicated.
package zeptrion
