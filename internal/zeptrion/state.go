package zeptrion

import "fmt"

// ConnState is the lifecycle state of the push WebSocket
type ConnState int32

const (
	StateConnecting ConnState = iota
	StateOpen
	StateClosed
)

// String returns the state name
func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateOpen:
		return "OPEN"
	case StateClosed:
		return "CLOSED"
	default:
		return fmt.Sprintf("ConnState(%d)", int32(s))
	}
}
