package zeptrion

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"syscall"

	"github.com/gorilla/websocket"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeLengthMismatch indicates batch id and value slices differ in length
	ErrTypeLengthMismatch ErrorType = iota
	// ErrTypeButtonRange indicates a button index outside 1-9
	ErrTypeButtonRange
	// ErrTypeNotConnected indicates a WebSocket send while the connection is not open
	ErrTypeNotConnected
	// ErrTypeNetwork indicates a network-level error
	ErrTypeNetwork
	// ErrTypeTimeout indicates a request timeout
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates the device refused the connection
	ErrTypeConnectionRefused
	// ErrTypeDNS indicates a DNS resolution failure
	ErrTypeDNS
	// ErrTypeHTTP indicates a non-2xx response
	ErrTypeHTTP
	// ErrTypeWebSocket indicates a WebSocket protocol or close error
	ErrTypeWebSocket
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeLengthMismatch:
		return "Length Mismatch"
	case ErrTypeButtonRange:
		return "Button Out Of Range"
	case ErrTypeNotConnected:
		return "Not Connected"
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeDNS:
		return "DNS Error"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeWebSocket:
		return "WebSocket Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Sentinels for errors.Is. A *DeviceError of the matching type compares equal.
var (
	ErrLengthMismatch = errors.New("length mismatch")
	ErrButtonRange    = errors.New("button out of range")
	ErrNotConnected   = errors.New("not connected")
)

// DeviceError represents an error that occurred while talking to a device
type DeviceError struct {
	Type       ErrorType // Category of error
	Message    string    // Human-readable error message
	StatusCode int       // HTTP status code (if applicable)
	Err        error     // Underlying error (if any)
	Address    string    // Device address (for context)
}

// Error implements the error interface
func (e *DeviceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *DeviceError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the validation sentinels by type
func (e *DeviceError) Is(target error) bool {
	switch target {
	case ErrLengthMismatch:
		return e.Type == ErrTypeLengthMismatch
	case ErrButtonRange:
		return e.Type == ErrTypeButtonRange
	case ErrNotConnected:
		return e.Type == ErrTypeNotConnected
	}
	return false
}

// NewLengthMismatchError reports batch slices of different lengths
func NewLengthMismatchError(op string, ids, values int) *DeviceError {
	return &DeviceError{
		Type:    ErrTypeLengthMismatch,
		Message: fmt.Sprintf("%s: %d ids but %d values", op, ids, values),
	}
}

// NewButtonRangeError reports a button index outside MinButton..MaxButton
func NewButtonRangeError(index int) *DeviceError {
	return &DeviceError{
		Type:    ErrTypeButtonRange,
		Message: fmt.Sprintf("button %d out of range %d-%d", index, MinButton, MaxButton),
	}
}

// NewNotConnectedError reports a WebSocket send attempted while not OPEN
func NewNotConnectedError(address string, state ConnState) *DeviceError {
	return &DeviceError{
		Type:    ErrTypeNotConnected,
		Message: fmt.Sprintf("websocket to %s is %s", address, state),
		Address: address,
	}
}

// NewHTTPError creates an HTTP-level error
func NewHTTPError(address string, statusCode int, message string) *DeviceError {
	return &DeviceError{
		Type:       ErrTypeHTTP,
		Message:    message,
		StatusCode: statusCode,
		Address:    address,
	}
}

// ClassifyNetworkError analyzes a transport error and returns a more specific error type
func ClassifyNetworkError(err error, address string) *DeviceError {
	if err == nil {
		return nil
	}

	var devErr *DeviceError
	if errors.As(err, &devErr) {
		return devErr
	}

	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return &DeviceError{
			Type:    ErrTypeWebSocket,
			Message: fmt.Sprintf("websocket closed with code %d", closeErr.Code),
			Err:     err,
			Address: address,
		}
	}

	if errors.Is(err, websocket.ErrBadHandshake) {
		return &DeviceError{
			Type:    ErrTypeWebSocket,
			Message: "websocket handshake rejected",
			Err:     err,
			Address: address,
		}
	}

	if os.IsTimeout(err) {
		return &DeviceError{
			Type:    ErrTypeTimeout,
			Message: "request timed out",
			Err:     err,
			Address: address,
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &DeviceError{
			Type:    ErrTypeDNS,
			Message: fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name),
			Err:     err,
			Address: address,
		}
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return &DeviceError{
			Type:    ErrTypeConnectionRefused,
			Message: "device refused connection",
			Err:     err,
			Address: address,
		}
	}

	return &DeviceError{
		Type:    ErrTypeNetwork,
		Message: "network error occurred",
		Err:     err,
		Address: address,
	}
}

func isType(err error, types ...ErrorType) bool {
	var devErr *DeviceError
	if !errors.As(err, &devErr) {
		return false
	}
	for _, t := range types {
		if devErr.Type == t {
			return true
		}
	}
	return false
}

// IsLengthMismatchError checks if an error is a batch length mismatch
func IsLengthMismatchError(err error) bool {
	return isType(err, ErrTypeLengthMismatch)
}

// IsButtonRangeError checks if an error is a button range error
func IsButtonRangeError(err error) bool {
	return isType(err, ErrTypeButtonRange)
}

// IsNotConnectedError checks if an error is a not-connected error
func IsNotConnectedError(err error) bool {
	return isType(err, ErrTypeNotConnected)
}

// IsNetworkError checks if an error is a network error (including timeout, connection refused, DNS)
func IsNetworkError(err error) bool {
	return isType(err, ErrTypeNetwork, ErrTypeTimeout, ErrTypeConnectionRefused, ErrTypeDNS)
}

// IsHTTPError checks if an error is an HTTP error
func IsHTTPError(err error) bool {
	return isType(err, ErrTypeHTTP)
}

// IsValidationError reports whether err was raised before any I/O
func IsValidationError(err error) bool {
	return isType(err, ErrTypeLengthMismatch, ErrTypeButtonRange, ErrTypeNotConnected)
}

// TroubleshootingHint returns user-facing advice for an error
func TroubleshootingHint(err error) []string {
	var devErr *DeviceError
	if !errors.As(err, &devErr) {
		return nil
	}

	switch devErr.Type {
	case ErrTypeLengthMismatch:
		return []string{"Give exactly one value for every id."}
	case ErrTypeButtonRange:
		return []string{fmt.Sprintf("Buttons are numbered %d to %d.", MinButton, MaxButton)}
	case ErrTypeNotConnected:
		return []string{
			"The push connection is not open.",
			"If the device was just rebooted or reset, create a new client.",
			"Check that the device is powered and reachable on the network.",
		}
	case ErrTypeTimeout, ErrTypeConnectionRefused, ErrTypeNetwork:
		return []string{
			"Check that the device is powered on.",
			"Verify the address and that you are on the same network.",
			"After a network reset the device leaves your network entirely.",
		}
	case ErrTypeDNS:
		return []string{"Use the device IP address instead of a hostname."}
	case ErrTypeHTTP:
		return []string{fmt.Sprintf("The device answered HTTP %d; check the command arguments.", devErr.StatusCode)}
	case ErrTypeWebSocket:
		return []string{"The device closed the push connection; reconnect with a new client."}
	}
	return nil
}

// ShortErrorMessage returns a concise message for display
func ShortErrorMessage(err error) string {
	var devErr *DeviceError
	if errors.As(err, &devErr) {
		return strings.TrimSpace(devErr.Type.String() + ": " + devErr.Message)
	}
	return err.Error()
}
